// Package render turns an accumulated assistant message into display blocks.
//
// Assistant output is untrusted. The only structure recognized in it is a
// sentinel marker standing alone on its line; everything else, including
// escape sequences, is reduced to literal text.
package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"ollamahub/internal/stream"
)

const (
	openMarker  = "\n" + stream.ThinkOpen + "\n"
	closeMarker = "\n" + stream.ThinkClose + "\n"
)

// Kind is the type of a display block.
type Kind int

const (
	KindText Kind = iota
	KindThink
)

func (k Kind) String() string {
	if k == KindThink {
		return "think"
	}
	return "text"
}

// Block is one contiguous section of a message.
type Block struct {
	Kind Kind
	Text string
	// Open is set on a thinking block whose close marker has not arrived yet.
	Open bool
}

// Tree is the display structure of one message.
type Tree struct {
	Blocks []Block
}

// Thinking reports whether the message ends inside an unclosed thinking block.
func (t Tree) Thinking() bool {
	if len(t.Blocks) == 0 {
		return false
	}
	last := t.Blocks[len(t.Blocks)-1]
	return last.Kind == KindThink && last.Open
}

// Render splits text at isolated sentinel markers. A close marker with no
// matching open marker ends a thinking block that began at the previous
// block boundary, which is how reasoning models that omit the opening tag
// stream their output.
func Render(text string) Tree {
	var t Tree
	rest := text
	inThink := false
	// seen is set once any thinking block has started or ended. After
	// that a close marker without an open one is plain text.
	seen := false

	for rest != "" {
		if inThink {
			c := strings.Index(rest, closeMarker)
			if c < 0 {
				t.add(KindThink, rest, true)
				return t
			}
			t.add(KindThink, rest[:c], false)
			rest = rest[c+len(closeMarker):]
			inThink = false
			continue
		}

		o := strings.Index(rest, openMarker)
		c := -1
		if !seen {
			c = strings.Index(rest, closeMarker)
		}
		if c >= 0 && (o < 0 || c < o) {
			t.add(KindThink, rest[:c], false)
			rest = rest[c+len(closeMarker):]
			seen = true
			continue
		}
		if o < 0 {
			t.add(KindText, rest, false)
			return t
		}
		t.add(KindText, rest[:o], false)
		rest = rest[o+len(openMarker):]
		inThink = true
		seen = true
	}

	if inThink {
		t.add(KindThink, "", true)
	}
	return t
}

func (t *Tree) add(kind Kind, text string, open bool) {
	text = Sanitize(text)
	if kind == KindText && text == "" {
		return
	}
	t.Blocks = append(t.Blocks, Block{Kind: kind, Text: text, Open: open})
}

// Sanitize strips terminal escape sequences and control characters other
// than newline and tab.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
