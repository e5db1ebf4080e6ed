// Package stream decodes the service's newline-delimited JSON responses into
// text fragments and accumulates them into the assistant message.
package stream

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"

	"ollamahub/internal/models"
)

// Sentinel markers around a model's reasoning.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

var errNotObject = errors.New("line is not a JSON object")

// Fragment is the text extracted from one stream line.
type Fragment struct {
	Text string
}

// MalformedFunc observes lines that could not be parsed.
type MalformedFunc func(line []byte, err error)

// Decoder splits a byte stream into lines and extracts the content field
// of the response shape for its mode. Bytes after the last newline are
// held until the next Write or Flush, so a line split across chunks is
// parsed once, whole.
type Decoder struct {
	path        string
	buf         []byte
	malformed   int
	onMalformed MalformedFunc
}

func NewDecoder(mode models.Mode) *Decoder {
	return &Decoder{path: contentPath(mode)}
}

// contentPath is the gjson path of the text field for the mode's shape.
func contentPath(mode models.Mode) string {
	if mode == models.ModeGenerate {
		return "response"
	}
	return "message.content"
}

// OnMalformed installs a callback for skipped lines.
func (d *Decoder) OnMalformed(fn MalformedFunc) {
	d.onMalformed = fn
}

// Malformed returns the number of lines skipped so far.
func (d *Decoder) Malformed() int {
	return d.malformed
}

// Buffered returns the length of the pending partial line.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Write consumes a chunk and returns the fragments of every line it completes.
func (d *Decoder) Write(chunk []byte) []Fragment {
	d.buf = append(d.buf, chunk...)

	var out []Fragment
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		if f, ok := d.line(d.buf[:i]); ok {
			out = append(out, f)
		}
		d.buf = d.buf[i+1:]
	}

	// Reclaim the consumed prefix once nothing is pending.
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out
}

// Flush parses any trailing line that had no newline. Call it once at end of stream.
func (d *Decoder) Flush() []Fragment {
	rest := d.buf
	d.buf = nil
	if f, ok := d.line(rest); ok {
		return []Fragment{f}
	}
	return nil
}

func (d *Decoder) line(raw []byte) (Fragment, bool) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return Fragment{}, false
	}

	if !gjson.ValidBytes(line) {
		d.skip(line, errors.New("invalid JSON"))
		return Fragment{}, false
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		d.skip(line, errNotObject)
		return Fragment{}, false
	}

	v := doc.Get(d.path)
	if v.Type != gjson.String || v.Str == "" {
		return Fragment{}, false
	}
	return Fragment{Text: v.Str}, true
}

func (d *Decoder) skip(line []byte, err error) {
	d.malformed++
	if d.onMalformed != nil {
		d.onMalformed(line, err)
	}
}

// Normalize isolates a fragment that is exactly a sentinel marker on its own
// line. Any other text is returned unchanged.
func Normalize(text string) string {
	switch text {
	case ThinkOpen:
		return "\n" + ThinkOpen + "\n"
	case ThinkClose:
		return "\n" + ThinkClose + "\n"
	default:
		return text
	}
}
