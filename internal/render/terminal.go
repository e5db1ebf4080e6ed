package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"ollamahub/internal/styles"
)

// TerminalOptions controls how a Tree is drawn.
type TerminalOptions struct {
	Width int
	// Markdown, when set, renders text blocks as markdown. Thinking blocks
	// are always plain.
	Markdown *glamour.TermRenderer
}

// Terminal draws a Tree for the transcript viewport.
func Terminal(t Tree, opts TerminalOptions) string {
	width := opts.Width
	if width < 20 {
		width = 20
	}

	parts := make([]string, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		switch b.Kind {
		case KindThink:
			parts = append(parts, thinkBlock(b, width))
		default:
			parts = append(parts, textBlock(b.Text, width, opts.Markdown))
		}
	}
	return strings.Join(parts, "\n")
}

func thinkBlock(b Block, width int) string {
	label := "thinking"
	if b.Open {
		label = "thinking…"
	}
	body := strings.Trim(b.Text, "\n")
	if body == "" {
		body = " "
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ThinkLabelStyle.Render(label),
		styles.ThinkBlockStyle.Width(width-2).Render(body),
	)
}

func textBlock(text string, width int, md *glamour.TermRenderer) string {
	text = strings.Trim(text, "\n")
	if md != nil {
		if out, err := md.Render(text); err == nil {
			return strings.TrimSpace(out)
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
