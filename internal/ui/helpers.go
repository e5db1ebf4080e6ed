package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"ollamahub/internal/models"
	"ollamahub/internal/render"
	"ollamahub/internal/styles"
)

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

// TruncateRunes cuts s to max display columns, ending in an ellipsis.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, max, "…")
}

// modelList is what the selector shows: the service's list, or the
// configured model alone until the list arrives.
func (m *Model) modelList() []models.AIModel {
	if len(m.Models) > 0 {
		return m.Models
	}
	if m.CurrentModel == "" {
		return nil
	}
	return []models.AIModel{{ID: m.CurrentModel, Name: m.CurrentModel}}
}

func (m *Model) currentModelIndex() int {
	for i, mdl := range m.modelList() {
		if mdl.ID == m.CurrentModel {
			return i
		}
	}
	return 0
}

func (m *Model) SyncModelViewportScroll() {
	y := m.SelectedModelIndex
	if y+1 > m.ModelViewport.YOffset+m.ModelViewport.Height {
		m.ModelViewport.SetYOffset(y + 1 - m.ModelViewport.Height)
	}
	if y < m.ModelViewport.YOffset {
		m.ModelViewport.SetYOffset(y)
	}
}

func FormatUserMessage(content string, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(render.Sanitize(content))
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, msg)
	}
	return fmt.Sprintf("%s\n%s", label, msg)
}

// FormatAssistantMessage renders untrusted assistant text. Only the think
// markers carry structure.
func (m *Model) FormatAssistantMessage(content string, width int) string {
	label := styles.AssistantLabelStyle.Render(strings.ToUpper(m.Mode().String()))
	opts := render.TerminalOptions{Width: width - 4}
	if m.Markdown {
		opts.Markdown = m.Renderer
	}
	body := render.Terminal(render.Render(content), opts)
	return fmt.Sprintf("%s\n%s", label, styles.AssistantMsgStyle.Render(body))
}

func FormatError(msg string) string {
	return styles.ErrorStyle.Render("Error: " + render.Sanitize(msg))
}
