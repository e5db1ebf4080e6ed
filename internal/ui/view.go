package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"ollamahub/internal/models"
	"ollamahub/internal/styles"
)

const shortcutsMarkdown = `
| Key | Action |
|-----|--------|
| Enter | Send message |
| Shift+Enter | New line |
| Ctrl+A | Toggle chat / generate mode |
| Ctrl+T | Toggle streaming |
| Ctrl+B | Select model |
| Ctrl+K | Edit API key |
| Tab | Next field |
| Ctrl+O | Check service health |
| Ctrl+N | Clear conversation |
| Ctrl+S | Shortcuts (this menu) |
| Ctrl+C | Quit |

Typing ` + "`/chat`, `/generate` or `/clear`" + ` also works.
`

func (m *Model) UpdateModelSelectorContent() {
	list := m.modelList()
	if len(list) == 0 {
		m.ModelViewport.SetContent(styles.ModalItemStyle.Render(
			lipgloss.NewStyle().Foreground(styles.HintColor).Render("No models reported")))
		return
	}

	items := make([]string, 0, len(list))
	for i, mdl := range list {
		isSelected := i == m.SelectedModelIndex
		isCurrent := m.CurrentModel == mdl.ID

		displayName := "  " + mdl.Name
		if isCurrent {
			displayName = "● " + mdl.Name
		}
		if mdl.Size > 0 {
			displayName = fmt.Sprintf("%s  %s", displayName, humanize.IBytes(uint64(mdl.Size)))
		}
		displayName = TruncateRunes(displayName, styles.ContentWidth-2)

		var styledItem string
		if isSelected {
			styledItem = styles.ModalSelectedStyle.Copy().
				Width(styles.ContentWidth).
				Render(displayName)
		} else {
			style := styles.ModalItemStyle.Copy().Width(styles.ContentWidth)
			if isCurrent {
				style = style.Foreground(styles.CurrentTheme.Secondary)
			} else {
				style = style.Foreground(lipgloss.AdaptiveColor{Light: "#1a1a2e", Dark: "#FFFFFF"})
			}
			styledItem = style.Render(displayName)
		}
		items = append(items, styledItem)
	}

	m.ModelViewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (m *Model) RenderModelSelector() string {
	title := styles.ModalTitleStyle.Render("Select Model")

	parts := []string{title}
	if m.ModelsErr != nil {
		parts = append(parts, lipgloss.NewStyle().Width(styles.ContentWidth).Render(FormatError(m.ModelsErr.Error())))
	}
	parts = append(parts, m.ModelViewport.View())

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Enter: select • Esc: close")

	return lipgloss.JoinVertical(lipgloss.Left, append(parts, hint)...)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	body := shortcutsMarkdown
	if m.Renderer != nil {
		if out, err := m.Renderer.Render(shortcutsMarkdown); err == nil {
			body = strings.TrimSpace(out)
		}
	}

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, title, body, hint)
}

// RenderFields draws the system prompt row (generate mode only) and the
// API key row above the input box.
func (m *Model) RenderFields() string {
	label := func(f Field, text string) string {
		if m.Focus == f {
			return styles.FocusedFieldLabelStyle.Render(text)
		}
		return styles.FieldLabelStyle.Render(text)
	}

	var rows []string
	if m.Mode() == models.ModeGenerate {
		rows = append(rows, label(FieldSystemPrompt, "system")+" "+m.SystemInput.View())
	}
	rows = append(rows, label(FieldAPIKey, "api key")+" "+m.APIKeyInput.View())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) RenderBottomBar() string {
	mode := m.Mode()
	badge := styles.ModeBadge(strings.ToUpper(mode.String()), mode == models.ModeGenerate)

	model := lipgloss.NewStyle().
		Foreground(styles.CurrentTheme.Primary).
		Render(TruncateRunes(m.CurrentModel, 25))

	streamText := "stream off"
	if m.Stream {
		streamText = "stream on"
	}
	stream := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(streamText)

	host := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render(TruncateRunes(m.Client.BaseURL(), 30))

	var health string
	switch {
	case m.HealthErr != nil:
		health = styles.UnhealthyStyle.Render("● unreachable")
	case m.Health == nil:
	case m.Health.Healthy:
		text := "● healthy"
		if m.Health.APIVersion != "" {
			text += " v" + m.Health.APIVersion
		}
		health = styles.HealthyStyle.Render(text)
	default:
		health = styles.UnhealthyStyle.Render(TruncateRunes("● "+m.Health.Message, 30))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, badge, "  ", model, "  ", stream)
	rightParts := []string{host}
	if health != "" {
		rightParts = append(rightParts, "  ", health)
	}
	rightParts = append(rightParts, "  ", help)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, rightParts...)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.CurrentTheme.Border).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int, mode models.Mode) string {
	art := `
 ╭──────────────────────────────────────╮
 │                                      │
 │    ┏━┓╻  ╻  ┏━┓┏┳┓┏━┓╻ ╻╻ ╻┏┓        │
 │    ┃ ┃┃  ┃  ┣━┫┃┃┃┣━┫┣━┫┃ ┃┣┻┓       │
 │    ┗━┛┗━╸┗━╸╹ ╹╹ ╹╹ ╹╹ ╹┗━┛┗━┛       │
 │                                      │
 ╰──────────────────────────────────────╯
`
	subtitle := "chat keeps the conversation, generate answers one prompt at a time"
	if mode == models.ModeGenerate {
		subtitle = "generate mode: every prompt stands alone"
	}

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// TranscriptView renders every entry for the viewport.
func (m *Model) TranscriptView() string {
	width := m.Viewport.Width
	parts := make([]string, 0, len(m.Entries))
	for i, e := range m.Entries {
		switch e.Kind {
		case EntryUser:
			parts = append(parts, FormatUserMessage(e.Text, width, i == 0))
		case EntryAssistant:
			if e.Streaming && e.Text == "" {
				parts = append(parts, styles.AssistantLabelStyle.Render(strings.ToUpper(m.Mode().String()))+
					"\n"+m.Spinner.View()+" Generating...")
				continue
			}
			msg := m.FormatAssistantMessage(e.Text, width)
			if e.Streaming {
				msg += "\n" + m.Spinner.View()
			}
			parts = append(parts, msg)
		case EntryError:
			parts = append(parts, FormatError(e.Text))
		case EntryNotice:
			parts = append(parts, styles.NoticeStyle.Render(e.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) UpdateViewport() {
	if len(m.Entries) == 0 && !m.Loading {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height, m.Mode()))
		return
	}
	m.Viewport.SetContent(m.TranscriptView())
	m.Viewport.GotoBottom()
}

func (m *Model) View() string {
	inputWidth := m.WindowWidth - 4
	inputBox := styles.InputBoxStyle.Width(inputWidth).Render(m.TextInput.View())

	inputSection := lipgloss.JoinVertical(lipgloss.Left, m.RenderFields(), inputBox)

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("OLLAMAHUB"),
		"",
		m.Viewport.View(),
		"",
		inputSection,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	content := lipgloss.JoinVertical(lipgloss.Left, chatArea, m.RenderBottomBar())

	var modal string
	switch {
	case m.ModelSelectorOpen:
		modal = m.RenderModelSelector()
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	default:
		return content
	}

	modal = styles.ModalStyle.Width(ModalWidth).Render(modal)
	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}
