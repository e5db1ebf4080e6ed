package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"ollamahub/internal/models"
	"ollamahub/internal/session"
	"ollamahub/internal/styles"
)

const probeTimeout = 10 * time.Second

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Loading {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.KeyMsg:
		if m.ModelSelectorOpen {
			return m.updateModelSelector(msg)
		}

		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, m.quit()
			case "esc", "enter", "?", "ctrl+s":
				m.ShortcutsOpen = false
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			return m, m.quit()

		case tea.KeyEsc:
			if m.Focus != FieldInput {
				m.setFocus(FieldInput)
				return m, nil
			}
			return m, m.quit()

		case tea.KeyCtrlN:
			m.switchMode(m.Mode())
			return m, nil

		case tea.KeyCtrlA:
			next := models.ModeGenerate
			if m.Mode() == models.ModeGenerate {
				next = models.ModeChat
			}
			m.switchMode(next)
			return m, nil

		case tea.KeyCtrlT:
			m.Stream = !m.Stream
			return m, nil

		case tea.KeyCtrlK:
			m.setFocus(FieldAPIKey)
			return m, nil

		case tea.KeyTab:
			m.setFocus(m.nextField())
			return m, nil

		case tea.KeyCtrlB:
			m.ModelSelectorOpen = true
			m.ShortcutsOpen = false
			m.SelectedModelIndex = m.currentModelIndex()
			m.UpdateModelSelectorContent()
			m.SyncModelViewportScroll()
			return m, m.fetchModelsCmd()

		case tea.KeyCtrlO:
			return m, m.healthCmd()

		case tea.KeyCtrlS:
			m.ShortcutsOpen = true
			m.ModelSelectorOpen = false
			return m, nil
		}

		if m.Focus != FieldInput {
			return m.updateField(msg)
		}

		if isNewlineShortcut(msg) {
			m.TextInput.InsertString("\n")
			m.updateInputLayout()
			return m, nil
		}

		if msg.Type == tea.KeyEnter {
			if m.Loading {
				return m, nil
			}
			input := strings.TrimSpace(m.TextInput.Value())
			if input == "" {
				return m, nil
			}

			switch input {
			case "/chat":
				m.switchMode(models.ModeChat)
				return m, nil
			case "/generate":
				m.switchMode(models.ModeGenerate)
				return m, nil
			case "/clear", "/reset":
				m.switchMode(m.Mode())
				return m, nil
			}

			m.Seq++
			m.Entries = append(m.Entries,
				Entry{Kind: EntryUser, Text: input},
				Entry{Kind: EntryAssistant, Streaming: true},
			)
			m.TextInput.Reset()
			m.updateInputLayout()
			m.Loading = true
			m.UpdateViewport()

			return m, tea.Batch(m.SendMessage(input), m.Spinner.Tick)
		}

	case FragmentMsg:
		if msg.Seq != m.Seq || !m.Loading {
			return m, nil
		}
		if e := m.pending(); e != nil {
			e.Text = msg.Text
		}
		m.UpdateViewport()
		return m, nil

	case ResponseMsg:
		if msg.Seq != m.Seq {
			return m, nil
		}
		m.Loading = false
		if e := m.pending(); e != nil {
			e.Text = msg.Result.Text
			e.Streaming = false
		}
		m.UpdateViewport()
		return m, nil

	case ErrMsg:
		if msg.Seq != m.Seq {
			return m, nil
		}
		m.Loading = false
		// The error takes the place of the reply, partial text included.
		if e := m.pending(); e != nil {
			*e = Entry{Kind: EntryError, Text: msg.Err.Error()}
		}
		m.UpdateViewport()
		return m, nil

	case ModelsMsg:
		m.ModelsErr = msg.Err
		if msg.Err == nil {
			m.Models = msg.Models
			if m.CurrentModel == "" {
				m.CurrentModel = msg.Default
			}
		}
		m.SelectedModelIndex = m.currentModelIndex()
		m.UpdateModelSelectorContent()
		return m, nil

	case HealthMsg:
		m.HealthErr = msg.Err
		if msg.Err == nil {
			status := msg.Status
			m.Health = &status
		} else {
			m.Health = nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		ModalWidth = msg.Width - 10
		if ModalWidth > 60 {
			ModalWidth = 60
		}
		if ModalWidth < 30 {
			ModalWidth = 30
		}
		styles.ContentWidth = ModalWidth - 6

		m.ModelViewport.Width = styles.ContentWidth
		m.ModelViewport.Height = msg.Height - 15
		if m.ModelViewport.Height > 20 {
			m.ModelViewport.Height = 20
		}
		if m.ModelViewport.Height < 5 {
			m.ModelViewport.Height = 5
		}

		chatWidth := msg.Width - 2
		if chatWidth > MaxChatWidth {
			chatWidth = MaxChatWidth
		}
		m.Viewport.Width = chatWidth - 2
		m.SystemInput.Width = chatWidth - 14
		m.APIKeyInput.Width = chatWidth - 14

		m.updateInputLayout()
		glamourStyle := "dark"
		if !styles.IsDark() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.UpdateViewport()
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Terminal background color replies can leak into the input
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Model) updateModelSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.modelList()
	switch msg.String() {
	case "ctrl+c":
		return m, m.quit()
	case "esc", "ctrl+b":
		m.ModelSelectorOpen = false
	case "up", "k":
		m.SelectedModelIndex--
		if m.SelectedModelIndex < 0 {
			m.SelectedModelIndex = len(list) - 1
		}
		m.SyncModelViewportScroll()
		m.UpdateModelSelectorContent()
	case "down", "j":
		m.SelectedModelIndex++
		if m.SelectedModelIndex >= len(list) {
			m.SelectedModelIndex = 0
		}
		m.SyncModelViewportScroll()
		m.UpdateModelSelectorContent()
	case "enter":
		m.ModelSelectorOpen = false
		if m.SelectedModelIndex >= 0 && m.SelectedModelIndex < len(list) {
			if id := list[m.SelectedModelIndex].ID; id != m.CurrentModel {
				m.CurrentModel = id
				m.Entries = append(m.Entries, Entry{Kind: EntryNotice, Text: "model: " + id})
				m.UpdateViewport()
			}
		}
	}
	return m, nil
}

func (m *Model) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.Focus {
	case FieldAPIKey:
		if msg.Type == tea.KeyEnter {
			m.setFocus(FieldInput)
			return m, nil
		}
		m.APIKeyInput, cmd = m.APIKeyInput.Update(msg)
		m.Client.SetAPIKey(m.APIKeyInput.Value())
	case FieldSystemPrompt:
		if msg.Type == tea.KeyEnter {
			m.setFocus(FieldInput)
			return m, nil
		}
		m.SystemInput, cmd = m.SystemInput.Update(msg)
	}
	return m, cmd
}

// nextField cycles input -> system prompt (generate only) -> API key.
func (m *Model) nextField() Field {
	switch m.Focus {
	case FieldInput:
		if m.Mode() == models.ModeGenerate {
			return FieldSystemPrompt
		}
		return FieldAPIKey
	case FieldSystemPrompt:
		return FieldAPIKey
	default:
		return FieldInput
	}
}

func (m *Model) setFocus(f Field) {
	if f == FieldSystemPrompt && m.Mode() != models.ModeGenerate {
		f = FieldInput
	}
	m.Focus = f
	m.TextInput.Blur()
	m.SystemInput.Blur()
	m.APIKeyInput.Blur()
	switch f {
	case FieldSystemPrompt:
		m.SystemInput.Focus()
	case FieldAPIKey:
		m.APIKeyInput.Focus()
	default:
		m.TextInput.Focus()
	}
}

// switchMode activates mode and clears both the history and the transcript.
// Any exchange still running is superseded.
func (m *Model) switchMode(mode models.Mode) {
	if err := m.Session.SwitchMode(m.ctx, mode); err != nil {
		m.Logger.Printf("switch mode: %v", err)
		m.Entries = append(m.Entries, Entry{Kind: EntryError, Text: err.Error()})
		m.UpdateViewport()
		return
	}
	m.Seq++
	m.Loading = false
	m.Entries = []Entry{}
	if m.Focus == FieldSystemPrompt && mode != models.ModeGenerate {
		m.setFocus(FieldInput)
	}
	m.TextInput.Reset()
	m.updateInputLayout()
	m.Viewport.GotoTop()
	m.UpdateViewport()
}

// pending returns the assistant entry of the running exchange.
func (m *Model) pending() *Entry {
	if len(m.Entries) == 0 {
		return nil
	}
	e := &m.Entries[len(m.Entries)-1]
	if e.Kind != EntryAssistant || !e.Streaming {
		return nil
	}
	return e
}

func (m *Model) quit() tea.Cmd {
	m.stop()
	return tea.Quit
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) fieldRows() int {
	if m.Mode() == models.ModeGenerate {
		return 2
	}
	return 1
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > maxInputRows {
		lineCount = maxInputRows
	}

	m.TextInput.MaxHeight = maxInputRows
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	reserved := inputBoxHeight + 5 + m.fieldRows()
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}

// SendMessage runs one exchange off the UI goroutine. Streamed text is
// pushed through the program as FragmentMsg.
func (m *Model) SendMessage(input string) tea.Cmd {
	seq := m.Seq
	p := m.Program
	ctx := m.ctx
	sess := m.Session
	opts := session.Options{
		Model:    m.CurrentModel,
		Stream:   m.Stream,
		Sampling: m.Sampling,
	}
	if sess.Mode() == models.ModeGenerate {
		opts.SystemPrompt = m.SystemInput.Value()
	}

	return func() tea.Msg {
		res, err := sess.Send(ctx, input, opts, func(u session.Update) {
			if p != nil && u.Text != "" {
				p.Send(FragmentMsg{Seq: seq, Text: u.Text})
			}
		})
		if err != nil {
			if errors.Is(err, session.ErrSuperseded) || errors.Is(err, session.ErrEmptyInput) {
				return nil
			}
			return ErrMsg{Seq: seq, Err: err}
		}
		return ResponseMsg{Seq: seq, Result: res}
	}
}

func (m *Model) fetchModelsCmd() tea.Cmd {
	client := m.Client
	ctx := m.ctx
	logger := m.Logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		list, def, err := client.Models(ctx)
		if err != nil {
			logger.Printf("list models: %v", err)
			return ModelsMsg{Err: fmt.Errorf("list models: %w", err)}
		}
		return ModelsMsg{Models: list, Default: def}
	}
}

func (m *Model) healthCmd() tea.Cmd {
	client := m.Client
	ctx := m.ctx
	logger := m.Logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		status, err := client.Health(ctx)
		if err != nil {
			logger.Printf("health: %v", err)
		}
		return HealthMsg{Status: status, Err: err}
	}
}
