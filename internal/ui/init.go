package ui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ollamahub/internal/config"
	"ollamahub/internal/models"
	"ollamahub/internal/session"
	"ollamahub/internal/styles"
)

func InitialModel(cfg *config.Config, client Backend, sess *session.Session, logger *log.Logger) Model {
	if logger == nil {
		logger = log.Default()
	}

	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = maxInputRows
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.HintColor)
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	system := textinput.New()
	system.Placeholder = "optional system prompt"
	system.Prompt = ""
	system.SetValue(cfg.SystemPrompt)

	key := textinput.New()
	key.Placeholder = "API key"
	key.Prompt = ""
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.SetValue(cfg.APIKey)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary)

	ctx, stop := context.WithCancel(context.Background())

	return Model{
		Viewport:      viewport.New(60, 15),
		ModelViewport: viewport.New(ModalWidth-4, 15),
		TextInput:     ti,
		SystemInput:   system,
		APIKeyInput:   key,
		Spinner:       sp,
		Client:        client,
		Session:       sess,
		Logger:        logger,
		Entries:       []Entry{},
		Focus:         FieldInput,
		CurrentModel:  cfg.Model,
		Stream:        cfg.Stream,
		Sampling:      cfg.Sampling,
		Markdown:      cfg.UI.Markdown,
		ctx:           ctx,
		stop:          stop,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.TextInput.Cursor.BlinkCmd(),
		m.Spinner.Tick,
		m.fetchModelsCmd(),
	)
}

// Mode returns the session's active mode.
func (m *Model) Mode() models.Mode {
	return m.Session.Mode()
}

// NewProgram wires m to a full-screen program. Streaming fragments are
// delivered to the model through the returned program.
func NewProgram(m *Model) *tea.Program {
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.Program = p
	return p
}

// Close cancels any exchange still in flight.
func (m *Model) Close() {
	m.stop()
}
