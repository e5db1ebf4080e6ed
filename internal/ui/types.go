package ui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"ollamahub/internal/hub"
	"ollamahub/internal/models"
	"ollamahub/internal/session"
)

const (
	MaxChatWidth = 100
	maxInputRows = 6
)

var ModalWidth = 60

// Field is the widget that receives key input.
type Field int

const (
	FieldInput Field = iota
	FieldSystemPrompt
	FieldAPIKey
)

// EntryKind is the type of a transcript entry.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAssistant
	EntryError
	EntryNotice
)

// Entry is one item of the visible transcript.
type Entry struct {
	Kind EntryKind
	Text string
	// Streaming marks the assistant entry that is still receiving text.
	Streaming bool
}

// Every exchange message carries the sequence number of the exchange that
// produced it. Messages from an older sequence are dropped.
type (
	FragmentMsg struct {
		Seq  int
		Text string
	}

	ResponseMsg struct {
		Seq    int
		Result session.Result
	}

	ErrMsg struct {
		Seq int
		Err error
	}

	ModelsMsg struct {
		Models  []models.AIModel
		Default string
		Err     error
	}

	HealthMsg struct {
		Status models.HealthStatus
		Err    error
	}
)

// Backend is the part of hub.Client the UI uses outside of exchanges.
type Backend interface {
	BaseURL() string
	SetAPIKey(key string)
	Models(ctx context.Context) ([]models.AIModel, string, error)
	Health(ctx context.Context) (models.HealthStatus, error)
}

var _ Backend = (*hub.Client)(nil)

type Model struct {
	Viewport      viewport.Model
	ModelViewport viewport.Model
	TextInput     textarea.Model
	SystemInput   textinput.Model
	APIKeyInput   textinput.Model
	Spinner       spinner.Model
	Renderer      *glamour.TermRenderer

	Client  Backend
	Session *session.Session
	Logger  *log.Logger
	Program *tea.Program

	Entries []Entry
	Focus   Field
	Loading bool
	Seq     int

	CurrentModel string
	Stream       bool
	Sampling     hub.Sampling
	Markdown     bool

	Models             []models.AIModel
	ModelsErr          error
	SelectedModelIndex int
	ModelSelectorOpen  bool
	ShortcutsOpen      bool

	Health    *models.HealthStatus
	HealthErr error

	WindowWidth  int
	WindowHeight int

	ctx  context.Context
	stop context.CancelFunc
}
