package models

import (
	"fmt"
	"strings"
)

// Mode selects which service endpoint a message goes to and whether
// the conversation keeps history.
type Mode int

const (
	ModeChat     Mode = iota // Multi-turn conversation, history is sent with every request
	ModeGenerate             // Single-turn generation, stateless
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func (m Mode) String() string {
	switch m {
	case ModeChat:
		return "chat"
	case ModeGenerate:
		return "generate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Endpoint returns the service path for the mode, relative to the base URL.
func (m Mode) Endpoint() string {
	return m.String()
}

func (m Mode) Valid() bool {
	return m == ModeChat || m == ModeGenerate
}

// ParseMode accepts "chat" or "generate", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat":
		return ModeChat, nil
	case "generate":
		return ModeGenerate, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want chat or generate)", s)
	}
}

// ChatTurn is one entry of the conversation history. Turns are never
// modified after they are appended.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAssistant, Content: content}
}

// AIModel describes a model the service advertises.
type AIModel struct {
	ID   string
	Name string
	Size int64
}

// HealthStatus is the condensed result of GET /health.
type HealthStatus struct {
	Healthy       bool
	Message       string
	APIVersion    string
	DefaultModel  string
	OllamaService string
}
