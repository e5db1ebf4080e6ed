package hub

import (
	"errors"
	"fmt"
	"strings"

	"ollamahub/internal/models"
)

// ErrEmptyInput is returned for input that is blank after trimming.
var ErrEmptyInput = errors.New("empty input")

// UIState is the part of the client state that feeds a request.
type UIState struct {
	Model        string
	Stream       bool
	SystemPrompt string
	Sampling     Sampling
}

// BuildRequest composes the payload for one message. In chat mode history
// must already contain the user's turn; in generate mode it is ignored.
func BuildRequest(mode models.Mode, userText string, ui UIState, history []models.ChatTurn) (Payload, error) {
	if strings.TrimSpace(userText) == "" {
		return Payload{}, ErrEmptyInput
	}

	switch mode {
	case models.ModeChat:
		msgs := make([]models.ChatTurn, len(history))
		copy(msgs, history)
		return Payload{
			Mode: mode,
			Chat: &ChatRequest{
				Model:       ui.Model,
				Messages:    msgs,
				Stream:      ui.Stream,
				Temperature: ui.Sampling.Temperature,
				TopP:        ui.Sampling.TopP,
				TopK:        ui.Sampling.TopK,
			},
		}, nil

	case models.ModeGenerate:
		var system *string
		if ui.SystemPrompt != "" {
			s := ui.SystemPrompt
			system = &s
		}
		return Payload{
			Mode: mode,
			Generate: &GenerateRequest{
				Model:       ui.Model,
				Message:     GenerateMessage{Prompt: userText, System: system},
				Stream:      ui.Stream,
				Temperature: ui.Sampling.Temperature,
				TopP:        ui.Sampling.TopP,
				TopK:        ui.Sampling.TopK,
			},
		}, nil

	default:
		return Payload{}, fmt.Errorf("build request: invalid mode %s", mode)
	}
}
