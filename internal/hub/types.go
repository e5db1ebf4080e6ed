// Package hub talks to the OllamaHub HTTP service: POST /chat, POST /generate,
// GET /models and GET /health.
package hub

import (
	"ollamahub/internal/models"
)

// Default sampling values sent with every request.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultTopK        = 40
)

// Sampling holds the sampling parameters of a request.
type Sampling struct {
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	TopK        int     `toml:"top_k"`
}

func DefaultSampling() Sampling {
	return Sampling{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Model       string            `json:"model"`
	Messages    []models.ChatTurn `json:"messages"`
	Stream      bool              `json:"stream"`
	Temperature float64           `json:"temperature"`
	TopP        float64           `json:"top_p"`
	TopK        int               `json:"top_k"`
}

// GenerateMessage carries the prompt of a generate request. System is
// encoded as null when absent.
type GenerateMessage struct {
	Prompt string  `json:"prompt"`
	System *string `json:"system"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Model       string          `json:"model"`
	Message     GenerateMessage `json:"message"`
	Stream      bool            `json:"stream"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p"`
	TopK        int             `json:"top_k"`
}

// Payload is exactly one of the two request shapes, tagged by Mode.
type Payload struct {
	Mode     models.Mode
	Chat     *ChatRequest
	Generate *GenerateRequest
}

// Body returns the value to encode as the request body.
func (p Payload) Body() any {
	if p.Mode == models.ModeGenerate {
		return p.Generate
	}
	return p.Chat
}

func (p Payload) valid() bool {
	switch p.Mode {
	case models.ModeChat:
		return p.Chat != nil
	case models.ModeGenerate:
		return p.Generate != nil
	default:
		return false
	}
}

func (p Payload) Stream() bool {
	if p.Mode == models.ModeGenerate {
		return p.Generate != nil && p.Generate.Stream
	}
	return p.Chat != nil && p.Chat.Stream
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
		Size  int64  `json:"size"`
	} `json:"models"`
	DefaultModel    string   `json:"default_model"`
	AvailableModels []string `json:"available_models"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	APIVersion    string `json:"api_version"`
	DefaultModel  string `json:"default_model"`
	OllamaService struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"ollama_service"`
}
