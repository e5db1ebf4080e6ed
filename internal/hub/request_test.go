package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollamahub/internal/models"
)

func TestBuildRequest_Chat(t *testing.T) {
	history := []models.ChatTurn{
		models.UserTurn("Hi"),
		models.AssistantTurn("Hello!"),
		models.UserTurn("How are you?"),
	}
	ui := UIState{Model: "deepseek-r1:14b", Stream: true, Sampling: DefaultSampling()}

	p, err := BuildRequest(models.ModeChat, "How are you?", ui, history)
	require.NoError(t, err)
	require.NotNil(t, p.Chat)
	assert.Nil(t, p.Generate)
	assert.True(t, p.Stream())

	data, err := json.Marshal(p.Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "deepseek-r1:14b",
		"messages": [
			{"role": "user", "content": "Hi"},
			{"role": "assistant", "content": "Hello!"},
			{"role": "user", "content": "How are you?"}
		],
		"stream": true,
		"temperature": 0.7,
		"top_p": 0.9,
		"top_k": 40
	}`, string(data))

	// The payload owns its copy of the history.
	history[0].Content = "changed"
	assert.Equal(t, "Hi", p.Chat.Messages[0].Content)
}

func TestBuildRequest_GenerateNullSystem(t *testing.T) {
	ui := UIState{Model: "m", Stream: false, Sampling: DefaultSampling()}

	p, err := BuildRequest(models.ModeGenerate, "Write a haiku", ui, []models.ChatTurn{models.UserTurn("ignored")})
	require.NoError(t, err)
	require.NotNil(t, p.Generate)
	assert.Nil(t, p.Chat)
	assert.False(t, p.Stream())

	data, err := json.Marshal(p.Body())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model": "m",
		"message": {"prompt": "Write a haiku", "system": null},
		"stream": false,
		"temperature": 0.7,
		"top_p": 0.9,
		"top_k": 40
	}`, string(data))
}

func TestBuildRequest_GenerateWithSystem(t *testing.T) {
	ui := UIState{Model: "m", SystemPrompt: "Be brief.", Sampling: DefaultSampling()}

	p, err := BuildRequest(models.ModeGenerate, "Explain DNS", ui, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Generate.Message.System)
	assert.Equal(t, "Be brief.", *p.Generate.Message.System)
}

func TestBuildRequest_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := BuildRequest(models.ModeChat, in, UIState{}, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestBuildRequest_InvalidMode(t *testing.T) {
	_, err := BuildRequest(models.Mode(9), "hi", UIState{}, nil)
	assert.Error(t, err)
}
