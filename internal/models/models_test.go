package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"chat", ModeChat, false},
		{"Generate", ModeGenerate, false},
		{"  chat ", ModeChat, false},
		{"agent", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMode_Endpoint(t *testing.T) {
	assert.Equal(t, "chat", ModeChat.Endpoint())
	assert.Equal(t, "generate", ModeGenerate.Endpoint())
	assert.False(t, Mode(7).Valid())
}
