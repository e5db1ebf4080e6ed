package hub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollamahub/internal/models"
)

func TestClient_DoChat(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-should-not-leak")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.Empty(t, r.Header.Get("Authorization"))

		var body ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "m", body.Model)
		assert.Len(t, body.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"pong"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	p, err := BuildRequest(models.ModeChat, "ping", UIState{Model: "m", Sampling: DefaultSampling()}, []models.ChatTurn{models.UserTurn("ping")})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), p)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":{"role":"assistant","content":"pong"}}`, string(data))
}

func TestClient_DoGenerateEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"ok"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	p, err := BuildRequest(models.ModeGenerate, "x", UIState{Model: "m"}, nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), p)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestClient_StatusErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"chat request failed: boom"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	p, err := BuildRequest(models.ModeChat, "x", UIState{Model: "m"}, []models.ChatTurn{models.UserTurn("x")})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), p)
	require.Error(t, err)

	var hubErr *Error
	require.True(t, errors.As(err, &hubErr))
	assert.Equal(t, KindStatus, hubErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, hubErr.StatusCode)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"invalid api key"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "bad"})
	p, err := BuildRequest(models.ModeGenerate, "x", UIState{Model: "m"}, nil)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), p)
	var hubErr *Error
	require.True(t, errors.As(err, &hubErr))
	assert.Equal(t, http.StatusUnauthorized, hubErr.StatusCode)
	assert.Contains(t, hubErr.Message, "invalid api key")

	c.SetAPIKey(" good ")
	assert.Equal(t, "good", c.APIKey())
	resp, err := c.Do(context.Background(), p)
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url})
	p, err := BuildRequest(models.ModeChat, "x", UIState{Model: "m"}, []models.ChatTurn{models.UserTurn("x")})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), p)
	var hubErr *Error
	require.True(t, errors.As(err, &hubErr))
	assert.Equal(t, KindTransport, hubErr.Kind)
}

func TestClient_DoRejectsEmptyPayload(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Do(context.Background(), Payload{Mode: models.ModeChat})
	assert.Error(t, err)
}

func TestClient_Models(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"models": [{"name": "deepseek-r1:14b", "size": 9000}, {"name": "llama3:8b", "size": 4000}],
			"default_model": "deepseek-r1:14b",
			"available_models": ["deepseek-r1:14b"]
		}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	list, def, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deepseek-r1:14b", def)
	assert.Equal(t, []models.AIModel{{ID: "deepseek-r1:14b", Name: "deepseek-r1:14b", Size: 9000}}, list)
}

func TestClient_ModelsFallsBackToInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"models": [{"name": "a"}, {"name": "b"}], "default_model": ""}`)
	}))
	defer srv.Close()

	list, _, err := NewClient(Config{BaseURL: srv.URL}).Models(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[1].ID)
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantHealthy bool
		wantMsg     string
	}{
		{
			name:        "healthy",
			body:        `{"status":"healthy","ollama_service":{"status":"healthy","message":"running"},"api_version":"/api/v1","default_model":"m"}`,
			wantHealthy: true,
			wantMsg:     "running",
		},
		{
			name:    "unhealthy",
			body:    `{"status":"unhealthy","error":"connection refused","message":"ollama unreachable"}`,
			wantMsg: "ollama unreachable (connection refused)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			st, err := NewClient(Config{BaseURL: srv.URL}).Health(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.wantHealthy, st.Healthy)
			assert.Equal(t, tc.wantMsg, st.Message)
		})
	}
}

func TestClient_HealthInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Health(context.Background())
	var hubErr *Error
	require.True(t, errors.As(err, &hubErr))
	assert.Equal(t, KindInvalidResponse, hubErr.Kind)
}

func TestClient_StatusErrorDetail(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"detail", "application/json", `{"detail":"聊天请求失败: ollama down"}`, "POST /chat: 500 Internal Server Error: 聊天请求失败: ollama down"},
		{"message", "application/json", `{"status":"unhealthy","message":"ollama unreachable"}`, "POST /chat: 500 Internal Server Error: ollama unreachable"},
		{"plain text", "text/plain", "upstream exploded", "POST /chat: 500 Internal Server Error: upstream exploded"},
		{"no detail", "application/json", `{}`, "POST /chat: 500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL})
			p, err := BuildRequest(models.ModeChat, "x", UIState{Model: "m"}, []models.ChatTurn{models.UserTurn("x")})
			require.NoError(t, err)

			_, err = c.Do(context.Background(), p)
			var hubErr *Error
			require.True(t, errors.As(err, &hubErr))
			assert.Equal(t, tt.want, hubErr.Message)
		})
	}
}
