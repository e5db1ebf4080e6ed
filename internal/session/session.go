// Package session owns the state of one client session: the active mode and
// the conversation history. It runs one exchange at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ollamahub/internal/history"
	"ollamahub/internal/hub"
	"ollamahub/internal/models"
	"ollamahub/internal/stream"
)

var (
	// ErrEmptyInput is returned for blank input. No request is made.
	ErrEmptyInput = hub.ErrEmptyInput
	// ErrBusy is returned when an exchange is already in flight.
	ErrBusy = errors.New("an exchange is already in progress")
	// ErrSuperseded is returned when the mode changed while the exchange
	// was running. Its reply is discarded.
	ErrSuperseded = errors.New("exchange superseded by mode switch")
)

// Doer sends a payload and returns the open response.
type Doer interface {
	Do(ctx context.Context, p hub.Payload) (*http.Response, error)
}

// Phase is the state of an exchange.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options are the per-message settings taken from the UI.
type Options struct {
	Model        string
	Stream       bool
	SystemPrompt string
	Sampling     hub.Sampling
}

// Update is delivered to the caller while an exchange streams.
type Update struct {
	ID    string
	Phase Phase
	Text  string
}

// Result describes a finished exchange.
type Result struct {
	ID        string
	Mode      models.Mode
	Phase     Phase
	Text      string
	Streamed  bool
	Malformed int
}

// Session is safe for concurrent use. Send may run on a background
// goroutine while SwitchMode is called from the UI.
type Session struct {
	client  Doer
	history history.Store
	logger  *log.Logger

	mu     sync.Mutex
	mode   models.Mode
	epoch  uint64
	active string
	cancel context.CancelFunc
}

// New creates a session in the given mode. A nil logger uses log.Default.
func New(client Doer, store history.Store, mode models.Mode, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if !mode.Valid() {
		mode = models.ModeChat
	}
	return &Session{
		client:  client,
		history: store,
		logger:  logger,
		mode:    mode,
	}
}

func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != ""
}

// History returns a snapshot of the conversation.
func (s *Session) History(ctx context.Context) ([]models.ChatTurn, error) {
	return s.history.Snapshot(ctx)
}

// SwitchMode activates mode and clears the history unconditionally, even
// when mode is already active. An in-flight exchange is cancelled and its
// reply dropped.
func (s *Session) SwitchMode(ctx context.Context, mode models.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("switch mode: invalid mode %s", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.mode
	s.mode = mode
	s.epoch++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.active = ""
	}
	if err := s.history.Reset(ctx); err != nil {
		return fmt.Errorf("switch mode: reset history: %w", err)
	}
	s.logger.Printf("mode %s -> %s, history cleared", prev, mode)
	return nil
}

// Send runs one exchange. In chat mode the user turn is appended before the
// request is built and stays in the history if the exchange fails; the
// assistant turn is appended once the reply is complete. onUpdate, if not
// nil, is called with the accumulated text after every streamed fragment.
func (s *Session) Send(ctx context.Context, text string, opts Options, onUpdate func(Update)) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Phase: PhaseIdle}, ErrEmptyInput
	}

	id := uuid.New().String()

	s.mu.Lock()
	if s.active != "" {
		s.mu.Unlock()
		return Result{ID: id, Phase: PhaseIdle}, ErrBusy
	}
	mode := s.mode
	epoch := s.epoch
	ctx, cancel := context.WithCancel(ctx)
	s.active = id
	s.cancel = cancel

	var turns []models.ChatTurn
	if mode == models.ModeChat {
		err := s.history.Append(ctx, models.UserTurn(text))
		if err == nil {
			turns, err = s.history.Snapshot(ctx)
		}
		if err != nil {
			s.release(id)
			s.mu.Unlock()
			cancel()
			return Result{ID: id, Mode: mode, Phase: PhaseFailed}, fmt.Errorf("history: %w", err)
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.release(id)
		s.mu.Unlock()
		cancel()
	}()

	res := Result{ID: id, Mode: mode, Streamed: opts.Stream}
	fail := func(err error) (Result, error) {
		if s.superseded(epoch) {
			res.Phase = PhaseIdle
			return res, ErrSuperseded
		}
		res.Phase = PhaseFailed
		s.logger.Printf("[%s] %s exchange failed: %v", id, mode, err)
		return res, err
	}

	payload, err := hub.BuildRequest(mode, text, hub.UIState{
		Model:        opts.Model,
		Stream:       opts.Stream,
		SystemPrompt: opts.SystemPrompt,
		Sampling:     opts.Sampling,
	}, turns)
	if err != nil {
		return fail(err)
	}

	resp, err := s.client.Do(ctx, payload)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if opts.Stream {
		if onUpdate != nil {
			onUpdate(Update{ID: id, Phase: PhaseStreaming})
		}
		acc, stats, err := stream.Read(ctx, resp.Body, mode, stream.Options{
			OnUpdate: func(acc string) {
				if onUpdate != nil {
					onUpdate(Update{ID: id, Phase: PhaseStreaming, Text: acc})
				}
			},
			OnMalformed: func(line []byte, err error) {
				s.logger.Printf("[%s] skipped malformed line (%v): %.200q", id, err, line)
			},
		})
		res.Malformed = stats.Malformed
		if err != nil {
			return fail(&hub.Error{Kind: hub.KindTransport, Message: "stream interrupted", Cause: err})
		}
		res.Text = acc
	} else {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fail(&hub.Error{Kind: hub.KindTransport, Message: "read response", Cause: err})
		}
		content, err := stream.DecodeBody(body, mode)
		if err != nil {
			return fail(&hub.Error{Kind: hub.KindInvalidResponse, Message: "read response", Cause: err})
		}
		res.Text = content
	}

	if err := s.commit(ctx, epoch, mode, res.Text); err != nil {
		return fail(err)
	}
	res.Phase = PhaseDone
	return res, nil
}

// commit appends the assistant turn unless the mode changed meanwhile.
func (s *Session) commit(ctx context.Context, epoch uint64, mode models.Mode, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrSuperseded
	}
	if mode != models.ModeChat {
		return nil
	}
	if err := s.history.Append(ctx, models.AssistantTurn(text)); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

func (s *Session) superseded(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch != epoch
}

// release clears the active exchange if it is still id. Caller holds mu.
func (s *Session) release(id string) {
	if s.active == id {
		s.active = ""
		s.cancel = nil
	}
}
