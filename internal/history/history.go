// Package history holds the ordered conversation turns of the active session.
package history

import (
	"context"
	"fmt"
	"sync"

	"ollamahub/internal/models"
)

// Store is an append-only, ordered sequence of chat turns that can be
// cleared as a whole.
type Store interface {
	Append(ctx context.Context, turn models.ChatTurn) error
	Reset(ctx context.Context) error
	Snapshot(ctx context.Context) ([]models.ChatTurn, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// Open returns the store for the named backend. An empty backend means memory.
func Open(backend, dsn string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

func validTurn(turn models.ChatTurn) error {
	if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
		return fmt.Errorf("invalid role %q", turn.Role)
	}
	return nil
}

// Memory keeps turns in a slice.
type Memory struct {
	mu    sync.Mutex
	turns []models.ChatTurn
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, turn models.ChatTurn) error {
	if err := validTurn(turn); err != nil {
		return err
	}
	m.mu.Lock()
	m.turns = append(m.turns, turn)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	m.turns = nil
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy; callers may keep it after further appends.
func (m *Memory) Snapshot(_ context.Context) ([]models.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ChatTurn, len(m.turns))
	copy(out, m.turns)
	return out, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns), nil
}

func (m *Memory) Close() error { return nil }
