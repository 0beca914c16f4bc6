package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = sql.ErrNoRows

// LastResult is the most recent transform a chat ran through one lens.
type LastResult struct {
	Lens        string
	Input       string
	Transformed string
	CreatedAt   time.Time
}

// ChatState is UI state owned by a conversational client: the selected lens
// and the last result per lens. The transform pipeline never touches it.
type ChatState interface {
	SelectedLens(ctx context.Context, chatID int64) (string, error)
	SetSelectedLens(ctx context.Context, chatID int64, lensID string) error
	// LastInput is the most recent text the chat submitted, kept even when the
	// transform failed so the user can retry it.
	LastInput(ctx context.Context, chatID int64) (string, error)
	SetLastInput(ctx context.Context, chatID int64, text string) error
	SaveResult(ctx context.Context, chatID int64, r LastResult) error
	LastResult(ctx context.Context, chatID int64, lensID string) (LastResult, error)
	Ping(ctx context.Context) error
}

type resultKey struct {
	chatID int64
	lens   string
}

// Memory keeps chat state in process memory.
type Memory struct {
	lens    sync.Map // chatID -> string
	input   sync.Map // chatID -> string
	results sync.Map // resultKey -> LastResult
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) SelectedLens(_ context.Context, chatID int64) (string, error) {
	if v, ok := m.lens.Load(chatID); ok {
		return v.(string), nil
	}
	return "", ErrNotFound
}

func (m *Memory) SetSelectedLens(_ context.Context, chatID int64, lensID string) error {
	m.lens.Store(chatID, lensID)
	return nil
}

func (m *Memory) LastInput(_ context.Context, chatID int64) (string, error) {
	if v, ok := m.input.Load(chatID); ok {
		return v.(string), nil
	}
	return "", ErrNotFound
}

func (m *Memory) SetLastInput(_ context.Context, chatID int64, text string) error {
	m.input.Store(chatID, text)
	return nil
}

func (m *Memory) SaveResult(_ context.Context, chatID int64, r LastResult) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.results.Store(resultKey{chatID, r.Lens}, r)
	return nil
}

func (m *Memory) LastResult(_ context.Context, chatID int64, lensID string) (LastResult, error) {
	if v, ok := m.results.Load(resultKey{chatID, lensID}); ok {
		return v.(LastResult), nil
	}
	return LastResult{}, ErrNotFound
}

func (m *Memory) Ping(context.Context) error { return nil }

// IsNotFound reports whether err means "no state stored yet".
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
