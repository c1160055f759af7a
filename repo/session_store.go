package repo

import (
	"context"
	"sync"

	"CulturalDayBot/model"
)

// SessionStore keeps the in-progress registration of each chat.
// ReadSession returns model.ErrSessionDoesNotExist for unknown chats.
type SessionStore interface {
	ReadSession(ctx context.Context, chatID int64) (*model.UserState, error)
	SaveSession(ctx context.Context, state model.UserState) error
	DeleteSession(ctx context.Context, chatID int64) error
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*FirebaseConnector)(nil)
)

// MemorySessionStore lives as long as the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]model.UserState
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]model.UserState)}
}

func (m *MemorySessionStore) ReadSession(_ context.Context, chatID int64) (*model.UserState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[chatID]
	if !ok {
		return nil, model.ErrSessionDoesNotExist
	}
	state.Form = state.Form.Clone()
	if state.FailedForm != nil {
		failed := state.FailedForm.Clone()
		state.FailedForm = &failed
	}
	return &state, nil
}

func (m *MemorySessionStore) SaveSession(_ context.Context, state model.UserState) error {
	state.Form = state.Form.Clone()
	if state.FailedForm != nil {
		failed := state.FailedForm.Clone()
		state.FailedForm = &failed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ChatID] = state
	return nil
}

func (m *MemorySessionStore) DeleteSession(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}
