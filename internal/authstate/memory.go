package authstate

import (
	"context"
	"sync"
)

// Memory is the in-process store used in tests and single-instance deploys.
type Memory struct {
	mu     sync.Mutex
	states map[string]string
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string]string)}
}

func (m *Memory) Put(_ context.Context, state, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = userID
	return nil
}

func (m *Memory) Take(_ context.Context, state string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.states[state]
	if ok {
		delete(m.states, state)
	}
	return userID, ok, nil
}
