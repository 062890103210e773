package session

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Context
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Context)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Context, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	s.mu.RLock()
	stored, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return &Context{ID: id}, nil
	}
	return cloneContext(stored), nil
}

func (s *MemoryStore) Save(_ context.Context, sc *Context) error {
	if sc == nil || sc.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	s.sessions[sc.ID] = *cloneContext(*sc)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func cloneContext(sc Context) *Context {
	out := sc
	if sc.User != nil {
		user := *sc.User
		out.User = &user
	}
	return &out
}
