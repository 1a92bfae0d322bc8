// Package memory provides an in-memory leave.Store for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"leavegate/internal/domain/leave"
)

type Store struct {
	mu       sync.RWMutex
	order    []string
	requests map[string]leave.Request
}

func New() *Store {
	return &Store{requests: make(map[string]leave.Request)}
}

// LoadAll returns every record in append order.
func (s *Store) LoadAll(_ context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]leave.Request, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.requests[id]))
	}
	return out, nil
}

func (s *Store) Append(_ context.Context, req leave.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = uuid.NewString()
	s.order = append(s.order, req.ID)
	s.requests[req.ID] = clone(req)
	return req.ID, nil
}

// Update applies mutate under the store lock; a mutator error leaves the
// record untouched.
func (s *Store) Update(_ context.Context, id string, mutate func(*leave.Request) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[id]
	if !ok {
		return leave.ErrNotFound
	}
	working := clone(current)
	if err := mutate(&working); err != nil {
		return err
	}
	working.ID = id
	s.requests[id] = working
	return nil
}

func clone(req leave.Request) leave.Request {
	if req.QRCodeData != nil {
		payload := *req.QRCodeData
		req.QRCodeData = &payload
	}
	return req
}
