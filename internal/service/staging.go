package service

import "sync"

// StagingArea is an ordered, session-local list of records waiting to be
// written. Nothing staged is visible outside the owning session.
type StagingArea[T any] struct {
	mu    sync.Mutex
	items []T
}

// Stage appends items in order and returns the new length.
func (s *StagingArea[T]) Stage(items ...T) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return len(s.items)
}

// List returns a copy of the staged items in staging order.
func (s *StagingArea[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// Len returns the number of staged items.
func (s *StagingArea[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear drops every staged item and returns how many were removed.
func (s *StagingArea[T]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.items = nil
	return n
}

// Commit passes the staged items to write and clears the area only when
// write succeeds. On error the staged items are left exactly as they were.
// The area stays locked while write runs.
func (s *StagingArea[T]) Commit(write func(items []T) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := append([]T(nil), s.items...)
	if err := write(batch); err != nil {
		return 0, err
	}
	s.items = nil
	return len(batch), nil
}
