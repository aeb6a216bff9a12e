package resource

import (
	"context"
	"sync"
)

// Deleter removes one entity by id.
type Deleter interface {
	Delete(ctx context.Context, id int64) error
}

// Delete removes id through d and, only on success, calls onDeleted with it.
// It never re-fetches; keeping any displayed list in step is the callback's
// job.
func Delete(ctx context.Context, d Deleter, id int64, onDeleted func(id int64)) error {
	if err := d.Delete(ctx, id); err != nil {
		return err
	}
	if onDeleted != nil {
		onDeleted(id)
	}
	return nil
}

// RowID is a bare row identifier, for lists known only by their ids.
type RowID int64

func (r RowID) GetID() int64 { return int64(r) }

// ListState is the rows a list view currently shows. Remove is the standard
// onDeleted callback.
type ListState[T Identifiable] struct {
	mu    sync.RWMutex
	items []T
}

func NewListState[T Identifiable](items []T) *ListState[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &ListState[T]{items: cp}
}

// Items returns a copy of the current rows.
func (s *ListState[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]T, len(s.items))
	copy(cp, s.items)
	return cp
}

func (s *ListState[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Remove drops every row whose id matches, keeping the order of the rest.
func (s *ListState[T]) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.GetID() != id {
			kept = append(kept, it)
		}
	}
	var zero T
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = zero
	}
	s.items = kept
}
