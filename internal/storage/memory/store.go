// README: In-memory arena store; each Atomic call works on a copy that replaces the arena on success.
package memory

import (
	"context"
	"errors"
	"sync"

	"dronebook/internal/storage"
	"dronebook/internal/types"
)

var errReadOnly = errors.New("memory store: write inside View")

// Store keeps every entity in maps keyed by id. Atomic calls are serialized
// and must not be nested.
type Store struct {
	mu sync.RWMutex
	db *arena
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: newArena()}
}

func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{db: s.db, readOnly: true})
}

func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.db.clone()
	if err := fn(&tx{db: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db = work
	return nil
}

type tx struct {
	db       *arena
	readOnly bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func paginate[T any](items []T, p storage.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return items[:0]
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func idPtr(id *types.ID) *types.ID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
