// Package memory implements the store.Store interface in process memory.
// It backs serve mode when no database is configured; operator state is lost
// on restart.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/store"
)

// MemoryStore implements store.Store with mutex-guarded maps. It mirrors the
// postgres semantics, including sql.ErrNoRows on deletes that match nothing.
type MemoryStore struct {
	mu        sync.Mutex
	overrides map[string]model.Status
	virtual   map[string]*model.VirtualNode
	comments  map[string]string
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[string]model.Status),
		virtual:   make(map[string]*model.VirtualNode),
		comments:  make(map[string]string),
	}
}

func (s *MemoryStore) SetOverride(ctx context.Context, name string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[name] = status
	return nil
}

func (s *MemoryStore) ClearOverride(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[name]; !ok {
		return sql.ErrNoRows
	}
	delete(s.overrides, name)
	return nil
}

func (s *MemoryStore) ListOverrides(ctx context.Context) (map[string]model.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.Status, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) SaveVirtualNode(ctx context.Context, v *model.VirtualNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.virtual[v.Name] = v.Clone()
	return nil
}

func (s *MemoryStore) DeleteVirtualNode(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.virtual[name]; !ok {
		return sql.ErrNoRows
	}
	delete(s.virtual, name)
	return nil
}

func (s *MemoryStore) ListVirtualNodes(ctx context.Context) ([]*model.VirtualNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.virtual))
	for name := range s.virtual {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*model.VirtualNode, 0, len(names))
	for _, name := range names {
		out = append(out, s.virtual[name].Clone())
	}
	return out, nil
}

func (s *MemoryStore) SetComment(ctx context.Context, name, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[name] = comment
	return nil
}

func (s *MemoryStore) ClearComment(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[name]; !ok {
		return sql.ErrNoRows
	}
	delete(s.comments, name)
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.comments))
	for k, v := range s.comments {
		out[k] = v
	}
	return out, nil
}

// RunInTransaction runs fn against the store itself. The per-operation mutex
// already serializes writers; there is no rollback.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
