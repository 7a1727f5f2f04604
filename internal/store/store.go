package store

import (
	"context"

	"github.com/oakhamlabs/waypost/internal/model"
)

// Store defines the persistence interface for operator state: manual status
// overrides, virtual node definitions, and comments. Topology and SLI data
// come from the reporting backend on every refresh and are never persisted
// here.
//
// Delete-style operations return sql.ErrNoRows when nothing matched, so
// callers can tell an idempotent no-op from a real change.
type Store interface {
	// Overrides
	SetOverride(ctx context.Context, name string, status model.Status) error
	ClearOverride(ctx context.Context, name string) error
	ListOverrides(ctx context.Context) (map[string]model.Status, error)

	// Virtual nodes
	SaveVirtualNode(ctx context.Context, v *model.VirtualNode) error
	DeleteVirtualNode(ctx context.Context, name string) error
	ListVirtualNodes(ctx context.Context) ([]*model.VirtualNode, error)

	// Comments
	SetComment(ctx context.Context, name, comment string) error
	ClearComment(ctx context.Context, name string) error
	ListComments(ctx context.Context) (map[string]string, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
