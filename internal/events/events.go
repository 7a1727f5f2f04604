package events

import (
	"context"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// Event topic constants
const (
	TopicSnapshotPublished = "waypost.snapshot.published"
	TopicStatusChanged     = "waypost.status.changed"

	TopicOverrideSet     = "waypost.override.set"
	TopicOverrideCleared = "waypost.override.cleared"

	TopicVirtualNodeCreated   = "waypost.vnode.created"
	TopicVirtualNodeDeleted   = "waypost.vnode.deleted"
	TopicVirtualNodeCollapsed = "waypost.vnode.collapsed"

	TopicCommentSet     = "waypost.comment.set"
	TopicCommentCleared = "waypost.comment.cleared"
)

// Event types

type SnapshotPublished struct {
	SnapshotID  string    `json:"snapshot_id"`
	BuiltAt     time.Time `json:"built_at"`
	StaleSeries []string  `json:"stale_series,omitempty"`
	Changed     int       `json:"changed"` // entities whose effective status moved
}

type StatusChanged struct {
	Name       string           `json:"name"`
	Kind       model.EntityKind `json:"kind"`
	From       model.Status     `json:"from"`
	To         model.Status     `json:"to"`
	SnapshotID string           `json:"snapshot_id"`
}

type OverrideSet struct {
	Name   string       `json:"name"`
	Status model.Status `json:"status"`
}

type OverrideCleared struct {
	Name string `json:"name"`
}

type VirtualNodeCreated struct {
	VirtualNode *model.VirtualNode `json:"virtual_node"`
}

type VirtualNodeDeleted struct {
	Name string `json:"name"`
}

type VirtualNodeCollapsed struct {
	Name      string `json:"name"`
	Collapsed bool   `json:"collapsed"`
}

type CommentSet struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

type CommentCleared struct {
	Name string `json:"name"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
