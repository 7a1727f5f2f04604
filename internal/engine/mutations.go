package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oakhamlabs/waypost/internal/events"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/snapshot"
	"github.com/oakhamlabs/waypost/internal/store"
)

// Mutations persist to the operator-state store first, edit the working
// state, then rebuild and publish from the current raw entities -- no
// refetch. All of them require a published snapshot to validate against and
// return snapshot.ErrNotReady before the first refresh.

// SetOverride pins an entity's status. Only nodes and virtual nodes accept
// overrides, and only concrete severities can be pinned; clearing is its own
// operation, not "set to unspecified".
func (e *Engine) SetOverride(ctx context.Context, name string, status model.Status) error {
	if !status.IsValid() || !model.HasOverride(status) {
		return fmt.Errorf("override %q: %w", status, ErrInvalidStatus)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := e.holder.Current()
	if err != nil {
		return err
	}
	es, err := snap.Status(name)
	if err != nil {
		return err
	}
	if es.Kind != model.KindNode && es.Kind != model.KindVirtualNode {
		return inputErrf("%s %q does not accept overrides", es.Kind, name)
	}

	if err := e.store.SetOverride(ctx, name, status); err != nil {
		return fmt.Errorf("persist override: %w", err)
	}
	e.work.overrides[name] = status
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicOverrideSet, &events.OverrideSet{Name: name, Status: status})
	return e.republish(ctx)
}

// ClearOverride removes a pinned status so aggregation shows through again.
// Clearing is allowed even when the entity has left the topology; clearing a
// name with no override fails with snapshot.ErrNotFound.
func (e *Engine) ClearOverride(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.holder.Current(); err != nil {
		return err
	}

	if err := e.store.ClearOverride(ctx, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("override for %q: %w", name, snapshot.ErrNotFound)
		}
		return fmt.Errorf("clear override: %w", err)
	}
	delete(e.work.overrides, name)
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicOverrideCleared, &events.OverrideCleared{Name: name})
	return e.republish(ctx)
}

// CreateVirtualNode groups sibling entities under a new synthetic node within
// one scope (empty scope means the forest roots). Members must be current
// siblings in that scope and not already grouped. New groups start collapsed.
// The returned virtual node carries its aggregated status.
func (e *Engine) CreateVirtualNode(ctx context.Context, name string, childNames []string, parentName string) (*model.VirtualNode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := e.holder.Current()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, inputErrf("virtual node name must not be empty")
	}

	g := snap.Graph()
	if _, ok := g.Entity(name); ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNameTaken)
	}
	if _, ok := g.Clients[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNameTaken)
	}
	if _, ok := g.Journeys[name]; ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNameTaken)
	}
	// A definition pruned from the current snapshot still owns its name in
	// the store; delete it before reusing the name.
	for _, v := range e.work.virtual {
		if v.Name == name {
			return nil, fmt.Errorf("%q: %w", name, ErrNameTaken)
		}
	}

	if parentName != "" {
		if _, ok := g.Nodes[parentName]; !ok {
			return nil, inputErrf("scope %q is not a known node", parentName)
		}
	}

	members := make([]string, 0, len(childNames))
	seen := make(map[string]bool, len(childNames))
	for _, child := range childNames {
		if child == "" || seen[child] {
			continue
		}
		seen[child] = true
		if _, ok := g.Entity(child); !ok {
			return nil, fmt.Errorf("child %q: %w", child, ErrUnknownChild)
		}
		if grp, ok := g.Grouped(child); ok {
			return nil, fmt.Errorf("child %q is in %q: %w", child, grp, ErrOverlappingGroup)
		}
		if g.Parent(child) != parentName {
			return nil, fmt.Errorf("child %q: %w", child, ErrUnknownChild)
		}
		members = append(members, child)
	}
	if len(members) == 0 {
		return nil, inputErrf("virtual node needs at least one member")
	}
	if len(members) == 1 {
		if n, ok := g.Nodes[members[0]]; ok && len(n.ChildNames) == 0 {
			return nil, inputErrf("refusing to group the single childless node %q", members[0])
		}
	}

	v := &model.VirtualNode{
		Name:       name,
		ParentName: parentName,
		ChildNames: members,
		Collapsed:  true,
	}
	if err := e.store.SaveVirtualNode(ctx, v); err != nil {
		return nil, fmt.Errorf("persist virtual node: %w", err)
	}
	e.work.virtual = append(e.work.virtual, v)
	sort.Slice(e.work.virtual, func(i, j int) bool { return e.work.virtual[i].Name < e.work.virtual[j].Name })
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicVirtualNodeCreated, &events.VirtualNodeCreated{VirtualNode: v.Clone()})
	if err := e.republish(ctx); err != nil {
		return nil, err
	}

	// Hand back the published copy so the caller sees the aggregated status.
	cur, _ := e.holder.Current()
	return cur.VirtualNodes[name], nil
}

// DeleteVirtualNode removes a group, returning its members to ungrouped
// siblings. Deleting an unknown group fails with snapshot.ErrNotFound.
func (e *Engine) DeleteVirtualNode(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.holder.Current(); err != nil {
		return err
	}

	if err := e.store.DeleteVirtualNode(ctx, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("virtual node %q: %w", name, snapshot.ErrNotFound)
		}
		return fmt.Errorf("delete virtual node: %w", err)
	}
	out := e.work.virtual[:0]
	for _, v := range e.work.virtual {
		if v.Name != name {
			out = append(out, v)
		}
	}
	e.work.virtual = out
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicVirtualNodeDeleted, &events.VirtualNodeDeleted{Name: name})
	return e.republish(ctx)
}

// SetVirtualNodeCollapsed toggles a group's presentation flag. Collapse never
// affects aggregation; the rebuild only refreshes the served snapshot.
func (e *Engine) SetVirtualNodeCollapsed(ctx context.Context, name string, collapsed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.holder.Current(); err != nil {
		return err
	}

	var def *model.VirtualNode
	for _, v := range e.work.virtual {
		if v.Name == name {
			def = v
			break
		}
	}
	if def == nil {
		return fmt.Errorf("virtual node %q: %w", name, snapshot.ErrNotFound)
	}

	upd := def.Clone()
	upd.Collapsed = collapsed
	if err := e.store.SaveVirtualNode(ctx, upd); err != nil {
		return fmt.Errorf("persist virtual node: %w", err)
	}
	def.Collapsed = collapsed
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicVirtualNodeCollapsed, &events.VirtualNodeCollapsed{Name: name, Collapsed: collapsed})
	return e.republish(ctx)
}

// SetAllVirtualNodesCollapsed applies one collapsed flag to every group in a
// single transaction. With no groups defined it is a no-op.
func (e *Engine) SetAllVirtualNodesCollapsed(ctx context.Context, collapsed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.holder.Current(); err != nil {
		return err
	}
	if len(e.work.virtual) == 0 {
		return nil
	}

	err := e.store.RunInTransaction(ctx, func(tx store.Store) error {
		for _, v := range e.work.virtual {
			upd := v.Clone()
			upd.Collapsed = collapsed
			if err := tx.SaveVirtualNode(ctx, upd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist virtual nodes: %w", err)
	}
	for _, v := range e.work.virtual {
		v.Collapsed = collapsed
		e.publish(ctx, events.TopicVirtualNodeCollapsed, &events.VirtualNodeCollapsed{Name: v.Name, Collapsed: collapsed})
	}
	e.mutSeq.Add(1)
	return e.republish(ctx)
}

// SetComment attaches an operator note to a node, virtual node, or client.
func (e *Engine) SetComment(ctx context.Context, name, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return inputErrf("comment must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snap, err := e.holder.Current()
	if err != nil {
		return err
	}
	es, err := snap.Status(name)
	if err != nil {
		return err
	}
	if es.Kind == model.KindUserJourney {
		return inputErrf("user journey %q does not take comments", name)
	}

	if err := e.store.SetComment(ctx, name, comment); err != nil {
		return fmt.Errorf("persist comment: %w", err)
	}
	e.work.comments[name] = comment
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicCommentSet, &events.CommentSet{Name: name, Comment: comment})
	return e.republish(ctx)
}

// ClearComment removes an operator note. Clearing a name with no comment
// fails with snapshot.ErrNotFound.
func (e *Engine) ClearComment(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.holder.Current(); err != nil {
		return err
	}

	if err := e.store.ClearComment(ctx, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comment for %q: %w", name, snapshot.ErrNotFound)
		}
		return fmt.Errorf("clear comment: %w", err)
	}
	delete(e.work.comments, name)
	e.mutSeq.Add(1)
	e.publish(ctx, events.TopicCommentCleared, &events.CommentCleared{Name: name})
	return e.republish(ctx)
}

// republish rebuilds from the current working state after a mutation. Merge
// warnings reflect pre-existing drift, not the mutation itself, so they are
// logged rather than returned.
func (e *Engine) republish(ctx context.Context) error {
	_, warnings, _, err := e.rebuildLocked(ctx, &e.work)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	for _, w := range warnings {
		e.logger.Warn("operator state pruned", "detail", w)
	}
	return nil
}
