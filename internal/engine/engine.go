// Package engine owns the refresh cycle and every mutation path. One engine
// fetches topology and SLI samples from the reporting collaborator, merges
// persisted operator state, evaluates and aggregates, and publishes immutable
// snapshots through an atomic holder. Writers serialize on one mutex; readers
// never block on it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oakhamlabs/waypost/internal/events"
	"github.com/oakhamlabs/waypost/internal/idgen"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/reporting"
	"github.com/oakhamlabs/waypost/internal/sli"
	"github.com/oakhamlabs/waypost/internal/snapshot"
	"github.com/oakhamlabs/waypost/internal/store"
)

// RefreshResult summarizes one completed refresh cycle. The query API serves
// the most recent one at GET /v1/refresh.
type RefreshResult struct {
	SnapshotID string    `json:"snapshot_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Nodes      int       `json:"nodes"`
	Clients    int       `json:"clients"`

	// Changed counts entities whose effective status moved relative to the
	// previous snapshot.
	Changed int `json:"changed"`

	// StaleSeries lists series whose prior sample was carried forward because
	// the fetch brought nothing newer. Warnings record operator state pruned
	// during the merge. Neither fails the refresh.
	StaleSeries []string `json:"stale_series,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// workingState is the raw material snapshots are rebuilt from: topology and
// evaluated SLIs from the last fetch plus current operator state. Mutations
// edit it under the engine mutex; rebuilds only ever touch clones of it.
type workingState struct {
	nodes     []*model.Node
	clients   []*model.Client
	virtual   []*model.VirtualNode
	overrides map[string]model.Status
	comments  map[string]string
	stale     []string
}

// Engine coordinates refreshes and operator mutations over one reporting
// backend, one operator-state store, and one event publisher.
type Engine struct {
	reporting    reporting.Client
	store        store.Store
	publisher    events.Publisher
	logger       *slog.Logger
	fetchTimeout time.Duration

	holder snapshot.Holder
	group  singleflight.Group

	// Injected for tests.
	now   func() time.Time
	newID func() (string, error)

	mu sync.Mutex
	// mutSeq is bumped under mu on every operator mutation. A refresh reads
	// operator state outside the lock and uses the sequence to detect edits
	// that landed in between.
	mutSeq atomic.Uint64
	work   workingState
	last   *RefreshResult
}

// New assembles an engine. fetchTimeout bounds each collaborator call; zero
// leaves calls bounded only by the caller's context. The publisher may be a
// no-op but must be non-nil.
func New(rc reporting.Client, st store.Store, pub events.Publisher, fetchTimeout time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		reporting:    rc,
		store:        st,
		publisher:    pub,
		logger:       logger,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		newID:        idgen.Generate,
	}
}

// Snapshot returns the latest published snapshot, or snapshot.ErrNotReady
// before the first successful refresh.
func (e *Engine) Snapshot() (*snapshot.Snapshot, error) {
	return e.holder.Current()
}

// Status looks up one entity's status detail in the current snapshot.
func (e *Engine) Status(name string) (*model.EntityStatus, error) {
	snap, err := e.holder.Current()
	if err != nil {
		return nil, err
	}
	return snap.Status(name)
}

// LastRefresh returns the outcome of the most recent completed refresh.
// Operator mutations republish snapshots but do not count as refreshes.
func (e *Engine) LastRefresh() (*RefreshResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil, snapshot.ErrNotReady
	}
	return e.last, nil
}

// SLISeries proxies a time-range series query to the reporting collaborator
// for one node known to the current snapshot.
func (e *Engine) SLISeries(ctx context.Context, nodeName string, types []model.SLIType, start, end *time.Time) ([]*model.SLI, error) {
	snap, err := e.holder.Current()
	if err != nil {
		return nil, err
	}
	if _, err := snap.Node(nodeName); err != nil {
		return nil, err
	}
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}
	return e.reporting.SLIs(ctx, &reporting.SLIRequest{
		NodeNames: []string{nodeName},
		Types:     types,
		Start:     start,
		End:       end,
	})
}

// Refresh runs one fetch-evaluate-aggregate-publish cycle. Concurrent calls
// coalesce onto the cycle already in flight and share its result. A refresh
// either completes and publishes or fails and leaves the prior snapshot
// intact; there is no caller-driven cancellation.
func (e *Engine) Refresh(ctx context.Context) (*RefreshResult, error) {
	// Callers adopting an in-flight cycle must not be able to cancel it for
	// the others, so the cycle detaches from the triggering context.
	ctx = context.WithoutCancel(ctx)
	v, err, _ := e.group.Do("refresh", func() (any, error) {
		return e.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

func (e *Engine) refresh(ctx context.Context) (*RefreshResult, error) {
	started := e.now()

	nodes, clients, samples, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}

	seq := e.mutSeq.Load()
	overrides, virtual, comments, err := e.loadOperatorState(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// An operator edit may have landed between the store read above and the
	// lock. Its write precedes the sequence bump, so a re-read sees it.
	if e.mutSeq.Load() != seq {
		overrides, virtual, comments, err = e.loadOperatorState(ctx)
		if err != nil {
			return nil, err
		}
	}

	stale := e.evaluate(nodes, samples)

	next := workingState{
		nodes:     nodes,
		clients:   clients,
		virtual:   virtual,
		overrides: overrides,
		comments:  comments,
		stale:     stale,
	}
	snap, warnings, changed, err := e.rebuildLocked(ctx, &next)
	if err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	e.work = next

	res := &RefreshResult{
		SnapshotID:  snap.ID,
		StartedAt:   started,
		FinishedAt:  e.now(),
		Nodes:       len(snap.Nodes),
		Clients:     len(snap.Clients),
		Changed:     changed,
		StaleSeries: snap.StaleSeries,
		Warnings:    warnings,
	}
	e.last = res

	if len(res.StaleSeries) > 0 {
		e.logger.Warn("refresh carried stale series", "count", len(res.StaleSeries), "series", res.StaleSeries)
	}
	for _, w := range warnings {
		e.logger.Warn("operator state pruned", "detail", w)
	}
	e.logger.Info("refresh complete",
		"snapshot", snap.ID,
		"nodes", res.Nodes,
		"clients", res.Clients,
		"changed", changed,
		"took", res.FinishedAt.Sub(started))

	return res, nil
}

// fetch pulls the full entity set and the latest sample per series from the
// reporting collaborator. It runs before the engine mutex is taken.
func (e *Engine) fetch(ctx context.Context) ([]*model.Node, []*model.Client, []*model.SLI, error) {
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}
	nodes, err := e.reporting.Nodes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch nodes: %w", err)
	}
	clients, err := e.reporting.Clients(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch clients: %w", err)
	}
	samples, err := e.reporting.SLIs(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch slis: %w", err)
	}
	return nodes, clients, samples, nil
}

func (e *Engine) loadOperatorState(ctx context.Context) (map[string]model.Status, []*model.VirtualNode, map[string]string, error) {
	overrides, err := e.store.ListOverrides(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load overrides: %w", err)
	}
	virtual, err := e.store.ListVirtualNodes(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load virtual nodes: %w", err)
	}
	comments, err := e.store.ListComments(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load comments: %w", err)
	}
	return overrides, virtual, comments, nil
}

// evaluate attaches the latest evaluated sample per series to its node,
// carrying the prior snapshot's sample forward when the fetch brought nothing
// newer. It returns the carried (stale) series keys. Samples for nodes absent
// from the fetched topology are dropped.
func (e *Engine) evaluate(nodes []*model.Node, samples []*model.SLI) []string {
	curByNode := make(map[string]map[model.SLIType]*model.SLI)
	for _, s := range samples {
		byType := curByNode[s.NodeName]
		if byType == nil {
			byType = make(map[model.SLIType]*model.SLI)
			curByNode[s.NodeName] = byType
		}
		byType[s.Type] = s // collaborators return oldest first, newest wins
	}

	var prevNodes map[string]*model.Node
	if prevSnap, err := e.holder.Current(); err == nil {
		prevNodes = prevSnap.Nodes
	}

	var stale []string
	for _, n := range nodes {
		cur := curByNode[n.Name]
		var prior map[model.SLIType]*model.SLI
		if p, ok := prevNodes[n.Name]; ok && len(p.SLIs) > 0 {
			prior = make(map[model.SLIType]*model.SLI, len(p.SLIs))
			for _, s := range p.SLIs {
				prior[s.Type] = s
			}
		}

		typeSet := make(map[model.SLIType]bool, len(cur)+len(prior))
		for t := range cur {
			typeSet[t] = true
		}
		for t := range prior {
			typeSet[t] = true
		}
		if len(typeSet) == 0 {
			continue
		}
		types := make([]model.SLIType, 0, len(typeSet))
		for t := range typeSet {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		out := make([]*model.SLI, 0, len(types))
		for _, t := range types {
			sample, prev := cur[t], prior[t]
			if sample != nil && (prev == nil || sample.Timestamp.After(prev.Timestamp)) {
				sli.Evaluate(sample, prev)
				out = append(out, sample)
				continue
			}
			// The prior sample lives in the published snapshot; clone before
			// it joins the mutable working set.
			if prev != nil {
				out = append(out, prev.Clone())
				stale = append(stale, prev.SeriesKey())
			}
		}
		n.SLIs = out
	}
	sort.Strings(stale)
	return stale
}

// publish emits one event, logging instead of failing: event delivery is
// best-effort and never blocks a publish or mutation from completing.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		e.logger.Warn("event publish failed", "topic", topic, "err", err)
	}
}
