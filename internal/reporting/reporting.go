// Package reporting talks to the reporting collaborator: the external
// service that owns the raw topology (nodes, clients, user journeys) and
// the measured SLI samples. The engine treats it as the source of truth
// and re-fetches everything on each refresh.
//
// The package carries both sides of the wire: Client (consumed by the
// engine) and a Provider-backed HTTP handler plus a demo provider
// (served by `waypost reportd` and by tests).
package reporting

import (
	"context"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// SLIRequest narrows an SLI fetch. Zero-value fields are unconstrained:
// no names means all nodes, no types means all series, and with Start and
// End both nil the collaborator returns only the latest sample per
// series. Only Start set means every retained sample after that time.
type SLIRequest struct {
	NodeNames []string
	Types     []model.SLIType
	Start     *time.Time
	End       *time.Time
}

// Client fetches topology and SLI samples from the reporting collaborator.
type Client interface {
	// Nodes returns the full set of nodes (systems, services, endpoints)
	// with containment links and dependencies, without SLI samples.
	Nodes(ctx context.Context) ([]*model.Node, error)

	// Clients returns the full set of clients with their user journeys.
	Clients(ctx context.Context) ([]*model.Client, error)

	// SLIs returns samples matching the request, newest last per series.
	SLIs(ctx context.Context, req *SLIRequest) ([]*model.SLI, error)

	// Close releases any resources held by the client.
	Close() error
}
