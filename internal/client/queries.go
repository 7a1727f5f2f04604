package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/snapshot"
)

// Snapshot fetches the full published snapshot.
func (c *Client) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Graph fetches the graph visualization payload.
func (c *Client) Graph(ctx context.Context) (*model.GraphResponse, error) {
	var resp model.GraphResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/graph", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Nodes lists nodes matching the filter. A nil filter lists everything.
func (c *Client) Nodes(ctx context.Context, filter *model.NodeFilter) ([]*model.Node, error) {
	path := "/v1/nodes"
	if filter != nil {
		q := url.Values{}
		if len(filter.Types) > 0 {
			parts := make([]string, len(filter.Types))
			for i, t := range filter.Types {
				parts[i] = string(t)
			}
			q.Set("type", strings.Join(parts, ","))
		}
		if len(filter.Statuses) > 0 {
			parts := make([]string, len(filter.Statuses))
			for i, st := range filter.Statuses {
				parts[i] = string(st)
			}
			q.Set("status", strings.Join(parts, ","))
		}
		if filter.Parent != "" {
			q.Set("parent", filter.Parent)
		}
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
	}

	var resp struct {
		Nodes []*model.Node `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// Node fetches a single node by name.
func (c *Client) Node(ctx context.Context, name string) (*model.Node, error) {
	var n model.Node
	if err := c.doJSON(ctx, http.MethodGet, "/v1/nodes/"+url.PathEscape(name), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// NodeSLIs fetches a node's SLI series, optionally filtered by type and
// restricted to [start, end].
func (c *Client) NodeSLIs(ctx context.Context, name string, types []model.SLIType, start, end *time.Time) ([]*model.SLI, error) {
	q := url.Values{}
	if len(types) > 0 {
		parts := make([]string, len(types))
		for i, t := range types {
			parts[i] = string(t)
		}
		q.Set("sli_type", strings.Join(parts, ","))
	}
	if start != nil {
		q.Set("start", start.Format(time.RFC3339))
	}
	if end != nil {
		q.Set("end", end.Format(time.RFC3339))
	}

	path := "/v1/nodes/" + url.PathEscape(name) + "/slis"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		SLIs []*model.SLI `json:"slis"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.SLIs, nil
}

// Clients lists reporting clients and their user journeys.
func (c *Client) Clients(ctx context.Context) ([]*model.Client, error) {
	var resp struct {
		Clients []*model.Client `json:"clients"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/clients", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

// Statuses fetches the effective status of every entity as a flat name map.
func (c *Client) Statuses(ctx context.Context) (map[string]model.Status, error) {
	var resp map[string]model.Status
	if err := c.doJSON(ctx, http.MethodGet, "/v1/status", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Status fetches the status detail for a single entity.
func (c *Client) Status(ctx context.Context, name string) (*model.EntityStatus, error) {
	var es model.EntityStatus
	if err := c.doJSON(ctx, http.MethodGet, "/v1/status/"+url.PathEscape(name), nil, &es); err != nil {
		return nil, err
	}
	return &es, nil
}

// LastRefresh reports the result of the most recent refresh cycle.
func (c *Client) LastRefresh(ctx context.Context) (*engine.RefreshResult, error) {
	var res engine.RefreshResult
	if err := c.doJSON(ctx, http.MethodGet, "/v1/refresh", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
