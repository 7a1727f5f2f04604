package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/oakhamlabs/waypost/internal/model"
)

// SetOverride pins an entity's status and returns the resulting status detail.
func (c *Client) SetOverride(ctx context.Context, name string, status model.Status) (*model.EntityStatus, error) {
	body := map[string]model.Status{"status": status}
	var es model.EntityStatus
	if err := c.doJSON(ctx, http.MethodPut, "/v1/status/"+url.PathEscape(name)+"/override", body, &es); err != nil {
		return nil, err
	}
	return &es, nil
}

// ClearOverride removes an entity's status override.
func (c *Client) ClearOverride(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/status/"+url.PathEscape(name)+"/override", nil, nil)
}

// CreateVirtualNodeRequest holds parameters for creating a virtual node.
type CreateVirtualNodeRequest struct {
	Name       string   `json:"name"`
	ChildNames []string `json:"child_names"`
	ParentName string   `json:"parent_name,omitempty"`
}

// CreateVirtualNode groups sibling nodes under a new virtual node.
func (c *Client) CreateVirtualNode(ctx context.Context, req *CreateVirtualNodeRequest) (*model.VirtualNode, error) {
	var v model.VirtualNode
	if err := c.doJSON(ctx, http.MethodPost, "/v1/virtual-nodes", req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVirtualNode dissolves a virtual node, restoring its members.
func (c *Client) DeleteVirtualNode(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/virtual-nodes/"+url.PathEscape(name), nil, nil)
}

// SetVirtualNodeCollapsed toggles a single virtual node's collapsed flag.
func (c *Client) SetVirtualNodeCollapsed(ctx context.Context, name string, collapsed bool) error {
	body := map[string]bool{"collapsed": collapsed}
	path := "/v1/virtual-nodes/" + url.PathEscape(name) + "/collapsed"
	return c.doJSON(ctx, http.MethodPut, path, body, nil)
}

// SetAllVirtualNodesCollapsed toggles every virtual node's collapsed flag.
func (c *Client) SetAllVirtualNodesCollapsed(ctx context.Context, collapsed bool) error {
	body := map[string]bool{"collapsed": collapsed}
	// The path segment is ignored when all=true; "-" is a placeholder.
	return c.doJSON(ctx, http.MethodPut, "/v1/virtual-nodes/-/collapsed?all=true", body, nil)
}

// SetComment attaches an operator comment to an entity.
func (c *Client) SetComment(ctx context.Context, name, comment string) error {
	body := map[string]string{"comment": comment}
	return c.doJSON(ctx, http.MethodPut, "/v1/comments/"+url.PathEscape(name), body, nil)
}

// ClearComment removes an entity's comment.
func (c *Client) ClearComment(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/comments/"+url.PathEscape(name), nil, nil)
}

// Refresh triggers a refresh cycle (or joins the one in flight) and returns
// its result.
func (c *Client) Refresh(ctx context.Context) (*engine.RefreshResult, error) {
	var res engine.RefreshResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/refresh", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
