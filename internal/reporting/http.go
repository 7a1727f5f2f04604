package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// HTTPClient implements Client against the collaborator's HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:9090"). When token is non-empty, an
// Authorization header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) Nodes(ctx context.Context) ([]*model.Node, error) {
	var resp struct {
		Nodes []*model.Node `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/nodes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

func (c *HTTPClient) Clients(ctx context.Context) ([]*model.Client, error) {
	var resp struct {
		Clients []*model.Client `json:"clients"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/clients", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

func (c *HTTPClient) SLIs(ctx context.Context, req *SLIRequest) ([]*model.SLI, error) {
	q := url.Values{}
	if req != nil {
		if len(req.NodeNames) > 0 {
			q.Set("node_names", strings.Join(req.NodeNames, ","))
		}
		if len(req.Types) > 0 {
			types := make([]string, len(req.Types))
			for i, t := range req.Types {
				types[i] = string(t)
			}
			q.Set("sli_types", strings.Join(types, ","))
		}
		if req.Start != nil {
			q.Set("start", req.Start.Format(time.RFC3339))
		}
		if req.End != nil {
			q.Set("end", req.End.Format(time.RFC3339))
		}
	}

	path := "/v1/slis"
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

// APIError represents an error response from the collaborator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the
// JSON response. If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
