package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method        string
	path          string
	query         string
	authorization string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.authorization = r.Header.Get("Authorization")

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL, "")
	return c, srv
}

// --- Nodes ---

func TestHTTPClient_Nodes(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"nodes": [
				{"name": "Shop", "node_type": "service", "child_names": ["Shop.Checkout"]},
				{"name": "Shop.Checkout", "node_type": "endpoint", "parent_name": "Shop",
				 "dependencies": [{"source_name": "Shop.Checkout", "target_name": "Billing"}]}
			]
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	nodes, err := c.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}

	if h.method != http.MethodGet {
		t.Errorf("method = %q, want GET", h.method)
	}
	if h.path != "/v1/nodes" {
		t.Errorf("path = %q, want /v1/nodes", h.path)
	}

	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	if nodes[0].Name != "Shop" || nodes[0].Type != model.NodeTypeService {
		t.Errorf("nodes[0] = %q/%q, want Shop/service", nodes[0].Name, nodes[0].Type)
	}
	if len(nodes[0].ChildNames) != 1 || nodes[0].ChildNames[0] != "Shop.Checkout" {
		t.Errorf("nodes[0].ChildNames = %v, want [Shop.Checkout]", nodes[0].ChildNames)
	}
	if nodes[1].ParentName != "Shop" {
		t.Errorf("nodes[1].ParentName = %q, want Shop", nodes[1].ParentName)
	}
	if len(nodes[1].Dependencies) != 1 || nodes[1].Dependencies[0].TargetName != "Billing" {
		t.Errorf("nodes[1].Dependencies = %v, want one edge to Billing", nodes[1].Dependencies)
	}
}

func TestHTTPClient_Nodes_Empty(t *testing.T) {
	h := &testHandler{responseBody: `{"nodes": []}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	nodes, err := c.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("len(nodes) = %d, want 0", len(nodes))
	}
}

// --- Clients ---

func TestHTTPClient_Clients(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"clients": [
				{"name": "Storefront", "user_journeys": [
					{"name": "Storefront.Purchase", "client_name": "Storefront",
					 "dependencies": [{"source_name": "Storefront.Purchase", "target_name": "Shop.Checkout", "toplevel": true}]}
				]}
			]
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	clients, err := c.Clients(context.Background())
	if err != nil {
		t.Fatalf("Clients() error = %v", err)
	}

	if h.path != "/v1/clients" {
		t.Errorf("path = %q, want /v1/clients", h.path)
	}

	if len(clients) != 1 {
		t.Fatalf("len(clients) = %d, want 1", len(clients))
	}
	journeys := clients[0].UserJourneys
	if len(journeys) != 1 || journeys[0].Name != "Storefront.Purchase" {
		t.Fatalf("journeys = %v, want [Storefront.Purchase]", journeys)
	}
	dep := journeys[0].Dependencies[0]
	if dep.TargetName != "Shop.Checkout" || !dep.Toplevel {
		t.Errorf("journey dep = %+v, want toplevel edge to Shop.Checkout", dep)
	}
}

// --- SLIs ---

func TestHTTPClient_SLIs(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"slis": [
				{"node_name": "Shop", "sli_type": "availability", "sli_value": 0.97,
				 "slo_target": 0.99, "timestamp": "2026-03-01T12:00:00Z",
				 "slo_error_lower_bound": 0.9}
			]
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slis, err := c.SLIs(context.Background(), &SLIRequest{
		NodeNames: []string{"Shop", "Billing"},
		Types:     []model.SLIType{model.SLIAvailability, model.SLILatency},
		Start:     &start,
		End:       &end,
	})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}

	if h.path != "/v1/slis" {
		t.Errorf("path = %q, want /v1/slis", h.path)
	}
	for _, want := range []string{
		"node_names=Shop%2CBilling",
		"sli_types=availability%2Clatency",
		"start=2026-03-01T00%3A00%3A00Z",
		"end=2026-03-02T00%3A00%3A00Z",
	} {
		if !strings.Contains(h.query, want) {
			t.Errorf("query %q does not contain %q", h.query, want)
		}
	}

	if len(slis) != 1 {
		t.Fatalf("len(slis) = %d, want 1", len(slis))
	}
	if slis[0].Value != 0.97 {
		t.Errorf("slis[0].Value = %v, want 0.97", slis[0].Value)
	}
	if slis[0].ErrorLowerBound == nil || *slis[0].ErrorLowerBound != 0.9 {
		t.Errorf("slis[0].ErrorLowerBound = %v, want 0.9", slis[0].ErrorLowerBound)
	}
	if slis[0].WarnLowerBound != nil {
		t.Errorf("slis[0].WarnLowerBound = %v, want nil", slis[0].WarnLowerBound)
	}
}

func TestHTTPClient_SLIs_NoFilters(t *testing.T) {
	h := &testHandler{responseBody: `{"slis": []}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	if _, err := c.SLIs(context.Background(), &SLIRequest{}); err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if h.query != "" {
		t.Errorf("query = %q, want empty", h.query)
	}
}

// --- Auth header ---

func TestHTTPClient_BearerToken(t *testing.T) {
	h := &testHandler{responseBody: `{"nodes": []}`}
	srv := httptest.NewServer(h)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "report-secret")
	if _, err := c.Nodes(context.Background()); err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}
	if h.authorization != "Bearer report-secret" {
		t.Errorf("authorization = %q, want 'Bearer report-secret'", h.authorization)
	}

	c = NewHTTPClient(srv.URL, "")
	if _, err := c.Nodes(context.Background()); err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}
	if h.authorization != "" {
		t.Errorf("authorization = %q, want empty when no token", h.authorization)
	}
}

// --- Error handling ---

func TestHTTPClient_Error_JSONBody(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusServiceUnavailable,
		responseBody: `{"error": "scrape backlog"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.Nodes(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if apiErr.Message != "scrape backlog" {
		t.Errorf("message = %q, want 'scrape backlog'", apiErr.Message)
	}
}

func TestHTTPClient_Error_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.Clients(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "internal server error" {
		t.Errorf("message = %q, want 'internal server error'", apiErr.Message)
	}
}

func TestAPIError_FormatString(t *testing.T) {
	apiErr := &APIError{StatusCode: 403, Message: "forbidden"}
	want := "HTTP 403: forbidden"
	if apiErr.Error() != want {
		t.Errorf("Error() = %q, want %q", apiErr.Error(), want)
	}
}

// --- Handler round-trips ---

func newDemoServer(t *testing.T) (*HTTPClient, *DemoProvider) {
	t.Helper()
	p := NewDemoProvider(1)
	srv := httptest.NewServer(NewHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, ""), p
}

func TestHandler_Nodes(t *testing.T) {
	c, _ := newDemoServer(t)

	nodes, err := c.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}

	// 10 services plus 17 endpoints.
	if len(nodes) != 27 {
		t.Fatalf("len(nodes) = %d, want 27", len(nodes))
	}

	byName := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	api := byName["APIServer"]
	if api == nil || api.Type != model.NodeTypeService {
		t.Fatalf("APIServer = %+v, want service", api)
	}
	if len(api.ChildNames) != 2 {
		t.Errorf("APIServer children = %v, want 2", api.ChildNames)
	}

	start := byName["APIServer.StartGame"]
	if start == nil || start.Type != model.NodeTypeEndpoint || start.ParentName != "APIServer" {
		t.Fatalf("APIServer.StartGame = %+v, want endpoint under APIServer", start)
	}
	if len(start.Dependencies) != 1 || start.Dependencies[0].TargetName != "APIServer.UpdateGameState" {
		t.Errorf("StartGame deps = %v, want [APIServer.UpdateGameState]", start.Dependencies)
	}

	auth := byName["ProfileService.Authenticate"]
	if auth == nil || len(auth.Dependencies) != 1 || auth.Dependencies[0].TargetName != "ExternalAuthProvider" {
		t.Errorf("Authenticate deps = %+v, want [ExternalAuthProvider]", auth)
	}
}

func TestHandler_Clients(t *testing.T) {
	c, _ := newDemoServer(t)

	clients, err := c.Clients(context.Background())
	if err != nil {
		t.Fatalf("Clients() error = %v", err)
	}

	if len(clients) != 2 {
		t.Fatalf("len(clients) = %d, want 2", len(clients))
	}
	if clients[0].Name != "MobileClient" || clients[1].Name != "WebBrowser" {
		t.Fatalf("clients = %q/%q, want MobileClient/WebBrowser", clients[0].Name, clients[1].Name)
	}
	if len(clients[1].UserJourneys) != 3 {
		t.Fatalf("WebBrowser journeys = %d, want 3", len(clients[1].UserJourneys))
	}

	play := clients[0].UserJourneys[0]
	if play.Name != "MobileClient.PlayGame" || play.ClientName != "MobileClient" {
		t.Errorf("journey = %+v, want MobileClient.PlayGame", play)
	}
	dep := play.Dependencies[0]
	if dep.TargetName != "APIServer.StartGame" || !dep.Toplevel {
		t.Errorf("journey dep = %+v, want toplevel edge to APIServer.StartGame", dep)
	}
}

func TestHandler_SLIs_Filtered(t *testing.T) {
	c, _ := newDemoServer(t)

	slis, err := c.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 1 {
		t.Fatalf("len(slis) = %d, want 1", len(slis))
	}
	if slis[0].NodeName != "GameDB" || slis[0].Type != model.SLIAvailability {
		t.Errorf("sli = %s/%s, want GameDB/availability", slis[0].NodeName, slis[0].Type)
	}

	slis, err = c.SLIs(context.Background(), &SLIRequest{Types: []model.SLIType{model.SLILatency}})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 17 {
		t.Errorf("len(latency slis) = %d, want 17", len(slis))
	}
}

func TestHandler_SLIs_BadParams(t *testing.T) {
	p := NewDemoProvider(1)
	srv := httptest.NewServer(NewHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	for _, tt := range []struct {
		name  string
		query string
	}{
		{"unknown type", "?sli_types=bogus"},
		{"bad start", "?start=yesterday"},
		{"bad end", "?end=2026-13-99"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/v1/slis" + tt.query)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	p := NewDemoProvider(1)
	srv := httptest.NewServer(NewHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

// --- Demo provider ---

func TestDemoProvider_Deterministic(t *testing.T) {
	a := NewDemoProvider(7)
	b := NewDemoProvider(7)

	sa, err := a.SLIs(context.Background(), nil)
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	sb, err := b.SLIs(context.Background(), nil)
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}

	if len(sa) != len(sb) {
		t.Fatalf("len mismatch: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i].NodeName != sb[i].NodeName || sa[i].Value != sb[i].Value {
			t.Errorf("sample %d differs: %s=%v vs %s=%v",
				i, sa[i].NodeName, sa[i].Value, sb[i].NodeName, sb[i].Value)
		}
	}
}

func TestDemoProvider_ValuesStayInRange(t *testing.T) {
	p := NewDemoProvider(42)
	for i := 0; i < 50; i++ {
		slis, err := p.SLIs(context.Background(), nil)
		if err != nil {
			t.Fatalf("SLIs() error = %v", err)
		}
		for _, s := range slis {
			if s.Value < 0 || s.Value > 1 {
				t.Fatalf("poll %d: %s value %v out of [0,1]", i, s.SeriesKey(), s.Value)
			}
		}
	}
}

func TestDemoProvider_SamplesCarrySLOConfig(t *testing.T) {
	p := NewDemoProvider(1)
	slis, err := p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"APIServer", "APIServer.StartGame"}})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 2 {
		t.Fatalf("len(slis) = %d, want 2", len(slis))
	}

	for _, s := range slis {
		if s.SLOTarget != 0.5 {
			t.Errorf("%s SLOTarget = %v, want 0.5", s.SeriesKey(), s.SLOTarget)
		}
		if s.IntraStatusChangeThreshold != 0.03 {
			t.Errorf("%s threshold = %v, want 0.03", s.SeriesKey(), s.IntraStatusChangeThreshold)
		}
		if *s.ErrorLowerBound != 0.1 || *s.WarnLowerBound != 0.2 ||
			*s.WarnUpperBound != 0.8 || *s.ErrorUpperBound != 0.9 {
			t.Errorf("%s bounds = %v/%v/%v/%v, want 0.1/0.2/0.8/0.9", s.SeriesKey(),
				*s.ErrorLowerBound, *s.WarnLowerBound, *s.WarnUpperBound, *s.ErrorUpperBound)
		}
		if s.Timestamp.IsZero() {
			t.Errorf("%s timestamp is zero", s.SeriesKey())
		}
	}

	if slis[0].Type != model.SLIAvailability {
		t.Errorf("service sli type = %q, want availability", slis[0].Type)
	}
	if slis[1].Type != model.SLILatency {
		t.Errorf("endpoint sli type = %q, want latency", slis[1].Type)
	}
}

func TestDemoProvider_TimeRange(t *testing.T) {
	p := NewDemoProvider(3)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	polls := 0
	p.now = func() time.Time {
		polls++
		return base.Add(time.Duration(polls) * time.Minute)
	}

	for i := 0; i < 2; i++ {
		if _, err := p.SLIs(context.Background(), nil); err != nil {
			t.Fatalf("SLIs() error = %v", err)
		}
	}

	// Latest-only when no range is set: the third poll adds one more sample
	// and returns exactly one per series.
	slis, err := p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 1 {
		t.Fatalf("len(latest) = %d, want 1", len(slis))
	}

	// Start before the first poll: every retained sample, including the
	// one this call itself appends.
	slis, err = p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}, Start: &base})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 4 {
		t.Fatalf("len(ranged) = %d, want 4", len(slis))
	}

	// Narrow window covering only the second poll.
	start := base.Add(90 * time.Second)
	end := base.Add(150 * time.Second)
	slis, err = p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}, Start: &start, End: &end})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	if len(slis) != 1 {
		t.Fatalf("len(windowed) = %d, want 1", len(slis))
	}
	if got := slis[0].Timestamp; !got.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("windowed timestamp = %v, want second poll", got)
	}
}

func TestDemoProvider_ReturnsClones(t *testing.T) {
	p := NewDemoProvider(9)

	first, err := p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	first[0].Value = -99
	*first[0].ErrorLowerBound = -99

	start := time.Time{}
	again, err := p.SLIs(context.Background(), &SLIRequest{NodeNames: []string{"GameDB"}, Start: &start})
	if err != nil {
		t.Fatalf("SLIs() error = %v", err)
	}
	for _, s := range again {
		if s.Value == -99 {
			t.Error("caller mutation leaked into retained sample value")
		}
		if *s.ErrorLowerBound == -99 {
			t.Error("caller mutation leaked into retained sample bounds")
		}
	}
}

// --- Interface compliance ---

func TestReportingInterfaces(t *testing.T) {
	var _ Client = (*HTTPClient)(nil)
	var _ Provider = (*DemoProvider)(nil)
}
