package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// Provider is the server-side counterpart of Client: anything that can
// answer topology and SLI queries. The demo provider implements it; a
// real collaborator would put its own storage behind it.
type Provider interface {
	Nodes(ctx context.Context) ([]*model.Node, error)
	Clients(ctx context.Context) ([]*model.Client, error)
	SLIs(ctx context.Context, req *SLIRequest) ([]*model.SLI, error)
}

// NewHandler returns an http.Handler serving the collaborator API over
// the given provider.
func NewHandler(p Provider, logger *slog.Logger) http.Handler {
	h := &handler{provider: p, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/nodes", h.handleNodes)
	mux.HandleFunc("GET /v1/clients", h.handleClients)
	mux.HandleFunc("GET /v1/slis", h.handleSLIs)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	return mux
}

type handler struct {
	provider Provider
	logger   *slog.Logger
}

func (h *handler) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.provider.Nodes(r.Context())
	if err != nil {
		h.logger.Error("listing nodes", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (h *handler) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.provider.Clients(r.Context())
	if err != nil {
		h.logger.Error("listing clients", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (h *handler) handleSLIs(w http.ResponseWriter, r *http.Request) {
	req, err := parseSLIRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slis, err := h.provider.SLIs(r.Context(), req)
	if err != nil {
		h.logger.Error("listing slis", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slis": slis})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseSLIRequest decodes the query parameters of GET /v1/slis.
func parseSLIRequest(r *http.Request) (*SLIRequest, error) {
	q := r.URL.Query()
	req := &SLIRequest{}
	if raw := q.Get("node_names"); raw != "" {
		req.NodeNames = strings.Split(raw, ",")
	}
	if raw := q.Get("sli_types"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			t := model.SLIType(s)
			if !t.IsValid() {
				return nil, fmt.Errorf("unknown sli_type %q", s)
			}
			req.Types = append(req.Types, t)
		}
	}
	if raw := q.Get("start"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid start: %w", err)
		}
		req.Start = &ts
	}
	if raw := q.Get("end"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid end: %w", err)
		}
		req.End = &ts
	}
	return req, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
