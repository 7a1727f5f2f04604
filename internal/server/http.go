package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oakhamlabs/waypost/internal/engine"
	"github.com/oakhamlabs/waypost/internal/graph"
	"github.com/oakhamlabs/waypost/internal/snapshot"
)

// Handler returns an http.Handler with all routes registered. When authToken
// is non-empty, requests (except GET /v1/health) must include a valid
// Authorization: Bearer <token> header.
func (s *Server) Handler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /v1/graph", s.handleGraph)
	mux.HandleFunc("GET /v1/nodes", s.handleListNodes)
	mux.HandleFunc("GET /v1/nodes/{name}", s.handleGetNode)
	mux.HandleFunc("GET /v1/nodes/{name}/slis", s.handleGetNodeSLIs)
	mux.HandleFunc("GET /v1/clients", s.handleListClients)
	mux.HandleFunc("GET /v1/status", s.handleListStatuses)
	mux.HandleFunc("GET /v1/status/{name}", s.handleGetStatus)
	mux.HandleFunc("PUT /v1/status/{name}/override", s.handleSetOverride)
	mux.HandleFunc("DELETE /v1/status/{name}/override", s.handleClearOverride)
	mux.HandleFunc("POST /v1/virtual-nodes", s.handleCreateVirtualNode)
	mux.HandleFunc("DELETE /v1/virtual-nodes/{name}", s.handleDeleteVirtualNode)
	mux.HandleFunc("PUT /v1/virtual-nodes/{name}/collapsed", s.handleSetCollapsed)
	mux.HandleFunc("PUT /v1/comments/{name}", s.handleSetComment)
	mux.HandleFunc("DELETE /v1/comments/{name}", s.handleClearComment)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/refresh", s.handleLastRefresh)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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

// writeEngineError maps engine and snapshot errors onto HTTP statuses.
// Graph validation failures carry their violation list in the body so
// callers can see every offending name.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *graph.ValidationError
	var ierr *engine.InputError
	switch {
	case errors.Is(err, snapshot.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, snapshot.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrUnknownChild),
		errors.Is(err, engine.ErrOverlappingGroup),
		errors.Is(err, engine.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &ierr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      verr.Error(),
			"violations": verr.Violations,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
