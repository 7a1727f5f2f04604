package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oakhamlabs/waypost/internal/graph"
	"github.com/oakhamlabs/waypost/internal/model"
)

// handleSetOverride handles PUT /v1/status/{name}/override.
func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var in struct {
		Status model.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.engine.SetOverride(r.Context(), name, in.Status); err != nil {
		writeEngineError(w, err)
		return
	}

	es, err := s.engine.Status(name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}

// handleClearOverride handles DELETE /v1/status/{name}/override.
func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearOverride(r.Context(), r.PathValue("name")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateVirtualNode handles POST /v1/virtual-nodes.
func (s *Server) handleCreateVirtualNode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string   `json:"name"`
		ChildNames []string `json:"child_names"`
		ParentName string   `json:"parent_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	v, err := s.engine.CreateVirtualNode(r.Context(), in.Name, in.ChildNames, in.ParentName)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleDeleteVirtualNode handles DELETE /v1/virtual-nodes/{name}.
func (s *Server) handleDeleteVirtualNode(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteVirtualNode(r.Context(), r.PathValue("name")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetCollapsed handles PUT /v1/virtual-nodes/{name}/collapsed. With
// ?all=true the toggle applies to every group and the path name is ignored.
func (s *Server) handleSetCollapsed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Collapsed bool `json:"collapsed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if r.URL.Query().Get("all") == "true" {
		if err := s.engine.SetAllVirtualNodesCollapsed(r.Context(), in.Collapsed); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.engine.SetVirtualNodeCollapsed(r.Context(), r.PathValue("name"), in.Collapsed); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetComment handles PUT /v1/comments/{name}.
func (s *Server) handleSetComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.engine.SetComment(r.Context(), r.PathValue("name"), in.Comment); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearComment handles DELETE /v1/comments/{name}.
func (s *Server) handleClearComment(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearComment(r.Context(), r.PathValue("name")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh handles POST /v1/refresh: trigger a cycle (or join the one
// in flight) and report its result. A failed cycle leaves the prior snapshot
// serving; fetch failures surface as 502 since the collaborator, not this
// service, is unavailable.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Refresh(r.Context())
	if err != nil {
		var verr *graph.ValidationError
		if errors.As(err, &verr) {
			writeEngineError(w, err)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLastRefresh handles GET /v1/refresh.
func (s *Server) handleLastRefresh(w http.ResponseWriter, _ *http.Request) {
	res, err := s.engine.LastRefresh()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
