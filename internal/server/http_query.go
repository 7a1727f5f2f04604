package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oakhamlabs/waypost/internal/model"
)

// handleSnapshot handles GET /v1/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGraph handles GET /v1/graph.
func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.GraphResponse())
}

// handleListNodes handles GET /v1/nodes.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}

	q := r.URL.Query()
	var filter model.NodeFilter
	if v := q.Get("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			filter.Types = append(filter.Types, model.NodeType(t))
		}
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, model.Status(st))
		}
	}
	filter.Parent = q.Get("parent")

	nodes := snap.NodeList(&filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"total": len(nodes),
	})
}

// handleGetNode handles GET /v1/nodes/{name}.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	n, err := snap.Node(r.PathValue("name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleGetNodeSLIs handles GET /v1/nodes/{name}/slis. The series itself
// comes from the reporting collaborator; the snapshot only gates that the
// node exists.
func (s *Server) handleGetNodeSLIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var types []model.SLIType
	if v := q.Get("sli_type"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			t := model.SLIType(strings.TrimSpace(raw))
			if !t.IsValid() {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown sli_type %q", raw))
				return
			}
			types = append(types, t)
		}
	}

	var start, end *time.Time
	if v := q.Get("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be RFC 3339")
			return
		}
		start = &ts
	}
	if v := q.Get("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be RFC 3339")
			return
		}
		end = &ts
	}

	series, err := s.engine.SLISeries(r.Context(), r.PathValue("name"), types, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if series == nil {
		series = []*model.SLI{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slis":  series,
		"total": len(series),
	})
}

// handleListClients handles GET /v1/clients.
func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	clients := snap.ClientList()
	writeJSON(w, http.StatusOK, map[string]any{
		"clients": clients,
		"total":   len(clients),
	})
}

// handleListStatuses handles GET /v1/status: a flat name-to-status map over
// every entity in the snapshot.
func (s *Server) handleListStatuses(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make(map[string]model.Status, len(snap.Statuses))
	for name, es := range snap.Statuses {
		out[name] = es.Status
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetStatus handles GET /v1/status/{name}.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	es, err := snap.Status(r.PathValue("name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}
