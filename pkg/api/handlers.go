package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
)

// Handlers wires the HTTP control surface to a live Graph.
type Handlers struct {
	graph *graphcc.Graph
	log   zerolog.Logger
}

// NewHandlers returns a Handlers bound to graph.
func NewHandlers(graph *graphcc.Graph, log zerolog.Logger) *Handlers {
	return &Handlers{graph: graph, log: log}
}

type edgeRequest struct {
	U  uint64 `json:"u"`
	V  uint64 `json:"v"`
	Op string `json:"op"`
}

type edgesRequest struct {
	Edges []edgeRequest `json:"edges"`
}

// InsertEdges handles POST /api/v1/edges: applies a batch of edge
// insert/delete events to the graph.
func (h *Handlers) InsertEdges(w http.ResponseWriter, r *http.Request) {
	var req edgesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Edges) == 0 {
		writeError(w, h.log, http.StatusBadRequest, "edges must be non-empty", nil)
		return
	}

	applied := 0
	for _, e := range req.Edges {
		op := graphcc.Insert
		if e.Op == "delete" {
			op = graphcc.Delete
		}
		if err := h.graph.Update(graphcc.Edge{U: e.U, V: e.V}, op); err != nil {
			if err == graphcc.ErrUpdateLocked {
				writeError(w, h.log, http.StatusConflict, "graph is locked for querying", err)
				return
			}
			writeError(w, h.log, http.StatusBadRequest, "failed to apply edge", err)
			return
		}
		applied++
	}

	writeSuccess(w, h.log, "edges accepted", map[string]int{"applied": applied})
}

// GetComponents handles GET /api/v1/components?continue=true|false.
func (h *Handlers) GetComponents(w http.ResponseWriter, r *http.Request) {
	continueAfter := false
	if v := r.URL.Query().Get("continue"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, h.log, http.StatusBadRequest, "invalid continue parameter", err)
			return
		}
		continueAfter = parsed
	}

	components, err := h.graph.ConnectedComponents(r.Context(), continueAfter)
	if err != nil {
		if err == graphcc.ErrOutOfQueries {
			writeError(w, h.log, http.StatusServiceUnavailable, "query exhausted its round budget, retry", err)
			return
		}
		writeError(w, h.log, http.StatusInternalServerError, "failed to compute components", err)
		return
	}

	writeSuccess(w, h.log, "components computed", map[string]interface{}{
		"components": components,
		"count":      len(components),
	})
}

// GetStatus handles GET /api/v1/status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.log, "status", map[string]interface{}{
		"n":           h.graph.N(),
		"numUpdates":  h.graph.NumUpdates(),
		"locked":      h.graph.Locked(),
	})
}

// HealthCheck handles GET /api/v1/health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.log, "ok", nil)
}
