package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/perimeterlabs/graphgate/internal/graph"
)

type createNodeRequest struct {
	Name        string         `json:"name"`
	Properties  map[string]any `json:"properties"`
	ExtraLabels []string       `json:"extra_labels"`
}

// handleCreateNode handles POST /v1/nodes/{label}.
func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	node, err := s.graph.CreateNode(r.Context(), chi.URLParam(r, "label"), req.Name, req.Properties, req.ExtraLabels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, node)
}

type bulkCreateNodesRequest struct {
	Payloads    []map[string]any `json:"payloads"`
	ExtraLabels []string         `json:"extra_labels"`
}

// handleBulkCreateNodes handles POST /v1/nodes/{label}/batch.
func (s *Server) handleBulkCreateNodes(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateNodesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	nodes, err := s.graph.BulkCreateNodes(r.Context(), chi.URLParam(r, "label"), req.Payloads, req.ExtraLabels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

// handleGetNode handles GET /v1/nodes/{label}/node/{id}.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	node, err := s.graph.GetNode(r.Context(), chi.URLParam(r, "label"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, node)
}

// handleGetNodeByGeid handles GET /v1/nodes/geid/{geid}.
func (s *Server) handleGetNodeByGeid(w http.ResponseWriter, r *http.Request) {
	node, err := s.graph.GetNodeByGeid(r.Context(), chi.URLParam(r, "geid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, node)
}

type geidQueryRequest struct {
	Geids []string `json:"geids"`
}

// handleQueryNodesByGeids handles POST /v1/nodes/geid/query.
func (s *Server) handleQueryNodesByGeids(w http.ResponseWriter, r *http.Request) {
	var req geidQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	nodes, err := s.graph.QueryNodesByGeids(r.Context(), req.Geids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

type updateNodeRequest struct {
	Properties  map[string]any `json:"properties"`
	ExtraLabels []string       `json:"extra_labels"`

	// TouchModified suppresses the time_lastmodified refresh when false.
	// Used for silent bumps such as last_login updates.
	TouchModified *bool `json:"touch_modified"`
}

// handleUpdateNode handles PUT /v1/nodes/{label}/node/{id}.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	touch := req.TouchModified == nil || *req.TouchModified

	node, err := s.graph.UpdateNode(r.Context(), chi.URLParam(r, "label"), id, req.Properties, touch, req.ExtraLabels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, node)
}

// handleDeleteNode handles DELETE /v1/nodes/{label}/node/{id}.
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.graph.DeleteNode(r.Context(), chi.URLParam(r, "label"), id); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

type changeLabelsRequest struct {
	Labels []string `json:"labels"`
}

// handleChangeLabels handles PUT /v1/nodes/{id}/labels. The wildcard is
// registered as {label} for routing reasons but carries the node id.
func (s *Server) handleChangeLabels(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "label"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid node id")
		return
	}

	var req changeLabelsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	node, err := s.graph.ChangeLabels(r.Context(), id, req.Labels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, node)
}

type nodeQueryRequest struct {
	Filters map[string]any `json:"filters"`
	queryModifiers
}

// handleQueryNodes handles POST /v1/nodes/{label}/query.
// Returns a paginated envelope, or a bare count when count is set.
func (s *Server) handleQueryNodes(w http.ResponseWriter, r *http.Request) {
	var req nodeQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	labels := []string{chi.URLParam(r, "label")}

	if req.Count {
		total, err := s.graph.CountNodes(r.Context(), labels, req.Filters, req.options())
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, total)
		return
	}

	nodes, err := s.graph.QueryNodes(r.Context(), labels, req.Filters, req.options())
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := s.graph.CountNodes(r.Context(), labels, req.Filters, req.options())
	if err != nil {
		writeError(w, err)
		return
	}

	writePaged(w, nodes, req.Page, total, req.PageSize)
}

// handleCountNodes handles POST /v1/nodes/{label}/query/count.
func (s *Server) handleCountNodes(w http.ResponseWriter, r *http.Request) {
	var req nodeQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	total, err := s.graph.CountNodes(r.Context(), []string{chi.URLParam(r, "label")}, req.Filters, req.options())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, total)
}

// handleGetPropertyOptions handles GET /v1/nodes/{label}/properties.
func (s *Server) handleGetPropertyOptions(w http.ResponseWriter, r *http.Request) {
	options, err := s.graph.GetPropertyOptions(r.Context(), chi.URLParam(r, "label"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, options)
}

// handleBulkUpdateNodes handles PUT /v1/nodes/batch/{property}.
// The body is a list of {global_entity_id, value} rows.
func (s *Server) handleBulkUpdateNodes(w http.ResponseWriter, r *http.Request) {
	var rows []graph.BulkUpdateRow
	if err := decodeJSON(r, &rows); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	nodes, err := s.graph.BulkUpdateNodes(r.Context(), chi.URLParam(r, "property"), rows)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid node id")
		return 0, false
	}
	return id, true
}
