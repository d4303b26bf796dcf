package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/perimeterlabs/graphgate/internal/cypher"
	"github.com/perimeterlabs/graphgate/internal/graph"
)

type createRelationshipRequest struct {
	StartID    idList         `json:"start_id"`
	EndID      idList         `json:"end_id"`
	Properties map[string]any `json:"properties"`
}

// handleCreateRelationship handles POST /v1/relations/{type}.
// Either start_id or end_id may be a list; the pairs expand as a fan-out
// from the scalar side.
func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req createRelationshipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	pairs, err := graph.NormalizeIDPairs(req.StartID, req.EndID)
	if err != nil {
		writeError(w, err)
		return
	}

	relType := chi.URLParam(r, "type")
	results := make([]map[string]any, 0, len(pairs))
	for _, pair := range pairs {
		rel, err := s.graph.CreateRelationship(r.Context(), relType, pair[0], pair[1], req.Properties)
		if err != nil {
			writeError(w, err)
			return
		}
		results = append(results, rel)
	}

	if len(results) == 1 {
		writeResult(w, http.StatusOK, results[0])
		return
	}
	writeResult(w, http.StatusOK, results)
}

type updateRelationshipRequest struct {
	NewType    string         `json:"new_type"`
	StartID    int64          `json:"start_id"`
	EndID      int64          `json:"end_id"`
	Properties map[string]any `json:"properties"`
}

// handleUpdateRelationship handles PUT /v1/relations/{type}.
// Edge types are immutable, so a re-type recreates the edge.
func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var req updateRelationshipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	rel, err := s.graph.UpdateRelationship(r.Context(), chi.URLParam(r, "type"), req.NewType, req.StartID, req.EndID, req.Properties)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, rel)
}

// handleGetRelationship handles GET /v1/relations.
// type, start_id, and end_id query parameters are all optional; each
// match shapes as a nested name-keyed tree.
func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	startID, ok := queryID(w, r, "start_id")
	if !ok {
		return
	}
	endID, ok := queryID(w, r, "end_id")
	if !ok {
		return
	}

	trees, err := s.graph.GetRelationship(r.Context(), r.URL.Query().Get("type"), startID, endID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, trees)
}

// handleDeleteRelationship handles DELETE /v1/relations.
func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	startID, ok := queryID(w, r, "start_id")
	if !ok {
		return
	}
	endID, ok := queryID(w, r, "end_id")
	if !ok {
		return
	}
	if startID == nil || endID == nil {
		writeBadRequest(w, "start_id and end_id are required")
		return
	}

	if err := s.graph.DeleteRelationship(r.Context(), *startID, *endID); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nil)
}

type relationQueryRequest struct {
	Type         string         `json:"type"`
	StartLabel   string         `json:"start_label"`
	EndLabel     string         `json:"end_label"`
	StartFilters map[string]any `json:"start_filters"`
	EndFilters   map[string]any `json:"end_filters"`
	SortNode     string         `json:"sort_node"`
	queryModifiers
}

// handleQueryRelationships handles POST /v1/relations/query.
func (s *Server) handleQueryRelationships(w http.ResponseWriter, r *http.Request) {
	var req relationQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if req.Count {
		total, err := s.graph.CountRelationships(r.Context(), req.Type, req.StartLabel, req.EndLabel, req.StartFilters, req.EndFilters, req.options())
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, total)
		return
	}

	rows, err := s.graph.QueryRelationships(r.Context(), req.Type, req.StartLabel, req.EndLabel, req.StartFilters, req.EndFilters, req.SortNode, req.options())
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := s.graph.CountRelationships(r.Context(), req.Type, req.StartLabel, req.EndLabel, req.StartFilters, req.EndFilters, req.options())
	if err != nil {
		writeError(w, err)
		return
	}

	writePaged(w, rows, req.Page, total, req.PageSize)
}

// handleCountRelationships handles POST /v1/relations/query/count.
func (s *Server) handleCountRelationships(w http.ResponseWriter, r *http.Request) {
	var req relationQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	total, err := s.graph.CountRelationships(r.Context(), req.Type, req.StartLabel, req.EndLabel, req.StartFilters, req.EndFilters, req.options())
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, total)
}

type multiLabelQueryRequest struct {
	Type         string                  `json:"type"`
	StartID      int64                   `json:"start_id"`
	Alternatives []cypher.EndAlternative `json:"alternatives"`
	queryModifiers
}

// handleQueryRelatedMultiLabel handles POST /v1/relations/query/multi.
// Alternatives OR-combine; filters within one alternative AND-combine.
func (s *Server) handleQueryRelatedMultiLabel(w http.ResponseWriter, r *http.Request) {
	var req multiLabelQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	nodes, total, err := s.graph.QueryRelatedMultiLabel(r.Context(), req.Type, req.StartID, req.Alternatives, req.options())
	if err != nil {
		writeError(w, err)
		return
	}
	writePaged(w, nodes, req.Page, total, req.PageSize)
}

// handleGetNodesAlongRelation handles GET /v1/relations/{type}/node/{id}.
// The start query parameter selects which side the id anchors (default
// start side).
func (s *Server) handleGetNodesAlongRelation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	start := r.URL.Query().Get("start") != "false"

	nodes, err := s.graph.GetNodesAlongRelation(r.Context(), chi.URLParam(r, "type"), id, start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

// handleGetNodesOutsideRelation handles GET /v1/relations/{type}/node/{id}/none.
func (s *Server) handleGetNodesOutsideRelation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	nodes, err := s.graph.GetNodesOutsideRelation(r.Context(), chi.URLParam(r, "type"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

// handleGetConnectedNodes handles GET /v1/relations/connected/{geid}.
// Query parameters: relation_type (default own), direction (input,
// output, or both; default input), depth (0 means unbounded).
func (s *Server) handleGetConnectedNodes(w http.ResponseWriter, r *http.Request) {
	relType := r.URL.Query().Get("relation_type")
	if relType == "" {
		relType = "own"
	}

	directionParam := r.URL.Query().Get("direction")
	if directionParam == "" {
		directionParam = string(cypher.DirectionInput)
	}
	direction, err := cypher.ParseDirection(directionParam)
	if err != nil {
		writeError(w, err)
		return
	}

	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		depth, err = strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "invalid depth")
			return
		}
	}

	nodes, err := s.graph.GetConnectedNodes(r.Context(), chi.URLParam(r, "geid"), relType, direction, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, nodes)
}

// queryID parses an optional int64 query parameter, writing a 400 when
// present but malformed.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return nil, false
	}
	return &id, true
}
