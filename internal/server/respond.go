package server

import (
	"encoding/json"
	"net/http"

	"github.com/perimeterlabs/graphgate/internal/apperr"
	"github.com/perimeterlabs/graphgate/internal/cypher"
)

// envelope is the uniform response body for the v1 API.
type envelope struct {
	Code     int    `json:"code"`
	ErrorMsg string `json:"error_msg"`
	Result   any    `json:"result"`
}

// pagedEnvelope extends the envelope for paginated query endpoints.
type pagedEnvelope struct {
	envelope
	Page       int64 `json:"page"`
	Total      int64 `json:"total"`
	NumOfPages int64 `json:"num_of_pages"`
}

// queryModifiers are the out-of-band knobs shared by the query endpoints.
// page and page_size translate to skip/limit offset pagination.
type queryModifiers struct {
	Partial   bool   `json:"partial"`
	OrderBy   string `json:"order_by"`
	OrderType string `json:"order_type"`
	Page      int64  `json:"page"`
	PageSize  int64  `json:"page_size"`
	Count     bool   `json:"count"`
}

func (m queryModifiers) options() cypher.Options {
	return cypher.Options{
		Partial:   m.Partial,
		OrderBy:   m.OrderBy,
		OrderType: m.OrderType,
		Skip:      m.Page * m.PageSize,
		Limit:     m.PageSize,
		Count:     m.Count,
	}
}

func numPages(total, pageSize int64) int64 {
	if pageSize <= 0 {
		if total > 0 {
			return 1
		}
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, status int, result any) {
	writeJSON(w, status, envelope{Code: status, Result: result})
}

func writePaged(w http.ResponseWriter, result any, page, total, pageSize int64) {
	writeJSON(w, http.StatusOK, pagedEnvelope{
		envelope:   envelope{Code: http.StatusOK, Result: result},
		Page:       page,
		Total:      total,
		NumOfPages: numPages(total, pageSize),
	})
}

// writeError maps the error taxonomy to HTTP status codes once, at the
// boundary. Unknown errors become 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAlreadyExists:
		status = http.StatusConflict
	case apperr.KindUpstream:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, envelope{Code: status, ErrorMsg: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, ErrorMsg: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
