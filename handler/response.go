// Package handler provides the JSON request/response plumbing shared by all
// API modules: a stable response envelope, body decoding with limits, and the
// mapping from domain errors to HTTP status codes.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxBodySize caps request bodies at 1MB; none of the API payloads come close.
const maxBodySize = 1 << 20

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code, a human message, and optional
// per-field details for validation failures.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, JSONResponse{Data: data})
}

// JSONWithMeta writes a success envelope including metadata such as paging.
func JSONWithMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	writeEnvelope(w, status, JSONResponse{Data: data, Meta: meta})
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeEnvelope(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var (
	ErrUnsupportedMediaType = errors.New("handler: content type must be application/json")
	ErrInvalidBody          = errors.New("handler: invalid request body")
)

// Decode reads a JSON request body into v. Unknown fields are tolerated so
// clients can evolve ahead of the server.
func Decode(r *http.Request, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		return ErrUnsupportedMediaType
	}

	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(v); err != nil && err != io.EOF {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}
