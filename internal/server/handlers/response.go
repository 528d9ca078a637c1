package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/meridian-obs/skysched/internal/boundary"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// RawJSON writes an already-serialized JSON document.
func RawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// BoundaryError maps a scheduling engine error onto an HTTP response.
// Input problems are 400s, scheduling failures are 422s, everything
// else is a 500.
func BoundaryError(w http.ResponseWriter, err error) {
	code := boundary.CodeOf(err)

	var status int
	switch code {
	case boundary.CodeNullPointer, boundary.CodeInvalidJSON,
		boundary.CodeDeserialization, boundary.CodeInvalidHandle:
		status = http.StatusBadRequest
	case boundary.CodeSchedulingFailed, boundary.CodePreschedulerFailed:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}

	Error(w, status, code.String(), err.Error())
}
