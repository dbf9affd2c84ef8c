// Package handler contains the HTTP handlers of the snapshot backend.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (URL params, JSON body)
// 2. Call the service
// 3. Write the JSON response (status code, headers, body)
//
// Handlers hold no business logic; validation and storage live below them.
package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so every error body
// has the same shape:
//
//	{"error": "Username is required", "code": "validation_error"}
//
// "error" is the human-readable message (clients show it as is) and "code" is
// the machine-readable kind.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/fitness-tracker/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"` // Human-readable message
	Code  string `json:"code"`  // Machine-readable error type (e.g., "not_found")
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once Encode
// writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation   → 400
//	apperror.ErrUnauthorized → 401
//	apperror.ErrNotFound     → 404
//	apperror.ErrConflict     → 409
//	anything else            → 500 with fallback as the message
//
// Unknown errors never reach the client verbatim: they may contain SQL or
// file paths. The caller logs them.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		code := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			code = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			code = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			code = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			code = "conflict"
		}

		message := appErr.Message
		if status == http.StatusInternalServerError {
			message = fallback
		}
		writeJSON(w, status, ErrorResponse{Error: message, Code: code})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: fallback,
		Code:  "internal_error",
	})
}

// isServerError reports whether writeError would answer err with a 500.
func isServerError(err error) bool {
	for _, kind := range []error{
		apperror.ErrValidation,
		apperror.ErrUnauthorized,
		apperror.ErrNotFound,
		apperror.ErrConflict,
	} {
		if errors.Is(err, kind) {
			return false
		}
	}
	return true
}

// requestID returns the id chi's RequestID middleware attached to r, if any.
func requestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}
