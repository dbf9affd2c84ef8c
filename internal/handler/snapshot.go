package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/model"
)

// MaxSaveBodyBytes caps the size of a save-data request body.
const MaxSaveBodyBytes = 10 << 20

// SnapshotService is what SnapshotHandler needs from the business layer.
// *service.SnapshotService satisfies it.
type SnapshotService interface {
	Save(ctx context.Context, req model.SaveRequest) (*model.SaveResponse, error)
	History(ctx context.Context, username string) (*model.HistoryResponse, error)
	Snapshot(ctx context.Context, username, id string) (*model.Snapshot, error)
	Current(ctx context.Context, username string) (*model.UserData, error)
}

// SnapshotHandler serves the snapshot API.
//
// Handlers only know HTTP: they pull the username (and record id) out of the
// URL or body, call the service, and translate the result with writeJSON or
// writeError. Validation lives in the service.
type SnapshotHandler struct {
	service SnapshotService
	logger  *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(svc SnapshotService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{service: svc, logger: logger}
}

// HandleSave stores a new snapshot.
//
// HTTP: POST /api/save-data
// REQUEST BODY: {"username": "alice", "profileData": {...}, "workouts": [...], "meals": [...], "goals": [...]}
func (h *SnapshotHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSaveBodyBytes)

	var req model.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  "validation_error",
			})
			return
		}
		h.logger.Warn("invalid save-data JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"), "")
		return
	}

	resp, err := h.service.Save(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to save data")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory lists a user's snapshots, newest first.
//
// HTTP: GET /api/get-data-history/{username}
func (h *SnapshotHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.History(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve data history")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSnapshot returns one snapshot with its payload.
//
// HTTP: GET /api/get-data-snapshot/{username}/{id}
func (h *SnapshotHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Record not found", Code: "not_found"})
			return
		}
		h.fail(w, r, err, "Failed to retrieve data snapshot")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleCurrent returns the user's current state.
//
// HTTP: GET /api/get-data/{username}
func (h *SnapshotHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Current(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve data")
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// HandleStatus is the liveness probe.
//
// HTTP: GET /api/status
func (h *SnapshotHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.StatusResponse{Status: "running"})
}

// fail logs server-side failures with the request id and writes the error.
func (h *SnapshotHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if isServerError(err) {
		h.logger.Error(fallback,
			slog.String("path", r.URL.Path),
			slog.String("request_id", requestID(r)),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, err, fallback)
}
