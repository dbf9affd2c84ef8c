// Package service contains the business rules of the snapshot backend.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)        → parses requests, writes responses
//	Service (this package) → validates usernames and payloads, logs, stamps time
//	Repository (storage)  → one SQLite file per user
//
// The service never sees an *http.Request and never writes SQL. It receives a
// repository.SnapshotRepository interface, so tests hand it an in-memory fake.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/repository"
)

const saveSuccessMessage = "Data saved successfully"

// SnapshotService validates snapshot requests and delegates storage to the repository.
type SnapshotService struct {
	repo   repository.SnapshotRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSnapshotService creates a SnapshotService that stamps snapshots with the wall clock.
func NewSnapshotService(repo repository.SnapshotRepository, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Save validates req and stores it as a new snapshot, replacing the user's
// current state.
//
// VALIDATE BEFORE TOUCHING DISK:
// The username becomes a file name, so it is checked first. A request without
// one (or with a path separator in it) is rejected before any file is opened.
func (s *SnapshotService) Save(ctx context.Context, req model.SaveRequest) (*model.SaveResponse, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEntities(req.UserData); err != nil {
		return nil, err
	}

	recordID, err := s.repo.Save(ctx, req.Username, req.UserData, s.now())
	if err != nil {
		s.logger.Error("failed to save snapshot",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		slog.String("username", req.Username),
		slog.Int64("record_id", recordID),
		slog.Int("workouts", len(req.Workouts)),
		slog.Int("meals", len(req.Meals)),
		slog.Int("goals", len(req.Goals)),
	)

	return &model.SaveResponse{
		Success:  true,
		Message:  saveSuccessMessage,
		DBFile:   s.repo.FileName(req.Username),
		RecordID: recordID,
	}, nil
}

// History returns every snapshot summary of username, newest first.
func (s *SnapshotService) History(ctx context.Context, username string) (*model.HistoryResponse, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	history, err := s.repo.History(ctx, username)
	if err != nil {
		s.logger.Error("failed to list snapshot history",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if history == nil {
		history = []model.SnapshotSummary{}
	}

	return &model.HistoryResponse{History: history}, nil
}

// Snapshot returns one stored snapshot. id comes straight from the URL and must
// be a positive integer.
func (s *SnapshotService) Snapshot(ctx context.Context, username, id string) (*model.Snapshot, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "Username and record ID are required")
	}
	recordID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || recordID <= 0 {
		return nil, apperror.ValidationFailed("id", fmt.Sprintf("Invalid record ID %q", id))
	}

	snap, err := s.repo.Snapshot(ctx, username, recordID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to read snapshot",
			slog.String("username", username),
			slog.Int64("record_id", recordID),
			slog.Bool("corrupt", errors.Is(err, repository.ErrCorruptSnapshot)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return snap, nil
}

// Current returns the user's latest saved state. A user who never saved gets a
// nil profile and empty collections.
func (s *SnapshotService) Current(ctx context.Context, username string) (*model.UserData, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	data, err := s.repo.Current(ctx, username)
	if err != nil {
		s.logger.Error("failed to read current data",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reading current data: %w", err)
	}
	data.Normalize()

	return data, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "Username is required")
	}
	if !model.ValidUsername(username) {
		return apperror.ValidationFailed("username", fmt.Sprintf(
			"Username may only contain letters, digits, '.', '_' and '-' (max %d characters)",
			model.MaxUsernameLength,
		))
	}
	return nil
}

// validateEntities rejects empty or repeated ids within one collection.
// The current-state tables key rows by id, so either would fail the insert
// halfway through the transaction. Negative minutes, distances and nutrition
// values are rejected too.
func validateEntities(data model.UserData) error {
	workoutIDs := make([]string, len(data.Workouts))
	for i, w := range data.Workouts {
		workoutIDs[i] = w.ID
	}
	mealIDs := make([]string, len(data.Meals))
	for i, m := range data.Meals {
		mealIDs[i] = m.ID
	}
	goalIDs := make([]string, len(data.Goals))
	for i, g := range data.Goals {
		goalIDs[i] = g.ID
	}

	for _, c := range []struct {
		field string
		ids   []string
	}{
		{"workouts", workoutIDs},
		{"meals", mealIDs},
		{"goals", goalIDs},
	} {
		seen := make(map[string]struct{}, len(c.ids))
		for _, id := range c.ids {
			if id == "" {
				return apperror.ValidationFailed(c.field, fmt.Sprintf("every entry in %s needs an id", c.field))
			}
			if _, dup := seen[id]; dup {
				return apperror.ValidationFailed(c.field, fmt.Sprintf("duplicate id %q in %s", id, c.field))
			}
			seen[id] = struct{}{}
		}
	}

	for _, w := range data.Workouts {
		if w.Duration < 0 || (w.Distance != nil && *w.Distance < 0) {
			return apperror.ValidationFailed("workouts", fmt.Sprintf("workout %q has a negative duration or distance", w.ID))
		}
	}
	for _, m := range data.Meals {
		if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
			return apperror.ValidationFailed("meals", fmt.Sprintf("meal %q has negative calories or macros", m.ID))
		}
	}
	return nil
}
