// Package repository declares the storage contracts used by the service layer.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sakif/fitness-tracker/internal/model"
)

// ErrCorruptSnapshot is returned when a stored snapshot payload cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot payload")

// SnapshotRepository persists per-user snapshots and the current-state tables.
//
// Implementations own the lifecycle of whatever handle they need: every call is
// self-contained and releases its resources before returning.
type SnapshotRepository interface {
	// Save appends a history row and replaces the user's current state in one
	// transaction. It returns the new history row id.
	Save(ctx context.Context, username string, data model.UserData, at time.Time) (int64, error)
	History(ctx context.Context, username string) ([]model.SnapshotSummary, error)
	Snapshot(ctx context.Context, username string, id int64) (*model.Snapshot, error)
	Current(ctx context.Context, username string) (*model.UserData, error)
	// FileName is the base name of the user's database file.
	FileName(username string) string
}
