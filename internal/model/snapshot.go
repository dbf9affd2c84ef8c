package model

import "time"

// TimestampLayout formats snapshot timestamps as UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UserData is everything a user owns at one point in time: the body of a save
// request, the payload of a snapshot and the content of the current-state tables.
type UserData struct {
	ProfileData *ProfileData `json:"profileData"`
	Workouts    []Workout    `json:"workouts"`
	Meals       []Meal       `json:"meals"`
	Goals       []Goal       `json:"goals"`
}

// Normalize replaces nil collections with empty ones so they encode as [] not null.
func (d *UserData) Normalize() {
	if d.Workouts == nil {
		d.Workouts = []Workout{}
	}
	if d.Meals == nil {
		d.Meals = []Meal{}
	}
	if d.Goals == nil {
		d.Goals = []Goal{}
	}
}

// SaveRequest is the body of POST /api/save-data.
type SaveRequest struct {
	Username string `json:"username"`
	UserData
}

// SaveResponse is returned after a snapshot has been stored.
type SaveResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	DBFile   string `json:"dbFile"`
	RecordID int64  `json:"recordId"`
}

// SnapshotSummary is one row of a user's snapshot history.
// The profile scalars are NULL when they were missing at save time.
type SnapshotSummary struct {
	ID        int64    `json:"id"        db:"id"`
	Timestamp string   `json:"timestamp" db:"timestamp"`
	Height    *float64 `json:"height"    db:"height"`
	Weight    *float64 `json:"weight"    db:"weight"`
	Age       *float64 `json:"age"       db:"age"`
	Gender    *string  `json:"gender"    db:"gender"`
}

// HistoryResponse is the body of GET /api/get-data-history/{username}.
type HistoryResponse struct {
	History []SnapshotSummary `json:"history"`
}

// Snapshot is one immutable history row with its payload expanded.
type Snapshot struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	UserData
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status string `json:"status"`
}
