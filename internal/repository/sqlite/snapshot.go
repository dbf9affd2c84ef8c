package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/repository"
)

var _ repository.SnapshotRepository = (*Store)(nil)

const (
	insertWorkoutSQL = `INSERT INTO workouts (username, id, date, type, duration, description, distance)
		VALUES (:username, :id, :date, :type, :duration, :description, :distance)`
	insertMealSQL = `INSERT INTO meals (username, id, date, name, calories, protein, carbs, fat, mealType)
		VALUES (:username, :id, :date, :name, :calories, :protein, :carbs, :fat, :mealType)`
	insertGoalSQL = `INSERT INTO goals (username, id, title, description, target, current, unit, startDate, endDate, type)
		VALUES (:username, :id, :title, :description, :target, :current, :unit, :startDate, :endDate, :type)`
)

// Save stores a snapshot of data for username and replaces the current state.
//
// TRANSACTION BOUNDARY:
// The history insert, the profile upsert and the delete-then-insert of all three
// collections happen in a single transaction. A reader never sees the
// collections half-replaced, and any failure leaves the file exactly as it was.
//
// `defer tx.Rollback()` is safe after a successful Commit: it returns
// sql.ErrTxDone, which we ignore.
func (s *Store) Save(ctx context.Context, username string, data model.UserData, at time.Time) (int64, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("sqlite: encoding snapshot for %s: %w", username, err)
	}

	db, err := s.open(ctx, username)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning save for %s: %w", username, err)
	}
	defer tx.Rollback()

	p := data.ProfileData
	if p == nil {
		p = &model.ProfileData{}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO user_data (timestamp, username, height, weight, age, gender, data_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.FormatTimestamp(at),
		username,
		orNullFloat(p.Height),
		orNullFloat(p.Weight),
		orNullFloat(p.Age),
		orNullStringPtr(p.Gender),
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: inserting snapshot for %s: %w", username, err)
	}
	recordID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading snapshot id for %s: %w", username, err)
	}

	if data.ProfileData != nil {
		if err := upsertProfile(ctx, tx, username, data.ProfileData); err != nil {
			return 0, err
		}
	}

	if err := replaceRows(ctx, tx, "workouts", insertWorkoutSQL, username, data.Workouts, newWorkoutRow); err != nil {
		return 0, err
	}
	if err := replaceRows(ctx, tx, "meals", insertMealSQL, username, data.Meals, newMealRow); err != nil {
		return 0, err
	}
	if err := replaceRows(ctx, tx, "goals", insertGoalSQL, username, data.Goals, newGoalRow); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing save for %s: %w", username, err)
	}

	return recordID, nil
}

// replaceRows deletes the user's rows from table and inserts items through one
// prepared named statement. It is a full replace, not a merge.
func replaceRows[T any, R any](
	ctx context.Context,
	tx *sqlx.Tx,
	table, insertSQL, username string,
	items []T,
	toRow func(string, T) R,
) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE username = ?`, table), username); err != nil {
		return fmt.Errorf("sqlite: clearing %s for %s: %w", table, username, err)
	}
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("sqlite: preparing %s insert: %w", table, err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, toRow(username, item)); err != nil {
			return fmt.Errorf("sqlite: inserting into %s for %s: %w", table, username, err)
		}
	}
	return nil
}

// History lists the summary columns of every snapshot for username, newest first.
func (s *Store) History(ctx context.Context, username string) ([]model.SnapshotSummary, error) {
	db, err := s.open(ctx, username)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	history := []model.SnapshotSummary{}
	err = db.conn.SelectContext(ctx, &history,
		`SELECT id, timestamp, height, weight, age, gender
		 FROM user_data
		 WHERE username = ?
		 ORDER BY id DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history for %s: %w", username, err)
	}

	return history, nil
}

// Snapshot returns one history row with its JSON payload expanded.
// Returns apperror.ErrNotFound if no such row exists for username.
//
// The profile comes from the payload when it was saved with one; otherwise the
// flattened columns are used.
func (s *Store) Snapshot(ctx context.Context, username string, id int64) (*model.Snapshot, error) {
	db, err := s.open(ctx, username)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var row snapshotRow
	err = db.conn.GetContext(ctx, &row,
		`SELECT id, timestamp, username, height, weight, age, gender, data_json
		 FROM user_data
		 WHERE username = ? AND id = ?`,
		username, id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snapshot", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting snapshot %d for %s: %w", id, username, err)
	}

	var data model.UserData
	if row.DataJSON.Valid && row.DataJSON.String != "" {
		if err := json.Unmarshal([]byte(row.DataJSON.String), &data); err != nil {
			return nil, fmt.Errorf("%w: snapshot %d for %s: %v", repository.ErrCorruptSnapshot, id, username, err)
		}
	}
	if data.ProfileData == nil {
		data.ProfileData = row.profile()
	}
	data.Normalize()

	return &model.Snapshot{
		ID:        row.ID,
		Timestamp: row.Timestamp.String,
		Username:  row.Username.String,
		UserData:  data,
	}, nil
}

// Current returns the latest saved state of username: profile plus the three
// collections in insertion order.
//
// All four reads run inside one transaction and are fully materialised before
// the handle is closed by the deferred Close.
func (s *Store) Current(ctx context.Context, username string) (*model.UserData, error) {
	db, err := s.open(ctx, username)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning read for %s: %w", username, err)
	}
	defer tx.Rollback()

	profile, err := getProfile(ctx, tx, username)
	if err != nil {
		return nil, err
	}
	data := &model.UserData{ProfileData: profile}

	var workouts []workoutRow
	if err := tx.SelectContext(ctx, &workouts,
		`SELECT username, id, date, type, duration, description, distance
		 FROM workouts WHERE username = ? ORDER BY rowid`, username); err != nil {
		return nil, fmt.Errorf("sqlite: reading workouts for %s: %w", username, err)
	}
	var meals []mealRow
	if err := tx.SelectContext(ctx, &meals,
		`SELECT username, id, date, name, calories, protein, carbs, fat, mealType
		 FROM meals WHERE username = ? ORDER BY rowid`, username); err != nil {
		return nil, fmt.Errorf("sqlite: reading meals for %s: %w", username, err)
	}
	var goals []goalRow
	if err := tx.SelectContext(ctx, &goals,
		`SELECT username, id, title, description, target, current, unit, startDate, endDate, type
		 FROM goals WHERE username = ? ORDER BY rowid`, username); err != nil {
		return nil, fmt.Errorf("sqlite: reading goals for %s: %w", username, err)
	}

	data.Workouts = make([]model.Workout, 0, len(workouts))
	for _, r := range workouts {
		data.Workouts = append(data.Workouts, r.toModel())
	}
	data.Meals = make([]model.Meal, 0, len(meals))
	for _, r := range meals {
		data.Meals = append(data.Meals, r.toModel())
	}
	data.Goals = make([]model.Goal, 0, len(goals))
	for _, r := range goals {
		data.Goals = append(data.Goals, r.toModel())
	}

	return data, nil
}

func orNullStringPtr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return orNullString(*p)
}
