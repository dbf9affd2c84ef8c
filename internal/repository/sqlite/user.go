package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/fitness-tracker/internal/model"
)

// upsertProfile writes the current profile of username.
//
// INSERT OR REPLACE semantics:
// username is the primary key of user_profile, so a second save replaces the
// row instead of adding one. Unlike the history columns, zero values are kept
// as zeros here; only nil fields become NULL.
func upsertProfile(ctx context.Context, tx *sqlx.Tx, username string, p *model.ProfileData) error {
	_, err := tx.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO user_profile (username, height, weight, age, gender)
		 VALUES (:username, :height, :weight, :age, :gender)`,
		newProfileRow(username, p),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting profile for %s: %w", username, err)
	}
	return nil
}

// getProfile reads the current profile of username.
// Returns nil, nil when the user never saved with a profile.
func getProfile(ctx context.Context, q sqlx.QueryerContext, username string) (*model.ProfileData, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT username, height, weight, age, gender FROM user_profile WHERE username = ?`,
		username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading profile for %s: %w", username, err)
	}
	return row.toModel(), nil
}
