package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/fitness-tracker/internal/model"
)

func TestProfile_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	db, err := store.open(ctx, "alice")
	require.NoError(t, err)
	defer db.Close()

	got, err := getProfile(ctx, db.conn, "alice")
	require.NoError(t, err)
	assert.Nil(t, got, "no row before the first upsert")

	write := func(p *model.ProfileData) {
		t.Helper()
		tx, err := db.conn.BeginTxx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, upsertProfile(ctx, tx, "alice", p))
		require.NoError(t, tx.Commit())
	}

	write(&model.ProfileData{Height: ptr(170.0), Weight: ptr(0.0), Gender: ptr("")})
	got, err = getProfile(ctx, db.conn, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 170.0, *got.Height)
	require.NotNil(t, got.Weight, "zero is kept, not turned into NULL")
	assert.Equal(t, 0.0, *got.Weight)
	assert.Nil(t, got.Age)
	require.NotNil(t, got.Gender)

	write(&model.ProfileData{Age: ptr(41.0)})
	got, err = getProfile(ctx, db.conn, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.Height, "upsert replaces the whole row")
	assert.Equal(t, 41.0, *got.Age)

	var rows int
	require.NoError(t, db.conn.GetContext(ctx, &rows, `SELECT COUNT(*) FROM user_profile`))
	assert.Equal(t, 1, rows)
}

func TestProfile_ScopedByUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	db, err := store.open(ctx, "alice")
	require.NoError(t, err)
	defer db.Close()

	tx, err := db.conn.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, upsertProfile(ctx, tx, "someone-else", &model.ProfileData{Age: ptr(9.0)}))
	require.NoError(t, tx.Commit())

	got, err := getProfile(ctx, db.conn, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}
