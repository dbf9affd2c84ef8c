package auth

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/localstore"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/notify"
)

func ptr[T any](v T) *T { return &v }

type testEnv struct {
	svc   *Service
	store *localstore.Store
	notes *notify.Recorder
}

func newTestEnv(t *testing.T, hasher PasswordHasher) testEnv {
	t.Helper()
	store, err := localstore.Open(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	notes := &notify.Recorder{}
	svc := NewService(store, hasher, notes, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return testEnv{svc: svc, store: store, notes: notes}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.ProfileData)
	assert.Equal(t, 0.0, *user.ProfileData.Height)
	assert.Equal(t, "", *user.ProfileData.Gender)
	assert.Equal(t, []string{"Registration successful!"}, env.notes.Successes)

	current, err := env.svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	var users map[string]model.Credential
	ok, err := env.store.GetJSON(ctx, localstore.UsersKey, &users)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret", users["alice"].Password)
}

func TestRegister_DuplicateKeepsFirstRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, "alice", "first")
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "alice", "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username already exists", env.notes.LastError())

	var users map[string]model.Credential
	_, err = env.store.GetJSON(ctx, localstore.UsersKey, &users)
	require.NoError(t, err)
	assert.Equal(t, "first", users["alice"].Password)
	assert.Equal(t, first.ID, users["alice"].UserData.ID)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name, username, password string
	}{
		{"empty username", "", "pw"},
		{"empty password", "alice", ""},
		{"path in username", "../alice", "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
	assert.Equal(t, "Username and password are required", env.notes.Errors[0])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	registered, err := env.svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, env.svc.Logout(ctx))

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.svc.Login(ctx, "alice", "nope")
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, "Invalid username or password", env.notes.LastError())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.svc.Login(ctx, "bob", "secret")
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("empty fields", func(t *testing.T) {
		_, err := env.svc.Login(ctx, "alice", "")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("success", func(t *testing.T) {
		user, err := env.svc.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)

		current, err := env.svc.CurrentUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, "alice", current.Username)
	})
}

func TestLogin_Bcrypt(t *testing.T) {
	env := newTestEnv(t, NewBcryptHasherWithCost(bcrypt.MinCost))
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	var users map[string]model.Credential
	_, err = env.store.GetJSON(ctx, localstore.UsersKey, &users)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", users["alice"].Password, "password must not be stored as given")

	_, err = env.svc.Login(ctx, "alice", "secret")
	assert.NoError(t, err)
	_, err = env.svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx))

	current, err := env.svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Contains(t, env.notes.Successes, "Logged out successfully")
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	updated, err := env.svc.UpdateProfile(ctx, model.ProfileData{Weight: ptr(68.5), Age: ptr(29.0)})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 68.5, *updated.ProfileData.Weight)
	assert.Equal(t, 29.0, *updated.ProfileData.Age)
	assert.Equal(t, 0.0, *updated.ProfileData.Height, "fields not in the update are kept")

	// The registry entry follows, so the profile survives logout and login.
	require.NoError(t, env.svc.Logout(ctx))
	user, err := env.svc.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, 68.5, *user.ProfileData.Weight)
}

func TestUpdateProfile_NoUserIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)

	user, err := env.svc.UpdateProfile(context.Background(), model.ProfileData{Weight: ptr(1.0)})

	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, env.notes.Successes)
}

func TestCurrentUser_CorruptIsLoggedOut(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.SetItem(ctx, localstore.CurrentUserKey, "{broken"))

	user, err := env.svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, ok, err := env.store.GetItem(ctx, localstore.CurrentUserKey)
	require.NoError(t, err)
	assert.False(t, ok, "corrupt value must be removed")
}

func TestRegister_CorruptRegistryStartsOver(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.SetItem(ctx, localstore.UsersKey, "not json"))

	_, err := env.svc.Register(ctx, "alice", "secret")
	assert.NoError(t, err)
}
