// Package auth manages the client's local accounts: registration, login,
// logout and profile updates.
//
// Accounts live in the local store under two keys:
//
//	fitness-tracker-users         map[username]Credential, the registry
//	fitness-tracker-current-user  the User currently logged in
//
// There is no server side to authentication. The backend trusts whatever
// username the client sends.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/localstore"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/notify"
)

// Storage is the part of the local store the Service uses.
// *localstore.Store satisfies it.
type Storage interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	RemoveItem(ctx context.Context, key string) error
}

// Service implements the account operations.
type Service struct {
	store    Storage
	hasher   PasswordHasher
	notifier notify.Notifier
	logger   *slog.Logger
	newID    func() string
}

// NewService creates a Service. A nil hasher means PlaintextHasher.
func NewService(store Storage, hasher PasswordHasher, notifier notify.Notifier, logger *slog.Logger) *Service {
	if hasher == nil {
		hasher = PlaintextHasher{}
	}
	return &Service{
		store:    store,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
		newID:    func() string { return xid.New().String() },
	}
}

// Register creates an account and logs it in.
//
// An existing username is never overwritten: the second registration fails
// with a conflict and the first record stays as it was.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.register(ctx, username, password)
	if err != nil {
		s.notifier.Error(apperror.Message(err, "Registration failed"))
		return nil, err
	}
	s.notifier.Success("Registration successful!")
	return user, nil
}

func (s *Service) register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "Username and password are required")
	}
	if !model.ValidUsername(username) {
		return nil, apperror.ValidationFailed("username", fmt.Sprintf(
			"Username may only contain letters, digits, '.', '_' and '-' (max %d characters)",
			model.MaxUsernameLength,
		))
	}

	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := users[username]; exists {
		return nil, apperror.Conflict("username", "Username already exists")
	}

	stored, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := model.User{
		ID:          s.newID(),
		Username:    username,
		ProfileData: model.EmptyProfile(),
	}
	users[username] = model.Credential{Username: username, Password: stored, UserData: user}

	if err := s.store.SetJSON(ctx, localstore.UsersKey, users); err != nil {
		return nil, fmt.Errorf("auth: saving registry: %w", err)
	}
	if err := s.store.SetJSON(ctx, localstore.CurrentUserKey, user); err != nil {
		return nil, fmt.Errorf("auth: saving current user: %w", err)
	}

	s.logger.Info("user registered", slog.String("username", username), slog.String("user_id", user.ID))
	return &user, nil
}

// Login checks the credentials and makes the stored user current.
// Unknown usernames and wrong passwords fail with the same message.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.login(ctx, username, password)
	if err != nil {
		s.notifier.Error(apperror.Message(err, "Login failed"))
		return nil, err
	}
	s.notifier.Success("Login successful!")
	return user, nil
}

func (s *Service) login(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "Username and password are required")
	}

	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}

	cred, ok := users[username]
	if !ok {
		return nil, apperror.Unauthorized("Invalid username or password")
	}
	if err := s.hasher.Verify(cred.Password, password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			s.logger.Warn("password verification failed", slog.String("username", username), slog.String("error", err.Error()))
		}
		return nil, apperror.Unauthorized("Invalid username or password")
	}

	user := cred.UserData
	if err := s.store.SetJSON(ctx, localstore.CurrentUserKey, user); err != nil {
		return nil, fmt.Errorf("auth: saving current user: %w", err)
	}
	return &user, nil
}

// Logout forgets the current user. The registry is untouched.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.RemoveItem(ctx, localstore.CurrentUserKey); err != nil {
		s.notifier.Error("Logout failed")
		return fmt.Errorf("auth: clearing current user: %w", err)
	}
	s.notifier.Success("Logged out successfully")
	return nil
}

// UpdateProfile merges update into the current user's profile. Only non-nil
// fields of update are applied. Without a logged-in user it does nothing and
// returns (nil, nil).
func (s *Service) UpdateProfile(ctx context.Context, update model.ProfileData) (*model.User, error) {
	current, err := s.CurrentUser(ctx)
	if err != nil {
		s.notifier.Error("Failed to update profile")
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	updated := *current
	updated.ProfileData = current.ProfileData.Merge(update)

	users, err := s.users(ctx)
	if err != nil {
		s.notifier.Error("Failed to update profile")
		return nil, err
	}
	if cred, ok := users[updated.Username]; ok {
		cred.UserData = updated
		users[updated.Username] = cred
		if err := s.store.SetJSON(ctx, localstore.UsersKey, users); err != nil {
			s.notifier.Error("Failed to update profile")
			return nil, fmt.Errorf("auth: saving registry: %w", err)
		}
	}

	if err := s.store.SetJSON(ctx, localstore.CurrentUserKey, updated); err != nil {
		s.notifier.Error("Failed to update profile")
		return nil, fmt.Errorf("auth: saving current user: %w", err)
	}

	s.notifier.Success("Profile updated successfully")
	return &updated, nil
}

// CurrentUser returns the logged-in user, or nil when nobody is logged in.
//
// A current-user value that no longer decodes is logged, removed, and treated
// as logged out.
func (s *Service) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	ok, err := s.store.GetJSON(ctx, localstore.CurrentUserKey, &user)
	if errors.Is(err, localstore.ErrCorrupt) {
		s.logger.Error("failed to parse stored user", slog.String("error", err.Error()))
		if rmErr := s.store.RemoveItem(ctx, localstore.CurrentUserKey); rmErr != nil {
			return nil, fmt.Errorf("auth: clearing corrupt current user: %w", rmErr)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: reading current user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// users loads the registry. A corrupt registry is logged and read as empty.
func (s *Service) users(ctx context.Context) (map[string]model.Credential, error) {
	users := map[string]model.Credential{}
	_, err := s.store.GetJSON(ctx, localstore.UsersKey, &users)
	if errors.Is(err, localstore.ErrCorrupt) {
		s.logger.Error("failed to parse users", slog.String("error", err.Error()))
		return map[string]model.Credential{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: reading registry: %w", err)
	}
	if users == nil {
		users = map[string]model.Credential{}
	}
	return users, nil
}
