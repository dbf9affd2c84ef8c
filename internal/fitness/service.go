// Package fitness holds the logged-in user's workouts, meals and goals on the
// client and keeps them in the local store.
//
// PERSISTENCE:
// The three collections of a user live under one key,
// fitness-tracker-data-<userID>, as a single JSON object. Every mutation
// rewrites the whole object, so the store always matches memory.
package fitness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/fitness-tracker/internal/apperror"
	"github.com/sakif/fitness-tracker/internal/localstore"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/notify"
)

// Storage is the part of the local store the Service uses.
type Storage interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// stored is the JSON shape kept under the user's data key.
type stored struct {
	Workouts []model.Workout `json:"workouts"`
	Meals    []model.Meal    `json:"meals"`
	Goals    []model.Goal    `json:"goals"`
}

// Service owns the in-memory collections of the current user.
// It is safe for concurrent use.
type Service struct {
	store    Storage
	notifier notify.Notifier
	logger   *slog.Logger
	newID    func() string

	mu       sync.Mutex
	user     *model.User
	workouts []model.Workout
	meals    []model.Meal
	goals    []model.Goal
}

// NewService creates a Service with no current user.
func NewService(store Storage, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		newID:    func() string { return xid.New().String() },
	}
}

var errNoUser = apperror.Unauthorized("No user logged in")

// SetUser switches the Service to user and loads their collections.
// A nil user clears everything. Data that no longer decodes is logged,
// reported, and replaced by empty collections.
func (s *Service) SetUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.workouts, s.meals, s.goals = nil, nil, nil
	if user == nil {
		return nil
	}

	var data stored
	_, err := s.store.GetJSON(ctx, localstore.DataKey(user.ID), &data)
	if errors.Is(err, localstore.ErrCorrupt) {
		s.logger.Error("failed to parse fitness data",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error("Failed to load your fitness data")
		return nil
	}
	if err != nil {
		s.notifier.Error("Failed to load your fitness data")
		return fmt.Errorf("fitness: loading data for %s: %w", user.ID, err)
	}

	s.workouts, s.meals, s.goals = data.Workouts, data.Meals, data.Goals
	return nil
}

// User returns the current user, or nil.
func (s *Service) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// AddWorkout appends w with a fresh id and persists. The stored copy is returned.
func (s *Service) AddWorkout(ctx context.Context, w model.Workout) (model.Workout, error) {
	if err := validateWorkout(w); err != nil {
		s.notifier.Error(apperror.Message(err, "Failed to add workout"))
		return model.Workout{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return model.Workout{}, errNoUser
	}

	w.ID = s.newID()
	s.workouts = append(s.workouts, w)
	if err := s.persist(ctx); err != nil {
		s.workouts = s.workouts[:len(s.workouts)-1]
		s.notifier.Error("Failed to add workout")
		return model.Workout{}, err
	}

	s.notifier.Success("Workout added successfully")
	return w, nil
}

// AddMeal appends m with a fresh id and persists.
func (s *Service) AddMeal(ctx context.Context, m model.Meal) (model.Meal, error) {
	if err := validateMeal(m); err != nil {
		s.notifier.Error(apperror.Message(err, "Failed to add meal"))
		return model.Meal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return model.Meal{}, errNoUser
	}

	m.ID = s.newID()
	s.meals = append(s.meals, m)
	if err := s.persist(ctx); err != nil {
		s.meals = s.meals[:len(s.meals)-1]
		s.notifier.Error("Failed to add meal")
		return model.Meal{}, err
	}

	s.notifier.Success("Meal added successfully")
	return m, nil
}

// AddGoal appends g with a fresh id and persists.
func (s *Service) AddGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	if err := validateGoal(g); err != nil {
		s.notifier.Error(apperror.Message(err, "Failed to add goal"))
		return model.Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return model.Goal{}, errNoUser
	}

	g.ID = s.newID()
	s.goals = append(s.goals, g)
	if err := s.persist(ctx); err != nil {
		s.goals = s.goals[:len(s.goals)-1]
		s.notifier.Error("Failed to add goal")
		return model.Goal{}, err
	}

	s.notifier.Success("Goal added successfully")
	return g, nil
}

// UpdateGoalProgress adds increment to the goal's current value. Negative
// increments are allowed and nothing is clamped. An unknown id changes nothing.
func (s *Service) UpdateGoalProgress(ctx context.Context, goalID string, increment float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return errNoUser
	}

	prev := s.goals
	if i := slices.IndexFunc(prev, func(g model.Goal) bool { return g.ID == goalID }); i >= 0 {
		s.goals = slices.Clone(prev)
		s.goals[i].Current += increment
	}
	if err := s.persist(ctx); err != nil {
		s.goals = prev
		s.notifier.Error("Failed to update progress")
		return err
	}

	s.notifier.Success("Progress updated")
	return nil
}

// DeleteWorkout removes the workout with id. An unknown id is a no-op.
func (s *Service) DeleteWorkout(ctx context.Context, id string) error {
	return s.remove(ctx, "Workout deleted", func() func() {
		prev := s.workouts
		s.workouts = slices.DeleteFunc(slices.Clone(prev), func(w model.Workout) bool { return w.ID == id })
		return func() { s.workouts = prev }
	})
}

// DeleteMeal removes the meal with id. An unknown id is a no-op.
func (s *Service) DeleteMeal(ctx context.Context, id string) error {
	return s.remove(ctx, "Meal deleted", func() func() {
		prev := s.meals
		s.meals = slices.DeleteFunc(slices.Clone(prev), func(m model.Meal) bool { return m.ID == id })
		return func() { s.meals = prev }
	})
}

// DeleteGoal removes the goal with id. An unknown id is a no-op.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	return s.remove(ctx, "Goal deleted", func() func() {
		prev := s.goals
		s.goals = slices.DeleteFunc(slices.Clone(prev), func(g model.Goal) bool { return g.ID == id })
		return func() { s.goals = prev }
	})
}

// remove applies a deletion, persists, and undoes it if persisting fails.
func (s *Service) remove(ctx context.Context, success string, apply func() (undo func())) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return errNoUser
	}

	undo := apply()
	if err := s.persist(ctx); err != nil {
		undo()
		s.notifier.Error("Failed to delete")
		return err
	}

	s.notifier.Success(success)
	return nil
}

// Replace swaps all three collections for those in data, for example after
// pulling the current state from the backend. The profile is ignored.
func (s *Service) Replace(ctx context.Context, data model.UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		s.notifier.Error(errNoUser.Message)
		return errNoUser
	}

	prevW, prevM, prevG := s.workouts, s.meals, s.goals
	s.workouts = slices.Clone(data.Workouts)
	s.meals = slices.Clone(data.Meals)
	s.goals = slices.Clone(data.Goals)
	if err := s.persist(ctx); err != nil {
		s.workouts, s.meals, s.goals = prevW, prevM, prevG
		s.notifier.Error("Failed to restore data")
		return err
	}

	s.notifier.Success("Data restored")
	return nil
}

// Workouts returns a copy of the workouts in insertion order.
func (s *Service) Workouts() []model.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.workouts)
}

// Meals returns a copy of the meals in insertion order.
func (s *Service) Meals() []model.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.meals)
}

// Goals returns a copy of the goals in insertion order.
func (s *Service) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrEmpty(s.goals)
}

// Data returns the current user's profile and collections as one snapshot
// payload, ready to send to the backend.
func (s *Service) Data() model.UserData {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := model.UserData{
		Workouts: cloneOrEmpty(s.workouts),
		Meals:    cloneOrEmpty(s.meals),
		Goals:    cloneOrEmpty(s.goals),
	}
	if s.user != nil {
		data.ProfileData = s.user.ProfileData
	}
	return data
}

// persist writes all three collections under the user's key. Callers hold mu.
func (s *Service) persist(ctx context.Context) error {
	data := stored{
		Workouts: cloneOrEmpty(s.workouts),
		Meals:    cloneOrEmpty(s.meals),
		Goals:    cloneOrEmpty(s.goals),
	}
	if err := s.store.SetJSON(ctx, localstore.DataKey(s.user.ID), data); err != nil {
		s.logger.Error("failed to save fitness data",
			slog.String("user_id", s.user.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fitness: saving data for %s: %w", s.user.ID, err)
	}
	return nil
}

func cloneOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return slices.Clone(items)
}

func validateWorkout(w model.Workout) error {
	if !w.Type.Valid() {
		return apperror.ValidationFailed("type", fmt.Sprintf(
			"Workout type must be one of calisthenics, gym, running, other (got %q)", w.Type))
	}
	if _, ok := model.ParseDate(w.Date); !ok {
		return apperror.ValidationFailed("date", fmt.Sprintf("Invalid date %q (expected YYYY-MM-DD)", w.Date))
	}
	if w.Duration < 0 {
		return apperror.ValidationFailed("duration", "Duration cannot be negative")
	}
	if w.Distance != nil && *w.Distance < 0 {
		return apperror.ValidationFailed("distance", "Distance cannot be negative")
	}
	return nil
}

func validateMeal(m model.Meal) error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.ValidationFailed("name", "Meal name is required")
	}
	if !m.MealType.Valid() {
		return apperror.ValidationFailed("mealType", fmt.Sprintf(
			"Meal type must be one of breakfast, lunch, dinner, snack (got %q)", m.MealType))
	}
	if _, ok := model.ParseDate(m.Date); !ok {
		return apperror.ValidationFailed("date", fmt.Sprintf("Invalid date %q (expected YYYY-MM-DD)", m.Date))
	}
	if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
		return apperror.ValidationFailed("calories", "Calories and macros cannot be negative")
	}
	return nil
}

func validateGoal(g model.Goal) error {
	if strings.TrimSpace(g.Title) == "" {
		return apperror.ValidationFailed("title", "Goal title is required")
	}
	if !g.Type.Valid() {
		return apperror.ValidationFailed("type", fmt.Sprintf(
			"Goal type must be one of distance, workout, weight, custom (got %q)", g.Type))
	}
	start, ok := model.ParseDate(g.StartDate)
	if !ok {
		return apperror.ValidationFailed("startDate", fmt.Sprintf("Invalid start date %q (expected YYYY-MM-DD)", g.StartDate))
	}
	end, ok := model.ParseDate(g.EndDate)
	if !ok {
		return apperror.ValidationFailed("endDate", fmt.Sprintf("Invalid end date %q (expected YYYY-MM-DD)", g.EndDate))
	}
	if end.Before(start) {
		return apperror.ValidationFailed("endDate", "End date cannot be before start date")
	}
	return nil
}
