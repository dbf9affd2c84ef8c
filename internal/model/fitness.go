package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for every entity date.
const DateLayout = "2006-01-02"

type WorkoutType string

const (
	WorkoutCalisthenics WorkoutType = "calisthenics"
	WorkoutGym          WorkoutType = "gym"
	WorkoutRunning      WorkoutType = "running"
	WorkoutOther        WorkoutType = "other"
)

// Valid reports whether t is one of the known workout types.
func (t WorkoutType) Valid() bool {
	switch t {
	case WorkoutCalisthenics, WorkoutGym, WorkoutRunning, WorkoutOther:
		return true
	}
	return false
}

// Workout is one logged training session. Duration is in minutes and
// Distance in kilometres (running only).
type Workout struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Type        WorkoutType `json:"type"`
	Duration    float64     `json:"duration"`
	Description string      `json:"description,omitempty"`
	Distance    *float64    `json:"distance,omitempty"`
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// mealOrder is the display order of meals within one day.
var mealOrder = map[MealType]int{
	MealBreakfast: 0,
	MealLunch:     1,
	MealDinner:    2,
	MealSnack:     3,
}

func (t MealType) Valid() bool {
	_, ok := mealOrder[t]
	return ok
}

// Order returns the position of t within a day; unknown types sort last.
func (t MealType) Order() int {
	if o, ok := mealOrder[t]; ok {
		return o
	}
	return len(mealOrder)
}

// Meal is one logged meal. Macros are in grams.
type Meal struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	MealType MealType `json:"mealType"`
}

type GoalType string

const (
	GoalDistance GoalType = "distance"
	GoalWorkout  GoalType = "workout"
	GoalWeight   GoalType = "weight"
	GoalCustom   GoalType = "custom"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalDistance, GoalWorkout, GoalWeight, GoalCustom:
		return true
	}
	return false
}

// Goal is a target the user tracks progress against.
// Completion is derived (see IsComplete) and never stored.
type Goal struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Target      float64  `json:"target"`
	Current     float64  `json:"current"`
	Unit        string   `json:"unit"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Type        GoalType `json:"type"`
}

// IsComplete reports whether the goal's target is reached or its end date has passed.
func (g Goal) IsComplete(now time.Time) bool {
	if g.Current >= g.Target {
		return true
	}
	end, ok := ParseDate(g.EndDate)
	return ok && now.After(end)
}

// ParseDate parses an ISO date ("2024-05-01") or a full RFC 3339 timestamp.
// Date-only values are interpreted as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
