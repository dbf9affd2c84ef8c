package fitness

import (
	"cmp"
	"slices"
	"time"

	"github.com/sakif/fitness-tracker/internal/model"
)

// Derived views for the CLI dashboards. All functions are pure and leave their
// inputs untouched.

// SortWorkouts returns the workouts newest first. Workouts on the same day keep
// their insertion order; unparsable dates go last.
func SortWorkouts(ws []model.Workout) []model.Workout {
	out := slices.Clone(ws)
	slices.SortStableFunc(out, func(a, b model.Workout) int {
		return compareDatesDesc(a.Date, b.Date)
	})
	return out
}

// SortMeals returns the meals newest day first and, within a day, in
// breakfast, lunch, dinner, snack order.
func SortMeals(ms []model.Meal) []model.Meal {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b model.Meal) int {
		if c := compareDatesDesc(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.MealType.Order(), b.MealType.Order())
	})
	return out
}

func compareDatesDesc(a, b string) int {
	ta, okA := model.ParseDate(a)
	tb, okB := model.ParseDate(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return tb.Compare(ta)
}

// WorkoutsSince keeps the workouts dated on or after since.
func WorkoutsSince(ws []model.Workout, since time.Time) []model.Workout {
	out := []model.Workout{}
	for _, w := range ws {
		if d, ok := model.ParseDate(w.Date); ok && !d.Before(since) {
			out = append(out, w)
		}
	}
	return out
}

// TypeTotal aggregates workouts of one type.
type TypeTotal struct {
	Count    int
	Duration float64 // minutes
}

// TotalsByType counts workouts and sums their minutes per workout type.
func TotalsByType(ws []model.Workout) map[model.WorkoutType]TypeTotal {
	totals := make(map[model.WorkoutType]TypeTotal)
	for _, w := range ws {
		t := totals[w.Type]
		t.Count++
		t.Duration += w.Duration
		totals[w.Type] = t
	}
	return totals
}

// Nutrition sums calories and macros.
type Nutrition struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// NutritionTotals sums the calories and macros of ms.
func NutritionTotals(ms []model.Meal) Nutrition {
	var n Nutrition
	for _, m := range ms {
		n.Calories += m.Calories
		n.Protein += m.Protein
		n.Carbs += m.Carbs
		n.Fat += m.Fat
	}
	return n
}

// CaloriesByMealType sums calories per meal type.
func CaloriesByMealType(ms []model.Meal) map[model.MealType]float64 {
	out := make(map[model.MealType]float64)
	for _, m := range ms {
		out[m.MealType] += m.Calories
	}
	return out
}

// Summary is everything logged on one day.
type Summary struct {
	Date           string
	Workouts       int
	WorkoutMinutes float64
	Meals          int
	Nutrition
}

// DaySummary totals the workouts and meals dated exactly date (YYYY-MM-DD).
func DaySummary(date string, ws []model.Workout, ms []model.Meal) Summary {
	s := Summary{Date: date}
	for _, w := range ws {
		if w.Date == date {
			s.Workouts++
			s.WorkoutMinutes += w.Duration
		}
	}
	var dayMeals []model.Meal
	for _, m := range ms {
		if m.Date == date {
			dayMeals = append(dayMeals, m)
		}
	}
	s.Meals = len(dayMeals)
	s.Nutrition = NutritionTotals(dayMeals)
	return s
}

// PartitionGoals splits goals into active and completed as of now, keeping order.
func PartitionGoals(goals []model.Goal, now time.Time) (active, completed []model.Goal) {
	active, completed = []model.Goal{}, []model.Goal{}
	for _, g := range goals {
		if g.IsComplete(now) {
			completed = append(completed, g)
		} else {
			active = append(active, g)
		}
	}
	return active, completed
}

// Progress is the goal's completion as a percentage, capped at 100.
func Progress(g model.Goal) float64 {
	if g.Target <= 0 {
		return 100
	}
	return min(100, max(0, g.Current/g.Target*100))
}

// LastNDays returns the n calendar dates ending with now's date, oldest first.
func LastNDays(n int, now time.Time) []string {
	days := make([]string, 0, max(n, 0))
	for i := n - 1; i >= 0; i-- {
		days = append(days, now.AddDate(0, 0, -i).Format(model.DateLayout))
	}
	return days
}
