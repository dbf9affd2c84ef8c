package sqlite

import (
	"database/sql"

	"github.com/sakif/fitness-tracker/internal/model"
)

// ROW TYPES:
// The tables allow NULL in almost every column, so rows are scanned into
// sql.Null* fields and converted to the domain types afterwards. The same
// structs are bound to the named INSERT statements.

type profileRow struct {
	Username string          `db:"username"`
	Height   sql.NullFloat64 `db:"height"`
	Weight   sql.NullFloat64 `db:"weight"`
	Age      sql.NullFloat64 `db:"age"`
	Gender   sql.NullString  `db:"gender"`
}

type workoutRow struct {
	Username    string          `db:"username"`
	ID          string          `db:"id"`
	Date        sql.NullString  `db:"date"`
	Type        sql.NullString  `db:"type"`
	Duration    sql.NullFloat64 `db:"duration"`
	Description sql.NullString  `db:"description"`
	Distance    sql.NullFloat64 `db:"distance"`
}

type mealRow struct {
	Username string          `db:"username"`
	ID       string          `db:"id"`
	Date     sql.NullString  `db:"date"`
	Name     sql.NullString  `db:"name"`
	Calories sql.NullFloat64 `db:"calories"`
	Protein  sql.NullFloat64 `db:"protein"`
	Carbs    sql.NullFloat64 `db:"carbs"`
	Fat      sql.NullFloat64 `db:"fat"`
	MealType sql.NullString  `db:"mealType"`
}

type goalRow struct {
	Username    string          `db:"username"`
	ID          string          `db:"id"`
	Title       sql.NullString  `db:"title"`
	Description sql.NullString  `db:"description"`
	Target      sql.NullFloat64 `db:"target"`
	Current     sql.NullFloat64 `db:"current"`
	Unit        sql.NullString  `db:"unit"`
	StartDate   sql.NullString  `db:"startDate"`
	EndDate     sql.NullString  `db:"endDate"`
	Type        sql.NullString  `db:"type"`
}

type snapshotRow struct {
	ID        int64           `db:"id"`
	Timestamp sql.NullString  `db:"timestamp"`
	Username  sql.NullString  `db:"username"`
	Height    sql.NullFloat64 `db:"height"`
	Weight    sql.NullFloat64 `db:"weight"`
	Age       sql.NullFloat64 `db:"age"`
	Gender    sql.NullString  `db:"gender"`
	DataJSON  sql.NullString  `db:"data_json"`
}

// --- domain → row ---

// nullable keeps explicit zero values and maps only nil to NULL.
func nullableFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// orNull maps both nil and the zero value to NULL. History rows and optional
// collection fields treat "empty" as "missing".
func orNullFloat(p *float64) sql.NullFloat64 {
	if p == nil || *p == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func orNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func newProfileRow(username string, p *model.ProfileData) profileRow {
	return profileRow{
		Username: username,
		Height:   nullableFloat(p.Height),
		Weight:   nullableFloat(p.Weight),
		Age:      nullableFloat(p.Age),
		Gender:   nullableString(p.Gender),
	}
}

func newWorkoutRow(username string, w model.Workout) workoutRow {
	return workoutRow{
		Username:    username,
		ID:          w.ID,
		Date:        sql.NullString{String: w.Date, Valid: true},
		Type:        sql.NullString{String: string(w.Type), Valid: true},
		Duration:    sql.NullFloat64{Float64: w.Duration, Valid: true},
		Description: orNullString(w.Description),
		Distance:    orNullFloat(w.Distance),
	}
}

func newMealRow(username string, m model.Meal) mealRow {
	return mealRow{
		Username: username,
		ID:       m.ID,
		Date:     sql.NullString{String: m.Date, Valid: true},
		Name:     sql.NullString{String: m.Name, Valid: true},
		Calories: sql.NullFloat64{Float64: m.Calories, Valid: true},
		Protein:  sql.NullFloat64{Float64: m.Protein, Valid: true},
		Carbs:    sql.NullFloat64{Float64: m.Carbs, Valid: true},
		Fat:      sql.NullFloat64{Float64: m.Fat, Valid: true},
		MealType: sql.NullString{String: string(m.MealType), Valid: true},
	}
}

func newGoalRow(username string, g model.Goal) goalRow {
	return goalRow{
		Username:    username,
		ID:          g.ID,
		Title:       sql.NullString{String: g.Title, Valid: true},
		Description: orNullString(g.Description),
		Target:      sql.NullFloat64{Float64: g.Target, Valid: true},
		Current:     sql.NullFloat64{Float64: g.Current, Valid: true},
		Unit:        sql.NullString{String: g.Unit, Valid: true},
		StartDate:   sql.NullString{String: g.StartDate, Valid: true},
		EndDate:     sql.NullString{String: g.EndDate, Valid: true},
		Type:        sql.NullString{String: string(g.Type), Valid: true},
	}
}

// --- row → domain ---

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func (r profileRow) toModel() *model.ProfileData {
	return &model.ProfileData{
		Height: floatPtr(r.Height),
		Weight: floatPtr(r.Weight),
		Age:    floatPtr(r.Age),
		Gender: stringPtr(r.Gender),
	}
}

func (r workoutRow) toModel() model.Workout {
	return model.Workout{
		ID:          r.ID,
		Date:        r.Date.String,
		Type:        model.WorkoutType(r.Type.String),
		Duration:    r.Duration.Float64,
		Description: r.Description.String,
		Distance:    floatPtr(r.Distance),
	}
}

func (r mealRow) toModel() model.Meal {
	return model.Meal{
		ID:       r.ID,
		Date:     r.Date.String,
		Name:     r.Name.String,
		Calories: r.Calories.Float64,
		Protein:  r.Protein.Float64,
		Carbs:    r.Carbs.Float64,
		Fat:      r.Fat.Float64,
		MealType: model.MealType(r.MealType.String),
	}
}

func (r goalRow) toModel() model.Goal {
	return model.Goal{
		ID:          r.ID,
		Title:       r.Title.String,
		Description: r.Description.String,
		Target:      r.Target.Float64,
		Current:     r.Current.Float64,
		Unit:        r.Unit.String,
		StartDate:   r.StartDate.String,
		EndDate:     r.EndDate.String,
		Type:        model.GoalType(r.Type.String),
	}
}

func (r snapshotRow) profile() *model.ProfileData {
	return &model.ProfileData{
		Height: floatPtr(r.Height),
		Weight: floatPtr(r.Weight),
		Age:    floatPtr(r.Age),
		Gender: stringPtr(r.Gender),
	}
}
