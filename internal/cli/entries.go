package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/fitness-tracker/internal/fitness"
	"github.com/sakif/fitness-tracker/internal/model"
)

func (r *root) workoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Log and list workouts",
	}

	var (
		in       model.Workout
		wType    string
		distance float64
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Log a workout",
		Args:  cobra.NoArgs,
	}
	add.RunE = r.run(func(ctx context.Context, cmd *cobra.Command, _ []string, a *app) error {
		w := in
		w.Type = model.WorkoutType(wType)
		if w.Date == "" {
			w.Date = a.today()
		}
		if cmd.Flags().Changed("distance") {
			d := distance
			w.Distance = &d
		}
		created, err := a.fitness.AddWorkout(ctx, w)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(a.out, "ID: %s\n", created.ID)
		return nil
	})
	add.Flags().StringVar(&wType, "type", "", "Workout type: calisthenics, gym, running, other")
	add.Flags().StringVar(&in.Date, "date", "", "Date YYYY-MM-DD (default today)")
	add.Flags().Float64Var(&in.Duration, "duration", 0, "Duration in minutes")
	add.Flags().StringVar(&in.Description, "description", "", "Free-text notes")
	add.Flags().Float64Var(&distance, "distance", 0, "Distance in km (running)")
	_ = add.MarkFlagRequired("type")

	var days int
	list := &cobra.Command{
		Use:   "list",
		Short: "List workouts, newest first",
		Args:  cobra.NoArgs,
	}
	list.RunE = r.run(func(_ context.Context, _ *cobra.Command, _ []string, a *app) error {
		if _, err := a.requireUser(); err != nil {
			return err
		}
		ws := a.fitness.Workouts()
		if days > 0 {
			ws = fitness.WorkoutsSince(ws, startOfDay(a.now()).AddDate(0, 0, -(days - 1)))
		}
		fmt.Fprintln(a.out, "ID\tDATE\tTYPE\tMIN\tKM\tNOTES")
		for _, w := range fitness.SortWorkouts(ws) {
			fmt.Fprintf(a.out, "%s\t%s\t%s\t%g\t%s\t%s\n", w.ID, w.Date, w.Type, w.Duration, orDash(w.Distance, "%.2f"), w.Description)
		}
		if len(ws) == 0 {
			return nil
		}
		totals := fitness.TotalsByType(ws)
		fmt.Fprintln(a.out, "\nTYPE\tCOUNT\tMIN")
		for _, t := range slices.Sorted(maps.Keys(totals)) {
			fmt.Fprintf(a.out, "%s\t%d\t%g\n", t, totals[t].Count, totals[t].Duration)
		}
		return nil
	})
	list.Flags().IntVar(&days, "days", 0, "Only the last N days (0 = all)")

	cmd.AddCommand(add, list, r.deleteCmd("workout", func(ctx context.Context, a *app, id string) error {
		return a.fitness.DeleteWorkout(ctx, id)
	}))
	return cmd
}

func (r *root) mealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Log and list meals",
	}

	var (
		in       model.Meal
		mealType string
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Log a meal",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = r.run(func(ctx context.Context, _ *cobra.Command, args []string, a *app) error {
		m := in
		m.Name = args[0]
		m.MealType = model.MealType(mealType)
		if m.Date == "" {
			m.Date = a.today()
		}
		created, err := a.fitness.AddMeal(ctx, m)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(a.out, "ID: %s\n", created.ID)
		return nil
	})
	add.Flags().StringVar(&mealType, "type", "", "Meal type: breakfast, lunch, dinner, snack")
	add.Flags().StringVar(&in.Date, "date", "", "Date YYYY-MM-DD (default today)")
	add.Flags().Float64Var(&in.Calories, "calories", 0, "Calories (kcal)")
	add.Flags().Float64Var(&in.Protein, "protein", 0, "Protein grams")
	add.Flags().Float64Var(&in.Carbs, "carbs", 0, "Carbs grams")
	add.Flags().Float64Var(&in.Fat, "fat", 0, "Fat grams")
	_ = add.MarkFlagRequired("type")

	var date string
	list := &cobra.Command{
		Use:   "list",
		Short: "List meals, newest day first",
		Args:  cobra.NoArgs,
	}
	list.RunE = r.run(func(_ context.Context, _ *cobra.Command, _ []string, a *app) error {
		if _, err := a.requireUser(); err != nil {
			return err
		}
		var shown []model.Meal
		fmt.Fprintln(a.out, "ID\tDATE\tTYPE\tNAME\tKCAL\tP\tC\tF")
		for _, m := range fitness.SortMeals(a.fitness.Meals()) {
			if date != "" && m.Date != date {
				continue
			}
			shown = append(shown, m)
			fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\t%g\t%.1f\t%.1f\t%.1f\n", m.ID, m.Date, m.MealType, m.Name, m.Calories, m.Protein, m.Carbs, m.Fat)
		}
		if len(shown) == 0 {
			return nil
		}
		byType := fitness.CaloriesByMealType(shown)
		types := slices.SortedFunc(maps.Keys(byType), func(x, y model.MealType) int { return x.Order() - y.Order() })
		fmt.Fprintln(a.out, "\nTYPE\tKCAL")
		for _, t := range types {
			fmt.Fprintf(a.out, "%s\t%g\n", t, byType[t])
		}
		return nil
	})
	list.Flags().StringVar(&date, "date", "", "Only meals on this date YYYY-MM-DD")

	cmd.AddCommand(add, list, r.deleteCmd("meal", func(ctx context.Context, a *app, id string) error {
		return a.fitness.DeleteMeal(ctx, id)
	}))
	return cmd
}

func (r *root) goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Set and track goals",
	}

	var (
		in    model.Goal
		gType string
	)
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = r.run(func(ctx context.Context, _ *cobra.Command, args []string, a *app) error {
		g := in
		g.Title = args[0]
		g.Type = model.GoalType(gType)
		if g.StartDate == "" {
			g.StartDate = a.today()
		}
		created, err := a.fitness.AddGoal(ctx, g)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(a.out, "ID: %s\n", created.ID)
		return nil
	})
	add.Flags().StringVar(&gType, "type", "", "Goal type: distance, workout, weight, custom")
	add.Flags().Float64Var(&in.Target, "target", 0, "Target value")
	add.Flags().Float64Var(&in.Current, "current", 0, "Starting value")
	add.Flags().StringVar(&in.Unit, "unit", "", "Unit of the target, e.g. km")
	add.Flags().StringVar(&in.Description, "description", "", "Free-text notes")
	add.Flags().StringVar(&in.StartDate, "start", "", "Start date YYYY-MM-DD (default today)")
	add.Flags().StringVar(&in.EndDate, "end", "", "End date YYYY-MM-DD")
	_ = add.MarkFlagRequired("type")
	_ = add.MarkFlagRequired("target")
	_ = add.MarkFlagRequired("end")

	list := &cobra.Command{
		Use:   "list",
		Short: "List active and completed goals",
		Args:  cobra.NoArgs,
	}
	list.RunE = r.run(func(_ context.Context, _ *cobra.Command, _ []string, a *app) error {
		if _, err := a.requireUser(); err != nil {
			return err
		}
		active, completed := fitness.PartitionGoals(a.fitness.Goals(), a.now())
		printGoals(a, "Active", active)
		printGoals(a, "Completed", completed)
		return nil
	})

	var by float64
	progress := &cobra.Command{
		Use:   "progress <id>",
		Short: "Add to a goal's current value (negative to subtract)",
		Args:  cobra.ExactArgs(1),
	}
	progress.RunE = r.run(func(ctx context.Context, _ *cobra.Command, args []string, a *app) error {
		if err := a.fitness.UpdateGoalProgress(ctx, args[0], by); err != nil {
			return reported(err)
		}
		return nil
	})
	progress.Flags().Float64Var(&by, "by", 0, "Increment, e.g. --by 5 or --by=-2")
	_ = progress.MarkFlagRequired("by")

	cmd.AddCommand(add, list, progress, r.deleteCmd("goal", func(ctx context.Context, a *app, id string) error {
		return a.fitness.DeleteGoal(ctx, id)
	}))
	return cmd
}

func (r *root) deleteCmd(noun string, del func(ctx context.Context, a *app, id string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun + " by id",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = r.run(func(ctx context.Context, _ *cobra.Command, args []string, a *app) error {
		return reported(del(ctx, a, args[0]))
	})
	return cmd
}

func printGoals(a *app, heading string, goals []model.Goal) {
	fmt.Fprintf(a.out, "%s (%d)\n", heading, len(goals))
	for _, g := range goals {
		fmt.Fprintf(a.out, "  %s\t%s\t%g/%g %s\t%.0f%%\tuntil %s\n",
			g.ID, g.Title, g.Current, g.Target, g.Unit, fitness.Progress(g), g.EndDate)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
