package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/fitness-tracker/internal/fitness"
)

const weekDays = 7

func (r *root) todayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Summarise today and the last week",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.run(func(_ context.Context, _ *cobra.Command, _ []string, a *app) error {
		user, err := a.requireUser()
		if err != nil {
			return err
		}

		workouts, meals := a.fitness.Workouts(), a.fitness.Meals()
		s := fitness.DaySummary(a.today(), workouts, meals)

		fmt.Fprintf(a.out, "%s for %s\n", s.Date, user.Username)
		fmt.Fprintf(a.out, "Workouts: %d (%g min)\n", s.Workouts, s.WorkoutMinutes)
		fmt.Fprintf(a.out, "Meals: %d\nCalories: %g kcal\nProtein: %.1fg\nCarbs: %.1fg\nFat: %.1fg\n",
			s.Meals, s.Calories, s.Protein, s.Carbs, s.Fat)

		fmt.Fprintln(a.out, "\nLast 7 days")
		for _, day := range fitness.LastNDays(weekDays, a.now()) {
			d := fitness.DaySummary(day, workouts, meals)
			bar := strings.Repeat("#", max(0, int(d.WorkoutMinutes/10)))
			fmt.Fprintf(a.out, "  %s\t%3.0f min\t%5.0f kcal\t%s\n", day, d.WorkoutMinutes, d.Calories, bar)
		}

		active, _ := fitness.PartitionGoals(a.fitness.Goals(), a.now())
		if len(active) > 0 {
			fmt.Fprintln(a.out)
			printGoals(a, "Active goals", active)
		}
		return nil
	})
	return cmd
}
