package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/fitness-tracker/internal/model"
)

func (r *root) syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Save to and restore from the snapshot backend",
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Store the current data as a new snapshot",
		Args:  cobra.NoArgs,
	}
	save.RunE = r.run(func(ctx context.Context, _ *cobra.Command, _ []string, a *app) error {
		user, err := a.requireUser()
		if err != nil {
			return err
		}

		resp, err := a.api.SaveUserData(ctx, model.SaveRequest{
			Username: user.Username,
			UserData: a.fitness.Data(),
		})
		if err != nil {
			a.notifier.Error("Failed to save data to database. Make sure the backend server is running.")
			return reported(err)
		}
		a.notifier.Success(resp.Message)
		fmt.Fprintf(a.out, "Record #%d in %s\n", resp.RecordID, resp.DBFile)
		return nil
	})

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Replace local data with the backend's current state",
		Args:  cobra.NoArgs,
	}
	pull.RunE = r.run(func(ctx context.Context, _ *cobra.Command, _ []string, a *app) error {
		user, err := a.requireUser()
		if err != nil {
			return err
		}

		data, err := a.api.GetUserData(ctx, user.Username)
		if err != nil {
			a.notifier.Error(err.Error())
			return reported(err)
		}
		if err := a.fitness.Replace(ctx, *data); err != nil {
			return reported(err)
		}
		if data.ProfileData != nil {
			if _, err := a.auth.UpdateProfile(ctx, *data.ProfileData); err != nil {
				return reported(err)
			}
		}
		fmt.Fprintf(a.out, "%d workouts, %d meals, %d goals\n", len(data.Workouts), len(data.Meals), len(data.Goals))
		return nil
	})

	var historyUser string
	history := &cobra.Command{
		Use:   "history",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
	}
	history.RunE = r.run(func(ctx context.Context, _ *cobra.Command, _ []string, a *app) error {
		username, err := a.targetUser(historyUser)
		if err != nil {
			return err
		}

		resp, err := a.api.GetUserDataHistory(ctx, username)
		if err != nil {
			a.notifier.Error(err.Error())
			return reported(err)
		}
		if len(resp.History) == 0 {
			fmt.Fprintln(a.out, "No snapshots yet")
			return nil
		}
		fmt.Fprintln(a.out, "ID\tTIMESTAMP\tHEIGHT\tWEIGHT\tAGE\tGENDER")
		for _, h := range resp.History {
			fmt.Fprintf(a.out, "%d\t%s\t%s\t%s\t%s\t%s\n", h.ID, h.Timestamp,
				orDash(h.Height, "%.1f"), orDash(h.Weight, "%.1f"), orDash(h.Age, "%g"), orDash(h.Gender, "%s"))
		}
		return nil
	})
	history.Flags().StringVar(&historyUser, "user", "", "Username to query (default the logged-in user)")

	var (
		showUser string
		asJSON   bool
	)
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one snapshot",
		Args:  cobra.ExactArgs(1),
	}
	show.RunE = r.run(func(ctx context.Context, _ *cobra.Command, args []string, a *app) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		username, err := a.targetUser(showUser)
		if err != nil {
			return err
		}

		snap, err := a.api.GetUserDataSnapshot(ctx, username, id)
		if err != nil {
			a.notifier.Error(err.Error())
			return reported(err)
		}

		if asJSON {
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		fmt.Fprintf(a.out, "Snapshot #%d of %s at %s\n", snap.ID, snap.Username, snap.Timestamp)
		printProfile(a.out, snap.ProfileData)
		fmt.Fprintf(a.out, "Workouts: %d\nMeals: %d\nGoals: %d\n", len(snap.Workouts), len(snap.Meals), len(snap.Goals))
		return nil
	})
	show.Flags().StringVar(&showUser, "user", "", "Username to query (default the logged-in user)")
	show.Flags().BoolVar(&asJSON, "json", false, "Print the full snapshot as JSON")

	status := &cobra.Command{
		Use:   "status",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
	}
	status.RunE = r.run(func(ctx context.Context, _ *cobra.Command, _ []string, a *app) error {
		resp, err := a.api.Status(ctx)
		if err != nil {
			a.notifier.Error("Backend unreachable at " + a.api.BaseURL())
			return reported(err)
		}
		fmt.Fprintf(a.out, "%s: %s\n", a.api.BaseURL(), resp.Status)
		return nil
	})

	cmd.AddCommand(save, pull, history, show, status)
	return cmd
}

// targetUser is override when set, else the logged-in user's name.
func (a *app) targetUser(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}
	user, err := a.requireUser()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func parseRecordID(value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot id %q", value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("snapshot id must be > 0")
	}
	return v, nil
}
