package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/fitness-tracker/internal/model"
)

func (r *root) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a local account and log in",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = r.run(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
		pw, err := passwordOrStdin(cmd, password)
		if err != nil {
			return err
		}
		user, err := a.auth.Register(ctx, args[0], pw)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
		return nil
	})
	cmd.Flags().StringVar(&password, "password", "", "Account password (read from stdin when omitted)")
	return cmd
}

func (r *root) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to a local account",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = r.run(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
		pw, err := passwordOrStdin(cmd, password)
		if err != nil {
			return err
		}
		user, err := a.auth.Login(ctx, args[0], pw)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
		return nil
	})
	cmd.Flags().StringVar(&password, "password", "", "Account password (read from stdin when omitted)")
	return cmd
}

func (r *root) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the current account",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.run(func(ctx context.Context, _ *cobra.Command, _ []string, a *app) error {
		return reported(a.auth.Logout(ctx))
	})
	return cmd
}

func (r *root) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and their profile",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.run(func(_ context.Context, _ *cobra.Command, _ []string, a *app) error {
		user := a.fitness.User()
		if user == nil {
			fmt.Fprintln(a.out, "Not logged in")
			return nil
		}
		fmt.Fprintf(a.out, "Username: %s\nID: %s\n", user.Username, user.ID)
		printProfile(a.out, user.ProfileData)
		return nil
	})
	return cmd
}

func (r *root) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your body metrics",
	}

	var (
		height, weight, age float64
		gender              string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update height, weight, age or gender; omitted fields are kept",
		Args:  cobra.NoArgs,
	}
	set.RunE = r.run(func(ctx context.Context, cmd *cobra.Command, _ []string, a *app) error {
		if _, err := a.requireUser(); err != nil {
			return err
		}

		var update model.ProfileData
		flags := cmd.Flags()
		if flags.Changed("height") {
			update.Height = &height
		}
		if flags.Changed("weight") {
			update.Weight = &weight
		}
		if flags.Changed("age") {
			update.Age = &age
		}
		if flags.Changed("gender") {
			update.Gender = &gender
		}

		user, err := a.auth.UpdateProfile(ctx, update)
		if err != nil {
			return reported(err)
		}
		if user != nil {
			printProfile(a.out, user.ProfileData)
		}
		return nil
	})
	set.Flags().Float64Var(&height, "height", 0, "Height in cm")
	set.Flags().Float64Var(&weight, "weight", 0, "Weight in kg")
	set.Flags().Float64Var(&age, "age", 0, "Age in years")
	set.Flags().StringVar(&gender, "gender", "", "Gender")

	cmd.AddCommand(set)
	return cmd
}

func passwordOrStdin(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printProfile(w io.Writer, p *model.ProfileData) {
	if p == nil {
		fmt.Fprintln(w, "Profile: not set")
		return
	}
	fmt.Fprintf(w, "Height: %s\nWeight: %s\nAge: %s\nGender: %s\n",
		orDash(p.Height, "%.1f cm"),
		orDash(p.Weight, "%.1f kg"),
		orDash(p.Age, "%g"),
		orDash(p.Gender, "%s"),
	)
}

// orDash formats *v with format, or "-" for nil and zero values.
func orDash[T comparable](v *T, format string) string {
	var zero T
	if v == nil || *v == zero {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
