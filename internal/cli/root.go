// Package cli implements the fitness command-line client.
//
// Each invocation is one process: the root command opens the local store,
// restores the logged-in user and their collections, runs one command and
// closes the store again.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/fitness-tracker/internal/auth"
	"github.com/sakif/fitness-tracker/internal/client"
	"github.com/sakif/fitness-tracker/internal/config"
	"github.com/sakif/fitness-tracker/internal/fitness"
	"github.com/sakif/fitness-tracker/internal/localstore"
	"github.com/sakif/fitness-tracker/internal/logger"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/notify"
)

// ErrReported marks errors that were already shown to the user through the
// notifier. main should exit non-zero without printing them again.
var ErrReported = errors.New("cli: error already reported")

type reportedError struct{ err error }

func (e reportedError) Error() string   { return e.err.Error() }
func (e reportedError) Unwrap() []error { return []error{e.err, ErrReported} }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// Options configures NewRootCommand. Zero values fall back to the environment
// (config.LoadClient), a logger on stderr, http.DefaultClient and time.Now.
type Options struct {
	Config     *config.ClientConfig
	Logger     *slog.Logger
	HTTPClient *http.Client
	Now        func() time.Time
}

// app is everything a command needs, built fresh for every invocation.
type app struct {
	cfg      *config.ClientConfig
	store    *localstore.Store
	auth     *auth.Service
	fitness  *fitness.Service
	api      *client.Client
	notifier notify.Notifier
	logger   *slog.Logger
	out      io.Writer
	now      func() time.Time
}

// today is the current local date as YYYY-MM-DD.
func (a *app) today() string {
	return a.now().Format(model.DateLayout)
}

// requireUser returns the logged-in user or reports that nobody is logged in.
func (a *app) requireUser() (*model.User, error) {
	user := a.fitness.User()
	if user == nil {
		a.notifier.Error("No user logged in")
		return nil, reported(errors.New("no user logged in"))
	}
	return user, nil
}

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error

type root struct {
	opts      Options
	storePath string
	apiURL    string
}

// NewRootCommand builds the fitness command tree.
func NewRootCommand(opts Options) *cobra.Command {
	r := &root{opts: opts}

	cmd := &cobra.Command{
		Use:           "fitness",
		Short:         "fitness logs workouts, meals and goals and syncs them to the snapshot backend",
		Long:          "fitness is a terminal fitness tracker. Data is kept in a local store per user and can be saved to, and restored from, the snapshot backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&r.storePath, "store", "", "Path to the local store (default from FITNESS_STORE_PATH)")
	cmd.PersistentFlags().StringVar(&r.apiURL, "api", "", "Snapshot backend API URL (default from FITNESS_API_URL)")

	cmd.AddCommand(
		r.registerCmd(),
		r.loginCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.profileCmd(),
		r.workoutCmd(),
		r.mealCmd(),
		r.goalCmd(),
		r.todayCmd(),
		r.syncCmd(),
	)
	return cmd
}

// run adapts fn into a cobra RunE that gets a fully wired app.
func (r *root) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, closeApp, err := r.newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		return fn(ctx, cmd, args, a)
	}
}

func (r *root) newApp(ctx context.Context, cmd *cobra.Command) (*app, func(), error) {
	cfg := r.opts.Config
	if cfg == nil {
		loaded, err := config.LoadClient()
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	resolved := *cfg
	if r.storePath != "" {
		resolved.StorePath = r.storePath
	}
	if r.apiURL != "" {
		resolved.APIURL = r.apiURL
	}
	if resolved.StorePath == "" {
		path, err := config.DefaultStorePath()
		if err != nil {
			return nil, nil, err
		}
		resolved.StorePath = path
	}

	log := r.opts.Logger
	if log == nil {
		log = logger.New(cmd.ErrOrStderr(), resolved.LogLevel, resolved.LogFormat)
	}
	now := r.opts.Now
	if now == nil {
		now = time.Now
	}

	hasher, err := auth.NewHasher(resolved.PasswordHashing)
	if err != nil {
		return nil, nil, err
	}

	store, err := localstore.Open(ctx, resolved.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening local store: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close local store", slog.String("error", err.Error()))
		}
	}

	notifier := notify.NewWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	authSvc := auth.NewService(store, hasher, notifier, log)
	fitnessSvc := fitness.NewService(store, notifier, log)

	user, err := authSvc.CurrentUser(ctx)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	if err := fitnessSvc.SetUser(ctx, user); err != nil {
		closeStore()
		return nil, nil, reported(err)
	}

	log.Debug("client ready",
		slog.String("store", resolved.StorePath),
		slog.String("api", resolved.APIURL),
	)

	return &app{
		cfg:      &resolved,
		store:    store,
		auth:     authSvc,
		fitness:  fitnessSvc,
		api:      client.New(resolved.APIURL, r.opts.HTTPClient),
		notifier: notifier,
		logger:   log,
		out:      cmd.OutOrStdout(),
		now:      now,
	}, closeStore, nil
}
