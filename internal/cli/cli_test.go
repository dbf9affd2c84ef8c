package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/fitness-tracker/internal/cli"
	"github.com/sakif/fitness-tracker/internal/client"
	"github.com/sakif/fitness-tracker/internal/config"
	"github.com/sakif/fitness-tracker/internal/localstore"
	"github.com/sakif/fitness-tracker/internal/model"
	"github.com/sakif/fitness-tracker/internal/server"
)

type harness struct {
	t   *testing.T
	cfg config.ClientConfig
	ts  *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(server.Config{DataDir: t.TempDir()}, discard)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &harness{
		t:  t,
		ts: ts,
		cfg: config.ClientConfig{
			APIURL:          ts.URL + "/api",
			StorePath:       filepath.Join(t.TempDir(), "client", "store.db"),
			PasswordHashing: config.HashingPlain,
		},
	}
}

func (h *harness) run(args ...string) (stdout, stderr string, err error) {
	return h.runWithInput("", args...)
}

func (h *harness) runWithInput(stdin string, args ...string) (stdout, stderr string, err error) {
	h.t.Helper()
	var out, errOut bytes.Buffer

	cmd := cli.NewRootCommand(cli.Options{
		Config:     &h.cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		HTTPClient: h.ts.Client(),
		Now:        func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local) },
	})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	require.NoError(h.t, err, "fitness %s: %s", strings.Join(args, " "), errOut)
	return out
}

// idFrom returns the value of the "ID: " line printed by the add commands.
func idFrom(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if id, ok := strings.CutPrefix(line, "ID: "); ok {
			return id
		}
	}
	t.Fatalf("no ID line in output:\n%s", out)
	return ""
}

func TestRegisterAddSaveHistory(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("register", "alice", "--password", "secret")
	assert.Contains(t, out, "✓ Registration successful!")
	assert.Contains(t, out, "Logged in as alice")

	out = h.mustRun("workout", "add", "--type", "running", "--duration", "30", "--distance", "5")
	assert.Contains(t, out, "✓ Workout added successfully")
	workoutID := idFrom(t, out)

	out = h.mustRun("workout", "list")
	assert.Contains(t, out, workoutID+"\t2024-05-10\trunning\t30\t5.00")
	assert.Contains(t, out, "TYPE\tCOUNT\tMIN\nrunning\t1\t30\n")

	out = h.mustRun("sync", "save")
	assert.Contains(t, out, "✓ Data saved successfully")
	assert.Contains(t, out, "Record #1 in alice.db")

	out = h.mustRun("sync", "history")
	assert.Contains(t, out, "ID\tTIMESTAMP")
	assert.Contains(t, out, "\n1\t")

	out = h.mustRun("sync", "show", "1")
	assert.Contains(t, out, "Snapshot #1 of alice")
	assert.Contains(t, out, "Workouts: 1")

	current, err := client.New(h.cfg.APIURL, h.ts.Client()).GetUserData(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, current.Workouts, 1)
	assert.Equal(t, workoutID, current.Workouts[0].ID)
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("workout", "add", "--type", "gym", "--duration", "20")

	require.Error(t, err)
	assert.True(t, errors.Is(err, cli.ErrReported))
	assert.Contains(t, errOut, "✗ No user logged in")

	_, _, err = h.run("sync", "save")
	assert.ErrorIs(t, err, cli.ErrReported)
}

func TestInvalidInputIsReported(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	_, errOut, err := h.run("workout", "add", "--type", "yoga")

	assert.ErrorIs(t, err, cli.ErrReported)
	assert.Contains(t, errOut, "Workout type must be one of")
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")
	h.mustRun("logout")

	out := h.mustRun("whoami")
	assert.Contains(t, out, "Not logged in")

	_, errOut, err := h.run("login", "alice", "--password", "wrong")
	assert.ErrorIs(t, err, cli.ErrReported)
	assert.Contains(t, errOut, "Invalid username or password")

	out, _, err = h.runWithInput("secret\n", "login", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "Username: alice")
}

func TestProfileSet(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	out := h.mustRun("profile", "set", "--weight", "70.5")
	assert.Contains(t, out, "Weight: 70.5 kg")
	assert.Contains(t, out, "Height: -")

	h.mustRun("sync", "save")
	out = h.mustRun("sync", "history")
	assert.Contains(t, out, "\t70.5\t")
}

func TestGoalProgress(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	out := h.mustRun("goal", "add", "Run 10k", "--type", "distance", "--target", "10", "--unit", "km", "--end", "2024-12-31")
	id := idFrom(t, out)

	h.mustRun("goal", "progress", id, "--by", "5")
	h.mustRun("goal", "progress", id, "--by=-2")

	out = h.mustRun("goal", "list")
	assert.Contains(t, out, "Active (1)")
	assert.Contains(t, out, "3/10 km")
	assert.Contains(t, out, "30%")
}

func TestMealListAndToday(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	h.mustRun("meal", "add", "Oats", "--type", "breakfast", "--calories", "350", "--protein", "12")
	h.mustRun("meal", "add", "Pasta", "--type", "dinner", "--calories", "650", "--date", "2024-05-09")
	h.mustRun("workout", "add", "--type", "gym", "--duration", "40")

	out := h.mustRun("meal", "list", "--date", "2024-05-10")
	assert.Contains(t, out, "Oats")
	assert.NotContains(t, out, "Pasta")
	assert.Contains(t, out, "TYPE\tKCAL\nbreakfast\t350\n")

	out = h.mustRun("meal", "list")
	assert.Contains(t, out, "breakfast\t350\ndinner\t650\n")

	out = h.mustRun("today")
	assert.Contains(t, out, "2024-05-10 for alice")
	assert.Contains(t, out, "Workouts: 1 (40 min)")
	assert.Contains(t, out, "Calories: 350 kcal")
	assert.Contains(t, out, "2024-05-04")
	assert.Contains(t, out, "650 kcal")
}

func TestSyncPullRestores(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	id := idFrom(t, h.mustRun("workout", "add", "--type", "gym", "--duration", "20"))
	h.mustRun("sync", "save")
	h.mustRun("workout", "delete", id)
	assert.NotContains(t, h.mustRun("workout", "list"), id)

	out := h.mustRun("sync", "pull")
	assert.Contains(t, out, "✓ Data restored")
	assert.Contains(t, out, "1 workouts, 0 meals, 0 goals")
	assert.Contains(t, h.mustRun("workout", "list"), id)
}

func TestSyncShow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	_, _, err := h.run("sync", "show", "abc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, cli.ErrReported))

	_, errOut, err := h.run("sync", "show", "99")
	assert.ErrorIs(t, err, cli.ErrReported)
	assert.Contains(t, errOut, "Record not found")
}

func TestSyncHistoryForOtherUser(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("sync", "history", "--user", "bob")

	assert.Contains(t, out, "No snapshots yet")
}

func TestSyncStatus(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("sync", "status")

	assert.Contains(t, out, "running")
}

func TestFractionalValues(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")

	h.mustRun("workout", "add", "--type", "running", "--duration", "32.5")
	h.mustRun("meal", "add", "Bagel", "--type", "snack", "--calories", "410.5")
	out := h.mustRun("profile", "set", "--age", "30.5")
	assert.Contains(t, out, "Age: 30.5")

	assert.Contains(t, h.mustRun("workout", "list"), "\trunning\t32.5\t")
	assert.Contains(t, h.mustRun("today"), "Workouts: 1 (32.5 min)")
}

func TestTodayWithNegativeMinutes(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "alice", "--password", "secret")
	ctx := context.Background()

	api := client.New(h.cfg.APIURL, h.ts.Client())
	_, err := api.SaveUserData(ctx, model.SaveRequest{Username: "alice", UserData: model.UserData{
		Workouts: []model.Workout{{ID: "w-neg", Date: "2024-05-10", Type: model.WorkoutGym, Duration: -15}},
	}})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// Data written by an older client can still hold negative minutes.
	store, err := localstore.Open(ctx, h.cfg.StorePath)
	require.NoError(t, err)
	var user model.User
	ok, err := store.GetJSON(ctx, localstore.CurrentUserKey, &user)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.SetJSON(ctx, localstore.DataKey(user.ID), model.UserData{
		Workouts: []model.Workout{{ID: "w-neg", Date: "2024-05-10", Type: model.WorkoutGym, Duration: -15}},
	}))
	require.NoError(t, store.Close())

	out := h.mustRun("today")
	assert.Contains(t, out, "Workouts: 1 (-15 min)")
	assert.Contains(t, out, "2024-05-10\t-15 min")
}
