package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/cli"
	"github.com/spec-kit/helpdesk-core/internal/testutil"
)

func testApp(t *testing.T) (*cli.App, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(testutil.Monday)
	cat := testutil.NewTestCategory("network", 60)
	env.Store.PutCategory(cat)
	env.Store.PutWorker(testutil.NewTestWorker("w1"))
	env.Store.PutTicket(testutil.NewTestTicket("t1", cat))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "11:00"))
	return &cli.App{
		Assignments: env.Scheduler,
		Predictions: env.Predictions,
		Auth:        env.Auth,
		Clock:       env.Clock,
	}, env
}

func executeCmd(t *testing.T, app *cli.App, args ...string) (string, string, error) {
	t.Helper()
	root := cli.NewRootCmd(app)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAutoAssignCmd(t *testing.T) {
	app, _ := testApp(t)

	out, _, err := executeCmd(t, app, "auto-assign", "--worker", "w1", "--week", "2024-03-04")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-04\tt1")
	assert.Contains(t, out, "assigned 1 ticket(s) to w1")
}

func TestAutoAssignCmd_DefaultsToCurrentWeek(t *testing.T) {
	app, env := testApp(t)
	env.Clock.Set(testutil.Monday.AddDate(0, 0, 3))

	out, _, err := executeCmd(t, app, "auto-assign", "--worker", "w1")
	require.NoError(t, err)
	assert.Contains(t, out, "week of 2024-03-04")
}

func TestAutoAssignCmd_RequiresWorker(t *testing.T) {
	app, _ := testApp(t)

	_, _, err := executeCmd(t, app, "auto-assign")
	assert.Error(t, err)

	_, _, err = executeCmd(t, app, "auto-assign", "--worker", "w1", "--week", "next")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestPredictCmd(t *testing.T) {
	app, _ := testApp(t)

	out, _, err := executeCmd(t, app, "predict", "--worker", "w1", "--week", "2024-03-04")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "2024-03-04\t120\t2\t1.00", lines[1])
	assert.Equal(t, "2024-03-05\t0\t0\t1.00", lines[2])
}

func TestTokenCmd(t *testing.T) {
	app, env := testApp(t)

	out, stderr, err := executeCmd(t, app, "token", "--worker", "w1")
	require.NoError(t, err)
	claims, err := env.Auth.TokenManager().ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "w1", claims.WorkerID)
	assert.Contains(t, stderr, "expires")
}

func TestMigrateCmd(t *testing.T) {
	app, _ := testApp(t)

	_, _, err := executeCmd(t, app, "migrate")
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	app.Migrate = func(context.Context) ([]string, error) { return []string{"001_init.sql"}, nil }
	out, _, err := executeCmd(t, app, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "applied 001_init.sql\n", out)
}
