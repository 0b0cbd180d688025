package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/investflow/internal/app"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/models"
	tcommon "github.com/bobmcallan/investflow/tests/common"
)

// cliEnv shares one set of in-memory stores across CLI invocations.
type cliEnv struct {
	storage *tcommon.MockStorageManager
	feed    *tcommon.MockPositionFeed
	gemini  *tcommon.MockGeminiClient
	loads   int
}

func newCLIEnv() *cliEnv {
	return &cliEnv{
		storage: tcommon.NewMockStorageManager(),
		feed:    &tcommon.MockPositionFeed{},
		gemini:  &tcommon.MockGeminiClient{Response: "## Outlook\n\nBalanced."},
	}
}

func (e *cliEnv) loader(configPath string) (*app.App, error) {
	e.loads++
	return app.New(common.NewDefaultConfig(), common.NewSilentLogger(), app.Deps{
		Storage:      e.storage,
		PositionFeed: e.feed,
		GeminiClient: e.gemini,
	}), nil
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(e.loader)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var account = []string{"--email", "alice@example.com", "--password", "secret123"}

func withAccount(args ...string) []string {
	return append(args, account...)
}

func TestVersionCommand_SkipsApp(t *testing.T) {
	env := newCLIEnv()
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "investflow "))
	assert.Zero(t, env.loads)
}

func TestRegisterCommand(t *testing.T) {
	env := newCLIEnv()
	out, err := env.run(t, withAccount("register", "--name", "Alice")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered Alice <alice@example.com>")
	assert.True(t, env.storage.Closed)

	_, err = env.run(t, withAccount("register", "--name", "Alice")...)
	require.Error(t, err)
	assert.Equal(t, "This email is already in use.", err.Error())
}

func TestCommands_RequireAccount(t *testing.T) {
	env := newCLIEnv()
	for _, name := range []string{"holdings", "stats", "allocation", "import", "insight"} {
		_, err := env.run(t, name)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "--email and --password are required", name)
	}
}

func TestCommands_InvalidCredentials(t *testing.T) {
	env := newCLIEnv()
	_, err := env.run(t, "stats", "--email", "nobody@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials.", err.Error())
}

func TestImportThenReport(t *testing.T) {
	env := newCLIEnv()
	_, err := env.run(t, withAccount("register", "--name", "Alice")...)
	require.NoError(t, err)

	env.feed.Positions = []models.RawPosition{
		{Ticker: "AAPL", Quantity: 10, AveragePrice: 100, CurrentPrice: 160},
		{Ticker: "BTCUSD", Quantity: 1, AveragePrice: 20000, CurrentPrice: 30000},
	}

	out, err := env.run(t, withAccount("import", "--api-key", "k-123", "--demo")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2 added, 0 updated")
	assert.Equal(t, "k-123", env.feed.LastCredential)
	assert.True(t, env.feed.LastSandbox)

	out, err = env.run(t, withAccount("holdings")...)
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "BTCUSD")
	assert.Contains(t, out, "crypto")

	out, err = env.run(t, withAccount("stats")...)
	require.NoError(t, err)
	assert.Contains(t, out, "$31,600.00")
	assert.Contains(t, out, "Holdings")

	out, err = env.run(t, withAccount("allocation")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported (T212)")
}

func TestImportCommand_MissingKey(t *testing.T) {
	t.Setenv("TRADING212_API_KEY", "")
	t.Setenv("INVESTFLOW_TRADING212_API_KEY", "")
	env := newCLIEnv()
	_, err := env.run(t, withAccount("register", "--name", "Alice")...)
	require.NoError(t, err)

	_, err = env.run(t, withAccount("import")...)
	require.Error(t, err)
	assert.Equal(t, "API key is required.", err.Error())
	assert.Zero(t, env.feed.CallCount())
}

func TestInsightCommand(t *testing.T) {
	env := newCLIEnv()
	_, err := env.run(t, withAccount("register", "--name", "Alice")...)
	require.NoError(t, err)

	out, err := env.run(t, withAccount("insight", "--raw")...)
	require.NoError(t, err)
	assert.Equal(t, "## Outlook\n\nBalanced.\n", out)

	out, err = env.run(t, withAccount("insight")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Outlook")
	assert.Contains(t, out, "Balanced.")
}

func TestInsightCommand_Fallback(t *testing.T) {
	env := newCLIEnv()
	env.gemini.Err = errors.New("quota exhausted")
	_, err := env.run(t, withAccount("register", "--name", "Alice")...)
	require.NoError(t, err)

	out, err := env.run(t, withAccount("insight", "--raw")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "quota")
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestLoaderError(t *testing.T) {
	cmd := newRootCmd(func(string) (*app.App, error) {
		return nil, errors.New("failed to initialize storage: connection refused")
	})
	cmd.SetArgs(withAccount("stats"))
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
