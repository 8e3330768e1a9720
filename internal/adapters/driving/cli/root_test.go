package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docstruct", rootCmd.Use)
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose", "json-logs"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	want := []string{
		"extract", "merge", "divide", "run", "status", "list", "inspect",
		"watch", "fetch", "settings", "mcp", "version",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_BootstrapReceivesOptions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer logger.SetVerbose(false)

	var got Options
	cleaned := false
	bootstrap = func(opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Structurer: ts.structurer}, func() { cleaned = true }, nil
	}
	ts.structurer.ids = []string{"paper"}

	out, err := executeCommand("--config", "/tmp/docstruct.toml", "--verbose", "list")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/docstruct.toml", got.ConfigPath)
	assert.True(t, got.Verbose)
	assert.False(t, got.JSONLogs)
	assert.True(t, cleaned)
	assert.Contains(t, out, "paper")
}

func TestRootCmd_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	bootstrap = func(Options) (*Services, func(), error) {
		return nil, nil, errors.New("bad config")
	}

	_, err := executeCommand("list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}
