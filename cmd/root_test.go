package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"run", "batch", "serve", "worker", "dispatch", "enqueue", "runs", "profiles", "config", "cache"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "profile-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	require.NotNil(t, runCmd.Flags().Lookup("url"))
	require.NotNil(t, runCmd.Flags().Lookup("name"))
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)

	for _, name := range []string{"file", "url", "notion"} {
		assert.NotNil(t, batchCmd.Flags().Lookup(name), "batch should have --%s", name)
		assert.NotNil(t, dispatchCmd.Flags().Lookup(name), "dispatch should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])

	for _, name := range []string{"status", "url", "limit"} {
		assert.NotNil(t, runsListCmd.Flags().Lookup(name), "runs list should have --%s", name)
	}
}

func TestCacheCommand_HasPrune(t *testing.T) {
	require.Len(t, cacheCmd.Commands(), 1)
	assert.Equal(t, "prune", cacheCmd.Commands()[0].Name())
}
