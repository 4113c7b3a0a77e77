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

	for _, name := range []string{"search", "classify", "favorites", "settings", "migrate", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "iwash", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lng", "radius", "filter", "format"} {
		require.NotNil(t, searchCmd.Flags().Lookup(name), "search command should have --%s flag", name)
	}
	assert.Equal(t, "table", searchCmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "ALL", searchCmd.Flags().Lookup("filter").DefValue)
}

func TestClassifyCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "tags", "address", "json"} {
		require.NotNil(t, classifyCmd.Flags().Lookup(name), "classify command should have --%s flag", name)
	}
}

func TestFavoritesCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range favoritesCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "toggle", "remove"} {
		assert.True(t, names[name], "expected favorites subcommand %q not found", name)
	}
}

func TestSettingsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range settingsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["show"])
	assert.True(t, names["set"])
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
