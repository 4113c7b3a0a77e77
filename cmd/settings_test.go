package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iwash/internal/model"
)

func settingsFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("set", pflag.ContinueOnError)
	addSettingsFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestApplySettingsFlags(t *testing.T) {
	fs := settingsFlags(t, "--theme=dark", "--radius=1500", "--auto-reload")

	s, err := applySettingsFlags(model.DefaultSettings(), fs)
	require.NoError(t, err)

	assert.Equal(t, model.ThemeDark, s.Theme)
	assert.Equal(t, 1500, s.DefaultRadiusM)
	assert.True(t, s.AutoReload)
	assert.Equal(t, model.SearchFromMyLocation, s.SearchFrom)
	assert.Equal(t, model.NavAsk, s.PreferredNav)
}

func TestApplySettingsFlags_Unchanged(t *testing.T) {
	cur := model.DefaultSettings()
	cur.PreferredNav = model.NavWaze

	s, err := applySettingsFlags(cur, settingsFlags(t))
	require.NoError(t, err)
	assert.Equal(t, cur, s)
}

func TestApplySettingsFlags_Invalid(t *testing.T) {
	tests := [][]string{
		{"--search-from=gps"},
		{"--theme=neon"},
		{"--nav=mapy"},
		{"--radius=0"},
	}
	for _, args := range tests {
		_, err := applySettingsFlags(model.DefaultSettings(), settingsFlags(t, args...))
		assert.Error(t, err, args)
	}
}

func TestWriteSettings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, model.DefaultSettings()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "myLocation", got["searchFrom"])
	assert.Equal(t, "system", got["theme"])
	assert.Equal(t, float64(3000), got["defaultRadiusM"])
}
