package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	p := Load()
	p.SetZoom(1.44)
	p.SetShowGrid(true)
	p.SetDarkTheme(true)
	p.SetLastDirectory("/tmp/sketches")
	require.NoError(t, p.Save())

	reloaded := Load()
	assert.Equal(t, 1.44, reloaded.Zoom())
	assert.True(t, reloaded.ShowGrid())
	assert.True(t, reloaded.DarkTheme())
	assert.Equal(t, "/tmp/sketches", reloaded.LastDirectory())

	assert.FileExists(t, filepath.Join(dir, "notecanvas", prefsFile))
}

func TestDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	assert.Equal(t, 0.0, p.Zoom())
	assert.False(t, p.ShowGrid())
	assert.True(t, p.DarkTheme(), "dark is the default variant")
	assert.Equal(t, "", p.LastDirectory())
}

func TestLightThemeSticks(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	p.SetDarkTheme(false)
	require.NoError(t, p.Save())

	assert.False(t, Load().DarkTheme())
}
