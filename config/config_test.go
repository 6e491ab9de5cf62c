package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Source)
	assert.Equal(t, "build", cfg.Dest)
	assert.Equal(t, filepath.Join("templates", "*.html"), cfg.Templates)
	assert.False(t, cfg.Develop)
	assert.True(t, cfg.FetchPreviews)
	assert.Equal(t, 10*time.Second, cfg.PreviewTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadTemplatesRelativeToSource(t *testing.T) {
	v := New()
	v.Set("source", "site")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("site", "templates", "*.html"), cfg.Templates)

	abs := filepath.Join(t.TempDir(), "*.tmpl")
	v.Set("templates", abs)
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Templates)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ZINE_DEVELOP", "true")
	t.Setenv("ZINE_DEST", "public")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.True(t, cfg.Develop)
	assert.Equal(t, "public", cfg.Dest)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zine-build.toml")
	require.NoError(t, os.WriteFile(path, []byte("minify = true\nlogLevel = \"debug\"\n"), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Minify)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.NoError(t, ReadFile(New(), ""))
	assert.Error(t, ReadFile(New(), filepath.Join(t.TempDir(), "missing.toml")))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  any
	}{
		{"negative timeout", "previewTimeoutSec", -1},
		{"unknown log level", "logLevel", "loud"},
		{"dest equals source", "dest", "."},
		{"bad pattern", "templates", "templates/[.html"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			v.Set(tc.key, tc.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestIsWithinDest(t *testing.T) {
	cfg := &Config{Dest: "build"}
	assert.True(t, cfg.IsWithinDest("build"))
	assert.True(t, cfg.IsWithinDest(filepath.Join("build", "s1", "index.html")))
	assert.False(t, cfg.IsWithinDest("content"))
	assert.False(t, cfg.IsWithinDest(filepath.Join("build", "..", "x")))
}
