package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/config/loader"
)

type mapLoader map[string]any

func (m mapLoader) Load() (map[string]any, error) { return m, nil }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/bin/sh", cfg.Shell)
	assert.Equal(t, "-c", cfg.ShellFlag)
	assert.Equal(t, 100*time.Millisecond, cfg.StatusInterval)
	assert.Equal(t, 8, cfg.StatusWidth)
	assert.Equal(t, 100, cfg.History.Size)
	assert.Zero(t, cfg.MaxProcesses)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadWith(filepath.Join(t.TempDir(), "none.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
shell = "/bin/bash"
kill_grace = "250ms"
status_width = 12
full_line = true
max_processes = 4

[env]
LANG = "C.UTF-8"

[history]
size = 5
`)
	cfg, err := LoadWith(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "/bin/bash", cfg.Shell)
	assert.Equal(t, 250*time.Millisecond, cfg.KillGrace)
	assert.Equal(t, 12, cfg.StatusWidth)
	assert.True(t, cfg.FullLine)
	assert.Equal(t, 4, cfg.MaxProcesses)
	assert.Equal(t, map[string]string{"LANG": "C.UTF-8"}, cfg.Env)
	assert.Equal(t, 5, cfg.History.Size)
	assert.Equal(t, "-c", cfg.ShellFlag, "unset keys keep defaults")
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
shell_flag: -lc
status_interval: 50
log:
  level: debug
`)
	cfg, err := LoadWith(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "-lc", cfg.ShellFlag)
	assert.Equal(t, 50*time.Millisecond, cfg.StatusInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "shell = \"/bin/bash\"\n[history]\nsize = 5\n")
	env := mapLoader{
		"shell":   "/bin/zsh",
		"history": map[string]any{"path": "/tmp/h"},
		"env":     map[string]any{"FOO": "bar"},
	}

	cfg, err := LoadWith(path, env)
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", cfg.Shell)
	assert.Equal(t, 5, cfg.History.Size)
	assert.Equal(t, "/tmp/h", cfg.History.Path)
	assert.Equal(t, "bar", cfg.Env["FOO"])
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{name: "unknown key", content: "colour = \"red\"\n", target: ErrSettingNotFound},
		{name: "wrong type", content: "shell = 3\n", target: ErrTypeMismatch},
		{name: "invalid value", content: "status_width = 0\n", target: ErrValidationFailed},
		{name: "negative process limit", content: "max_processes = -1\n", target: ErrValidationFailed},
		{name: "bad duration", content: "kill_grace = \"soon\"\n", target: ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "c.toml", tt.content)
			_, err := LoadWith(path, nil)
			require.ErrorIs(t, err, tt.target)
		})
	}

	path := writeFile(t, dir, "broken.toml", "shell = \n")
	_, err := LoadWith(path, nil)
	var pe *loader.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Env["A"] = "1"
	cp := cfg.Clone()
	cp.Env["A"] = "2"
	assert.Equal(t, "1", cfg.Env["A"])
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "shell = \"/bin/sh\"\n")
	initial, err := LoadWith(path, nil)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial,
		WithDebounce(10*time.Millisecond),
		WithLoadFunc(func(p string) (*Config, error) { return LoadWith(p, nil) }))
	require.NoError(t, err)
	defer w.Close()

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) { reloaded <- cfg })

	writeFile(t, dir, "other.toml", "ignored = true\n")
	writeFile(t, dir, "config.toml", "shell = \"/bin/bash\"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "/bin/bash", cfg.Shell)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
	assert.Equal(t, "/bin/bash", w.Current().Shell)
	assert.Equal(t, "/bin/sh", initial.Shell, "previous config is not mutated")

	writeFile(t, dir, "config.toml", "shell = [\n")
	assert.Eventually(t, func() bool { return w.LastError() != nil }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "/bin/bash", w.Current().Shell)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
