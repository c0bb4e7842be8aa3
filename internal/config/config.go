package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/technocoreai/extcmd/internal/config/loader"
)

// AppName names the config, state and log directories.
const AppName = "extcmd"

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "EXTCMD_"

// Config holds every setting.
type Config struct {
	// Shell runs command lines as: Shell ShellFlag <cmdline>.
	Shell     string
	ShellFlag string
	// Env is merged over the inherited environment of commands.
	Env map[string]string
	// WorkingDir is the commands' working directory. Empty means the
	// document's directory.
	WorkingDir string
	// FullLine is the default of the filter command's full_line argument.
	FullLine bool
	// KillGrace is the delay between SIGTERM and SIGKILL on cancel.
	KillGrace time.Duration
	// StatusInterval and StatusWidth shape the status spinner.
	StatusInterval time.Duration
	StatusWidth    int
	// MaxProcesses caps the commands running at once across all
	// documents. 0 means no limit.
	MaxProcesses int

	History HistoryConfig
	Log     LogConfig

	// Path is the file the config was loaded from, if any.
	Path string
}

// HistoryConfig configures the command line history.
type HistoryConfig struct {
	Size int
	Path string
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
	File  string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Shell:          "/bin/sh",
		ShellFlag:      "-c",
		Env:            map[string]string{},
		StatusInterval: 100 * time.Millisecond,
		StatusWidth:    8,
		History:        HistoryConfig{Size: 100},
		Log:            LogConfig{Level: "info"},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Env = make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		cp.Env[k] = v
	}
	return &cp
}

// DefaultPath returns ~/.config/extcmd/config.toml (per XDG).
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// DefaultHistoryPath returns ~/.local/state/extcmd/history (per XDG).
func DefaultHistoryPath() string {
	return filepath.Join(xdg.StateHome, AppName, "history")
}

// Load resolves defaults, the file at path (DefaultPath when empty) and the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWith(path, loader.NewEnvLoader(EnvPrefix))
}

// LoadWith is Load with an explicit environment loader.
func LoadWith(path string, env loader.Loader) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	fileMap, err := loader.ForPath(path).Load()
	if err != nil {
		return nil, err
	}
	var envMap map[string]any
	if env != nil {
		if envMap, err = env.Load(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if fileMap != nil {
		cfg.Path = path
	}
	if err := cfg.Apply(loader.DeepMerge(fileMap, envMap)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setter assigns one setting from a raw value.
type setter func(c *Config, v any) error

var setters = map[string]setter{
	"shell":           stringSetter(func(c *Config) *string { return &c.Shell }),
	"shell_flag":      stringSetter(func(c *Config) *string { return &c.ShellFlag }),
	"working_dir":     stringSetter(func(c *Config) *string { return &c.WorkingDir }),
	"full_line":       boolSetter(func(c *Config) *bool { return &c.FullLine }),
	"kill_grace":      durationSetter(func(c *Config) *time.Duration { return &c.KillGrace }),
	"status_interval": durationSetter(func(c *Config) *time.Duration { return &c.StatusInterval }),
	"status_width":    intSetter(func(c *Config) *int { return &c.StatusWidth }),
	"max_processes":   intSetter(func(c *Config) *int { return &c.MaxProcesses }),
	"history.size":    intSetter(func(c *Config) *int { return &c.History.Size }),
	"history.path":    stringSetter(func(c *Config) *string { return &c.History.Path }),
	"log.level":       stringSetter(func(c *Config) *string { return &c.Log.Level }),
	"log.file":        stringSetter(func(c *Config) *string { return &c.Log.File }),
	"env":             envSetter,
}

// Apply assigns every setting in m, a nested map as produced by the loaders.
// Unknown keys are rejected.
func (c *Config) Apply(m map[string]any) error {
	flat := make(map[string]any)
	flatten("", m, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		set, ok := setters[k]
		if !ok {
			return &SettingError{Path: k, Value: flat[k], Err: ErrSettingNotFound}
		}
		if err := set(c, flat[k]); err != nil {
			return &SettingError{Path: k, Value: flat[k], Err: err}
		}
	}
	return nil
}

// flatten turns nested tables into dotted keys. The env table is kept whole.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && path != "env" {
			flatten(path, sub, out)
			continue
		}
		out[path] = v
	}
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.Shell == "":
		return &SettingError{Path: "shell", Value: c.Shell, Err: ErrValidationFailed}
	case c.KillGrace < 0:
		return &SettingError{Path: "kill_grace", Value: c.KillGrace, Err: ErrValidationFailed}
	case c.StatusInterval <= 0:
		return &SettingError{Path: "status_interval", Value: c.StatusInterval, Err: ErrValidationFailed}
	case c.StatusWidth < 1:
		return &SettingError{Path: "status_width", Value: c.StatusWidth, Err: ErrValidationFailed}
	case c.MaxProcesses < 0:
		return &SettingError{Path: "max_processes", Value: c.MaxProcesses, Err: ErrValidationFailed}
	case c.History.Size < 0:
		return &SettingError{Path: "history.size", Value: c.History.Size, Err: ErrValidationFailed}
	}
	return nil
}

func stringSetter(field func(*Config) *string) setter {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return ErrTypeMismatch
		}
		*field(c) = s
		return nil
	}
}

func boolSetter(field func(*Config) *bool) setter {
	return func(c *Config, v any) error {
		switch b := v.(type) {
		case bool:
			*field(c) = b
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return ErrTypeMismatch
			}
			*field(c) = parsed
		default:
			return ErrTypeMismatch
		}
		return nil
	}
}

func intSetter(field func(*Config) *int) setter {
	return func(c *Config, v any) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

// durationSetter accepts Go duration strings ("250ms") or a number of
// milliseconds.
func durationSetter(field func(*Config) *time.Duration) setter {
	return func(c *Config, v any) error {
		if s, ok := v.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				*field(c) = d
				return nil
			}
		}
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(c) = time.Duration(n) * time.Millisecond
		return nil
	}
}

func envSetter(c *Config, v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return ErrTypeMismatch
	}
	for k, val := range m {
		c.Env[k] = fmt.Sprint(val)
	}
	return nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, ErrTypeMismatch
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, ErrTypeMismatch
		}
		return i, nil
	default:
		return 0, ErrTypeMismatch
	}
}
