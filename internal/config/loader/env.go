package loader

import (
	"os"
	"sort"
	"strings"
)

// EnvLoader loads configuration from environment variables.
//
// Mapped variables set the mapped path. Variables starting with the prefix
// followed by ENV_ set entries of the "env" table, e.g. EXTCMD_ENV_LANG=C sets
// env.LANG. Values stay strings.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "EXTCMD_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "EXTCMD_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, DefaultEnvMapping(prefix))
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		environ: os.Environ,
	}
}

// DefaultEnvMapping returns the variables understood for prefix.
func DefaultEnvMapping(prefix string) map[string]string {
	paths := []string{
		"shell", "shell_flag", "working_dir", "full_line", "kill_grace",
		"status_interval", "status_width", "max_processes",
		"history.size", "history.path",
		"log.level", "log.file",
	}
	m := make(map[string]string, len(paths))
	for _, p := range paths {
		m[prefix+strings.ToUpper(strings.ReplaceAll(p, ".", "_"))] = p
	}
	return m
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	envPrefix := l.prefix + "ENV_"

	vars := l.environ()
	sort.Strings(vars)
	for _, kv := range vars {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if path, mapped := l.mapping[name]; mapped {
			setByPath(config, path, value)
			continue
		}
		if key := strings.TrimPrefix(name, envPrefix); key != name && key != "" {
			env, _ := config["env"].(map[string]any)
			if env == nil {
				env = make(map[string]any)
				config["env"] = env
			}
			env[key] = value
		}
	}

	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}
	return dst
}
