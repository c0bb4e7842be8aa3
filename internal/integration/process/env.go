package process

import (
	"os"
	"sort"
	"strings"
)

// DefaultCType is set as LC_CTYPE when the environment names no locale.
const DefaultCType = "en_US.UTF-8"

// BuildEnv merges extra over base (KEY=VALUE entries, usually os.Environ())
// and returns the result sorted by key. LC_CTYPE is set to DefaultCType when
// none of LC_CTYPE, LC_ALL or LANG is present.
func BuildEnv(base []string, extra map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(extra)+1)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx > 0 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range extra {
		envMap[k] = v
	}

	_, ctype := envMap["LC_CTYPE"]
	_, all := envMap["LC_ALL"]
	_, lang := envMap["LANG"]
	if !ctype && !all && !lang {
		envMap["LC_CTYPE"] = DefaultCType
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+envMap[k])
	}
	return env
}

func processEnv(extra map[string]string) []string {
	return BuildEnv(os.Environ(), extra)
}
