// Package config loads the settings that control how external commands
// are run.
//
// Settings are resolved in three layers, each overriding the previous:
//
//  1. Built-in defaults (Default)
//  2. The config file, TOML or YAML by extension
//     (default ~/.config/extcmd/config.toml)
//  3. Environment variables with the EXTCMD_ prefix
//
// A Watcher reloads the file when it changes. Sessions already running keep
// the settings they started with.
//
// Example config.toml:
//
//	shell = "/bin/bash"
//	kill_grace = "250ms"
//
//	[env]
//	LANG = "C.UTF-8"
//
//	[history]
//	size = 200
package config
