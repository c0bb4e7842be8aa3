package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/technocoreai/extcmd/internal/app"
	"github.com/technocoreai/extcmd/internal/config"
	"github.com/technocoreai/extcmd/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string
	verbose    bool
	readOnly   bool
	noHistory  bool
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}

	root := &cobra.Command{
		Use:   "extcmd",
		Short: "Run text through external commands",
		Long: `extcmd filters a file's selections through shell commands, or inserts
command output at its cursors, the way an editor's "filter through command"
does. Without --cmd the command line is read from the terminal, with tab
completion from the command history.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&ro.configPath, "config", "c", "", "configuration file (default "+config.DefaultPath()+")")
	flags.StringVar(&ro.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&ro.logFile, "log-file", "", "log file (default under the XDG state directory)")
	flags.BoolVarP(&ro.verbose, "verbose", "v", false, "log debug output to stderr")
	flags.BoolVarP(&ro.readOnly, "read-only", "R", false, "open files read-only")
	flags.BoolVar(&ro.noHistory, "no-history", false, "do not read or record command history")

	root.AddCommand(
		newEditCmd(ro, editFilter),
		newEditCmd(ro, editInsert),
		newScriptCmd(ro),
		newHistoryCmd(ro),
	)
	return root
}

// loadConfig loads the configuration and applies flag overrides.
func (ro *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, err
	}
	if ro.logFile != "" {
		cfg.Log.File = ro.logFile
	}
	if ro.logLevel != "" {
		cfg.Log.Level = ro.logLevel
	}
	if ro.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newApp starts the application. The returned function shuts it down.
func (ro *rootOptions) newApp(cmd *cobra.Command, opts app.Options) (*app.Application, func(), error) {
	cfg, err := ro.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var logFile io.Closer
	switch {
	case ro.verbose:
		opts.LogOutput = cmd.ErrOrStderr()
	case cfg.Log.File == "":
		f, err := logging.OpenFile(config.AppName, "")
		if err != nil {
			// Logging is optional for a one-shot command.
			opts.LogOutput = io.Discard
		} else {
			opts.LogOutput = f
			logFile = f
		}
	}

	opts.Config = cfg
	opts.ReadOnly = ro.readOnly
	opts.MemoryHistory = ro.noHistory

	a, err := app.New(opts)
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, nil, err
	}
	return a, func() {
		if err := a.Shutdown(); err != nil {
			printWarning(cmd.ErrOrStderr(), err.Error())
		}
		if logFile != nil {
			_ = logFile.Close()
		}
	}, nil
}
