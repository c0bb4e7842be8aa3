package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/technocoreai/extcmd/internal/app"
	"github.com/technocoreai/extcmd/internal/plugin/lua"
)

type scriptFlags struct {
	outputFlags
	selections []string
	timeout    time.Duration
}

func newScriptCmd(ro *rootOptions) *cobra.Command {
	f := &scriptFlags{}
	cmd := &cobra.Command{
		Use:   "script SCRIPT FILE",
		Short: "Run a Lua script against a file",
		Long: `Run a Lua script against FILE ("-" reads standard input). The script
drives external commands through the extcmd module:

  local extcmd = require("extcmd")
  local ok, summary = extcmd.filter{cmd = "sort", full_line = true}:wait()

print writes to stderr; the edited text is written like filter's.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, ro, f, args[0], args[1])
		},
	}
	cmd.Flags().StringArrayVarP(&f.selections, "select", "s", nil, "initial selection START:END or cursor START (repeatable)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", lua.DefaultExecutionTimeout, "abort the script after this long (0 disables)")
	f.outputFlags.register(cmd)
	return cmd
}

func runScript(cmd *cobra.Command, ro *rootOptions, f *scriptFlags, script, file string) error {
	a, shutdown, err := ro.newApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer shutdown()

	v, err := openTarget(cmd, a, file, f.inPlace)
	if err != nil {
		return err
	}
	if err := selectRanges(v, f.selections); err != nil {
		return err
	}

	err = lua.RunFile(cmd.Context(), a.Editor(v), script,
		lua.WithOutput(cmd.ErrOrStderr()),
		lua.WithExecutionTimeout(f.timeout),
	)
	if err != nil {
		return err
	}
	return writeResult(cmd, a, v, &f.outputFlags)
}
