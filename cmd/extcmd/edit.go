package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/technocoreai/extcmd/internal/app"
	"github.com/technocoreai/extcmd/internal/dispatcher/handler"
	"github.com/technocoreai/extcmd/internal/dispatcher/handlers/command"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

// errCommandFailed reports a command that ran but did not commit.
var errCommandFailed = errors.New("command did not complete")

type editKind struct {
	use    string
	short  string
	action string
	filter bool
}

var (
	editFilter = editKind{
		use:    "filter FILE",
		short:  "Replace selections with a command's output",
		action: command.ActionFilter,
		filter: true,
	}
	editInsert = editKind{
		use:    "insert FILE",
		short:  "Insert a command's output at each selection",
		action: command.ActionInsert,
	}
)

// outputFlags choose where the edited text goes.
type outputFlags struct {
	inPlace bool
	output  string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.inPlace, "in-place", "i", false, "write the result back to FILE")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the result to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("in-place", "output")
}

type editFlags struct {
	outputFlags
	cmdline    string
	selections []string
	fullLine   bool
}

func newEditCmd(ro *rootOptions, kind editKind) *cobra.Command {
	f := &editFlags{}
	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		Long: kind.short + `.

FILE "-" reads standard input. Selections are byte ranges START:END or
cursors START; without --select the whole file is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, ro, kind, f, args[0])
		},
	}
	cmd.Flags().StringVar(&f.cmdline, "cmd", "", "command line (prompted for when omitted)")
	cmd.Flags().StringArrayVarP(&f.selections, "select", "s", nil, "selection START:END or cursor START (repeatable)")
	if kind.filter {
		cmd.Flags().BoolVar(&f.fullLine, "full-line", false, "widen selections to whole lines")
	}
	f.outputFlags.register(cmd)
	return cmd
}

func runEdit(cmd *cobra.Command, ro *rootOptions, kind editKind, f *editFlags, file string) error {
	prompter := newTermPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	opts := app.Options{}
	if file != "-" {
		opts.Prompter = prompter
	}

	a, shutdown, err := ro.newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer shutdown()
	prompter.history = a.History()

	v, err := openTarget(cmd, a, file, f.inPlace)
	if err != nil {
		return err
	}
	if err := selectRanges(v, f.selections); err != nil {
		return err
	}

	args := handler.Args{}
	if f.cmdline != "" {
		args[command.ArgCmd] = f.cmdline
	}
	if kind.filter && cmd.Flags().Changed("full-line") {
		args[command.ArgFullLine] = f.fullLine
	}

	res := a.Execute(v, kind.action, args)
	if res.IsError() {
		return res.Error
	}
	s, ok := command.SessionOf(res)
	if !ok {
		printWarning(cmd.ErrOrStderr(), "nothing to run")
		return nil
	}

	if err := a.Editor(v).Wait(cmd.Context(), s); err != nil {
		s.Cancel()
		return err
	}
	report(cmd.ErrOrStderr(), v, s)
	if s.State() != extcmd.SessionDone {
		return errCommandFailed
	}
	return writeResult(cmd, a, v, &f.outputFlags)
}

// openTarget opens file, or standard input for "-", in a new view.
func openTarget(cmd *cobra.Command, a *app.Application, file string, inPlace bool) (*app.View, error) {
	opts := []app.ViewOption{app.WithStatusHook(newStatusLine(cmd.ErrOrStderr()).update)}
	if file != "-" {
		return a.OpenFile(file, opts...)
	}
	if inPlace {
		return nil, fmt.Errorf("--in-place needs a file")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return a.NewScratch(string(data), opts...), nil
}

// writeResult writes the edited text where f says.
func writeResult(cmd *cobra.Command, a *app.Application, v *app.View, f *outputFlags) error {
	doc := v.Document()
	switch {
	case f.inPlace:
		return a.SaveDocument(doc)
	case f.output != "":
		return os.WriteFile(f.output, []byte(doc.Content()), 0o644)
	default:
		_, err := io.WriteString(cmd.OutOrStdout(), doc.Content())
		return err
	}
}
