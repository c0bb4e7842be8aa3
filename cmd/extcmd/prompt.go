package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/technocoreai/extcmd/internal/cmdhistory"
)

var errNoTerminal = errors.New("no terminal to prompt on; pass --cmd")

// termPrompter reads a command line from the terminal. Tab completes from
// the command history.
type termPrompter struct {
	in      io.Reader
	out     io.Writer
	history *cmdhistory.History
}

func newTermPrompter(in io.Reader, out io.Writer) *termPrompter {
	return &termPrompter{in: in, out: out}
}

// Prompt implements handler.Prompter. The terminal starts with an empty
// line; initial is not prefilled.
func (p *termPrompter) Prompt(label, _ string) (string, bool, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", false, errNoTerminal
	}
	fd := int(f.Fd())

	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = term.Restore(fd, state) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, p.out}, promptStyle.Render(label)+" ")
	t.AutoCompleteCallback = p.complete

	line, err := t.ReadLine()
	switch {
	case errors.Is(err, io.EOF):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	line = strings.TrimSpace(line)
	return line, line != "", nil
}

// complete replaces the text before the cursor with the best history match
// when tab is pressed.
func (p *termPrompter) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || p.history == nil {
		return "", 0, false
	}
	match, ok := p.history.Complete(line[:pos])
	if !ok {
		return "", 0, false
	}
	return match, len(match), true
}
