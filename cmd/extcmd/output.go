package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/technocoreai/extcmd/internal/app"
	"github.com/technocoreai/extcmd/internal/extcmd"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	promptStyle  = lipgloss.NewStyle().Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).PaddingLeft(2)
)

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✓ "+msg))
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render("! "+msg))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+err.Error()))
}

// report prints how a finished session ended and the error panel contents.
func report(w io.Writer, v *app.View, s *extcmd.Session) {
	switch s.State() {
	case extcmd.SessionDone:
		printSuccess(w, s.Summary())
	case extcmd.SessionCancelled:
		if s.Err() != nil && !extcmd.IsCancelled(s.Err()) {
			fmt.Fprintln(w, errorStyle.Render("✗ "+s.Summary()))
		} else {
			printWarning(w, s.Summary())
		}
	}
	for _, msg := range v.Panel(extcmd.ErrorPanelName) {
		fmt.Fprintln(w, detailStyle.Render(msg))
	}
}

// statusLine draws a view's status entries on one terminal line.
type statusLine struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
}

func newStatusLine(w io.Writer) *statusLine {
	f, ok := w.(*os.File)
	return &statusLine{w: w, enabled: ok && term.IsTerminal(int(f.Fd()))}
}

// update is an app.WithStatusHook callback. Empty text clears the line.
func (s *statusLine) update(_, text string) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		fmt.Fprint(s.w, "\r\x1b[K")
		return
	}
	fmt.Fprint(s.w, "\r\x1b[K"+statusStyle.Render(text))
}
