package extcmd

import (
	"strings"
	"sync"
	"time"
)

// Spinner defaults.
const (
	DefaultStatusInterval = 100 * time.Millisecond
	DefaultStatusWidth    = 8
)

// SpinnerFrame renders frame i of the status text: a marker bouncing between
// the ends of a field width cells wide, e.g. "sort [  =     ]".
func SpinnerFrame(cmdline string, width, i int) string {
	if width < 1 {
		width = 1
	}
	pos := bounce(width, i)
	return cmdline + " [" + strings.Repeat(" ", pos) + "=" + strings.Repeat(" ", width-1-pos) + "]"
}

// bounce maps step i to a position that walks 0..width-1 and back.
func bounce(width, i int) int {
	if width == 1 {
		return 0
	}
	period := 2 * (width - 1)
	i %= period
	if i < width {
		return i
	}
	return period - i
}

// spinner updates a status entry until stopped.
type spinner struct {
	reporter StatusReporter
	cmdline  string
	width    int
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func startSpinner(reporter StatusReporter, cmdline string, width int, interval time.Duration) *spinner {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	s := &spinner{
		reporter: reporter,
		cmdline:  cmdline,
		width:    width,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.reporter.SetStatus(StatusKey, SpinnerFrame(cmdline, width, 0))
	go s.loop()
	return s
}

func (s *spinner) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		select {
		case <-s.stop:
			s.reporter.EraseStatus(StatusKey)
			return
		case <-ticker.C:
			s.reporter.SetStatus(StatusKey, SpinnerFrame(s.cmdline, s.width, i))
		}
	}
}

// Stop ends the loop. The status entry is erased by the loop itself, after
// its last update.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once the status entry has been erased.
func (s *spinner) Done() <-chan struct{} {
	return s.done
}
