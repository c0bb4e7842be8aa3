package extcmd

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/engine/buffer"
	"github.com/technocoreai/extcmd/internal/integration/process"
)

// fakeDoc is an in-memory Document that records commits, status and errors.
type fakeDoc struct {
	bufferID string
	viewID   string
	readOnly bool
	dir      string

	mu         sync.Mutex
	text       string
	selections []Range
	commits    [][]PendingEdit
	statuses   []string
	erased     int
	errors     []string
	onCommit   func()
}

func newFakeDoc(text string, selections ...Range) *fakeDoc {
	return &fakeDoc{bufferID: "buf-1", viewID: "view-1", text: text, selections: selections}
}

func (d *fakeDoc) BufferID() string { return d.bufferID }
func (d *fakeDoc) ViewID() string   { return d.viewID }
func (d *fakeDoc) ReadOnly() bool   { return d.readOnly }
func (d *fakeDoc) Dir() string      { return d.dir }

func (d *fakeDoc) Text(r Range) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text[r.Start:r.End]
}

func (d *fakeDoc) Len() ByteOffset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ByteOffset(len(d.text))
}

func (d *fakeDoc) FullLine(r Range) Range {
	return buffer.NewBufferFromString(d.Content()).FullLine(r)
}

func (d *fakeDoc) Selections() []Range {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.selections) == 0 {
		return []Range{buffer.NewRange(0, 0)}
	}
	return append([]Range(nil), d.selections...)
}

func (d *fakeDoc) Commit(mode Mode, edits []PendingEdit) error {
	d.mu.Lock()
	for _, e := range edits {
		end := e.Region.End
		if mode == InsertAtStart {
			end = e.Region.Start
		}
		d.text = d.text[:e.Region.Start] + e.Text + d.text[end:]
	}
	d.commits = append(d.commits, append([]PendingEdit(nil), edits...))
	hook := d.onCommit
	d.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (d *fakeDoc) SetStatus(key, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, key+": "+text)
}

func (d *fakeDoc) EraseStatus(string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.erased++
}

func (d *fakeDoc) ShowErrors(panel string, messages []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, messages...)
}

func (d *fakeDoc) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *fakeDoc) Commits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.commits)
}

func (d *fakeDoc) Errors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.errors...)
}

// fakeRunner hands out fakeProcs whose completion the test controls.
type fakeRunner struct {
	mu    sync.Mutex
	procs []*fakeProc
	// results maps a command line to its result; missing lines echo input
	// upper-cased.
	results map[string]fakeResult
	// hold keeps processes running until released.
	hold bool
}

type fakeResult struct {
	res process.Result
	err error
}

type fakeProc struct {
	cmd       Command
	input     string
	res       process.Result
	err       error
	release   chan struct{}
	cancelled chan struct{}
	once      sync.Once
}

func (r *fakeRunner) Start(_ context.Context, cmd Command, input string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &fakeProc{
		cmd:       cmd,
		input:     input,
		res:       process.Result{Stdout: strings.ToUpper(input)},
		release:   make(chan struct{}),
		cancelled: make(chan struct{}),
	}
	if fr, ok := r.results[cmd.Line]; ok {
		p.res, p.err = fr.res, fr.err
	}
	if !r.hold {
		close(p.release)
	}
	r.procs = append(r.procs, p)
	return p, nil
}

func (r *fakeRunner) Procs() []*fakeProc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeProc(nil), r.procs...)
}

func (p *fakeProc) Wait(ctx context.Context) (process.Result, error) {
	select {
	case <-p.release:
		return p.res, p.err
	case <-p.cancelled:
		return process.Result{ExitCode: -1}, ErrCancelled
	case <-ctx.Done():
		p.Cancel()
		return process.Result{ExitCode: -1}, ErrCancelled
	}
}

func (p *fakeProc) Cancel() {
	p.once.Do(func() { close(p.cancelled) })
}

func (p *fakeProc) IsCancelled() bool {
	select {
	case <-p.cancelled:
		return true
	default:
		return false
	}
}

func waitSession(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "session did not finish")
	return err
}

func rng(start, end ByteOffset) Range {
	return buffer.NewRange(start, end)
}
