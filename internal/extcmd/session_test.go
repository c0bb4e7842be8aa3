package extcmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/integration/process"
)

func newShellManager(t *testing.T, opts ...Option) (*Manager, *process.Supervisor) {
	t.Helper()
	runner := NewShellRunner(process.NewRunner())
	m, err := NewManager(append([]Option{WithRunner(runner), WithStatus(5*time.Millisecond, 4)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, runner.Supervisor()
}

func TestFilterWholeBufferSort(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("3\n1\n2\n")

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "sort"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))

	assert.Equal(t, "1\n2\n3\n", doc.Content())
	assert.Equal(t, SessionDone, s.State())
	require.Len(t, s.Jobs(), 1)
	assert.Equal(t, RegionWholeBuffer, s.Jobs()[0].Region().Kind)
	assert.Equal(t, 1, doc.Commits())
	assert.Equal(t, "sort: done", s.Summary())
}

func TestFilterTwoSelections(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("x b y a z", rng(2, 3), rng(6, 7))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "tr a-z A-Z"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))

	assert.Equal(t, "x B y A z", doc.Content())
	require.Len(t, doc.commits, 1)
	edits := doc.commits[0]
	require.Len(t, edits, 2)
	assert.Equal(t, ByteOffset(6), edits[0].Region.Start, "edits must arrive last-first")
	assert.Equal(t, "A", edits[0].Text)
	assert.Equal(t, ByteOffset(2), edits[1].Region.Start)
	assert.Equal(t, "B", edits[1].Text)
}

func TestFilterDescendingApplicationKeepsOffsets(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("a-b-c", rng(0, 1), rng(2, 3), rng(4, 5))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "sed 's/./&&&/'"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))
	assert.Equal(t, "aaa-bbb-ccc", doc.Content())
}

func TestFilterNonZeroExitLeavesDocument(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("keep me", rng(0, 4))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "false"})
	require.NoError(t, err)
	err = waitSession(t, s)

	require.ErrorIs(t, err, ErrNonZeroExit)
	assert.Equal(t, "keep me", doc.Content())
	assert.Zero(t, doc.Commits())
	assert.Equal(t, SessionCancelled, s.State())
	assert.Equal(t, []string{"Shell returned 1"}, doc.Errors())
	assert.Equal(t, "false: Shell returned 1", s.Summary())
}

func TestFilterOneFailureAbortsAll(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("ok\nbad\n", rng(0, 2), rng(3, 6))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: `read l; [ "$l" = ok ] && echo fine || { echo "no $l" >&2; exit 4; }`})
	require.NoError(t, err)
	err = waitSession(t, s)

	var je *JobError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, 4, je.ExitCode)
	assert.Equal(t, "ok\nbad\n", doc.Content())
	assert.Equal(t, []string{"Shell returned 4:\nno bad\n"}, doc.Errors())
}

func TestFilterCatIsIdentity(t *testing.T) {
	texts := []string{"", "plain", "multi\nline\n", "unicode ✓ ü\n", "no trailing newline"}
	m, _ := newShellManager(t)
	for _, text := range texts {
		doc := newFakeDoc(text)
		if len(text) > 2 {
			doc.selections = []Range{rng(1, ByteOffset(len(text)))}
		}
		s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "cat"})
		require.NoError(t, err)
		require.NoError(t, waitSession(t, s))
		assert.Equal(t, text, doc.Content())
	}
}

func TestInsertAtStart(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("ab cd", rng(1, 1), rng(3, 5))

	s, err := m.Start(doc, Request{Mode: InsertAtStart, Cmdline: "cat; printf X"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))

	// Input is empty, so each insertion is just "X"; the selected "cd" stays.
	assert.Equal(t, "aXb Xcd", doc.Content())
	for _, j := range s.Jobs() {
		assert.Empty(t, j.Input())
	}
}

func TestInsertNonZeroExitStillInserts(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("ab", rng(1, 1))

	s, err := m.Start(doc, Request{Mode: InsertAtStart, Cmdline: "printf out; exit 3"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))

	assert.Equal(t, "aoutb", doc.Content())
	assert.Equal(t, []string{"Shell returned 3"}, doc.Errors())
}

func TestCancelLeavesNoProcess(t *testing.T) {
	m, sup := newShellManager(t)
	doc := newFakeDoc("abc", rng(0, 3))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "sleep 30"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sup.Count() == 1 }, 5*time.Second, 5*time.Millisecond)

	assert.True(t, m.Cancel(doc.BufferID()))
	assert.False(t, m.Cancel(doc.BufferID()))
	require.ErrorIs(t, waitSession(t, s), ErrCancelled)

	assert.Eventually(t, func() bool { return sup.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "abc", doc.Content())
	assert.Zero(t, doc.Commits())
	assert.Empty(t, doc.Errors(), "cancellation is silent")
	assert.Equal(t, "sleep 30: cancelled", s.Summary())

	_, live := m.Session(doc.BufferID())
	assert.False(t, live)
}

func TestSpinnerErasedOnFinish(t *testing.T) {
	m, _ := newShellManager(t)
	doc := newFakeDoc("abc", rng(0, 3))

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "sleep 0.05; cat"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))
	<-s.spin.Done()

	doc.mu.Lock()
	defer doc.mu.Unlock()
	require.NotEmpty(t, doc.statuses)
	assert.Equal(t, "external_command: sleep 0.05; cat [=   ]", doc.statuses[0])
	assert.Equal(t, 1, doc.erased)
}

func TestSessionCommitOnMainThread(t *testing.T) {
	queue := make(chan func(), 1)
	runner := &fakeRunner{}
	m, err := NewManager(WithRunner(runner), WithMainThread(func(fn func()) { queue <- fn }))
	require.NoError(t, err)

	doc := newFakeDoc("abc", rng(0, 3))
	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "up"})
	require.NoError(t, err)

	var fn func()
	select {
	case fn = <-queue:
	case <-time.After(5 * time.Second):
		t.Fatal("commit was not posted")
	}
	assert.Equal(t, "abc", doc.Content(), "nothing applied before the main thread runs")
	assert.Equal(t, SessionActive, s.State())

	fn()
	assert.Equal(t, "ABC", doc.Content())
	assert.Equal(t, SessionDone, s.State())
}

func TestCancelWhileCommitPosted(t *testing.T) {
	queue := make(chan func(), 1)
	m, err := NewManager(WithRunner(&fakeRunner{}), WithMainThread(func(fn func()) { queue <- fn }))
	require.NoError(t, err)

	doc := newFakeDoc("abc", rng(0, 3))
	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "up"})
	require.NoError(t, err)
	fn := <-queue

	require.True(t, s.Cancel())
	fn()
	assert.Equal(t, "abc", doc.Content())
	assert.Zero(t, doc.Commits())
	require.ErrorIs(t, s.Err(), ErrCancelled)
}

func TestSessionWaitContext(t *testing.T) {
	m, err := NewManager(WithRunner(&fakeRunner{hold: true}))
	require.NoError(t, err)
	defer m.Close()

	s, err := m.Start(newFakeDoc("abc"), Request{Mode: FilterReplace, Cmdline: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}
