package extcmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technocoreai/extcmd/internal/event"
)

func TestStartValidation(t *testing.T) {
	m, err := NewManager(WithRunner(&fakeRunner{}))
	require.NoError(t, err)

	_, err = m.Start(newFakeDoc("a"), Request{Mode: FilterReplace})
	require.ErrorIs(t, err, ErrNoCommandLine)

	ro := newFakeDoc("a")
	ro.readOnly = true
	_, err = m.Start(ro, Request{Mode: FilterReplace, Cmdline: "cat"})
	require.ErrorIs(t, err, ErrReadOnly)

	require.NoError(t, m.Close())
	_, err = m.Start(newFakeDoc("a"), Request{Mode: FilterReplace, Cmdline: "cat"})
	require.ErrorIs(t, err, ErrManagerClosed)
}

func TestReinvokeDiscardsPriorGeneration(t *testing.T) {
	runner := &fakeRunner{hold: true}
	m, err := NewManager(WithRunner(runner))
	require.NoError(t, err)
	defer m.Close()

	doc := newFakeDoc("abc", rng(0, 3))
	first, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "first"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(runner.Procs()) == 1 }, time.Second, time.Millisecond)

	second, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "second"})
	require.NoError(t, err)
	assert.Greater(t, second.Token().Generation, first.Token().Generation)
	assert.False(t, first.Token().IsCurrent())
	require.ErrorIs(t, waitSession(t, first), ErrCancelled)

	procs := runner.Procs()
	require.Len(t, procs, 2)
	assert.True(t, procs[0].IsCancelled())

	// The second session commits; the first process finishing late changes nothing.
	close(procs[1].release)
	require.NoError(t, waitSession(t, second))
	procs[0].res.Stdout = "LATE"
	close(procs[0].release)

	assert.Equal(t, "ABC", doc.Content())
	assert.Equal(t, 1, doc.Commits())
	live, ok := m.Session(doc.BufferID())
	assert.False(t, ok, "finished session must be released, got %v", live)
}

func TestLateResultOfSupersededJobIsNotCommitted(t *testing.T) {
	runner := &fakeRunner{hold: true}
	m, err := NewManager(WithRunner(runner))
	require.NoError(t, err)
	defer m.Close()

	doc := newFakeDoc("abc", rng(0, 3))
	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "x"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(runner.Procs()) == 1 }, time.Second, time.Millisecond)

	// Retire the generation without cancelling the process.
	s.Token().InvalidateOwner()
	close(runner.Procs()[0].release)

	require.ErrorIs(t, waitSession(t, s), ErrCancelled)
	assert.Equal(t, "abc", doc.Content())
}

func TestInvalidationEvents(t *testing.T) {
	tests := []struct {
		name   string
		event  any
		cancel bool
	}{
		{
			name:   "buffer modified in same view",
			event:  event.NewEvent(event.TopicBufferModified, event.BufferModified{BufferID: "buf-1", ViewID: "view-1"}, "test"),
			cancel: true,
		},
		{
			name:   "buffer modified in other view",
			event:  event.NewEvent(event.TopicBufferModified, event.BufferModified{BufferID: "buf-1", ViewID: "view-2"}, "test"),
			cancel: true,
		},
		{
			name:   "buffer modified in other buffer",
			event:  event.NewEvent(event.TopicBufferModified, event.BufferModified{BufferID: "buf-2"}, "test"),
			cancel: false,
		},
		{
			name:   "selection changed in same view",
			event:  event.NewEvent(event.TopicSelectionChanged, event.SelectionChanged{BufferID: "buf-1", ViewID: "view-1"}, "test"),
			cancel: true,
		},
		{
			name:   "selection changed in other view",
			event:  event.NewEvent(event.TopicSelectionChanged, event.SelectionChanged{BufferID: "buf-1", ViewID: "view-2"}, "test"),
			cancel: false,
		},
		{
			name:   "view closed",
			event:  event.NewEvent(event.TopicViewClosed, event.ViewClosed{BufferID: "buf-1", ViewID: "view-1"}, "test"),
			cancel: true,
		},
		{
			name:   "other view closed",
			event:  event.NewEvent(event.TopicViewClosed, event.ViewClosed{BufferID: "buf-1", ViewID: "view-2"}, "test"),
			cancel: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := event.NewBus()
			runner := &fakeRunner{hold: true}
			m, err := NewManager(WithRunner(runner), WithBus(bus))
			require.NoError(t, err)
			defer m.Close()

			doc := newFakeDoc("abc", rng(0, 3))
			s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "x"})
			require.NoError(t, err)

			require.NoError(t, bus.Publish(context.Background(), tt.event))

			if tt.cancel {
				require.ErrorIs(t, waitSession(t, s), ErrCancelled)
				assert.Equal(t, "abc", doc.Content())
			} else {
				assert.Equal(t, SessionActive, s.State())
			}
		})
	}
}

func TestCommitEventsDoNotCancelCommittingSession(t *testing.T) {
	bus := event.NewBus()
	m, err := NewManager(WithRunner(&fakeRunner{}), WithBus(bus))
	require.NoError(t, err)
	defer m.Close()

	doc := newFakeDoc("abc", rng(0, 3))
	doc.onCommit = func() {
		_ = bus.Publish(context.Background(), event.NewEvent(event.TopicBufferModified,
			event.BufferModified{BufferID: doc.bufferID, ViewID: doc.viewID}, "commit"))
		_ = bus.Publish(context.Background(), event.NewEvent(event.TopicSelectionChanged,
			event.SelectionChanged{BufferID: doc.bufferID, ViewID: doc.viewID}, "commit"))
	}

	s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "x"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))
	assert.Equal(t, SessionDone, s.State())
	assert.Equal(t, "ABC", doc.Content())
}

func TestEnablementAndDescription(t *testing.T) {
	m, err := NewManager(WithRunner(&fakeRunner{hold: true}))
	require.NoError(t, err)
	defer m.Close()

	doc := newFakeDoc("abc")
	assert.True(t, m.IsEnabled(doc, FilterReplace))
	assert.True(t, m.IsEnabled(doc, InsertAtStart))
	assert.Equal(t, "Filter", m.Description(doc, FilterReplace, "Filter"))

	_, err = m.Start(doc, Request{Mode: FilterReplace, Cmdline: "x"})
	require.NoError(t, err)

	assert.True(t, m.IsLive(doc.BufferID(), FilterReplace))
	assert.True(t, m.IsEnabled(doc, FilterReplace))
	assert.False(t, m.IsEnabled(doc, InsertAtStart))
	assert.Equal(t, CancelLabel, m.Description(doc, FilterReplace, "Filter"))
	assert.Equal(t, "Insert", m.Description(doc, InsertAtStart, "Insert"))

	ro := newFakeDoc("abc")
	ro.bufferID = "buf-ro"
	ro.readOnly = true
	assert.False(t, m.IsEnabled(ro, FilterReplace))
}

func TestCloseCancelsEverySession(t *testing.T) {
	bus := event.NewBus()
	m, err := NewManager(WithRunner(&fakeRunner{hold: true}), WithBus(bus))
	require.NoError(t, err)

	var sessions []*Session
	for _, id := range []string{"a", "b", "c"} {
		doc := newFakeDoc("text")
		doc.bufferID = id
		s, err := m.Start(doc, Request{Mode: FilterReplace, Cmdline: "x"})
		require.NoError(t, err)
		sessions = append(sessions, s)
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	for _, s := range sessions {
		require.ErrorIs(t, waitSession(t, s), ErrCancelled)
	}
	assert.Zero(t, bus.Stats().Subscriptions)
}

func TestGenerationIsPerBuffer(t *testing.T) {
	m, err := NewManager(WithRunner(&fakeRunner{}))
	require.NoError(t, err)
	defer m.Close()

	a := newFakeDoc("a")
	b := newFakeDoc("b")
	b.bufferID = "buf-2"

	for i := 0; i < 3; i++ {
		s, err := m.Start(a, Request{Mode: FilterReplace, Cmdline: "x"})
		require.NoError(t, err)
		require.NoError(t, waitSession(t, s))
	}
	s, err := m.Start(b, Request{Mode: FilterReplace, Cmdline: "x"})
	require.NoError(t, err)
	require.NoError(t, waitSession(t, s))

	assert.Equal(t, uint64(3), m.Generation(a.BufferID()))
	assert.Equal(t, uint64(1), m.Generation(b.BufferID()))
	assert.Zero(t, m.Generation("unknown"))
}
