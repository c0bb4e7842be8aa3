package cmdhistory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDedupsAndBounds(t *testing.T) {
	h := New(3)
	for _, c := range []string{"sort", "", "uniq", "tr a-z A-Z", "sort", "wc -l"} {
		h.Add(c)
	}
	assert.Equal(t, []string{"wc -l", "sort", "tr a-z A-Z"}, h.Entries())
	assert.Equal(t, 3, h.Len())
}

func TestResize(t *testing.T) {
	h := New(5)
	for _, c := range []string{"a", "b", "c", "d"} {
		h.Add(c)
	}
	h.Resize(2)
	assert.Equal(t, []string{"d", "c"}, h.Entries())

	h.Resize(3)
	h.Add("e")
	h.Add("f")
	assert.Equal(t, []string{"f", "e", "d"}, h.Entries())
}

func TestNewDefaultSize(t *testing.T) {
	h := New(0)
	for i := 0; i < DefaultSize+10; i++ {
		h.Add(string(rune('a'+i%26)) + string(rune('a'+i/26)))
	}
	assert.Equal(t, DefaultSize, h.Len())
}

func TestSearch(t *testing.T) {
	h := New(10)
	for _, c := range []string{"sort -n", "tr a-z A-Z", "sort -u", "column -t"} {
		h.Add(c)
	}

	assert.Equal(t, h.Entries(), h.Search(""))

	got := h.Search("srt")
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"sort -u", "sort -n"}, got)
	assert.Empty(t, h.Search("zzz"))
}

func TestComplete(t *testing.T) {
	h := New(10)
	h.Add("sort -n")
	h.Add("sort -u")
	h.Add("column -t")

	got, ok := h.Complete("sort")
	require.True(t, ok)
	assert.Equal(t, "sort -u", got, "most recent prefix match wins")

	got, ok = h.Complete("clt")
	require.True(t, ok)
	assert.Equal(t, "column -t", got)

	_, ok = h.Complete("qqq")
	assert.False(t, ok)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history")

	h, err := Open(path, 10)
	require.NoError(t, err)
	assert.Zero(t, h.Len())

	h.Add("first")
	h.Add("multi\nline")
	h.Add("last")
	require.NoError(t, h.Save())

	reopened, err := Open(path, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"last", "multi\nline", "first"}, reopened.Entries())

	small, err := Open(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"last", "multi\nline"}, small.Entries())
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte("commands: [\n"), 0o644))
	_, err := Open(path, 10)
	require.Error(t, err)
}

func TestSaveInMemory(t *testing.T) {
	h := New(1)
	h.Add("x")
	require.NoError(t, h.Save())
}
