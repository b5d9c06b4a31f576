package warning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	want := State{
		LastWarningLevel: Level75,
		LastWarningMonth: "2026-01",
		LastCostCheck:    "2026-01-15T10:30:00Z",
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_MissingFileIsDefault(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope", "state.json"))

	got, err := store.Load()
	assert.NoError(t, err, "a missing file is a fresh install, not an error")
	assert.Equal(t, DefaultState(), got)
}

func TestFileStore_CorruptFileDegradesToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	got, err := NewFileStore(path).Load()
	assert.Error(t, err, "the recovered-default outcome is reported, not hidden")
	assert.Equal(t, DefaultState(), got)
}

func TestFileStore_UnknownLevelClamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"last_warning_level":"banana","last_warning_month":"2026-01","last_cost_check":""}`), 0o644))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, LevelNone, got.LastWarningLevel)
	assert.Equal(t, "2026-01", got.LastWarningMonth)
}

func TestFileStore_SaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "state.json")
	require.NoError(t, NewFileStore(path).Save(DefaultState()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRungIndex_Order(t *testing.T) {
	for i := 1; i < len(rungs); i++ {
		assert.Greater(t, rungIndex(rungs[i]), rungIndex(rungs[i-1]))
	}
	assert.Equal(t, 0, rungIndex(Level("bogus")))
}
