package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/streamdrain/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *capture.Result {
	return &capture.Result{
		Command:   []string{"/bin/sh", "-c", "echo hi"},
		Stdout:    []string{"a", "b", "c"},
		Stderr:    []string{"warning: x"},
		ExitCode:  2,
		StartedAt: time.UnixMilli(1_700_000_000_123),
		Duration:  1500 * time.Millisecond,
	}
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	t.Run("Save and load run", func(t *testing.T) {
		res := sampleResult()
		id, err := store.SaveRun(res)
		require.NoError(t, err)
		assert.Positive(t, id)

		rec, found, err := store.LoadRun(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, res.Command, rec.Command)
		assert.Equal(t, res.Stdout, rec.Stdout)
		assert.Equal(t, res.Stderr, rec.Stderr)
		assert.Equal(t, 2, rec.ExitCode)
		assert.True(t, res.StartedAt.Equal(rec.StartedAt))
		assert.Equal(t, res.Duration, rec.Duration)
	})

	t.Run("Run without output", func(t *testing.T) {
		id, err := store.SaveRun(&capture.Result{Command: []string{"true"}, StartedAt: time.Now()})
		require.NoError(t, err)

		rec, found, err := store.LoadRun(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Empty(t, rec.Stdout)
		assert.Empty(t, rec.Stderr)
	})

	t.Run("Ordering is preserved past ten lines", func(t *testing.T) {
		res := sampleResult()
		res.Stdout = nil
		for i := 0; i < 12; i++ {
			res.Stdout = append(res.Stdout, string(rune('a'+i)))
		}
		id, err := store.SaveRun(res)
		require.NoError(t, err)

		rec, _, err := store.LoadRun(id)
		require.NoError(t, err)
		assert.Equal(t, res.Stdout, rec.Stdout)
	})

	t.Run("Delete run", func(t *testing.T) {
		id, err := store.SaveRun(sampleResult())
		require.NoError(t, err)

		require.NoError(t, store.DeleteRun(id))

		_, found, err := store.LoadRun(id)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Load non-existent run", func(t *testing.T) {
		_, found, err := store.LoadRun(987654)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Save nil run", func(t *testing.T) {
		_, err := store.SaveRun(nil)
		assert.Error(t, err)
	})
}

func TestSQLiteStore_MultipleInstances(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "multi.db")

	store1, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = store1.Close() }()

	id, err := store1.SaveRun(sampleResult())
	require.NoError(t, err)

	// reopening runs migrations again; they must be idempotent
	store2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = store2.Close() }()

	rec, found, err := store2.LoadRun(id)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b", "c"}, rec.Stdout)
}

func TestSQLiteStore_Errors(t *testing.T) {
	t.Run("Parent path is a file", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))

		store, err := NewSQLiteStore(filepath.Join(parent, "runs.db"))
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
