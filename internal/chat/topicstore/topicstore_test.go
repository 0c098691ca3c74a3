package topicstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFileOK(t *testing.T) {
	root := t.TempDir()
	s := New(filepath.Join(root, "state", "topic-order.json"))
	require.NoError(t, s.Load())
	require.Empty(t, s.List())
}

func TestStore_TouchMovesToFrontWithoutDuplicates(t *testing.T) {
	s := New("")

	for _, id := range []string{"Algebra", "Physics", "History", "Algebra", "Physics"} {
		require.NoError(t, s.Touch(id))
	}

	require.Equal(t, []string{"Physics", "Algebra", "History"}, s.List())

	// Property check over an arbitrary touch sequence: the last touched
	// identifier is first and the order contains no duplicates.
	sequence := []string{"a", "b", "c", "b", "a", "d", "c", "c"}
	s2 := New("")
	for _, id := range sequence {
		require.NoError(t, s2.Touch(id))
	}
	order := s2.List()
	require.Equal(t, "c", order[0])
	seen := map[string]bool{}
	for _, id := range order {
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestStore_TouchIgnoresBlank(t *testing.T) {
	s := New("")
	require.NoError(t, s.Touch("  "))
	require.Empty(t, s.List())
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := New("")
	require.NoError(t, s.Touch("Algebra"))
	require.NoError(t, s.Touch("Physics"))

	require.NoError(t, s.Remove("Algebra"))
	require.Equal(t, []string{"Physics"}, s.List())

	require.NoError(t, s.Remove("Algebra"))
	require.NoError(t, s.Remove("never-existed"))
	require.Equal(t, []string{"Physics"}, s.List())
}

func TestStore_PersistsOnEveryMutation(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "topic-order.json")

	s := New(path)
	require.NoError(t, s.Load())
	require.NoError(t, s.Touch("Algebra"))
	require.NoError(t, s.Touch("Physics"))

	// A fresh store sees the order written by Touch, no explicit save.
	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, []string{"Physics", "Algebra"}, reloaded.List())

	require.NoError(t, s.Remove("Physics"))
	reloaded = New(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, []string{"Algebra"}, reloaded.List())
}

func TestStore_LegacyArrayMigration(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "topic-order.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Math","Science","Math"]`), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	require.Equal(t, []string{"Math", "Science"}, s.List())
}

func TestStore_MergeKeepsLocalOrderAppendsNewAtEnd(t *testing.T) {
	s := New("")
	require.NoError(t, s.Touch("History"))
	require.NoError(t, s.Touch("Algebra")) // local order: Algebra, History
	require.NoError(t, s.Touch("Retired")) // gone from the server

	require.NoError(t, s.Merge([]string{"History", "Algebra", "Chemistry"}))

	// Local relative order preserved for survivors, new remote id last,
	// identifiers the server no longer knows dropped.
	require.Equal(t, []string{"Algebra", "History", "Chemistry"}, s.List())
}

func TestStore_MergeWithNoLocalHistoryUsesRemoteOrder(t *testing.T) {
	s := New("")
	require.NoError(t, s.Merge([]string{"Math", "Science"}))
	require.Equal(t, []string{"Math", "Science"}, s.List())
}

func TestStore_Contains(t *testing.T) {
	s := New("")
	require.NoError(t, s.Touch("Algebra"))
	require.True(t, s.Contains("Algebra"))
	require.False(t, s.Contains("Physics"))
}
