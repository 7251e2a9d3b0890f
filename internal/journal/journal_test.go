package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/smartdeck/internal/card"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	rc := card.NewRunContext("", "", nil, true, false)

	run, err := j.StartRun(ctx, "batch", rc)
	require.NoError(t, err)
	_, err = uuid.Parse(run.ID())
	require.NoError(t, err)

	outcomes := []card.Outcome{
		{Word: "apple", Kind: card.Created, NoteID: 11, Notices: []string{"no image found"}},
		{Word: "pear", Kind: card.Skipped, NoteID: 12},
		card.Fail("void", errors.New("no definition generated")),
	}
	for _, o := range outcomes {
		require.NoError(t, run.Record(ctx, o))
	}
	require.NoError(t, run.Finish(ctx, card.Summarize(outcomes)))

	entries, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "void", entries[0].Word)
	assert.Equal(t, "failed", entries[0].Kind)
	assert.Equal(t, "no definition generated", entries[0].Reason)
	assert.Zero(t, entries[0].NoteID)

	assert.Equal(t, "apple", entries[2].Word)
	assert.Equal(t, int64(11), entries[2].NoteID)
	assert.Equal(t, []string{"no image found"}, entries[2].Notices)
	assert.Equal(t, "batch", entries[2].Command)
	assert.Equal(t, run.ID(), entries[2].RunID)
	assert.True(t, entries[0].At.After(entries[2].At))
}

func TestRecentFiltersWordAndLimits(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	rc := card.NewRunContext("", "", nil, true, false)

	for i := 0; i < 3; i++ {
		run, err := j.StartRun(ctx, "generate", rc)
		require.NoError(t, err)
		require.NoError(t, run.Record(ctx, card.Outcome{Word: "Apple", Kind: card.Created, NoteID: int64(i + 1)}))
		require.NoError(t, run.Record(ctx, card.Outcome{Word: "pear", Kind: card.Created, NoteID: 99}))
	}

	entries, err := j.Recent(ctx, "apple", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].NoteID)
	assert.Equal(t, int64(2), entries[1].NoteID)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	assert.FileExists(t, path)

	// reopening runs the idempotent migrations again
	j, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())
}
