package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(id string) *Run {
	return &Run{
		ID:        id,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Source:    "graph.txt",
		Start:     "A",
		End:       "D",
		Seed:      7,
		Nodes:     []string{"A", "B", "C", "D"},
		Edges:     [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}},
		Strands:   map[string]string{"A": "ACGT", "D": "TTTT"},
		Products:  1,
		Paths: []Path{{
			Description:    "B->C",
			Sequence:       "ACGTACGT",
			AmpliconLength: 80,
			Fragments:      []string{"A_B", "B_C", "C_D"},
		}},
		Duration: 3 * time.Millisecond,
	}
}

// exerciseBackend runs the behaviour every Backend must share.
func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		run := sampleRun("run-save")
		require.NoError(t, backend.SaveRun(ctx, run))

		got, err := backend.GetRun(ctx, "run-save")
		require.NoError(t, err)

		assert.Equal(t, run.Start, got.Start)
		assert.Equal(t, run.Edges, got.Edges)
		assert.Equal(t, run.Paths, got.Paths)
		assert.True(t, got.CreatedAt.Equal(run.CreatedAt))
		assert.True(t, got.Found())
	})

	t.Run("AssignsID", func(t *testing.T) {
		run := sampleRun("")
		require.NoError(t, backend.SaveRun(ctx, run))

		assert.NotEmpty(t, run.ID)
		_, err := backend.GetRun(ctx, run.ID)
		assert.NoError(t, err)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := backend.GetRun(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("DeleteRun", func(t *testing.T) {
		require.NoError(t, backend.SaveRun(ctx, sampleRun("run-delete")))

		require.NoError(t, backend.DeleteRun(ctx, "run-delete"))

		_, err := backend.GetRun(ctx, "run-delete")
		assert.ErrorIs(t, err, ErrRunNotFound)
		assert.ErrorIs(t, backend.DeleteRun(ctx, "run-delete"), ErrRunNotFound)
	})
}

func exerciseListRuns(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, backend.SaveRun(ctx, sampleRun(fmt.Sprintf("run-%d", i))))
	}

	all, err := backend.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "run-4", all[0].ID)
	assert.Equal(t, "run-0", all[4].ID)

	limited, err := backend.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, []string{"run-4", "run-3"}, []string{limited[0].ID, limited[1].ID})
}

func TestMemoryBackend_Initialize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("/tmp/test", false))
	require.NoError(t, backend.SaveRun(ctx, sampleRun("run-1")))

	require.NoError(t, backend.Close())
	assert.ErrorIs(t, backend.SaveRun(ctx, sampleRun("run-2")), ErrNotInitialized)

	// Reopening starts empty.
	require.NoError(t, backend.Initialize("", false))
	_, err := backend.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMemoryBackend_Runs(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("", false))

	exerciseBackend(t, backend)
}

func TestMemoryBackend_ListRuns(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("", false))

	exerciseListRuns(t, backend)
}

func TestMemoryBackend_Isolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()
	run := sampleRun("run-iso")
	require.NoError(t, backend.SaveRun(ctx, run))

	run.Start = "changed"
	run.Nodes[0] = "changed"
	run.Edges[0][0] = "changed"
	run.Strands["A"] = "changed"
	run.Paths[0].Sequence = "changed"
	run.Paths[0].Fragments[0] = "changed"

	got, err := backend.GetRun(ctx, "run-iso")
	require.NoError(t, err)

	assert.Equal(t, "A", got.Start)
	assert.Equal(t, sampleRun("run-iso"), got)

	// Mutating a fetched or listed run does not reach the store either.
	got.Nodes[1] = "changed"
	got.Strands["D"] = "changed"
	got.Paths[0].Fragments[1] = "changed"
	listed, err := backend.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Edges[1][1] = "changed"
	listed[0].Paths[0].Description = "changed"

	again, err := backend.GetRun(ctx, "run-iso")
	require.NoError(t, err)
	assert.Equal(t, sampleRun("run-iso"), again)
}

func TestMemoryBackend_Closed(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Close())

	assert.ErrorIs(t, backend.SaveRun(context.Background(), sampleRun("x")), ErrNotInitialized)
}

func TestNewRunID(t *testing.T) {
	t.Parallel()

	a := NewRunID()
	b := NewRunID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
