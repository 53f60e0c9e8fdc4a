package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/adleman-go/internal/config"
	"github.com/Benny93/adleman-go/internal/dna"
	"github.com/Benny93/adleman-go/internal/graph"
	"github.com/Benny93/adleman-go/internal/pipeline"
	"github.com/Benny93/adleman-go/internal/storage"
)

func writeGraph(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := NewCLI()
	c.Out = &out
	c.Err = &errOut
	err := c.Execute(args)
	return out.String(), err
}

const chain = "A B\nB C\nC D\n"

func TestSolveCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("HamiltonianPath", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := writeGraph(t, dir, "chain.txt", chain)
		store := filepath.Join(dir, ".adleman")

		out, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--seed", "7", "--store", store)
		require.NoError(t, err)

		assert.Contains(t, out, "## Hamiltonian paths (1)")
		assert.Contains(t, out, "A -> B->C -> D")
		assert.Contains(t, out, "|---5'---| |---3'---|")
		assert.Contains(t, out, "Seed 7")
		assert.NotContains(t, out, noPathMessage)

		path := regexp.MustCompile(`A -> B->C -> D  ([ACGT]+)\n`).FindStringSubmatch(out)
		require.Len(t, path, 2)
		assert.Contains(t, out, string(dna.ReverseComplement(dna.Strand(path[1]))))

		_, err = os.Stat(filepath.Join(store, "badger"))
		assert.NoError(t, err)
	})

	t.Run("NoPath", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := writeGraph(t, dir, "broken.txt", "A B\nC D\n")

		out, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--no-store")
		require.NoError(t, err)

		assert.Contains(t, out, "## Hamiltonian paths (0)")
		assert.Contains(t, out, noPathMessage)
	})

	t.Run("NoStore", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := writeGraph(t, dir, "chain.txt", chain)
		store := filepath.Join(dir, ".adleman")

		_, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--no-store", "--store", store)
		require.NoError(t, err)

		_, err = os.Stat(store)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Figures", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := writeGraph(t, dir, "chain.txt", chain)

		out, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--figures", "--no-store")
		require.NoError(t, err)

		assert.Contains(t, out, "A_B -[10]- B_C -[10]- C_D (70 bp)")
		assert.Contains(t, out, "5'")
		assert.Contains(t, out, "amplicon")
	})

	t.Run("JSONGraph", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := writeGraph(t, dir, "graph.json", `{"edges": [["A", "D"]]}`)

		out, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--no-store")
		require.NoError(t, err)

		assert.Contains(t, out, "## Hamiltonian paths (1)")
		assert.Contains(t, out, "A -> D")
	})

	t.Run("MissingStart", func(t *testing.T) {
		t.Parallel()
		g := writeGraph(t, t.TempDir(), "chain.txt", chain)

		_, err := execute(t, "solve", g, "-e", "D", "--no-store")
		assert.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("TerminalNotInGraph", func(t *testing.T) {
		t.Parallel()
		g := writeGraph(t, t.TempDir(), "chain.txt", chain)

		_, err := execute(t, "solve", g, "-s", "A", "-e", "Z", "--no-store")
		assert.ErrorIs(t, err, pipeline.ErrTerminalNotInGraph)
	})

	t.Run("MissingGraph", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "solve", "/nonexistent/graph.txt", "-s", "A", "-e", "D")
		assert.Error(t, err)
	})
}

func TestSolveCmd_ConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	g := writeGraph(t, dir, "chain.txt", chain)
	cfg := writeGraph(t, dir, "adleman.yaml", "start: A\nend: D\nseed: 99\n")

	out, err := execute(t, "solve", g, "--config", cfg, "--no-store")
	require.NoError(t, err)
	assert.Contains(t, out, "Seed 99")
	assert.Contains(t, out, "A -> B->C -> D")

	// Flags override the file.
	out, err = execute(t, "solve", g, "--config", cfg, "--seed", "5", "-e", "C", "--no-store")
	require.NoError(t, err)
	assert.Contains(t, out, "Seed 5")
	assert.Contains(t, out, noPathMessage)
}

func TestRunsAndShowCmd_Run(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	g := writeGraph(t, dir, "chain.txt", chain)
	store := filepath.Join(dir, ".adleman")

	_, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--seed", "3", "--store", store)
	require.NoError(t, err)
	_, err = execute(t, "solve", g, "-s", "A", "-e", "C", "--seed", "4", "--store", store)
	require.NoError(t, err)

	out, err := execute(t, "runs", "--store", store)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "A -> C")
	assert.Contains(t, lines[0], "no path")
	assert.Contains(t, lines[1], "A -> D")
	assert.Contains(t, lines[1], "1 path(s)")
	assert.Equal(t, "2 of 2 stored runs", lines[2])

	out, err = execute(t, "runs", "-n", "1", "--store", store)
	require.NoError(t, err)
	limited := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, limited, 2)
	assert.Equal(t, "1 of 2 stored runs", limited[1])

	id := strings.Fields(lines[1])[0]
	out, err = execute(t, "show", id, "--store", store)
	require.NoError(t, err)

	assert.Contains(t, out, "# Run "+id)
	assert.Contains(t, out, "Seed: 3")
	assert.Contains(t, out, "Source: "+g)
	assert.Contains(t, out, "## Edges (3)")
	assert.Contains(t, out, "A -> B->C -> D")

	_, err = execute(t, "show", "missing", "--store", store)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestShowCmd_Export(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	g := writeGraph(t, dir, "chain.txt", "A B\nB C\nC D\nB B\n")
	store := filepath.Join(dir, ".adleman")

	first, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--seed", "21", "--store", store)
	require.NoError(t, err)

	out, err := execute(t, "runs", "--store", store)
	require.NoError(t, err)
	id := strings.Fields(out)[0]

	export := filepath.Join(dir, "export.json")
	_, err = execute(t, "show", id, "--export", export, "--store", store)
	require.NoError(t, err)

	exported, err := graph.LoadFile(export)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, exported.Nodes())
	assert.Len(t, exported.Pairs(), 4)

	// Same graph, same seed: identical strands.
	replay, err := execute(t, "solve", export, "-s", "A", "-e", "D", "--seed", "21", "--no-store")
	require.NoError(t, err)
	assert.Equal(t, section(first, "## Node strands"), section(replay, "## Node strands"))
	assert.Equal(t, section(first, "## Hamiltonian paths"), section(replay, "## Hamiltonian paths"))
}

// section returns the block of out starting at heading up to the next blank line.
func section(out, heading string) string {
	i := strings.Index(out, heading)
	if i < 0 {
		return ""
	}
	block, _, _ := strings.Cut(out[i:], "\n\n")
	return block
}

func TestRunsCmd_NoStore(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "runs", "--store", filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, ErrNoStore)

	_, err = execute(t, "show", "id", "--store", filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestCleanCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("CleanWithNoStore", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "clean", "-f", "--store", filepath.Join(t.TempDir(), "none"))
		assert.ErrorIs(t, err, ErrNoStore)
	})

	t.Run("CleanWithStore", func(t *testing.T) {
		t.Parallel()
		store := filepath.Join(t.TempDir(), ".adleman")
		require.NoError(t, os.MkdirAll(filepath.Join(store, "badger"), 0o755))

		out, err := execute(t, "clean", "-f", "--store", store)
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted")

		_, err = os.Stat(store)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStorageHelpers(t *testing.T) {
	t.Parallel()

	t.Run("OpenStoreCreatesDirectory", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "nested", "badger")

		store, err := openStore(dbPath, false)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("OpenStoreReadOnlyMissing", func(t *testing.T) {
		t.Parallel()
		store, err := openStore(filepath.Join(t.TempDir(), "missing"), true)
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("NewMCPServer", func(t *testing.T) {
		t.Parallel()
		g := &Globals{Store: filepath.Join(t.TempDir(), ".adleman"), Err: &bytes.Buffer{}}

		server, closeStore, err := newMCPServer(g)
		require.NoError(t, err)
		defer closeStore()
		assert.NotNil(t, server)
	})
}

func TestMetricsServer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	g := writeGraph(t, dir, "chain.txt", chain)
	_, err := execute(t, "solve", g, "-s", "A", "-e", "D", "--no-store")
	require.NoError(t, err)

	srv := newMetricsServer(":0")
	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "adleman_runs_total")
}

func TestReportHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A -> D", pathLine("A", "D", ""))
	assert.Equal(t, "A -> B->C -> D", pathLine("A", "D", "B->C"))

	assert.Equal(t, "|---5'---|", centered("5'", 10))
	assert.Equal(t, "5'", centered("5'", 3))

	var buf bytes.Buffer
	printRuns(&buf, nil, 0)
	assert.Equal(t, "No runs stored.\n", buf.String())
}
