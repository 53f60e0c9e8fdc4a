// Package cmd provides CLI command implementations for adleman-go.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Benny93/adleman-go/internal/config"
	"github.com/Benny93/adleman-go/internal/graph"
	"github.com/Benny93/adleman-go/internal/pipeline"
	"github.com/Benny93/adleman-go/internal/storage"
	"github.com/Benny93/adleman-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrNoStore is returned when a command needs the run store and none exists.
var ErrNoStore = errors.New("no run store found")

// Globals holds flags shared by every command.
type Globals struct {
	Verbose bool   `short:"v" help:"Enable verbose output"`
	Config  string `type:"path" help:"Config file (YAML, TOML or JSON)"`
	Store   string `type:"path" help:"Run store directory (default .adleman)"`

	// Out and Err receive command output; nil means os.Stdout and os.Stderr.
	Out io.Writer `kong:"-"`
	Err io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Err != nil {
		return g.Err
	}
	return os.Stderr
}

// logger returns a text logger on stderr: Info when verbose, else Error.
func (g *Globals) logger() *slog.Logger {
	level := slog.LevelError
	if g.Verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(g.stderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and environment, then applies flags.
func (g *Globals) loadConfig(start, end string, seed uint64) (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return config.Config{}, err
	}
	if g.Store != "" {
		cfg.Store = g.Store
	}
	if start != "" {
		cfg.Start = start
	}
	if end != "" {
		cfg.End = end
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	return cfg, nil
}

// storePath returns the Badger directory without requiring start/end.
func (g *Globals) storePath() (string, error) {
	cfg, err := g.loadConfig("", "", 0)
	if err != nil {
		return "", err
	}
	return cfg.StorePath(), nil
}

// SolveCmd runs the pipeline once on a graph file.
type SolveCmd struct {
	Graph   string `arg:"" type:"existingfile" help:"Graph file (edge list, or .json)"`
	Start   string `short:"s" help:"Node the path must start at"`
	End     string `short:"e" help:"Node the path must end at"`
	Seed    uint64 `help:"Strand generation seed (0 for random)"`
	Figures bool   `help:"Print base-pairing figures of amplified products"`
	NoStore bool   `help:"Do not persist the run"`
}

// Run executes the solve command.
func (c *SolveCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig(c.Start, c.End, c.Seed)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gr, err := graph.LoadFile(c.Graph)
	if err != nil {
		return err
	}

	logger := g.logger()
	out := g.stdout()
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if c.Figures {
		opts = append(opts, pipeline.WithReporter(figureReporter(out)))
	}

	if !c.NoStore {
		store, err := openStore(cfg.StorePath(), false)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, pipeline.WithStore(store, c.Graph))
	}

	res, err := pipeline.Run(context.Background(), gr, cfg, opts...)
	if err != nil {
		return err
	}

	printResult(out, res)
	return nil
}

// WatchCmd re-runs the pipeline whenever the graph file changes.
type WatchCmd struct {
	Graph    string        `arg:"" type:"existingfile" help:"Graph file to watch"`
	Start    string        `short:"s" help:"Node the path must start at"`
	End      string        `short:"e" help:"Node the path must end at"`
	Seed     uint64        `help:"Strand generation seed (0 for random)"`
	Debounce time.Duration `default:"2s" help:"Quiet period before re-running"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig(c.Start, c.End, c.Seed)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := g.stdout()
	logger := g.logger()

	fmt.Fprintln(out, "## Watch Mode")
	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n\n", c.Graph)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	go func() {
		<-osSignalChannel()
		fmt.Fprintln(out, "\nStopping watch mode...")
		cancel()
	}()

	w := &pipeline.Watcher{
		Path:     c.Graph,
		Config:   cfg,
		Debounce: c.Debounce,
		Logger:   logger,
		Options:  []pipeline.Option{pipeline.WithLogger(logger)},
		Handle: func(res *pipeline.Result, err error) {
			if err != nil {
				color.New(color.FgRed).Fprintf(out, "Run failed: %v\n", err)
				return
			}
			printResult(out, res)
		},
	}

	err = w.Watch(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(out, "Watch mode stopped.")
	return nil
}

// RunsCmd lists stored runs.
type RunsCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum runs to list"`
}

// Run executes the runs command.
func (c *RunsCmd) Run(g *Globals) error {
	store, err := loadStorage(g)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	printRuns(g.stdout(), runs, store.RunCount())
	return nil
}

// ShowCmd prints one stored run.
type ShowCmd struct {
	ID     string `arg:"" help:"Run ID"`
	Export string `type:"path" help:"Write the run's graph as JSON to this file"`
}

// Run executes the show command.
func (c *ShowCmd) Run(g *Globals) error {
	store, err := loadStorage(g)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(context.Background(), c.ID)
	if err != nil {
		return err
	}

	printRun(g.stdout(), run)
	if c.Export == "" {
		return nil
	}
	return exportGraph(c.Export, run)
}

// exportGraph writes the graph of a stored run so it can be solved again.
func exportGraph(path string, run *storage.Run) error {
	gr := graph.New()
	for _, n := range run.Nodes {
		if err := gr.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range run.Edges {
		if err := gr.AddEdge(e[0], e[1]); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := graph.WriteJSON(f, gr); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// MCPCmd starts the MCP server on stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	server, closeStore, err := newMCPServer(g)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintln(g.stderr(), "Starting MCP server...")
	return server.Run(context.Background(), os.Stdin, os.Stdout)
}

// ServeCmd starts the MCP server plus a Prometheus metrics endpoint.
type ServeCmd struct {
	MetricsAddr string `default:":9090" help:"Address for the /metrics endpoint"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	server, closeStore, err := newMCPServer(g)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := newMetricsServer(c.MetricsAddr)
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger().Error("metrics server failed", slog.Any("error", err))
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(g.stderr(), "Starting MCP server (metrics on %s/metrics)...\n", c.MetricsAddr)
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// CleanCmd deletes the run store.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig("", "", 0)
	if err != nil {
		return err
	}
	dir := cfg.Store

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w at %s. Nothing to clean", ErrNoStore, dir)
	}

	out := g.stdout()
	if !c.Force {
		fmt.Fprintf(out, "Delete run store at %s? [y/N] ", dir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting run store: %w", err)
	}

	color.New(color.FgGreen).Fprintf(out, "Deleted %s\n", dir)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// openStore opens (creating when writable) the Badger store at dbPath.
func openStore(dbPath string, readOnly bool) (*storage.BadgerBackend, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// loadStorage opens an existing store read-only.
func loadStorage(g *Globals) (*storage.BadgerBackend, error) {
	dbPath, err := g.storePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s. Run 'adleman solve' first", ErrNoStore, dbPath)
	}
	return openStore(dbPath, true)
}

// newMCPServer builds the MCP server over the Badger store, falling back to
// an in-memory store when the database cannot be opened.
func newMCPServer(g *Globals) (*mcp.Server, func(), error) {
	cfg, err := g.loadConfig("", "", 0)
	if err != nil {
		return nil, nil, err
	}
	logger := g.logger()

	var store storage.Backend
	badgerStore, err := openStore(cfg.StorePath(), false)
	if err != nil {
		logger.Warn("using in-memory run store", slog.Any("error", err))
		store = storage.NewMemoryBackend()
		_ = store.Initialize("", false)
	} else {
		store = badgerStore
	}

	return mcp.NewServer(store, cfg, logger), func() { _ = store.Close() }, nil
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Solve SolveCmd `cmd:"" help:"Search a graph for Hamiltonian paths"`
	Watch WatchCmd `cmd:"" help:"Re-solve whenever the graph file changes"`
	Runs  RunsCmd  `cmd:"" help:"List stored runs"`
	Show  ShowCmd  `cmd:"" help:"Show a stored run"`
	MCP   MCPCmd   `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve ServeCmd `cmd:"" help:"Start MCP server with a Prometheus metrics endpoint"`
	Clean CleanCmd `cmd:"" help:"Delete the run store"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("adleman"),
		kong.Description("Solve Hamiltonian path problems by simulated DNA computing"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run(&c.Globals)
}
