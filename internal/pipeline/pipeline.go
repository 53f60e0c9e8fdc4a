// Package pipeline runs the simulated DNA computation for a Hamiltonian path:
// strand generation, edge encoding, assembly, amplification and filtering,
// strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Benny93/adleman-go/internal/amplify"
	"github.com/Benny93/adleman-go/internal/assembly"
	"github.com/Benny93/adleman-go/internal/config"
	"github.com/Benny93/adleman-go/internal/dna"
	"github.com/Benny93/adleman-go/internal/filter"
	"github.com/Benny93/adleman-go/internal/graph"
	"github.com/Benny93/adleman-go/internal/storage"
)

// Phase names reported to the progress callback.
const (
	PhaseGenerate = "Generating strands"
	PhaseEncode   = "Encoding edges"
	PhaseAssemble = "Assembling"
	PhaseAmplify  = "Amplifying"
	PhaseFilter   = "Filtering"
)

// ErrTerminalNotInGraph is returned when the start or end node is missing.
var ErrTerminalNotInGraph = errors.New("terminal node not in graph")

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Result summarizes a pipeline run.
type Result struct {
	Start string
	End   string

	// Seed is the strand generation seed. It is zero when the caller
	// supplied its own random source.
	Seed uint64

	Nodes []string
	Edges [][2]string

	Strands       map[string]dna.Strand
	EdgeStrands   []dna.EdgeStrand
	Intermediates map[string]dna.Strand

	// Products is the number of assembly products.
	Products int

	Candidates []amplify.Candidate
	Paths      []filter.Result

	Duration time.Duration

	// RunID is set when the run was persisted.
	RunID string
}

// Found reports whether at least one Hamiltonian path survived filtering.
func (r *Result) Found() bool {
	return len(r.Paths) > 0
}

// Record converts the result into a storage run.
func (r *Result) Record(source string) *storage.Run {
	strands := make(map[string]string, len(r.Strands))
	for n, s := range r.Strands {
		strands[n] = string(s)
	}
	return &storage.Run{
		ID:         r.RunID,
		CreatedAt:  time.Now().UTC(),
		Source:     source,
		Start:      r.Start,
		End:        r.End,
		Seed:       r.Seed,
		Nodes:      r.Nodes,
		Edges:      r.Edges,
		Strands:    strands,
		Products:   r.Products,
		Candidates: toPaths(r.Candidates),
		Paths:      toPaths(r.Paths),
		Duration:   r.Duration,
	}
}

func toPaths(cs []amplify.Candidate) []storage.Path {
	out := make([]storage.Path, 0, len(cs))
	for _, c := range cs {
		out = append(out, storage.Path{
			Description:    c.Description,
			Sequence:       string(c.Sequence),
			AmpliconLength: c.AmpliconLength,
			Fragments:      c.Fragments,
		})
	}
	return out
}

type options struct {
	rng      *rand.Rand
	progress ProgressCallback
	reporter amplify.Reporter
	logger   *slog.Logger
	store    RunSaver
	source   string
}

// RunSaver persists finished runs. storage.Backend satisfies it.
type RunSaver interface {
	SaveRun(ctx context.Context, run *storage.Run) error
}

// Option configures a run.
type Option func(*options)

// WithRand sets the random source used for strand generation. It overrides
// the configured seed.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithProgress sets the progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(o *options) { o.progress = cb }
}

// WithReporter sets the amplification reporter.
func WithReporter(r amplify.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLogger sets the logger. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore persists the finished run to store, labelled with source.
func WithStore(store RunSaver, source string) Option {
	return func(o *options) {
		o.store = store
		o.source = source
	}
}

// Run solves the Hamiltonian path problem for g between cfg.Start and
// cfg.End. An empty path list is a valid outcome, not an error.
func Run(ctx context.Context, g *graph.Graph, cfg config.Config, opts ...Option) (*Result, error) {
	o := options{logger: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	progress := func(phase string, pct float64) {
		if o.progress != nil {
			o.progress(phase, pct)
		}
	}

	began := time.Now()
	result, err := run(ctx, g, cfg, &o, progress)
	if err != nil {
		runsTotal.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	result.Duration = time.Since(began)
	observe(result)

	if o.store != nil {
		rec := result.Record(o.source)
		if err := o.store.SaveRun(ctx, rec); err != nil {
			return result, fmt.Errorf("saving run: %w", err)
		}
		result.RunID = rec.ID
	}

	o.logger.Info("run finished",
		slog.String("start", result.Start),
		slog.String("end", result.End),
		slog.Int("candidates", len(result.Candidates)),
		slog.Int("paths", len(result.Paths)),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func run(ctx context.Context, g *graph.Graph, cfg config.Config, o *options, progress ProgressCallback) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, terminal := range []string{cfg.Start, cfg.End} {
		if !g.HasNode(terminal) {
			return nil, fmt.Errorf("%w: %q", ErrTerminalNotInGraph, terminal)
		}
	}

	for _, e := range g.Edges() {
		if e.IsLoop() {
			o.logger.Warn("self-loop never lies on a Hamiltonian path", slog.String("edge", e.String()))
		}
	}

	result := &Result{
		Start: cfg.Start,
		End:   cfg.End,
		Nodes: g.Nodes(),
		Edges: g.Pairs(),
	}

	rng := o.rng
	if rng == nil {
		result.Seed = cfg.Seed
		if result.Seed == 0 {
			result.Seed = rand.Uint64()
		}
		rng = rand.New(rand.NewPCG(result.Seed, result.Seed))
	}

	// Phase 1: Strands
	progress(PhaseGenerate, 0.0)
	result.Strands = dna.Generate(result.Nodes, cfg.StrandLength, rng)
	o.logger.Info("generated strands", slog.Int("nodes", len(result.Strands)), slog.Uint64("seed", result.Seed))
	progress(PhaseGenerate, 1.0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: Edges
	progress(PhaseEncode, 0.0)
	edgeStrands, err := dna.EncodeEdges(result.Edges, result.Strands)
	if err != nil {
		return nil, fmt.Errorf("encoding edges: %w", err)
	}
	result.EdgeStrands = edgeStrands
	result.Intermediates = filter.Intermediates(result.Strands, cfg.Start, cfg.End)
	o.logger.Info("encoded edges",
		slog.Int("edges", len(edgeStrands)),
		slog.Int("intermediates", len(result.Intermediates)),
	)
	progress(PhaseEncode, 1.0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: Assembly
	progress(PhaseAssemble, 0.0)
	fragments, err := assembly.NewFragments(edgeStrands, result.Strands)
	if err != nil {
		return nil, fmt.Errorf("building fragments: %w", err)
	}
	products := assembly.Assemble(fragments, cfg.Overlap)
	result.Products = len(products)
	o.logger.Info("assembled", slog.Int("fragments", len(fragments)), slog.Int("products", len(products)))
	progress(PhaseAssemble, 1.0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: Amplification
	progress(PhaseAmplify, 0.0)
	primers, err := amplify.NewPrimers(result.Strands, cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	result.Candidates = amplify.Amplify(primers, products, amplify.Options{
		Overlap:  cfg.Overlap,
		Length:   len(result.Nodes) * cfg.StrandLength,
		Reporter: o.reporter,
	})
	o.logger.Info("amplified", slog.Int("candidates", len(result.Candidates)))
	progress(PhaseAmplify, 1.0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: Filter
	progress(PhaseFilter, 0.0)
	result.Paths = filter.Paths(result.Intermediates, result.Candidates)
	o.logger.Info("filtered", slog.Int("paths", len(result.Paths)))
	progress(PhaseFilter, 1.0)

	return result, nil
}
