// Package mcp provides the MCP (Model Context Protocol) server for the
// solver: solve and run-history tools plus two text resources, served over
// stdio.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/adleman-go/internal/config"
	"github.com/Benny93/adleman-go/internal/graph"
	"github.com/Benny93/adleman-go/internal/pipeline"
	"github.com/Benny93/adleman-go/internal/storage"
)

// Server implementation details reported on initialize.
const (
	ServerName    = "adleman-go"
	ServerVersion = "0.1.0"
)

// defaultRunLimit caps adleman_runs when no limit is given.
const defaultRunLimit = 20

// ErrInvalidArgument is returned for missing or malformed tool arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// Server represents the MCP server.
type Server struct {
	storage RunStore
	config  config.Config
	logger  *slog.Logger
	server  *mcp.Server
}

// RunStore is the subset of storage.Backend the server needs.
type RunStore interface {
	SaveRun(ctx context.Context, run *storage.Run) error
	GetRun(ctx context.Context, id string) (*storage.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*storage.Run, error)
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. cfg supplies the strand and overlap
// lengths for every solve; start, end and seed come from the tool call.
func NewServer(store RunStore, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		storage: store,
		config:  cfg,
		logger:  logger,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}, &mcp.ServerOptions{Logger: logger}),
	}
	s.register()
	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "adleman_solve",
			Description: "Search a directed graph for Hamiltonian paths from start to end by simulated DNA assembly and amplification. Returns candidates and path results.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"edges": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type:     "array",
							Items:    &jsonschema.Schema{Type: "string"},
							MinItems: pairLen(),
							MaxItems: pairLen(),
						},
						Description: "Directed edges as [source, target] pairs",
					},
					"start": {Type: "string", Description: "Node the path must start at"},
					"end":   {Type: "string", Description: "Node the path must end at"},
					"seed": {
						Types:       []string{"integer", "string"},
						Description: "Strand generation seed, an unsigned 64-bit integer or its decimal string (random when omitted)",
					},
				},
				Required: []string{"edges", "start", "end"},
			},
		},
		{
			Name:        "adleman_runs",
			Description: "List stored runs, newest first.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"limit": {Type: "integer", Description: "Maximum number of runs"},
				},
			},
		},
		{
			Name:        "adleman_run",
			Description: "Show one stored run with its strands, candidates and paths.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"id": {Type: "string", Description: "Run ID"},
				},
				Required: []string{"id"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "adleman://overview",
			Name:        "Solver Overview",
			Description: "Stored run statistics and solver settings",
			MimeType:    "text/plain",
		},
		{
			URI:         "adleman://schema",
			Name:        "Encoding Schema",
			Description: "How nodes, edges and paths are encoded as strands",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments. Numeric arguments may
// be json.Number (as decoded from the wire), Go integers, integral float64
// values or decimal strings.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "adleman_solve":
		edges, err := edgesArg(args["edges"])
		if err != nil {
			return "", err
		}
		seed, err := seedArg(args["seed"])
		if err != nil {
			return "", err
		}
		start, _ := args["start"].(string)
		end, _ := args["end"].(string)
		return s.handleSolve(ctx, edges, start, end, seed)
	case "adleman_runs":
		limit, err := limitArg(args["limit"])
		if err != nil {
			return "", err
		}
		return handleRuns(ctx, s.storage, limit)
	case "adleman_run":
		id, _ := args["id"].(string)
		return handleRun(ctx, s.storage, id)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "adleman://overview":
		return getOverview(ctx, s.storage, s.config), nil
	case "adleman://schema":
		return getSchema(s.config), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run serves MCP over the given streams until stdin is exhausted or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}
	return s.server.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(stdin),
		Writer: nopWriteCloser{stdout},
	})
}

// register adds every tool and resource to the SDK server.
func (s *Server) register() {
	for _, t := range s.ListTools() {
		s.server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, s.toolHandler(t.Name))
	}
	for _, r := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MimeType,
		}, s.readResource)
	}
}

func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := &mcp.CallToolResult{}
		args, err := decodeArgs(req.Params.Arguments)
		if err == nil {
			var text string
			text, err = s.CallTool(ctx, name, args)
			res.Content = []mcp.Content{&mcp.TextContent{Text: text}}
		}
		if err != nil {
			s.logger.Info("tool call failed", slog.String("tool", name), slog.Any("error", err))
			res.SetError(err)
		}
		return res, nil
	}
}

func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	text, err := s.ReadResource(ctx, uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "text/plain", Text: text}},
	}, nil
}

// decodeArgs decodes raw tool arguments, keeping numbers as json.Number so
// 64-bit seeds survive intact.
func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArgument, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// Tool Handlers

// seedArg reads an optional unsigned 64-bit seed.
func seedArg(v any) (uint64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return parseSeed(n.String())
	case string:
		return parseSeed(n)
	case float64:
		if n < 0 || n != math.Trunc(n) || n > 1<<53 {
			return 0, fmt.Errorf("%w: seed %v is not an unsigned integer", ErrInvalidArgument, n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%w: seed must not be negative", ErrInvalidArgument)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: seed must be an integer", ErrInvalidArgument)
	}
}

func parseSeed(s string) (uint64, error) {
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: seed %q is not an unsigned 64-bit integer", ErrInvalidArgument, s)
	}
	return seed, nil
}

// limitArg reads adleman_runs' limit; absent or non-positive means the default.
func limitArg(v any) (int, error) {
	var limit int
	switch n := v.(type) {
	case nil:
	case json.Number:
		l, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("%w: limit %q is not an integer", ErrInvalidArgument, n)
		}
		limit = l
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: limit %v is not an integer", ErrInvalidArgument, n)
		}
		limit = int(n)
	case int:
		limit = n
	default:
		return 0, fmt.Errorf("%w: limit must be an integer", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	return limit, nil
}

func edgesArg(v any) ([][2]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: edges must be an array of [source, target] pairs", ErrInvalidArgument)
	}
	edges := make([][2]string, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: edge %d is not a [source, target] pair", ErrInvalidArgument, i)
		}
		src, ok1 := pair[0].(string)
		dst, ok2 := pair[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: edge %d must hold two node names", ErrInvalidArgument, i)
		}
		edges = append(edges, [2]string{src, dst})
	}
	return edges, nil
}

func (s *Server) handleSolve(ctx context.Context, edges [][2]string, start, end string, seed uint64) (string, error) {
	g, err := graph.FromEdges(edges)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	cfg := s.config
	cfg.Start, cfg.End, cfg.Seed = start, end, seed

	opts := []pipeline.Option{pipeline.WithLogger(s.logger)}
	if s.storage != nil {
		opts = append(opts, pipeline.WithStore(s.storage, "mcp"))
	}

	res, err := pipeline.Run(ctx, g, cfg, opts...)
	if err != nil {
		return "", err
	}
	return formatRun(res.Record("mcp"), res.RunID), nil
}

func handleRuns(ctx context.Context, store RunStore, limit int) (string, error) {
	if store == nil {
		return "No run store configured.", nil
	}
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "No stored runs.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Runs (%d):\n\n", len(runs))
	for _, r := range runs {
		status := "no path"
		if r.Found() {
			status = fmt.Sprintf("%d path(s)", len(r.Paths))
		}
		fmt.Fprintf(&sb, "- %s  %s -> %s  nodes=%d edges=%d  %s  (%s)\n",
			r.ID, r.Start, r.End, len(r.Nodes), len(r.Edges), status, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return sb.String(), nil
}

func handleRun(ctx context.Context, store RunStore, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	if store == nil {
		return "", fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return "", err
	}
	return formatRun(run, run.ID), nil
}

func formatRun(r *storage.Run, id string) string {
	var sb strings.Builder
	if id != "" {
		fmt.Fprintf(&sb, "# Run %s\n\n", id)
	} else {
		sb.WriteString("# Run\n\n")
	}
	fmt.Fprintf(&sb, "Start: %s\nEnd: %s\nSeed: %d\n", r.Start, r.End, r.Seed)
	fmt.Fprintf(&sb, "Nodes: %d\nEdges: %d\nAssembly products: %d\n", len(r.Nodes), len(r.Edges), r.Products)

	fmt.Fprintf(&sb, "\n## Candidates (%d)\n\n", len(r.Candidates))
	for _, c := range r.Candidates {
		fmt.Fprintf(&sb, "- %s (%d bp): %s\n", describe(c), c.AmpliconLength, c.Sequence)
	}

	fmt.Fprintf(&sb, "\n## Hamiltonian paths (%d)\n\n", len(r.Paths))
	if len(r.Paths) == 0 {
		sb.WriteString("No Hamiltonian path found in this run.\n")
	}
	for _, p := range r.Paths {
		fmt.Fprintf(&sb, "- %s -> %s -> %s\n  %s\n", r.Start, describe(p), r.End, p.Sequence)
	}
	return sb.String()
}

func describe(p storage.Path) string {
	if p.Description == "" {
		return "(direct)"
	}
	return p.Description
}

// Resource Handlers

func getOverview(ctx context.Context, store RunStore, cfg config.Config) string {
	var sb strings.Builder
	sb.WriteString("# Adleman Solver Overview\n\n")
	fmt.Fprintf(&sb, "**Strand length:** %d\n", cfg.StrandLength)
	fmt.Fprintf(&sb, "**Overlap:** %d\n", cfg.Overlap)

	if store == nil {
		sb.WriteString("**Stored runs:** none (no store)\n")
		return sb.String()
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		fmt.Fprintf(&sb, "**Stored runs:** unavailable (%v)\n", err)
		return sb.String()
	}
	found := 0
	for _, r := range runs {
		if r.Found() {
			found++
		}
	}
	fmt.Fprintf(&sb, "**Stored runs:** %d\n", len(runs))
	fmt.Fprintf(&sb, "**Runs with a path:** %d\n", found)
	if len(runs) > 0 {
		fmt.Fprintf(&sb, "**Latest run:** %s\n", runs[0].ID)
	}
	return sb.String()
}

func getSchema(cfg config.Config) string {
	half := cfg.StrandLength / 2
	var sb strings.Builder
	sb.WriteString("# Strand Encoding Schema\n\n")
	sb.WriteString("| Object | Encoding | Length |\n")
	sb.WriteString("|--------|----------|--------|\n")
	fmt.Fprintf(&sb, "| node | random strand over ACGT | %d |\n", cfg.StrandLength)
	fmt.Fprintf(&sb, "| edge u->v | 3' half of u + 5' half of v | %d |\n", cfg.StrandLength)
	fmt.Fprintf(&sb, "| fragment | edge strand over reverse complement of v, offset %d | %d |\n", half, cfg.StrandLength+half)
	fmt.Fprintf(&sb, "| forward primer | start strand | %d |\n", cfg.StrandLength)
	fmt.Fprintf(&sb, "| reverse primer | reverse complement of end strand | %d |\n", cfg.StrandLength)
	sb.WriteString("\n## Acceptance\n\n")
	sb.WriteString("- An amplicon must be exactly nodes x strand length long.\n")
	fmt.Fprintf(&sb, "- Candidates are trimmed by %d symbols at each end.\n", cfg.Overlap)
	sb.WriteString("- A path result contains every intermediate strand as a substring.\n")
	return sb.String()
}

// Helper functions

func pairLen() *int {
	n := 2
	return &n
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
