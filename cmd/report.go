package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Benny93/adleman-go/internal/amplify"
	"github.com/Benny93/adleman-go/internal/assembly"
	"github.com/Benny93/adleman-go/internal/dna"
	"github.com/Benny93/adleman-go/internal/pipeline"
	"github.com/Benny93/adleman-go/internal/storage"
)

const noPathMessage = "No Hamiltonian path found in this run"

var (
	header  = color.New(color.Bold)
	success = color.New(color.FgGreen)
	dim     = color.New(color.Faint)
)

// printResult renders a finished run: strands, edges, candidates and paths.
func printResult(w io.Writer, res *pipeline.Result) {
	header.Fprintln(w, "## Node strands")
	for _, n := range res.Nodes {
		s := res.Strands[n]
		fmt.Fprintf(w, "%-10s %s %s\n", n, s.Head(), s.Tail())
	}
	dim.Fprintf(w, "%-10s %s %s\n\n", "", centered("5'", len(res.Strands[res.Start].Head())), centered("3'", len(res.Strands[res.Start].Tail())))

	header.Fprintln(w, "## Intermediate nodes")
	for _, n := range sortedKeys(res.Intermediates) {
		fmt.Fprintf(w, "%-10s %s\n", n, res.Intermediates[n])
	}
	fmt.Fprintln(w)

	header.Fprintln(w, "## Edge strands")
	for _, e := range res.EdgeStrands {
		fmt.Fprintf(w, "%-10s -> %-10s %s\n", e.From, e.To, e.Seq)
	}
	fmt.Fprintln(w)

	header.Fprintf(w, "## Candidates (%d)\n", len(res.Candidates))
	for _, c := range res.Candidates {
		fmt.Fprintf(w, "%s  %s\n", pathLine(res.Start, res.End, c.Description), c.Sequence)
	}
	fmt.Fprintln(w)

	header.Fprintf(w, "## Hamiltonian paths (%d)\n", len(res.Paths))
	if !res.Found() {
		fmt.Fprintln(w, noPathMessage)
	}
	for _, p := range res.Paths {
		success.Fprintf(w, "%s  %s\n", pathLine(res.Start, res.End, p.Description), p.Sequence)
		dim.Fprintf(w, "%s  %s\n", strings.Repeat(" ", len(pathLine(res.Start, res.End, p.Description))), p.Bottom())
	}

	fmt.Fprintln(w)
	dim.Fprintf(w, "Seed %d, %d products, %s", res.Seed, res.Products, res.Duration.Round(time.Microsecond))
	if res.RunID != "" {
		dim.Fprintf(w, ", run %s", res.RunID)
	}
	fmt.Fprintln(w)
}

// printRuns renders the run listing followed by a count of listed versus
// stored runs.
func printRuns(w io.Writer, runs []*storage.Run, total int) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}
	for _, r := range runs {
		status := "no path"
		if r.Found() {
			status = success.Sprintf("%d path(s)", len(r.Paths))
		}
		fmt.Fprintf(w, "%s  %s  %s -> %s  %d nodes  %s  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Start, r.End, len(r.Nodes), status, r.Source)
	}
	dim.Fprintf(w, "%d of %d stored runs\n", len(runs), total)
}

// printRun renders one stored run in full.
func printRun(w io.Writer, r *storage.Run) {
	header.Fprintf(w, "# Run %s\n", r.ID)
	fmt.Fprintf(w, "Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", r.Source)
	}
	fmt.Fprintf(w, "Start: %s  End: %s  Seed: %d\n\n", r.Start, r.End, r.Seed)

	header.Fprintln(w, "## Node strands")
	for _, n := range r.Nodes {
		fmt.Fprintf(w, "%-10s %s\n", n, r.Strands[n])
	}
	fmt.Fprintln(w)

	header.Fprintf(w, "## Edges (%d)\n", len(r.Edges))
	for _, e := range r.Edges {
		fmt.Fprintf(w, "%-10s -> %s\n", e[0], e[1])
	}
	fmt.Fprintln(w)

	header.Fprintf(w, "## Candidates (%d)\n", len(r.Candidates))
	for _, c := range r.Candidates {
		fmt.Fprintln(w, pathLine(r.Start, r.End, c.Description))
	}
	fmt.Fprintln(w)

	header.Fprintf(w, "## Hamiltonian paths (%d)\n", len(r.Paths))
	if !r.Found() {
		fmt.Fprintln(w, noPathMessage)
	}
	for _, p := range r.Paths {
		success.Fprintf(w, "%s  %s\n", pathLine(r.Start, r.End, p.Description), p.Sequence)
	}
}

// figureReporter prints each assembly product and the amplicons drawn from it.
func figureReporter(w io.Writer) amplify.Reporter {
	return func(p assembly.Product, amplicons []dna.Strand) {
		header.Fprintln(w, p.Figure())
		fmt.Fprintln(w, p.Molecule.DetailedFigure())
		for _, a := range amplicons {
			dim.Fprintf(w, "  amplicon %s (%d bp)\n", a, len(a))
		}
		fmt.Fprintln(w)
	}
}

// pathLine renders "start -> description -> end", omitting an empty description.
func pathLine(start, end, description string) string {
	if description == "" {
		return start + " -> " + end
	}
	return start + " -> " + description + " -> " + end
}

func centered(label string, width int) string {
	if width < len(label)+2 {
		return label
	}
	dashes := width - len(label)
	left := dashes / 2
	return "|" + strings.Repeat("-", left-1) + label + strings.Repeat("-", dashes-left-1) + "|"
}

func sortedKeys(m map[string]dna.Strand) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
