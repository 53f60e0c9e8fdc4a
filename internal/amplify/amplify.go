// Package amplify simulates primer-directed amplification of assembly
// products.
//
// The forward primer is the start node's strand and the reverse primer is the
// reverse complement of the end node's strand. A primer anneals wherever its
// 3'-most overlap-length symbols match the template. Every forward site paired
// with a downstream reverse site bounds one blunt amplicon; only amplicons of
// the expected path length become candidates.
package amplify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Benny93/adleman-go/internal/assembly"
	"github.com/Benny93/adleman-go/internal/dna"
)

// PathSeparator joins node names in a candidate description.
const PathSeparator = "->"

// ErrMissingPrimer is returned when the start or end node has no strand.
var ErrMissingPrimer = errors.New("primer node has no strand")

// Primers is the forward/reverse primer pair, both written 5' to 3'.
type Primers struct {
	Forward dna.Strand
	Reverse dna.Strand
}

// NewPrimers builds the primer pair for a start and end node.
func NewPrimers(strands map[string]dna.Strand, start, end string) (Primers, error) {
	fwd, ok := strands[start]
	if !ok {
		return Primers{}, fmt.Errorf("%w: %s", ErrMissingPrimer, start)
	}
	rev, ok := strands[end]
	if !ok {
		return Primers{}, fmt.Errorf("%w: %s", ErrMissingPrimer, end)
	}
	return Primers{Forward: fwd, Reverse: dna.ReverseComplement(rev)}, nil
}

// Candidate is an amplified, length-checked product with the primer
// overhangs trimmed off. Candidates are values; trimming never touches the
// product they came from.
type Candidate struct {
	// Description is the node path the candidate encodes, excluding the
	// leading primer junction.
	Description string

	// Sequence is the trimmed top strand.
	Sequence dna.Strand

	// AmpliconLength is the amplicon length before trimming.
	AmpliconLength int

	// Fragments is the ligation provenance of the source product.
	Fragments []string
}

// Bottom returns the strand paired with Sequence.
func (c Candidate) Bottom() dna.Strand {
	return dna.ReverseComplement(c.Sequence)
}

// Reporter receives every product that yields at least one amplicon,
// before the length check. It is for diagnostics only.
type Reporter func(product assembly.Product, amplicons []dna.Strand)

// Options configures an amplification run.
type Options struct {
	// Overlap is the annealing length and the number of symbols trimmed
	// from each end of a kept amplicon.
	Overlap int

	// Length is the exact amplicon length a candidate must have.
	Length int

	// Reporter, if set, observes products that amplify.
	Reporter Reporter
}

// Anneal returns every amplicon the primer pair produces on the template,
// ordered by forward site then reverse site.
func Anneal(primers Primers, template dna.Strand, overlap int) []dna.Strand {
	if overlap <= 0 || overlap > len(primers.Forward) || overlap > len(primers.Reverse) {
		return nil
	}

	fwdSite := primers.Forward[len(primers.Forward)-overlap:]
	revTail := dna.ReverseComplement(primers.Reverse)
	revSite := revTail[:overlap]

	fwd := indexAll(template, fwdSite)
	rev := indexAll(template, revSite)
	if len(fwd) == 0 || len(rev) == 0 {
		return nil
	}

	var amplicons []dna.Strand
	for _, f := range fwd {
		for _, r := range rev {
			if r < f+overlap {
				continue
			}
			amplicons = append(amplicons, primers.Forward+template[f+overlap:r]+revTail)
		}
	}
	return amplicons
}

// Amplify runs the primer pair against every product and returns the
// trimmed candidates of the expected length. Products that anneal with
// neither or only one primer are skipped.
func Amplify(primers Primers, products []assembly.Product, opts Options) []Candidate {
	var candidates []Candidate
	for _, p := range products {
		amplicons := Anneal(primers, p.Molecule.Span(), opts.Overlap)
		if len(amplicons) == 0 {
			continue
		}
		if opts.Reporter != nil {
			opts.Reporter(p, amplicons)
		}

		for _, a := range amplicons {
			if len(a) != opts.Length || len(a) < 2*opts.Overlap {
				continue
			}
			candidates = append(candidates, Candidate{
				Description:    Describe(p),
				Sequence:       a[opts.Overlap : len(a)-opts.Overlap],
				AmpliconLength: len(a),
				Fragments:      p.Names(),
			})
		}
	}
	return candidates
}

// Describe names the nodes a product walks through: the source node of every
// fragment after the first, joined by PathSeparator.
func Describe(p assembly.Product) string {
	if len(p.Fragments) < 2 {
		return ""
	}
	nodes := make([]string, 0, len(p.Fragments)-1)
	for _, f := range p.Fragments[1:] {
		nodes = append(nodes, f.Source)
	}
	return strings.Join(nodes, PathSeparator)
}

func indexAll(s, sub dna.Strand) []int {
	var out []int
	for offset := 0; offset+len(sub) <= len(s); {
		i := strings.Index(string(s[offset:]), string(sub))
		if i < 0 {
			break
		}
		out = append(out, offset+i)
		offset += i + 1
	}
	return out
}
