// Package assembly simulates overlap-directed ligation of edge fragments.
//
// Fragments are the double-stranded forms of edge strands. Two fragments
// join when the bottom overhang on the right of one is complementary to the
// top overhang on the left of the other. The engine builds this overlap graph
// explicitly and enumerates every maximal linear product with an iterative
// depth-first search, so enumeration depth is bounded by the fragment count
// rather than the call stack.
package assembly

import (
	"fmt"
	"strings"

	"github.com/Benny93/adleman-go/internal/dna"
)

// Fragment is one ligatable piece: an edge strand annealed to the reverse
// complement of its destination strand.
type Fragment struct {
	// Name is the fragment name, "<source>_<target>".
	Name string

	// Source is the node whose 3' half opens the fragment.
	Source string

	// Target is the node whose 5' half closes the fragment.
	Target string

	// Molecule is the double-stranded fragment.
	Molecule dna.Molecule
}

// Product is a linear molecule formed by ligating one or more fragments.
type Product struct {
	// Molecule is the ligated molecule.
	Molecule dna.Molecule

	// Fragments lists the contributing fragments in ligation order.
	Fragments []Fragment

	// Overlap is the length of every junction in the product.
	Overlap int
}

// NewFragments builds the double-stranded fragment for every edge strand.
// Returns dna.ErrUnknownNode if an edge's destination has no strand.
func NewFragments(edges []dna.EdgeStrand, strands map[string]dna.Strand) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(edges))
	for _, e := range edges {
		dst, ok := strands[e.To]
		if !ok {
			return nil, fmt.Errorf("building fragment %s: %w: %s", e.Name(), dna.ErrUnknownNode, e.To)
		}
		fragments = append(fragments, Fragment{
			Name:     e.Name(),
			Source:   e.From,
			Target:   e.To,
			Molecule: dna.Fragment(e, dst),
		})
	}
	return fragments, nil
}

// Names returns the fragment names in ligation order.
func (p Product) Names() []string {
	names := make([]string, len(p.Fragments))
	for i, f := range p.Fragments {
		names[i] = f.Name
	}
	return names
}

// Figure renders the product at fragment level, showing each junction and
// its overlap length.
func (p Product) Figure() string {
	var sb strings.Builder
	for i, f := range p.Fragments {
		if i > 0 {
			fmt.Fprintf(&sb, " -[%d]- ", p.Overlap)
		}
		sb.WriteString(f.Name)
	}
	fmt.Fprintf(&sb, " (%d bp)", p.Molecule.Len())
	return sb.String()
}

// overlapGraph holds the directed arcs between fragments: succ[i] lists the
// fragments that ligate to the right end of fragment i.
type overlapGraph struct {
	succ [][]int
	pred [][]int
}

func buildOverlapGraph(fragments []Fragment, overlap int) *overlapGraph {
	n := len(fragments)
	g := &overlapGraph{
		succ: make([][]int, n),
		pred: make([][]int, n),
	}

	// Index left overhangs so each right end is matched in O(1).
	byLeft := make(map[dna.Strand][]int, n)
	for j, f := range fragments {
		left := f.Molecule.Left()
		if left.Bottom || len(left.Seq) != overlap {
			continue
		}
		byLeft[left.Seq] = append(byLeft[left.Seq], j)
	}

	for i, f := range fragments {
		right := f.Molecule.Right()
		if !right.Bottom || len(right.Seq) != overlap {
			continue
		}
		for _, j := range byLeft[dna.ReverseComplement(right.Seq)] {
			if !dna.Anneals(right, fragments[j].Molecule.Left(), overlap) {
				continue
			}
			g.succ[i] = append(g.succ[i], j)
			g.pred[j] = append(g.pred[j], i)
		}
	}
	return g
}

// frame is one level of the explicit DFS stack.
type frame struct {
	node     int
	next     int
	extended bool
}

// Assemble returns every maximal linear product obtainable by chaining
// fragments through overlaps of exactly the given length. A path is maximal
// when its first fragment has no unused predecessor and its last fragment has
// no unused successor; a fragment is used at most once per product but may
// appear in many products. A fragment with no overlaps yields a singleton
// product. Products are returned in a deterministic order derived from the
// input order.
func Assemble(fragments []Fragment, overlap int) []Product {
	if len(fragments) == 0 {
		return nil
	}

	g := buildOverlapGraph(fragments, overlap)
	used := make([]bool, len(fragments))
	var products []Product

	for start := range fragments {
		path := []int{start}
		stack := []frame{{node: start}}
		used[start] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			pushed := false
			for top.next < len(g.succ[top.node]) {
				nxt := g.succ[top.node][top.next]
				top.next++
				if used[nxt] {
					continue
				}
				top.extended = true
				used[nxt] = true
				path = append(path, nxt)
				stack = append(stack, frame{node: nxt})
				pushed = true
				break
			}
			if pushed {
				continue
			}

			if !top.extended && frontMaximal(g, path, used) {
				products = append(products, ligate(fragments, path, overlap))
			}

			used[top.node] = false
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
		}
	}

	return products
}

// frontMaximal reports whether the path's first fragment has no unused
// predecessor. used must mark exactly the fragments on the path.
func frontMaximal(g *overlapGraph, path []int, used []bool) bool {
	for _, p := range g.pred[path[0]] {
		if !used[p] {
			return false
		}
	}
	return true
}

func ligate(fragments []Fragment, path []int, overlap int) Product {
	parts := make([]Fragment, len(path))
	m := fragments[path[0]].Molecule
	parts[0] = fragments[path[0]]
	for i := 1; i < len(path); i++ {
		f := fragments[path[i]]
		m = dna.Join(m, f.Molecule)
		parts[i] = f
	}
	return Product{Molecule: m, Fragments: parts, Overlap: overlap}
}
