// Package dna provides the sequence layer of the Adleman simulation.
//
// It defines node strands, their Watson-Crick complements, the edge
// oligonucleotides that join two node strands, and the double-stranded
// molecules that the assembly and amplification stages operate on.
package dna

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
)

// Alphabet is the set of symbols a Strand is drawn from.
const Alphabet = "ACGT"

// DefaultStrandLength is the length of a node strand (a 20-mer).
const DefaultStrandLength = 20

// ErrUnknownNode is returned when an edge references a node without a strand.
var ErrUnknownNode = errors.New("node has no strand")

// Strand is a single-stranded sequence written 5' to 3'.
type Strand string

// Head returns the 5' half of the strand.
func (s Strand) Head() Strand {
	return s[:len(s)/2]
}

// Tail returns the 3' half of the strand.
func (s Strand) Tail() Strand {
	return s[len(s)/2:]
}

var pairs = [256]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}

// Complement replaces every symbol by its Watson-Crick partner without
// changing direction. Symbols outside the alphabet are kept as they are.
func Complement(s Strand) Strand {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := pairs[s[i]]
		if c == 0 {
			c = s[i]
		}
		out[i] = c
	}
	return Strand(out)
}

// ReverseComplement returns the strand that anneals to s, written 5' to 3'.
func ReverseComplement(s Strand) Strand {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := s[n-1-i]
		c := pairs[b]
		if c == 0 {
			c = b
		}
		out[i] = c
	}
	return Strand(out)
}

// Generate assigns a fresh uniformly random strand of the given length to
// every node. Nodes are visited in sorted order, so a seeded source yields
// the same mapping for the same node set. Collisions are not checked.
func Generate(nodes []string, length int, rng *rand.Rand) map[string]Strand {
	ordered := slices.Clone(nodes)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	strands := make(map[string]Strand, len(ordered))
	var sb strings.Builder
	for _, node := range ordered {
		sb.Reset()
		sb.Grow(length)
		for i := 0; i < length; i++ {
			sb.WriteByte(Alphabet[rng.IntN(len(Alphabet))])
		}
		strands[node] = Strand(sb.String())
	}
	return strands
}
