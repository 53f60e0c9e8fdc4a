// Package filter reduces amplified candidates to Hamiltonian path results.
//
// Coverage is decided by substring containment: a candidate covers a node
// when the node's strand occurs anywhere in its sequence. A strand occurring
// by accident, off a segment boundary, counts the same as a real inclusion.
package filter

import (
	"strings"

	"github.com/Benny93/adleman-go/internal/amplify"
	"github.com/Benny93/adleman-go/internal/dna"
)

// Result is a candidate whose sequence contains every intermediate strand.
type Result = amplify.Candidate

// Unique keeps the first candidate for each distinct sequence, preserving
// the order of first occurrence. Descriptions and provenance are ignored.
func Unique(candidates []amplify.Candidate) []amplify.Candidate {
	seen := make(map[dna.Strand]struct{}, len(candidates))
	out := make([]amplify.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Sequence]; ok {
			continue
		}
		seen[c.Sequence] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Coverage counts how many of the given strands occur in the candidate.
func Coverage(c amplify.Candidate, strands map[string]dna.Strand) int {
	count := 0
	for _, s := range strands {
		if strings.Contains(string(c.Sequence), string(s)) {
			count++
		}
	}
	return count
}

// Paths deduplicates the candidates and keeps those that contain every
// intermediate node's strand.
func Paths(intermediates map[string]dna.Strand, candidates []amplify.Candidate) []Result {
	unique := Unique(candidates)
	results := make([]Result, 0, len(unique))
	for _, c := range unique {
		if Coverage(c, intermediates) == len(intermediates) {
			results = append(results, c)
		}
	}
	return results
}

// Intermediates returns the strands of every node other than start and end.
func Intermediates(strands map[string]dna.Strand, start, end string) map[string]dna.Strand {
	out := make(map[string]dna.Strand, len(strands))
	for node, s := range strands {
		if node == start || node == end {
			continue
		}
		out[node] = s
	}
	return out
}
