package dna

import "fmt"

// EdgeStrand is the oligonucleotide encoding the directed edge From -> To:
// the 3' half of From's strand followed by the 5' half of To's strand.
type EdgeStrand struct {
	From string
	To   string
	Seq  Strand
}

// Name returns the fragment name used in assembly provenance.
func (e EdgeStrand) Name() string {
	return e.From + "_" + e.To
}

// EncodeEdge builds the edge strand for from -> to.
// Returns ErrUnknownNode if either endpoint has no strand.
func EncodeEdge(from, to string, strands map[string]Strand) (EdgeStrand, error) {
	src, ok := strands[from]
	if !ok {
		return EdgeStrand{}, fmt.Errorf("encoding edge %s->%s: %w: %s", from, to, ErrUnknownNode, from)
	}
	dst, ok := strands[to]
	if !ok {
		return EdgeStrand{}, fmt.Errorf("encoding edge %s->%s: %w: %s", from, to, ErrUnknownNode, to)
	}

	return EdgeStrand{
		From: from,
		To:   to,
		Seq:  src.Tail() + dst.Head(),
	}, nil
}

// EncodeEdges builds one edge strand per edge, preserving edge order.
func EncodeEdges(edges [][2]string, strands map[string]Strand) ([]EdgeStrand, error) {
	out := make([]EdgeStrand, 0, len(edges))
	for _, e := range edges {
		es, err := EncodeEdge(e[0], e[1], strands)
		if err != nil {
			return nil, err
		}
		out = append(out, es)
	}
	return out, nil
}
