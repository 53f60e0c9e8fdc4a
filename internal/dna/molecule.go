package dna

import "strings"

// Molecule is a linear double-stranded molecule.
//
// Watson is the top strand and Crick the bottom strand, both written 5' to 3'.
// Shift is the top-strand coordinate where the bottom strand's 3' end sits, so
// the bottom strand covers [Shift, Shift+len(Crick)) in top coordinates.
// A positive Shift leaves a single-stranded top overhang on the left; a bottom
// strand reaching past the end of Watson leaves a bottom overhang on the right.
type Molecule struct {
	Watson Strand
	Crick  Strand
	Shift  int
}

// Overhang is a single-stranded end of a Molecule.
type Overhang struct {
	// Seq is the unpaired region, 5' to 3' on its own strand.
	Seq Strand

	// Bottom is true when the unpaired region belongs to the Crick strand.
	Bottom bool
}

// Blunt reports whether the end has no unpaired symbols.
func (o Overhang) Blunt() bool {
	return len(o.Seq) == 0
}

// Fragment builds the double-stranded form of an edge strand: the edge strand
// on top, annealed to the reverse complement of the destination strand. The
// left end is the source's 3' half as a top overhang; the right end is the
// complement of the destination's 3' half as a bottom overhang.
func Fragment(e EdgeStrand, destination Strand) Molecule {
	return Molecule{
		Watson: e.Seq,
		Crick:  ReverseComplement(destination),
		Shift:  len(e.Seq) / 2,
	}
}

// Start returns the leftmost top coordinate covered by either strand.
func (m Molecule) Start() int {
	return min(0, m.Shift)
}

// End returns the coordinate one past the rightmost covered position.
func (m Molecule) End() int {
	return max(len(m.Watson), m.Shift+len(m.Crick))
}

// Len returns the length of the molecule including overhangs.
func (m Molecule) Len() int {
	return m.End() - m.Start()
}

// Left returns the molecule's left end.
func (m Molecule) Left() Overhang {
	switch {
	case m.Shift > 0:
		return Overhang{Seq: m.Watson[:min(m.Shift, len(m.Watson))]}
	case m.Shift < 0:
		return Overhang{Seq: m.Crick[max(len(m.Crick)+m.Shift, 0):], Bottom: true}
	}
	return Overhang{}
}

// Right returns the molecule's right end.
func (m Molecule) Right() Overhang {
	extra := m.Shift + len(m.Crick) - len(m.Watson)
	switch {
	case extra > 0:
		return Overhang{Seq: m.Crick[:min(extra, len(m.Crick))], Bottom: true}
	case extra < 0:
		return Overhang{Seq: m.Watson[max(len(m.Watson)+extra, 0):]}
	}
	return Overhang{}
}

// Span returns the top-sense sequence over the whole molecule. Positions
// covered only by the bottom strand are read through its complement.
func (m Molecule) Span() Strand {
	start, end := m.Start(), m.End()
	out := make([]byte, 0, end-start)
	for p := start; p < end; p++ {
		if p >= 0 && p < len(m.Watson) {
			out = append(out, m.Watson[p])
			continue
		}
		j := m.Shift + len(m.Crick) - 1 - p
		b := m.Crick[j]
		if c := pairs[b]; c != 0 {
			b = c
		}
		out = append(out, b)
	}
	return Strand(out)
}

// Anneals reports whether a right end and a left end pair over exactly k
// symbols: the right end must be a bottom overhang, the left end a top
// overhang, and the two must be reverse complements of each other. Blunt
// ends never anneal.
func Anneals(right, left Overhang, k int) bool {
	if right.Blunt() || left.Blunt() {
		return false
	}
	if !right.Bottom || left.Bottom {
		return false
	}
	if len(right.Seq) != k || len(left.Seq) != k {
		return false
	}
	return ReverseComplement(right.Seq) == left.Seq
}

// Join ligates q to the right end of p. The caller must check Anneals first;
// Join only concatenates the strands, closing both nicks.
func Join(p, q Molecule) Molecule {
	return Molecule{
		Watson: p.Watson + q.Watson,
		Crick:  q.Crick + p.Crick,
		Shift:  p.Shift,
	}
}

// DetailedFigure renders both strands aligned base to base, the top strand
// 5' to 3' and the bottom strand 3' to 5' beneath it.
func (m Molecule) DetailedFigure() string {
	topPad := -m.Start()
	bottomPad := m.Shift - m.Start()

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", topPad))
	sb.WriteString("5'")
	sb.WriteString(string(m.Watson))
	sb.WriteString("3'\n")
	sb.WriteString(strings.Repeat(" ", bottomPad))
	sb.WriteString("3'")
	sb.WriteString(reverse(string(m.Crick)))
	sb.WriteString("5'")
	return sb.String()
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
