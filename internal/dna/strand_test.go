package dna

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestComplement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Strand
		want Strand
	}{
		{"Empty", "", ""},
		{"AllSymbols", "ACGT", "TGCA"},
		{"KeepsUnknown", "ANT", "TNA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Complement(tt.in))
		})
	}
}

func TestReverseComplement(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Strand("ACGT"), ReverseComplement("ACGT"))
	assert.Equal(t, Strand("TTGC"), ReverseComplement("GCAA"))
	assert.Equal(t, Strand(""), ReverseComplement(""))

	s := Strand("GATTACACCGGTTAACCGTA")
	assert.Equal(t, s, ReverseComplement(ReverseComplement(s)))
}

func TestStrand_Halves(t *testing.T) {
	t.Parallel()

	s := Strand("AAAAAAAAAACCCCCCCCCC")
	assert.Equal(t, Strand("AAAAAAAAAA"), s.Head())
	assert.Equal(t, Strand("CCCCCCCCCC"), s.Tail())
	assert.Equal(t, s, s.Head()+s.Tail())
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("LengthAndAlphabet", func(t *testing.T) {
		t.Parallel()
		strands := Generate([]string{"A", "B", "C", "D"}, DefaultStrandLength, newRand(1))

		require.Len(t, strands, 4)
		for node, s := range strands {
			assert.Len(t, s, DefaultStrandLength, "strand for %s", node)
			for i := 0; i < len(s); i++ {
				assert.True(t, strings.IndexByte(Alphabet, s[i]) >= 0, "symbol %q", s[i])
			}
		}
	})

	t.Run("DeterministicForSeed", func(t *testing.T) {
		t.Parallel()
		a := Generate([]string{"B", "A", "C"}, 20, newRand(7))
		b := Generate([]string{"C", "B", "A"}, 20, newRand(7))

		assert.Equal(t, a, b)
	})

	t.Run("FreshMappingPerCall", func(t *testing.T) {
		t.Parallel()
		rng := newRand(3)
		a := Generate([]string{"A", "B"}, 20, rng)
		b := Generate([]string{"A", "B"}, 20, rng)

		assert.NotEqual(t, a, b)
	})

	t.Run("DuplicateNodes", func(t *testing.T) {
		t.Parallel()
		strands := Generate([]string{"A", "A", "B"}, 20, newRand(5))

		assert.Len(t, strands, 2)
	})

	t.Run("NoNodes", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Generate(nil, 20, newRand(9)))
	})
}

func TestEncodeEdge(t *testing.T) {
	t.Parallel()

	strands := Generate([]string{"A", "B"}, DefaultStrandLength, newRand(11))

	t.Run("HalvesOfEndpoints", func(t *testing.T) {
		t.Parallel()
		e, err := EncodeEdge("A", "B", strands)
		require.NoError(t, err)

		assert.Len(t, e.Seq, DefaultStrandLength)
		assert.Equal(t, "A_B", e.Name())
		assert.Equal(t, strands["A"].Tail(), e.Seq[:10])
		assert.Equal(t, strands["B"].Head(), e.Seq[10:])
		assert.Equal(t, strands["A"], strands["A"].Head()+e.Seq[:10])
		assert.Equal(t, strands["B"], e.Seq[10:]+strands["B"].Tail())
	})

	t.Run("UnknownSource", func(t *testing.T) {
		t.Parallel()
		_, err := EncodeEdge("X", "B", strands)
		assert.ErrorIs(t, err, ErrUnknownNode)
		assert.Contains(t, err.Error(), "X")
	})

	t.Run("UnknownDestination", func(t *testing.T) {
		t.Parallel()
		_, err := EncodeEdge("A", "Y", strands)
		assert.ErrorIs(t, err, ErrUnknownNode)
	})
}

func TestEncodeEdges(t *testing.T) {
	t.Parallel()

	strands := Generate([]string{"A", "B", "C"}, DefaultStrandLength, newRand(13))

	edges, err := EncodeEdges([][2]string{{"A", "B"}, {"B", "C"}}, strands)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "A_B", edges[0].Name())
	assert.Equal(t, "B_C", edges[1].Name())

	_, err = EncodeEdges([][2]string{{"A", "B"}, {"C", "Z"}}, strands)
	assert.ErrorIs(t, err, ErrUnknownNode)
}
