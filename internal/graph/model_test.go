package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdge(t *testing.T) {
	t.Parallel()

	e := Edge{Source: "A", Target: "B"}

	assert.Equal(t, [2]string{"A", "B"}, e.Pair())
	assert.Equal(t, "A->B", e.String())
	assert.False(t, e.IsLoop())
	assert.True(t, Edge{Source: "A", Target: "A"}.IsLoop())
}
