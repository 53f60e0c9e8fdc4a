// Package graph provides the directed graph model solved by the pipeline.
//
// Nodes are plain string identifiers. Edges are ordered (source, target)
// pairs. Both keep their insertion order so that every downstream step
// iterates them deterministically.
package graph

import "errors"

// Sentinel errors returned by the loaders.
var (
	ErrEmptyNode = errors.New("empty node name")
	ErrSyntax    = errors.New("malformed graph")
)

// Edge is a directed edge between two nodes.
type Edge struct {
	// Source is the node the edge leaves.
	Source string

	// Target is the node the edge enters.
	Target string
}

// Pair returns the edge as a (source, target) array.
func (e Edge) Pair() [2]string {
	return [2]string{e.Source, e.Target}
}

// String formats the edge as "source->target".
func (e Edge) String() string {
	return e.Source + "->" + e.Target
}

// IsLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsLoop() bool {
	return e.Source == e.Target
}
