package graph

import (
	"fmt"
	"sync"
)

// Graph is an in-memory directed graph.
//
// Nodes and edges are returned in insertion order. Adding an edge adds its
// endpoints. Repeated edges are stored once; self-loops are stored like any
// other edge.
type Graph struct {
	mu    sync.RWMutex
	nodes []string
	edges []Edge

	// Indexes kept in sync by AddNode and AddEdge.
	nodeSet map[string]struct{}
	edgeSet map[Edge]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodeSet: make(map[string]struct{}),
		edgeSet: make(map[Edge]struct{}),
	}
}

// FromEdges builds a graph from (source, target) pairs.
func FromEdges(edges [][2]string) (*Graph, error) {
	g := New()
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) error {
	if name == "" {
		return ErrEmptyNode
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(name)
	return nil
}

func (g *Graph) addNodeLocked(name string) {
	if _, ok := g.nodeSet[name]; ok {
		return
	}
	g.nodeSet[name] = struct{}{}
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge and its endpoints. Adding an existing edge is
// a no-op.
func (g *Graph) AddEdge(source, target string) error {
	if source == "" || target == "" {
		return fmt.Errorf("%w: edge %q->%q", ErrEmptyNode, source, target)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(source)
	g.addNodeLocked(target)

	e := Edge{Source: source, Target: target}
	if _, ok := g.edgeSet[e]; ok {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodeSet[name]
	return ok
}

// Nodes returns a copy of the node list in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.nodes...)
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// Pairs returns the edges as (source, target) arrays in insertion order.
func (g *Graph) Pairs() [][2]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([][2]string, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.Pair()
	}
	return out
}
