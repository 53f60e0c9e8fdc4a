package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadEdgeList parses the whitespace-separated edge-list format: one
// "source target [data...]" per line. Blank lines and '#' comments are
// skipped, and a line with a single token declares an isolated node.
func ReadEdgeList(r io.Reader) (*Graph, error) {
	g := New()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		switch len(fields) {
		case 0:
			continue
		case 1:
			if err := g.AddNode(fields[0]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		default:
			// Extra fields carry edge data, which the solver ignores.
			if err := g.AddEdge(fields[0], fields[1]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading edge list: %w", err)
	}
	return g, nil
}

// Document is the JSON graph format.
type Document struct {
	Nodes []string    `json:"nodes,omitempty"`
	Edges [][2]string `json:"edges"`
}

// ReadJSON parses a JSON graph document. Listed nodes are added before the
// edges so isolated nodes keep their position.
func ReadJSON(r io.Reader) (*Graph, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return doc.Graph()
}

// Graph builds the graph the document describes.
func (d Document) Graph() (*Graph, error) {
	g := New()
	for _, n := range d.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range d.Edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ToDocument returns the JSON document for g.
func ToDocument(g *Graph) Document {
	return Document{Nodes: g.Nodes(), Edges: g.Pairs()}
}

// WriteJSON writes g as an indented JSON document that ReadJSON accepts.
func WriteJSON(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(g)); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	return nil
}

// LoadFile reads a graph file, choosing the parser by extension: ".json"
// files are JSON documents, anything else is an edge list.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", path, err)
	}
	defer f.Close()

	var g *Graph
	if strings.EqualFold(filepath.Ext(path), ".json") {
		g, err = ReadJSON(f)
	} else {
		g, err = ReadEdgeList(f)
	}
	if err != nil {
		return nil, fmt.Errorf("loading graph %s: %w", path, err)
	}
	return g, nil
}
