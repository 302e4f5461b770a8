package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// ErrEmptyExport is returned when loading a file that holds no graph
var ErrEmptyExport = errors.New("empty graph export")

// ExportNode is a node as written to the downloadable JSON document
type ExportNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ExportEdge is an edge as written to the downloadable JSON document
type ExportEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Predicate string `json:"predicate"`
	Weight    int    `json:"weight"`
}

// ExportDocument is the {"nodes": [...], "edges": [...]} export format
type ExportDocument struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// Export converts a graph into its export document.
func Export(g *graph.KnowledgeGraphData) *ExportDocument {
	doc := &ExportDocument{
		Nodes: make([]ExportNode, 0, len(g.Nodes)),
		Edges: make([]ExportEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, ExportNode{ID: n.ID, Label: n.Label, Type: n.Type})
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, ExportEdge{
			Source:    e.Source,
			Target:    e.Target,
			Predicate: e.Predicate,
			Weight:    e.Weight,
		})
	}
	return doc
}

// Graph converts the export document back into graph data. Edges get their
// subject-predicate-object key as ID; evidence and sources are not exported.
func (d *ExportDocument) Graph() *graph.KnowledgeGraphData {
	g := &graph.KnowledgeGraphData{
		Nodes: make([]graph.Node, 0, len(d.Nodes)),
		Edges: make([]graph.Edge, 0, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		g.Nodes = append(g.Nodes, graph.Node{ID: n.ID, Label: n.Label, Type: n.Type})
	}
	for _, e := range d.Edges {
		g.Edges = append(g.Edges, graph.Edge{
			ID:        graph.EdgeKey(e.Source, e.Predicate, e.Target),
			Source:    e.Source,
			Target:    e.Target,
			Predicate: e.Predicate,
			Weight:    e.Weight,
		})
	}
	return g
}

// Marshal returns the indented export JSON of a graph.
func Marshal(g *graph.KnowledgeGraphData) ([]byte, error) {
	data, err := json.MarshalIndent(Export(g), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode graph")
	}
	return data, nil
}

// Write writes the export JSON of a graph to w.
func Write(w io.Writer, g *graph.KnowledgeGraphData) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "write graph")
}

// Read decodes an export document.
func Read(r io.Reader) (*ExportDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read graph")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyExport
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode graph")
	}
	return &doc, nil
}

// GraphStore defines an interface for storing knowledge graphs
type GraphStore interface {
	// StoreGraph persists a knowledge graph
	StoreGraph(ctx context.Context, g *graph.KnowledgeGraphData) error

	// LoadGraph loads a knowledge graph from storage
	LoadGraph(ctx context.Context) (*graph.KnowledgeGraphData, error)
}

// JSONGraphStore implements GraphStore using a JSON export file
type JSONGraphStore struct {
	filePath string
}

// NewJSONGraphStore creates a new JSON graph store
func NewJSONGraphStore(filePath string) *JSONGraphStore {
	return &JSONGraphStore{
		filePath: filePath,
	}
}

// Path returns the file the store writes to.
func (s *JSONGraphStore) Path() string {
	return s.filePath
}

// StoreGraph stores the knowledge graph as export JSON
func (s *JSONGraphStore) StoreGraph(ctx context.Context, g *graph.KnowledgeGraphData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	data, err := Marshal(g)
	if err != nil {
		return err
	}

	return errors.Wrapf(os.WriteFile(s.filePath, data, 0644), "write %s", s.filePath)
}

// LoadGraph loads a knowledge graph from an export JSON file
func (s *JSONGraphStore) LoadGraph(ctx context.Context) (*graph.KnowledgeGraphData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.filePath)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, err
	}
	return doc.Graph(), nil
}
