package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/tidwall/gjson"
)

func sampleGraph() *graph.KnowledgeGraphData {
	jane := graph.NodeID(graph.EntityKey(graph.TypePeople, "Jane Doe"))
	acme := graph.NodeID(graph.EntityKey(graph.TypeOrgs, "Acme Corp"))
	return &graph.KnowledgeGraphData{
		Nodes: []graph.Node{
			{ID: jane, Label: "Jane Doe", Type: graph.TypePeople, Mentions: 2, Sources: []string{"a.txt"}},
			{ID: acme, Label: "Acme Corp", Type: graph.TypeOrgs, Mentions: 1},
		},
		Edges: []graph.Edge{
			{
				ID:        graph.EdgeKey(jane, graph.PredicateWorkedAt, acme),
				Source:    jane,
				Target:    acme,
				Predicate: graph.PredicateWorkedAt,
				Weight:    2,
				Evidence:  []string{"Jane Doe worked at Acme Corp."},
			},
		},
	}
}

func TestExportShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleGraph()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	doc := buf.String()

	if n := gjson.Get(doc, "nodes.#").Int(); n != 2 {
		t.Errorf("Expected 2 nodes, got %d", n)
	}
	if n := gjson.Get(doc, "edges.#").Int(); n != 1 {
		t.Errorf("Expected 1 edge, got %d", n)
	}
	if got := gjson.Get(doc, "nodes.0.label").String(); got != "Jane Doe" {
		t.Errorf("Expected first label Jane Doe, got %q", got)
	}
	if got := gjson.Get(doc, "edges.0.predicate").String(); got != graph.PredicateWorkedAt {
		t.Errorf("Expected predicate worked_at, got %q", got)
	}
	if got := gjson.Get(doc, "edges.0.weight").Int(); got != 2 {
		t.Errorf("Expected weight 2, got %d", got)
	}

	for _, key := range []string{"nodes.0.mentions", "nodes.0.sources", "edges.0.evidence", "edges.0.id"} {
		if gjson.Get(doc, key).Exists() {
			t.Errorf("Expected %s to be left out of the export", key)
		}
	}
	if gjson.Get(doc, "nodes.0.id").String() != gjson.Get(doc, "edges.0.source").String() {
		t.Error("Expected edge source to reference the node ID")
	}
}

func TestJSONGraphStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "knowledge_graph.json")
	store := NewJSONGraphStore(path)
	ctx := context.Background()

	original := sampleGraph()
	if err := store.StoreGraph(ctx, original); err != nil {
		t.Fatalf("StoreGraph failed: %v", err)
	}

	loaded, err := store.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("LoadGraph failed: %v", err)
	}

	if len(loaded.Nodes) != len(original.Nodes) || len(loaded.Edges) != len(original.Edges) {
		t.Fatalf("Expected %d nodes and %d edges, got %d and %d",
			len(original.Nodes), len(original.Edges), len(loaded.Nodes), len(loaded.Edges))
	}
	if loaded.Edges[0].ID != original.Edges[0].ID {
		t.Errorf("Expected edge ID %s, got %s", original.Edges[0].ID, loaded.Edges[0].ID)
	}
	if loaded.Nodes[1].Label != "Acme Corp" || loaded.Nodes[1].Type != graph.TypeOrgs {
		t.Errorf("Unexpected node %+v", loaded.Nodes[1])
	}
}

func TestLoadGraphErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if _, err := NewJSONGraphStore(filepath.Join(dir, "missing.json")).LoadGraph(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONGraphStore(empty).LoadGraph(ctx); !errors.Is(err, ErrEmptyExport) {
		t.Errorf("Expected ErrEmptyExport, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{nodes"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONGraphStore(bad).LoadGraph(ctx); err == nil {
		t.Error("Expected a decode error")
	}
}
