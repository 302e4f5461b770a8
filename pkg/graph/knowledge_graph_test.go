package graph

import (
	"strings"
	"testing"
)

func skill(text string, start int) Entity {
	return Entity{Text: text, Type: TypeSkills, Start: start, End: start + len(text)}
}

func TestAddDocumentMergesEntities(t *testing.T) {
	g := NewKnowledgeGraphGenerator(nil)

	docs := []*Document{
		{ID: "1", Name: "a.txt", Entities: []Entity{skill("Python", 0), skill("python", 10)}},
		{ID: "2", Name: "b.txt", Entities: []Entity{skill("PYTHON ", 0)}},
	}
	for _, doc := range docs {
		if err := g.AddDocument(doc); err != nil {
			t.Fatalf("AddDocument failed: %v", err)
		}
	}

	data := g.Generate()
	if len(data.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(data.Nodes))
	}
	node := data.Nodes[0]
	if node.Label != "python" {
		t.Errorf("Expected lower-cased skill label, got %q", node.Label)
	}
	if node.Mentions != 3 {
		t.Errorf("Expected 3 mentions, got %d", node.Mentions)
	}
	if strings.Join(node.Sources, ",") != "a.txt,b.txt" {
		t.Errorf("Expected sources a.txt,b.txt, got %v", node.Sources)
	}
	if node.ID != NodeID(EntityKey(TypeSkills, "python")) {
		t.Errorf("Expected deterministic node ID, got %s", node.ID)
	}
}

func TestAddDocumentSkipsDuplicatesAndNil(t *testing.T) {
	g := NewKnowledgeGraphGenerator(nil)
	doc := &Document{ID: "1", Name: "a.txt", Entities: []Entity{skill("Go", 0)}}

	_ = g.AddDocument(doc)
	_ = g.AddDocument(doc)
	if got := g.Generate().Nodes[0].Mentions; got != 1 {
		t.Errorf("Expected the second add to be ignored, got %d mentions", got)
	}

	if err := g.AddDocument(nil); err == nil {
		t.Error("Expected an error for a nil document")
	}
}

func TestAddDocumentEdges(t *testing.T) {
	jane := Entity{Text: "Jane Doe", Type: TypePeople}
	acme := Entity{Text: "Acme Corp", Type: TypeOrgs}
	long := strings.Repeat("x", 300)

	doc := &Document{
		ID:       "1",
		Name:     "a.txt",
		Entities: []Entity{jane, acme},
		Relations: []Relationship{
			{From: jane.Key(), To: acme.Key(), Predicate: PredicateWorkedAt, Sentence: long},
			{From: jane.Key(), To: acme.Key(), Predicate: PredicateWorkedAt, Sentence: "second"},
			{From: jane.Key(), To: acme.Key(), Predicate: PredicateWorkedAt, Sentence: "third"},
			{From: jane.Key(), To: EntityKey(TypePlaces, "Paris"), Predicate: PredicateBasedIn},
		},
	}

	g := NewKnowledgeGraphGenerator(nil)
	if err := g.AddDocument(doc); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	data := g.Generate()

	if len(data.Edges) != 1 {
		t.Fatalf("Expected 1 edge, dangling relation should be skipped; got %d", len(data.Edges))
	}
	edge := data.Edges[0]
	if edge.Weight != 3 {
		t.Errorf("Expected weight 3, got %d", edge.Weight)
	}
	if len(edge.Evidence) != 2 {
		t.Fatalf("Expected 2 evidence sentences, got %d", len(edge.Evidence))
	}
	if len(edge.Evidence[0]) != 220 {
		t.Errorf("Expected evidence truncated to 220 characters, got %d", len(edge.Evidence[0]))
	}
	if edge.ID != EdgeKey(NodeID(jane.Key()), PredicateWorkedAt, NodeID(acme.Key())) {
		t.Errorf("Unexpected edge ID %s", edge.ID)
	}

	for _, e := range data.Edges {
		if _, ok := data.NodeByID(e.Source); !ok {
			t.Errorf("Dangling edge source %s", e.Source)
		}
		if _, ok := data.NodeByID(e.Target); !ok {
			t.Errorf("Dangling edge target %s", e.Target)
		}
	}
}

func TestGenerateOrdersNodesByType(t *testing.T) {
	g := NewKnowledgeGraphGenerator(nil)
	_ = g.AddDocument(&Document{ID: "1", Entities: []Entity{
		{Text: "Paris", Type: TypePlaces},
		{Text: "Zed", Type: TypePeople},
		{Text: "Ann", Type: TypePeople},
	}})

	data := g.Generate()
	var labels []string
	for _, n := range data.Nodes {
		labels = append(labels, n.Label)
	}
	if strings.Join(labels, ",") != "Ann,Zed,Paris" {
		t.Errorf("Unexpected node order %v", labels)
	}

	if n, ok := data.NodeByLabel(" paris "); !ok || n.Type != TypePlaces {
		t.Errorf("Expected NodeByLabel to find Paris, got %+v", n)
	}
}
