package graph_test

import (
	"context"
	"errors"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/processors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/logging"
)

type stubRecognizer struct {
	mentions []processors.Mention
}

func (s *stubRecognizer) Recognize(ctx context.Context, text string) ([]processors.Mention, error) {
	return s.mentions, nil
}

func newPipeline() *graph.TextPipeline {
	logger := logging.Discard()
	recognizer := &stubRecognizer{mentions: []processors.Mention{{Text: "Jane Doe", Label: "PERSON"}}}
	return graph.NewPipeline(
		processors.NewLoader(),
		processors.NewNLPProcessor(recognizer, logger),
		processors.NewCooccurrenceBuilder(processors.DefaultPolicy(), graph.PredicateAt, logger),
		logger,
	)
}

func labelsOf(g *graph.KnowledgeGraphData) map[string]string {
	labels := make(map[string]string)
	for _, n := range g.Nodes {
		labels[n.Label] = n.Type
	}
	return labels
}

func TestPipelineCorruptFileDoesNotStopOthers(t *testing.T) {
	result, err := newPipeline().Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{
			{Name: "broken.pdf", Content: []byte("this is not a pdf")},
			{Name: "resume.txt", Content: []byte("Jane Doe worked at Acme Corp in Paris.\nJane Doe uses Python.")},
		},
		Skills: []string{"python"},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.Reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(result.Reports))
	}
	if result.Reports[0].Status != graph.StatusError || result.Reports[0].Error == "" {
		t.Errorf("Expected error report for broken.pdf, got %+v", result.Reports[0])
	}
	if result.Reports[1].Status != graph.StatusOK || result.Reports[1].Entities == 0 {
		t.Errorf("Expected ok report for resume.txt, got %+v", result.Reports[1])
	}
	if result.Loaded() != 1 {
		t.Errorf("Expected 1 loaded document, got %d", result.Loaded())
	}

	want := map[string]string{
		"Jane Doe":  graph.TypePeople,
		"Acme Corp": graph.TypeOrgs,
		"Paris":     graph.TypePlaces,
		"python":    graph.TypeSkills,
	}
	labels := labelsOf(result.Graph)
	if len(labels) != len(want) {
		t.Errorf("Expected %d nodes, got %v", len(want), labels)
	}
	for label, typ := range want {
		if labels[label] != typ {
			t.Errorf("Expected node %s of type %s, got %q", label, typ, labels[label])
		}
	}

	jane, _ := result.Graph.NodeByLabel("Jane Doe")
	acme, _ := result.Graph.NodeByLabel("Acme Corp")
	found := false
	for _, e := range result.Graph.Edges {
		if e.Source == jane.ID && e.Target == acme.ID && e.Predicate == graph.PredicateWorkedAt {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected edge Jane Doe worked_at Acme Corp, got %+v", result.Graph.Edges)
	}
	if len(result.Graph.Edges) != 4 {
		t.Errorf("Expected 4 edges, got %d", len(result.Graph.Edges))
	}
}

func TestPipelineEdgeWeightCountsSentences(t *testing.T) {
	result, err := newPipeline().Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{
			{Name: "a.txt", Content: []byte("Jane Doe worked at Acme Corp.\nJane Doe left Acme Corp.")},
			{Name: "b.txt", Content: []byte("Jane Doe returned to Acme Corp.")},
		},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.Graph.Nodes) != 2 {
		t.Errorf("Expected 2 nodes across documents, got %d", len(result.Graph.Nodes))
	}
	if len(result.Graph.Edges) != 1 || result.Graph.Edges[0].Weight != 3 {
		t.Errorf("Expected one edge of weight 3, got %+v", result.Graph.Edges)
	}
}

func TestPipelineTypeMask(t *testing.T) {
	result, err := newPipeline().Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{{Name: "a.txt", Content: []byte("Jane Doe worked at Acme Corp in 2019.")}},
		Types:   mapset.NewSet(graph.TypePeople),
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.Graph.Nodes) != 1 || result.Graph.Nodes[0].Label != "Jane Doe" {
		t.Errorf("Expected only Jane Doe, got %+v", result.Graph.Nodes)
	}
	if len(result.Graph.Edges) != 0 {
		t.Errorf("Expected no edges, got %+v", result.Graph.Edges)
	}
}

func TestPipelineDefaultTypesHideDates(t *testing.T) {
	result, err := newPipeline().Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{{Name: "a.txt", Content: []byte("Jane Doe, 2019")}},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, ok := labelsOf(result.Graph)["2019"]; ok {
		t.Error("Expected dates to be hidden by default")
	}
}

func TestPipelineEmptyAndMissingInput(t *testing.T) {
	p := newPipeline()

	if _, err := p.Process(context.Background(), graph.Request{}); !errors.Is(err, graph.ErrNoUploads) {
		t.Errorf("Expected ErrNoUploads, got %v", err)
	}

	result, err := p.Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{{Name: "blank.txt", Content: []byte("   \n")}},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Reports[0].Status != graph.StatusEmpty {
		t.Errorf("Expected empty status, got %s", result.Reports[0].Status)
	}
	if len(result.Graph.Nodes) != 0 || len(result.Graph.Edges) != 0 {
		t.Errorf("Expected an empty graph, got %+v", result.Graph)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline().Process(ctx, graph.Request{
		Uploads: []graph.Upload{{Name: "a.txt", Content: []byte("Jane Doe")}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestParseTypes(t *testing.T) {
	types, err := graph.ParseTypes([]string{" people", "", "Skills"})
	if err != nil {
		t.Fatalf("ParseTypes failed: %v", err)
	}
	if !types.Equal(mapset.NewSet(graph.TypePeople, graph.TypeSkills)) {
		t.Errorf("Expected PEOPLE and SKILLS, got %v", types.ToSlice())
	}

	if _, err := graph.ParseTypes([]string{"PEOPLE", "PERSONS"}); err == nil {
		t.Error("Expected an unknown type to be rejected")
	}

	empty, err := graph.ParseTypes(nil)
	if err != nil || empty.Cardinality() != 0 {
		t.Errorf("Expected an empty mask, got %v (%v)", empty, err)
	}
}
