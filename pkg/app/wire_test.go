package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shreyaadani/Stier-kg-resume/pkg/config"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/processors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/logging"
)

type noMentions struct{}

func (noMentions) Recognize(ctx context.Context, text string) ([]processors.Mention, error) {
	return nil, nil
}

func TestSkills(t *testing.T) {
	skills, err := Skills(&config.Config{})
	if err != nil || len(skills) != len(processors.DefaultSkills) {
		t.Errorf("Expected the built-in list, got %d skills (%v)", len(skills), err)
	}

	skills, _ = Skills(&config.Config{Skills: []string{"temporal"}})
	if len(skills) != 1 || skills[0] != "temporal" {
		t.Errorf("Expected configured skills, got %v", skills)
	}

	path := filepath.Join(t.TempDir(), "skills.txt")
	if err := os.WriteFile(path, []byte("go\nrust, zig\n"), 0644); err != nil {
		t.Fatal(err)
	}
	skills, err = Skills(&config.Config{Skills: []string{"temporal"}, SkillsFile: path})
	if err != nil || len(skills) != 3 || skills[2] != "zig" {
		t.Errorf("Expected skills from file, got %v (%v)", skills, err)
	}

	if _, err := Skills(&config.Config{SkillsFile: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected an error for a missing skills file")
	}
}

func TestNewPipelineWithRules(t *testing.T) {
	logger := logging.Discard()

	if _, err := NewPipelineWith(&config.Config{RelationRules: "PEOPLE-ORGS"}, noMentions{}, logger); err == nil {
		t.Error("Expected an invalid rule to be rejected")
	}

	cfg := &config.Config{RelationRules: "SKILLS:PLACES=taught_in", FallbackPredicate: ""}
	pipeline, err := NewPipelineWith(cfg, noMentions{}, logger)
	if err != nil {
		t.Fatalf("NewPipelineWith failed: %v", err)
	}

	result, err := pipeline.Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{{Name: "a.txt", Content: []byte("Studied Go while based in Berlin.")}},
		Skills:  []string{"go"},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(result.Graph.Edges) != 1 || result.Graph.Edges[0].Predicate != "taught_in" {
		t.Errorf("Expected a taught_in edge, got %+v", result.Graph.Edges)
	}
}

func TestNewPipelineWithProseModel(t *testing.T) {
	pipeline, err := NewPipeline(&config.Config{FallbackPredicate: "at"}, logging.Discard())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	result, err := pipeline.Process(context.Background(), graph.Request{
		Uploads: []graph.Upload{{Name: "resume.txt", Content: []byte("Jane Doe worked at Acme Corp in Paris.")}},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	jane, ok := result.Graph.NodeByLabel("Jane Doe")
	if !ok || jane.Type != graph.TypePeople {
		t.Fatalf("Expected Jane Doe as PEOPLE, got %+v", jane)
	}
	acme, ok := result.Graph.NodeByLabel("Acme Corp")
	if !ok {
		t.Fatal("Expected Acme Corp node")
	}

	found := false
	for _, e := range result.Graph.Edges {
		if e.Source == jane.ID && e.Target == acme.ID && e.Predicate == graph.PredicateWorkedAt {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected Jane Doe worked_at Acme Corp, got %+v", result.Graph.Edges)
	}
}
