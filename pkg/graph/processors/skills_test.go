package processors

import (
	"reflect"
	"testing"

	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

func TestParseSkills(t *testing.T) {
	got := ParseSkills("python, Go\nhugging face,,\r\n  ")
	want := []string{"python", "Go", "hugging face"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSkills() = %q, want %q", got, want)
	}
}

func TestNewSkillMatcherDedupes(t *testing.T) {
	m := NewSkillMatcher([]string{"Python", "python ", " python", "", "hugging   face"})
	if m.Len() != 2 {
		t.Errorf("Expected 2 distinct phrases, got %d", m.Len())
	}
}

func TestSkillMatcherMatch(t *testing.T) {
	tests := []struct {
		name   string
		skills []string
		text   string
		want   []string
	}{
		{
			name:   "case insensitive",
			skills: []string{"pytorch", "sklearn"},
			text:   "Trained models in PyTorch; evaluated with SKLEARN.",
			want:   []string{"PyTorch", "SKLEARN"},
		},
		{
			name:   "longest phrase wins",
			skills: []string{"hugging", "hugging face"},
			text:   "Fine-tuned Hugging Face transformers.",
			want:   []string{"Hugging Face"},
		},
		{
			name:   "whole words only",
			skills: []string{"java", "go"},
			text:   "Wrote javascript for a golang shop.",
			want:   []string{},
		},
		{
			name:   "symbols in phrase",
			skills: []string{"c#", "sql"},
			text:   "Expert in C# and SQL.",
			want:   []string{"C#", "SQL"},
		},
		{
			name:   "every occurrence",
			skills: []string{"docker"},
			text:   "Docker images, docker compose.",
			want:   []string{"Docker", "docker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := NewSkillMatcher(tt.skills).Match(tt.text, "resume.txt")
			got := make([]string, 0, len(matches))
			for _, m := range matches {
				got = append(got, m.Text)
				if m.Type != graph.TypeSkills {
					t.Errorf("Expected type %s, got %s", graph.TypeSkills, m.Type)
				}
				if tt.text[m.Start:m.End] != m.Text {
					t.Errorf("Span [%d,%d) does not match text %q", m.Start, m.End, m.Text)
				}
				if m.Source != "resume.txt" || m.Origin != graph.OriginDictionary {
					t.Errorf("Unexpected source/origin %q/%q", m.Source, m.Origin)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match() = %q, want %q", got, tt.want)
			}
		})
	}
}
