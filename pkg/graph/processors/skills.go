package processors

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// DefaultSkills seeds the skills dictionary shown in the side panel
var DefaultSkills = []string{
	"python", "java", "c#", "sql", "pytorch", "tensorflow", "opencv", "transformers",
	"hugging face", "sklearn", "scikit-learn", "xgboost", "docker", "kubernetes",
	"aws", "gcp", "azure", "spark", "hadoop", "airflow", "postgresql", "mongodb",
	"langchain", "streamlit", "flask", "fastapi", "grpc", "linux", "git", "kafka",
	"redis", "elastic", "neo4j", "d3", "react", "typescript", "node", "shap", "graphql",
}

// ParseSkills splits a comma or newline separated list into phrases.
func ParseSkills(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	skills := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			skills = append(skills, f)
		}
	}
	return skills
}

// SkillMatcher finds dictionary phrases in text, case-insensitively and on word boundaries
type SkillMatcher struct {
	phrases []string // normalized, longest first
}

// NewSkillMatcher builds a matcher from the given phrases.
func NewSkillMatcher(skills []string) *SkillMatcher {
	seen := mapset.NewSet[string]()
	phrases := make([]string, 0, len(skills))
	for _, s := range skills {
		p := asciiLower(strings.Join(strings.Fields(s), " "))
		if p == "" || seen.Contains(p) {
			continue
		}
		seen.Add(p)
		phrases = append(phrases, p)
	}
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i]) > len(phrases[j])
	})

	return &SkillMatcher{phrases: phrases}
}

// Len returns the number of distinct phrases.
func (m *SkillMatcher) Len() int {
	return len(m.phrases)
}

// Match returns a SKILLS entity for every non-overlapping phrase occurrence.
// Longer phrases win over shorter ones they overlap.
func (m *SkillMatcher) Match(text, source string) []graph.Entity {
	lower := asciiLower(text)
	matches := make([]graph.Entity, 0)

	for _, phrase := range m.phrases {
		for _, span := range findOccurrences(lower, phrase) {
			candidate := graph.Entity{
				Text:   text[span[0]:span[1]],
				Type:   graph.TypeSkills,
				Start:  span[0],
				End:    span[1],
				Source: source,
				Origin: graph.OriginDictionary,
			}
			if overlapsAny(candidate, matches) {
				continue
			}
			matches = append(matches, candidate)
		}
	}

	sortByPosition(matches)
	return matches
}

// findOccurrences returns the [start, end) spans of needle in haystack that
// are not glued to a neighbouring word character.
func findOccurrences(haystack, needle string) [][2]int {
	spans := make([][2]int, 0)
	if needle == "" {
		return spans
	}

	from := 0
	for from <= len(haystack)-len(needle) {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(needle)
		if wordBoundaryBefore(haystack, start, needle) && wordBoundaryAfter(haystack, end, needle) {
			spans = append(spans, [2]int{start, end})
			from = end
			continue
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		from = start + size
	}
	return spans
}

func wordBoundaryBefore(s string, i int, needle string) bool {
	if i == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(needle)
	if !isWordRune(first) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(prev)
}

func wordBoundaryAfter(s string, i int, needle string) bool {
	if i >= len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(needle)
	if !isWordRune(last) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// asciiLower lowers ASCII letters only, so byte offsets stay valid in the original.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func overlapsAny(e graph.Entity, accepted []graph.Entity) bool {
	for _, a := range accepted {
		if e.Overlaps(a) {
			return true
		}
	}
	return false
}

func sortByPosition(entities []graph.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].End > entities[j].End
	})
}
