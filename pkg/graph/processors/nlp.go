package processors

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/sirupsen/logrus"
)

var (
	processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlp_processing_duration_seconds",
			Help: "Time spent processing documents",
		},
		[]string{"processor_type"},
	)

	entityCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_entities_extracted_total",
			Help: "Number of entities extracted",
		},
		[]string{"entity_type"},
	)
)

func init() {
	prometheus.MustRegister(processingDuration)
	prometheus.MustRegister(entityCount)
}

const maxProjectLength = 140

// Heuristic spans never cross a line, so separators are spaces and tabs only.
const (
	monthYear = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?[ \t]+(?:19|20)\d{2}`
	orgSuffix = `(?:Corp|Corporation|Inc|LLC|Ltd|Limited|GmbH|Company|Group|Labs?|Technologies|Systems|Solutions|University|Institute|College|Bank|Foundation|Hospital)`
	placeName = `([A-Z][a-zA-Z]+(?:[ -][A-Z][a-zA-Z]+)?)`
)

var (
	emailPattern   = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	urlPattern     = regexp.MustCompile(`(?i)https?://[^\s)]+`)
	projectPattern = regexp.MustCompile(`(?i)\b(project|built|developed|created|implemented|designed|led)\b`)

	monthYearPattern = regexp.MustCompile(`(?i)\b` + monthYear + `\b`)
	yearRangePattern = regexp.MustCompile(`(?i)\b(?:` + monthYear + `|(?:19|20)\d{2})[ \t]*(?:-|–|—|to)[ \t]*(?:` + monthYear + `|(?:19|20)\d{2}|present|current|now)\b`)
	yearPattern      = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	orgPattern       = regexp.MustCompile(`\b(?:[A-Z][\w&'.-]*[ \t]+){1,4}` + orgSuffix + `\b`)
	placePattern     = regexp.MustCompile(`\b(?:based|located|lives|living|relocated)[ \t]+in[ \t]+` + placeName)
	orgPlacePattern  = regexp.MustCompile(`\b` + orgSuffix + `\.?,?[ \t]+in[ \t]+` + placeName)

	sectionHeadings = mapset.NewSet(
		"summary", "experience", "work experience", "education", "projects", "skills",
		"technologies", "frameworks", "tools", "certifications", "awards", "publications",
	)

	leadingStopWords = mapset.NewSet("At", "In", "For", "With", "From", "Joined", "And", "By", "On", "Of")
)

// modelLabels maps NER model labels onto entity types
var modelLabels = map[string]string{
	"PERSON":       graph.TypePeople,
	"ORG":          graph.TypeOrgs,
	"ORGANIZATION": graph.TypeOrgs,
	"GPE":          graph.TypePlaces,
	"LOC":          graph.TypePlaces,
	"LOCATION":     graph.TypePlaces,
	"DATE":         graph.TypeDates,
	"TIME":         graph.TypeDates,
}

// Mention is an entity reported by the NER model, without position
type Mention struct {
	Text  string
	Label string
}

// Recognizer is the named-entity model
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Mention, error)
}

// ProseRecognizer runs prose's bundled NER model
type ProseRecognizer struct{}

// NewProseRecognizer loads the prose model once to make sure it is usable.
func NewProseRecognizer() (*ProseRecognizer, error) {
	if _, err := prose.NewDocument("Jane Doe lives in Paris."); err != nil {
		return nil, fmt.Errorf("load prose model: %w", err)
	}
	return &ProseRecognizer{}, nil
}

// Recognize implements Recognizer
func (r *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Mention, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	mentions := make([]Mention, 0, len(doc.Entities()))
	for _, ent := range doc.Entities() {
		mentions = append(mentions, Mention{Text: ent.Text, Label: ent.Label})
	}
	return mentions, nil
}

// NLPProcessor extracts typed entities from a document. Dictionary matches win
// over heuristic and model entities they overlap; emails and URLs come from
// regular expressions regardless of what the model finds.
type NLPProcessor struct {
	recognizer Recognizer
	logger     *logrus.Logger
}

// NewNLPProcessor creates a new NLP processor
func NewNLPProcessor(recognizer Recognizer, logger *logrus.Logger) *NLPProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &NLPProcessor{
		recognizer: recognizer,
		logger:     logger,
	}
}

// Extract implements graph.EntityExtractor
func (p *NLPProcessor) Extract(ctx context.Context, doc *graph.Document, skills []string) error {
	timer := prometheus.NewTimer(processingDuration.WithLabelValues("nlp"))
	defer timer.ObserveDuration()

	text := doc.Content
	p.logger.WithFields(logrus.Fields{
		"doc":            doc.Name,
		"content_length": len(text),
	}).Debug("Starting NLP processing")

	doc.Sentences = SplitSentences(text)

	accepted := p.extractPatterns(text, doc.Name)
	accepted = acceptNonOverlapping(accepted, NewSkillMatcher(skills).Match(text, doc.Name))
	accepted = acceptNonOverlapping(accepted, p.extractHeuristics(text, doc.Name))

	if p.recognizer != nil {
		mentions, err := p.recognizer.Recognize(ctx, text)
		if err != nil {
			return fmt.Errorf("recognize entities: %w", err)
		}
		accepted = acceptNonOverlapping(accepted, p.locateMentions(text, mentions, doc.Name))
	}

	entities := append(accepted, p.extractProjects(text, doc.Name)...)

	kept := make([]graph.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Type != graph.TypeSkills && sectionHeadings.Contains(graph.NormalizeText(e.Text)) {
			continue
		}
		if graph.NormalizeText(e.Text) == "" {
			continue
		}
		kept = append(kept, e)
		entityCount.WithLabelValues(e.Type).Inc()
	}
	sortByPosition(kept)
	doc.Entities = kept

	p.logger.WithFields(logrus.Fields{
		"doc":             doc.Name,
		"sentences_count": len(doc.Sentences),
		"entities_count":  len(kept),
	}).Info("NLP processing completed")

	return nil
}

// extractPatterns finds emails and URLs.
func (p *NLPProcessor) extractPatterns(text, source string) []graph.Entity {
	entities := make([]graph.Entity, 0)

	for _, m := range emailPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, newEntity(text, m[0], m[1], graph.TypeEmails, source, graph.OriginRegex))
	}
	for _, m := range urlPattern.FindAllStringIndex(text, -1) {
		end := m[0] + len(strings.TrimRight(text[m[0]:m[1]], ".,;:!?'\""))
		candidate := newEntity(text, m[0], end, graph.TypeURLs, source, graph.OriginRegex)
		if !sameSpanAny(candidate, entities) {
			entities = append(entities, candidate)
		}
	}

	return entities
}

// extractHeuristics finds dates, organizations with a legal or academic
// suffix, and places named after "based in" or right after an organization.
// Places come last so that an organization wins an overlap.
func (p *NLPProcessor) extractHeuristics(text, source string) []graph.Entity {
	candidates := make([]graph.Entity, 0)

	for _, pattern := range []*regexp.Regexp{monthYearPattern, yearRangePattern, yearPattern} {
		for _, m := range pattern.FindAllStringIndex(text, -1) {
			candidates = append(candidates, newEntity(text, m[0], m[1], graph.TypeDates, source, graph.OriginHeuristic))
		}
	}

	for _, m := range orgPattern.FindAllStringIndex(text, -1) {
		start := skipLeadingStopWords(text, m[0], m[1])
		if start < m[1] {
			candidates = append(candidates, newEntity(text, start, m[1], graph.TypeOrgs, source, graph.OriginHeuristic))
		}
	}

	sortByLength(candidates)

	places := make([]graph.Entity, 0)
	for _, pattern := range []*regexp.Regexp{placePattern, orgPlacePattern} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			places = append(places, newEntity(text, m[2], m[3], graph.TypePlaces, source, graph.OriginHeuristic))
		}
	}
	sortByLength(places)

	return append(candidates, places...)
}

// extractProjects treats every line that talks about building something as a project.
func (p *NLPProcessor) extractProjects(text, source string) []graph.Entity {
	projects := make([]graph.Entity, 0)

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)

		cleaned := graph.CleanText(line)
		if cleaned == "" || !projectPattern.MatchString(cleaned) {
			continue
		}

		trimmed := strings.TrimSpace(line)
		start := lineStart + strings.Index(line, trimmed)
		projects = append(projects, graph.Entity{
			Text:   truncateRunes(cleaned, maxProjectLength),
			Type:   graph.TypeProjects,
			Start:  start,
			End:    start + len(trimmed),
			Source: source,
			Origin: graph.OriginProjects,
		})
	}

	return projects
}

// locateMentions turns model mentions into spans at each whole-word occurrence.
func (p *NLPProcessor) locateMentions(text string, mentions []Mention, source string) []graph.Entity {
	seen := mapset.NewSet[string]()
	located := make([]graph.Entity, 0)

	for _, m := range mentions {
		typ, ok := modelLabels[strings.ToUpper(m.Label)]
		if !ok {
			continue
		}
		needle := strings.TrimSpace(m.Text)
		if needle == "" || !seen.Add(typ+"|"+needle) {
			continue
		}

		for _, span := range findOccurrences(text, needle) {
			located = append(located, newEntity(text, span[0], span[1], typ, source, graph.OriginModel))
		}
	}

	sortByLength(located)
	return located
}

// acceptNonOverlapping appends the candidates, in order, that do not overlap
// anything already accepted.
func acceptNonOverlapping(accepted, candidates []graph.Entity) []graph.Entity {
	for _, c := range candidates {
		if !overlapsAny(c, accepted) {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func sameSpanAny(e graph.Entity, accepted []graph.Entity) bool {
	for _, a := range accepted {
		if a.Start == e.Start && a.End == e.End {
			return true
		}
	}
	return false
}

func newEntity(text string, start, end int, typ, source, origin string) graph.Entity {
	return graph.Entity{
		Text:   text[start:end],
		Type:   typ,
		Start:  start,
		End:    end,
		Source: source,
		Origin: origin,
	}
}

func skipLeadingStopWords(text string, start, end int) int {
	for start < end {
		word := text[start:end]
		if i := strings.IndexAny(word, " \t\n"); i > 0 {
			word = word[:i]
		}
		if !leadingStopWords.Contains(word) {
			break
		}
		start += len(word)
		for start < end && strings.ContainsRune(" \t\n", rune(text[start])) {
			start++
		}
	}
	return start
}

func sortByLength(entities []graph.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].End-entities[i].Start > entities[j].End-entities[j].Start
	})
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
