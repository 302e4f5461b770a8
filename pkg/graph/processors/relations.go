package processors

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/sirupsen/logrus"
)

var relationCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "relations_built_total",
		Help: "Number of relation triples built",
	},
	[]string{"predicate"},
)

func init() {
	prometheus.MustRegister(relationCount)
}

// TypePair is an ordered (subject type, object type) pair
type TypePair struct {
	Subject string
	Object  string
}

// PolicyTable maps entity type pairs to the predicate that links them
type PolicyTable map[TypePair]string

// DefaultPolicy returns the built-in predicate table.
func DefaultPolicy() PolicyTable {
	return PolicyTable{
		{graph.TypePeople, graph.TypeOrgs}:     graph.PredicateWorkedAt,
		{graph.TypePeople, graph.TypeSkills}:   graph.PredicateUses,
		{graph.TypeProjects, graph.TypeSkills}: graph.PredicateUses,
		{graph.TypePeople, graph.TypePlaces}:   graph.PredicateBasedIn,
		{graph.TypeOrgs, graph.TypePlaces}:     graph.PredicateBasedIn,
		{graph.TypeProjects, graph.TypeOrgs}:   graph.PredicateAt,
	}
}

// ParsePolicy reads rules of the form "SUBJECT:OBJECT=predicate", separated
// by commas or newlines, on top of the default table. A rule replaces any rule
// for the reversed pair, so the table never holds both orientations and the
// last rule for a pair of types wins.
func ParsePolicy(s string) (PolicyTable, error) {
	table := DefaultPolicy()
	for _, rule := range ParseSkills(s) {
		pair, predicate, ok := strings.Cut(rule, "=")
		subject, object, ok2 := strings.Cut(pair, ":")
		if !ok || !ok2 {
			return nil, fmt.Errorf("invalid relation rule %q", rule)
		}
		p := TypePair{
			Subject: strings.ToUpper(strings.TrimSpace(subject)),
			Object:  strings.ToUpper(strings.TrimSpace(object)),
		}
		if graph.TypeRank(p.Subject) == len(graph.AllTypes) || graph.TypeRank(p.Object) == len(graph.AllTypes) {
			return nil, fmt.Errorf("unknown entity type in relation rule %q", rule)
		}
		predicate = strings.TrimSpace(predicate)
		delete(table, TypePair{Subject: p.Object, Object: p.Subject})
		if predicate == "" {
			delete(table, p)
			continue
		}
		table[p] = predicate
	}
	return table, nil
}

// Resolve returns the subject, object and predicate for two entities of the
// given types. first reports whether a is the subject. ok is false when no
// rule applies.
func (t PolicyTable) Resolve(a, b, fallback string) (predicate string, first bool, ok bool) {
	if p, found := t[TypePair{a, b}]; found {
		return p, true, true
	}
	if p, found := t[TypePair{b, a}]; found {
		return p, false, true
	}
	if a == b || fallback == "" {
		return "", false, false
	}
	return fallback, graph.TypeRank(a) <= graph.TypeRank(b), true
}

// CooccurrenceBuilder relates every pair of entities that share a sentence
type CooccurrenceBuilder struct {
	policy   PolicyTable
	fallback string
	logger   *logrus.Logger
}

// NewCooccurrenceBuilder creates a builder. An empty fallback disables
// relations between type pairs the policy does not name.
func NewCooccurrenceBuilder(policy PolicyTable, fallback string, logger *logrus.Logger) *CooccurrenceBuilder {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &CooccurrenceBuilder{
		policy:   policy,
		fallback: fallback,
		logger:   logger,
	}
}

// Build implements graph.RelationBuilder
func (b *CooccurrenceBuilder) Build(ctx context.Context, doc *graph.Document) ([]graph.Relationship, error) {
	relations := make([]graph.Relationship, 0)

	for _, sentence := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		present := sentenceEntities(sentence, doc.Entities)
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				a, c := present[i], present[j]
				predicate, first, ok := b.policy.Resolve(a.Type, c.Type, b.fallback)
				if !ok {
					continue
				}
				if !first {
					a, c = c, a
				}
				// same-type pairs are ordered by key so repeats land on one edge
				if a.Type == c.Type && c.Key() < a.Key() {
					a, c = c, a
				}

				relations = append(relations, graph.Relationship{
					From:      a.Key(),
					To:        c.Key(),
					Predicate: predicate,
					Sentence:  strings.TrimSpace(sentence.Text),
					Source:    doc.Name,
				})
				relationCount.WithLabelValues(predicate).Inc()
			}
		}
	}

	b.logger.WithFields(logrus.Fields{
		"doc":             doc.Name,
		"relations_count": len(relations),
	}).Debug("Relations built")

	return relations, nil
}

// sentenceEntities returns one entity per key among those intersecting the sentence.
func sentenceEntities(sentence graph.Sentence, entities []graph.Entity) []graph.Entity {
	seen := make(map[string]bool)
	present := make([]graph.Entity, 0)
	for _, e := range entities {
		if !sentence.Contains(e) {
			continue
		}
		key := e.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		present = append(present, e)
	}
	return present
}
