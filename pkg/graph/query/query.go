package query

import (
	"encoding/json"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// Query selects a part of a knowledge graph. A zero Query keeps everything.
type Query struct {
	Types      []string `json:"types,omitempty"`
	Predicates []string `json:"predicates,omitempty"`
	MinWeight  int      `json:"min_weight,omitempty"`
}

func New() *Query {
	return &Query{}
}

func (q *Query) WithTypes(types ...string) *Query {
	q.Types = append(q.Types, types...)
	return q
}

func (q *Query) WithPredicates(predicates ...string) *Query {
	q.Predicates = append(q.Predicates, predicates...)
	return q
}

func (q *Query) WithMinWeight(weight int) *Query {
	q.MinWeight = weight
	return q
}

// IsZero reports whether the query keeps the whole graph.
func (q *Query) IsZero() bool {
	return len(q.Types) == 0 && len(q.Predicates) == 0 && q.MinWeight <= 1
}

func (q *Query) String() string {
	bytes, _ := json.Marshal(q)
	return fmt.Sprintf("%s", bytes)
}

// Apply returns the nodes of the selected types and the edges between them
// that have a selected predicate and at least the minimum weight.
func (q *Query) Apply(g *graph.KnowledgeGraphData) *graph.KnowledgeGraphData {
	types := mapset.NewSet(q.Types...)
	predicates := mapset.NewSet(q.Predicates...)

	keep := mapset.NewSet[string]()
	for _, n := range g.Nodes {
		if types.IsEmpty() || types.Contains(n.Type) {
			keep.Add(n.ID)
		}
	}

	out := Subgraph(g, keep)
	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if e.Weight < q.MinWeight {
			continue
		}
		if !predicates.IsEmpty() && !predicates.Contains(e.Predicate) {
			continue
		}
		edges = append(edges, e)
	}
	out.Edges = edges
	return out
}

// Subgraph returns the nodes whose IDs are in keep and the edges with both
// endpoints kept. Node and edge order is preserved.
func Subgraph(g *graph.KnowledgeGraphData, keep mapset.Set[string]) *graph.KnowledgeGraphData {
	out := &graph.KnowledgeGraphData{
		Nodes:       make([]graph.Node, 0, keep.Cardinality()),
		Edges:       make([]graph.Edge, 0),
		GeneratedAt: g.GeneratedAt,
	}
	for _, n := range g.Nodes {
		if keep.Contains(n.ID) {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if keep.Contains(e.Source) && keep.Contains(e.Target) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
