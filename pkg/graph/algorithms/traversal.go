package algorithms

import (
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/query"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// ErrNodeNotFound is returned when a focus node is not in the graph
var ErrNodeNotFound = errors.New("node not found")

// Index is an undirected view of a knowledge graph for traversals
type Index struct {
	graph *simple.UndirectedGraph
	ids   map[string]int64 // node ID to gonum ID
	nodes []graph.Node     // by gonum ID
}

// NewIndex builds the undirected view. Edge direction and predicates are
// ignored; parallel edges collapse into one.
func NewIndex(data *graph.KnowledgeGraphData) *Index {
	ix := &Index{
		graph: simple.NewUndirectedGraph(),
		ids:   make(map[string]int64, len(data.Nodes)),
		nodes: make([]graph.Node, 0, len(data.Nodes)),
	}

	for _, n := range data.Nodes {
		if _, exists := ix.ids[n.ID]; exists {
			continue
		}
		id := int64(len(ix.nodes))
		ix.ids[n.ID] = id
		ix.nodes = append(ix.nodes, n)
		ix.graph.AddNode(simple.Node(id))
	}

	for _, e := range data.Edges {
		from, ok := ix.ids[e.Source]
		to, ok2 := ix.ids[e.Target]
		if !ok || !ok2 || from == to {
			continue
		}
		if !ix.graph.HasEdgeBetween(from, to) {
			ix.graph.SetEdge(ix.graph.NewEdge(ix.graph.Node(from), ix.graph.Node(to)))
		}
	}

	return ix
}

// Lookup finds a node by ID, or else by label.
func (ix *Index) Lookup(ref string) (graph.Node, bool) {
	if id, ok := ix.ids[ref]; ok {
		return ix.nodes[id], true
	}
	want := graph.NormalizeText(ref)
	for _, n := range ix.nodes {
		if graph.NormalizeText(n.Label) == want {
			return n, true
		}
	}
	return graph.Node{}, false
}

// Neighbors returns the IDs of the nodes adjacent to nodeID.
func (ix *Index) Neighbors(nodeID string) []string {
	id, ok := ix.ids[nodeID]
	if !ok {
		return nil
	}
	neighbors := make([]string, 0)
	it := ix.graph.From(id)
	for it.Next() {
		neighbors = append(neighbors, ix.nodes[it.Node().ID()].ID)
	}
	sort.Strings(neighbors)
	return neighbors
}

// Neighborhood returns the IDs of the nodes at most depth hops from nodeID,
// nodeID included.
func (ix *Index) Neighborhood(nodeID string, depth int) mapset.Set[string] {
	found := mapset.NewSet[string]()
	start, ok := ix.ids[nodeID]
	if !ok {
		return found
	}

	var bf traverse.BreadthFirst
	bf.Walk(ix.graph, ix.graph.Node(start), func(n gonum.Node, d int) bool {
		if d > depth {
			return true
		}
		found.Add(ix.nodes[n.ID()].ID)
		return false
	})
	return found
}

// Components returns the connected components as lists of node IDs, largest first.
func (ix *Index) Components() [][]string {
	components := make([][]string, 0)
	for _, cc := range topo.ConnectedComponents(ix.graph) {
		ids := make([]string, 0, len(cc))
		for _, n := range cc {
			ids = append(ids, ix.nodes[n.ID()].ID)
		}
		sort.Strings(ids)
		components = append(components, ids)
	}
	sort.SliceStable(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}

// Degrees counts the edges incident on every node. Nodes without edges get 0.
func Degrees(data *graph.KnowledgeGraphData) map[string]int {
	degrees := make(map[string]int, len(data.Nodes))
	for _, n := range data.Nodes {
		degrees[n.ID] = 0
	}
	for _, e := range data.Edges {
		degrees[e.Source]++
		if e.Target != e.Source {
			degrees[e.Target]++
		}
	}
	return degrees
}

// Focus returns the subgraph within depth hops of the node with the given ID or label.
func Focus(data *graph.KnowledgeGraphData, ref string, depth int) (*graph.KnowledgeGraphData, error) {
	if depth < 0 {
		return nil, fmt.Errorf("invalid depth %d", depth)
	}

	ix := NewIndex(data)
	node, ok := ix.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, ref)
	}

	return query.Subgraph(data, ix.Neighborhood(node.ID, depth)), nil
}

// Stats summarizes the shape of a graph
type Stats struct {
	Nodes      int            `json:"nodes"`
	Edges      int            `json:"edges"`
	Components int            `json:"components"`
	Isolated   int            `json:"isolated"`
	NodeTypes  map[string]int `json:"node_types"`
	Predicates map[string]int `json:"predicates"`
	TopNodes   []RankedNode   `json:"top_nodes"`
}

// RankedNode is a node label with its degree
type RankedNode struct {
	Label  string `json:"label"`
	Type   string `json:"type"`
	Degree int    `json:"degree"`
}

// Summarize computes Stats, listing the top most connected nodes.
func Summarize(data *graph.KnowledgeGraphData, top int) Stats {
	degrees := Degrees(data)
	stats := Stats{
		Nodes:      len(data.Nodes),
		Edges:      len(data.Edges),
		Components: len(NewIndex(data).Components()),
		NodeTypes:  make(map[string]int),
		Predicates: make(map[string]int),
		TopNodes:   make([]RankedNode, 0),
	}

	ranked := make([]RankedNode, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		stats.NodeTypes[n.Type]++
		if degrees[n.ID] == 0 {
			stats.Isolated++
		}
		ranked = append(ranked, RankedNode{Label: n.Label, Type: n.Type, Degree: degrees[n.ID]})
	}
	for _, e := range data.Edges {
		stats.Predicates[e.Predicate]++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Degree != ranked[j].Degree {
			return ranked[i].Degree > ranked[j].Degree
		}
		return ranked[i].Label < ranked[j].Label
	})
	if top >= 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	stats.TopNodes = append(stats.TopNodes, ranked...)

	return stats
}
