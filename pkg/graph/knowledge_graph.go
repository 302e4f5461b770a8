package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxEvidence       = 2
	maxEvidenceLength = 220
)

// nodeNamespace seeds the name-based node IDs so that the same entity
// always gets the same ID across runs.
var nodeNamespace = uuid.MustParse("6f1c9a52-2b7e-4c55-9a43-9d0f1e6a8b21")

// Node represents a unique entity in the knowledge graph
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Sources  []string `json:"sources,omitempty"` // Document names where this node was found
	Mentions int      `json:"mentions"`
}

// Edge represents a weighted relation between two nodes
type Edge struct {
	ID        string   `json:"id"`
	Source    string   `json:"source"` // Source node ID
	Target    string   `json:"target"` // Target node ID
	Predicate string   `json:"predicate"`
	Weight    int      `json:"weight"`
	Evidence  []string `json:"evidence,omitempty"`
}

// KnowledgeGraphData is the node/edge list handed to exporters and renderers
type KnowledgeGraphData struct {
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NodeByID returns the node with the given ID.
func (d *KnowledgeGraphData) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeByLabel returns the first node whose normalized label matches label.
func (d *KnowledgeGraphData) NodeByLabel(label string) (Node, bool) {
	want := NormalizeText(label)
	for _, n := range d.Nodes {
		if NormalizeText(n.Label) == want {
			return n, true
		}
	}
	return Node{}, false
}

// NodeID returns the deterministic node ID for an entity key.
func NodeID(key string) string {
	return uuid.NewSHA1(nodeNamespace, []byte(key)).String()
}

// EdgeKey identifies an edge by its subject, predicate and object.
func EdgeKey(sourceID, predicate, targetID string) string {
	return fmt.Sprintf("%s-%s-%s", sourceID, predicate, targetID)
}

// KnowledgeGraphGenerator assembles documents into a deduplicated, weighted graph
type KnowledgeGraphGenerator struct {
	nodes       map[string]*Node // map of entity key to node
	edges       map[string]*Edge // map of edge key to edge
	sources     map[string]map[string]bool
	documentMap map[string]bool // tracking processed document IDs
	mutex       sync.RWMutex
	logger      *logrus.Logger
}

// NewKnowledgeGraphGenerator creates a new knowledge graph generator
func NewKnowledgeGraphGenerator(logger *logrus.Logger) *KnowledgeGraphGenerator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &KnowledgeGraphGenerator{
		nodes:       make(map[string]*Node),
		edges:       make(map[string]*Edge),
		sources:     make(map[string]map[string]bool),
		documentMap: make(map[string]bool),
		logger:      logger,
	}
}

// AddDocument merges a document's entities and relations into the graph
func (g *KnowledgeGraphGenerator) AddDocument(doc *Document) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if doc == nil {
		return fmt.Errorf("cannot add nil document to graph")
	}

	// Skip if document was already processed
	if g.documentMap[doc.ID] {
		return nil
	}
	g.documentMap[doc.ID] = true

	for _, entity := range doc.Entities {
		key := entity.Key()
		node, exists := g.nodes[key]
		if !exists {
			label := CleanText(entity.Text)
			if entity.Type == TypeSkills {
				label = NormalizeText(entity.Text)
			}
			node = &Node{
				ID:    NodeID(key),
				Label: label,
				Type:  entity.Type,
			}
			g.nodes[key] = node
			g.sources[key] = make(map[string]bool)
		}
		node.Mentions++
		if !g.sources[key][doc.Name] {
			g.sources[key][doc.Name] = true
			node.Sources = append(node.Sources, doc.Name)
		}
	}

	for _, rel := range doc.Relations {
		source, sourceExists := g.nodes[rel.From]
		target, targetExists := g.nodes[rel.To]

		if !sourceExists || !targetExists {
			g.logger.WithFields(logrus.Fields{
				"from":      rel.From,
				"predicate": rel.Predicate,
				"to":        rel.To,
				"doc":       doc.Name,
			}).Warn("Skipping relation with unknown entities")
			continue
		}

		edgeID := EdgeKey(source.ID, rel.Predicate, target.ID)
		edge, exists := g.edges[edgeID]
		if !exists {
			edge = &Edge{
				ID:        edgeID,
				Source:    source.ID,
				Target:    target.ID,
				Predicate: rel.Predicate,
			}
			g.edges[edgeID] = edge
		}
		edge.Weight++
		if len(edge.Evidence) < maxEvidence && rel.Sentence != "" {
			edge.Evidence = append(edge.Evidence, truncate(rel.Sentence, maxEvidenceLength))
		}
	}

	return nil
}

// Generate builds and returns the final knowledge graph
func (g *KnowledgeGraphGenerator) Generate() *KnowledgeGraphData {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	nodes := make([]Node, 0, len(g.nodes))
	labels := make(map[string]string, len(g.nodes))
	for _, node := range g.nodes {
		n := *node
		n.Sources = append([]string(nil), node.Sources...)
		nodes = append(nodes, n)
		labels[n.ID] = n.Label
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return TypeRank(nodes[i].Type) < TypeRank(nodes[j].Type)
		}
		return nodes[i].Label < nodes[j].Label
	})

	edges := make([]Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		e := *edge
		e.Evidence = append([]string(nil), edge.Evidence...)
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if labels[a.Source] != labels[b.Source] {
			return labels[a.Source] < labels[b.Source]
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return labels[a.Target] < labels[b.Target]
	})

	return &KnowledgeGraphData{
		Nodes:       nodes,
		Edges:       edges,
		GeneratedAt: time.Now(),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
