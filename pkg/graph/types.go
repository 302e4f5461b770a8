package graph

import (
	"context"
	"time"
)

// Entity type labels. They double as node types in the exported graph.
const (
	TypePeople   = "PEOPLE"
	TypeOrgs     = "ORGS"
	TypePlaces   = "PLACES"
	TypeDates    = "DATES"
	TypeEmails   = "EMAILS"
	TypeURLs     = "URLS"
	TypeSkills   = "SKILLS"
	TypeProjects = "PROJECTS"
)

// Relation predicates
const (
	PredicateWorkedAt = "worked_at"
	PredicateUses     = "uses"
	PredicateBasedIn  = "based_in"
	PredicateAt       = "at"
)

// Entity origins, in decreasing priority for overlap resolution
const (
	OriginRegex      = "regex"
	OriginProjects   = "projects"
	OriginDictionary = "dictionary"
	OriginHeuristic  = "heuristic"
	OriginModel      = "model"
)

// AllTypes lists every entity type in rank order. The order decides the
// subject of a fallback relation.
var AllTypes = []string{
	TypePeople, TypeProjects, TypeOrgs, TypeSkills,
	TypePlaces, TypeDates, TypeEmails, TypeURLs,
}

// TypeRank returns the position of t in AllTypes, or len(AllTypes) when unknown.
func TypeRank(t string) int {
	for i, typ := range AllTypes {
		if typ == t {
			return i
		}
	}
	return len(AllTypes)
}

// Entity is a typed span of text found in a document
type Entity struct {
	Text   string `json:"text"`
	Type   string `json:"type"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Source string `json:"source"`
	Origin string `json:"origin"`
}

// Key returns the uniqueness key used to merge entities into one node.
func (e Entity) Key() string {
	return EntityKey(e.Type, e.Text)
}

// Overlaps reports whether the byte ranges of e and o intersect.
func (e Entity) Overlaps(o Entity) bool {
	return e.Start < o.End && o.Start < e.End
}

// Relationship is a single subject-predicate-object triple observed in one sentence
type Relationship struct {
	From      string `json:"from"` // subject entity key
	To        string `json:"to"`   // object entity key
	Predicate string `json:"predicate"`
	Sentence  string `json:"sentence"`
	Source    string `json:"source"`
}

// Sentence is a sentence boundary within a document's content
type Sentence struct {
	Index    int
	Text     string
	StartPos int
	EndPos   int
}

// Contains reports whether the entity span intersects the sentence.
func (s Sentence) Contains(e Entity) bool {
	return e.Start < s.EndPos && s.StartPos < e.End
}

// Document represents an uploaded file and everything extracted from it
type Document struct {
	ID          string
	Name        string
	Content     string
	Sentences   []Sentence
	Entities    []Entity
	Relations   []Relationship
	Metadata    map[string]interface{}
	ProcessedAt time.Time
}

// DocumentProcessor turns the raw bytes of one upload into a document with plain text content
type DocumentProcessor interface {
	Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*Document, error)
	SupportedTypes() []string
}

// DocumentLoader picks the right processor for an upload
type DocumentLoader interface {
	Load(ctx context.Context, upload Upload) (*Document, error)
}

// EntityExtractor fills a document's sentences and entities
type EntityExtractor interface {
	Extract(ctx context.Context, doc *Document, skills []string) error
}

// RelationBuilder derives relation triples from a document's sentences and entities
type RelationBuilder interface {
	Build(ctx context.Context, doc *Document) ([]Relationship, error)
}
