package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/metrics"
	"github.com/sirupsen/logrus"
)

var (
	pipelineProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_processing_duration_seconds",
			Help: "Time spent in each pipeline stage",
		},
		[]string{"stage"},
	)

	documentProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_documents_processed_total",
			Help: "Total number of documents processed",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(pipelineProcessingDuration)
	prometheus.MustRegister(documentProcessedTotal)
}

// ErrNoUploads is returned when a request carries no files
var ErrNoUploads = errors.New("no files uploaded")

// DefaultTypes is the entity type mask used when a request does not pick one.
// Dates and URLs are hidden unless asked for.
func DefaultTypes() mapset.Set[string] {
	return mapset.NewSet(TypePeople, TypeOrgs, TypePlaces, TypeEmails, TypeSkills, TypeProjects)
}

// ParseTypes reads a type mask from user input. Names are case-insensitive;
// blanks are skipped and an unknown name is an error.
func ParseTypes(values []string) (mapset.Set[string], error) {
	types := mapset.NewSet[string]()
	for _, v := range values {
		t := strings.ToUpper(strings.TrimSpace(v))
		if t == "" {
			continue
		}
		if TypeRank(t) == len(AllTypes) {
			return nil, fmt.Errorf("unknown entity type %q", v)
		}
		types.Add(t)
	}
	return types, nil
}

// Request is one interactive extraction run
type Request struct {
	Uploads []Upload
	Skills  []string
	Types   mapset.Set[string] // nil means DefaultTypes
}

// Result is the outcome of one run
type Result struct {
	Graph   *KnowledgeGraphData
	Reports []DocumentReport
}

// Loaded returns the number of uploads that produced text.
func (r *Result) Loaded() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.Status == StatusOK {
			n++
		}
	}
	return n
}

// TextPipeline runs uploads through load, extract, relate and assemble
type TextPipeline struct {
	loader    DocumentLoader
	extractor EntityExtractor
	relations RelationBuilder
	logger    *logrus.Logger
}

// NewPipeline creates a new text processing pipeline
func NewPipeline(loader DocumentLoader, extractor EntityExtractor, relations RelationBuilder, logger *logrus.Logger) *TextPipeline {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &TextPipeline{
		loader:    loader,
		extractor: extractor,
		relations: relations,
		logger:    logger,
	}
}

// Process runs every upload of the request through the pipeline. A file that
// cannot be read is reported and skipped; the others still make it into the graph.
func (p *TextPipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if len(req.Uploads) == 0 {
		return nil, ErrNoUploads
	}

	types := req.Types
	if types == nil {
		types = DefaultTypes()
	}

	p.logger.WithFields(logrus.Fields{
		"document_count": len(req.Uploads),
		"skills_count":   len(req.Skills),
		"types":          types.ToSlice(),
	}).Info("Starting extraction")

	total := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("total"))
	defer total.ObserveDuration()

	generator := NewKnowledgeGraphGenerator(p.logger)
	result := &Result{Reports: make([]DocumentReport, 0, len(req.Uploads))}

	for _, upload := range req.Uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, report, err := p.processOne(ctx, upload, req.Skills, types)
		if err != nil {
			p.logger.WithError(err).WithField("file", upload.Name).Error("Failed to process document")
			documentProcessedTotal.WithLabelValues(StatusError).Inc()
			result.Reports = append(result.Reports, DocumentReport{
				Name:   upload.Name,
				Status: StatusError,
				Error:  err.Error(),
			})
			continue
		}
		documentProcessedTotal.WithLabelValues(report.Status).Inc()
		result.Reports = append(result.Reports, report)

		if doc == nil {
			continue
		}
		if err := generator.AddDocument(doc); err != nil {
			return nil, fmt.Errorf("assemble %s: %w", upload.Name, err)
		}
	}

	timer := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("assemble"))
	result.Graph = generator.Generate()
	timer.ObserveDuration()

	metrics.RecordGraph(nodeTypeCounts(result.Graph), predicateCounts(result.Graph))

	p.logger.WithFields(logrus.Fields{
		"nodes":  len(result.Graph.Nodes),
		"edges":  len(result.Graph.Edges),
		"loaded": result.Loaded(),
	}).Info("Extraction completed")

	return result, nil
}

func (p *TextPipeline) processOne(ctx context.Context, upload Upload, skills []string, types mapset.Set[string]) (*Document, DocumentReport, error) {
	timer := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("load"))
	doc, err := p.loader.Load(ctx, upload)
	timer.ObserveDuration()
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("loader", "load").Inc()
		return nil, DocumentReport{}, err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Name == "" {
		doc.Name = upload.Name
	}

	report := NewDocumentReport(doc)
	if report.Status == StatusEmpty {
		p.logger.WithField("file", upload.Name).Warn("No text extracted")
		return nil, report, nil
	}

	timer = prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("extract"))
	err = p.extractor.Extract(ctx, doc, skills)
	timer.ObserveDuration()
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("extractor", "extract").Inc()
		return nil, DocumentReport{}, fmt.Errorf("extract entities: %w", err)
	}

	doc.Entities = filterEntities(doc.Entities, types)
	report.Entities = len(doc.Entities)

	timer = prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues("relate"))
	doc.Relations, err = p.relations.Build(ctx, doc)
	timer.ObserveDuration()
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("relations", "build").Inc()
		return nil, DocumentReport{}, fmt.Errorf("build relations: %w", err)
	}
	doc.ProcessedAt = time.Now()

	return doc, report, nil
}

func filterEntities(entities []Entity, types mapset.Set[string]) []Entity {
	kept := entities[:0]
	for _, e := range entities {
		if types.Contains(e.Type) {
			kept = append(kept, e)
		}
	}
	return kept
}

func nodeTypeCounts(g *KnowledgeGraphData) map[string]int {
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

func predicateCounts(g *KnowledgeGraphData) map[string]int {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		counts[e.Predicate]++
	}
	return counts
}
