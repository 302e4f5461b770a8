package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/algorithms"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/metrics"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/processors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/query"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/storage"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/visualizer"
	"github.com/shreyaadani/Stier-kg-resume/pkg/logging"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"join":  strings.Join,
	"color": visualizer.ColorFor,
}).ParseFS(templateFiles, "templates/*.html"))

// Pipeline runs one extraction request
type Pipeline interface {
	Process(ctx context.Context, req graph.Request) (*graph.Result, error)
}

// Options configures the server
type Options struct {
	Skills      []string // dictionary used when the form carries none
	UploadLimit int64    // bytes per request
	Physics     bool
	GraphHeight int
}

// Server represents the web server
type Server struct {
	router   *mux.Router
	pipeline Pipeline
	options  Options
	logger   *logrus.Logger
}

// NewServer creates a new web server
func NewServer(pipeline Pipeline, opts Options, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = 32 << 20
	}
	if opts.GraphHeight <= 0 {
		opts.GraphHeight = visualizer.DefaultOptions().Height
	}

	s := &Server{
		router:   mux.NewRouter(),
		pipeline: pipeline,
		options:  opts,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the request logging middleware.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.logger)(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/extract", s.handleExtract).Methods("POST")
	s.router.HandleFunc("/api/extract", s.handleAPIExtract).Methods("POST")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metricsHandler()).Methods("GET")
}

func metricsHandler() http.Handler {
	h := promhttp.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.UpdateSystemMetrics()
		h.ServeHTTP(w, r)
	})
}

// extractParams is a parsed extraction form
type extractParams struct {
	request   graph.Request
	physics   bool
	minWeight int
	focus     string
	depth     int
}

// ExtractResponse is the body of POST /api/extract
type ExtractResponse struct {
	Graph     *storage.ExportDocument `json:"graph"`
	Reports   []graph.DocumentReport  `json:"reports"`
	Entities  map[string][]string     `json:"entities"`
	Relations []RelationRow           `json:"relations"`
	Stats     algorithms.Stats        `json:"stats"`
}

// RelationRow is one edge with readable endpoints
type RelationRow struct {
	Subject   string   `json:"subject"`
	Predicate string   `json:"predicate"`
	Object    string   `json:"object"`
	Weight    int      `json:"weight"`
	Evidence  []string `json:"evidence,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	defaults := graph.DefaultTypes()
	types := make([]typeOption, 0, len(graph.AllTypes))
	for _, t := range graph.AllTypes {
		types = append(types, typeOption{Name: t, Checked: defaults.Contains(t)})
	}

	s.render(w, r, "index.html", map[string]interface{}{
		"Skills":      strings.Join(s.options.Skills, ", "),
		"Types":       types,
		"Physics":     s.options.Physics,
		"Extensions":  ".txt,.md,.pdf,.html,.htm",
		"GraphHeight": s.options.GraphHeight,
	})
}

type typeOption struct {
	Name    string
	Checked bool
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	params, result, g, ok := s.extract(w, r)
	if !ok {
		return
	}
	log := logging.FromContext(r.Context(), s.logger)

	page, err := visualizer.RenderString(g, visualizer.Options{
		Height:  s.options.GraphHeight,
		Physics: params.physics,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render graph")
		http.Error(w, "failed to render graph", http.StatusInternalServerError)
		return
	}

	export, err := storage.Marshal(g)
	if err != nil {
		log.WithError(err).Error("Failed to export graph")
		http.Error(w, "failed to export graph", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "results.html", map[string]interface{}{
		"Reports":     result.Reports,
		"Loaded":      result.Loaded(),
		"Entities":    orderedGroups(g),
		"Relations":   relationRows(g),
		"Stats":       algorithms.Summarize(g, 10),
		"GraphPage":   page,
		"GraphHeight": s.options.GraphHeight + 20,
		"Download":    template.URL("data:application/json;base64," + base64.StdEncoding.EncodeToString(export)),
		"Focus":       params.focus,
	})
}

func (s *Server) handleAPIExtract(w http.ResponseWriter, r *http.Request) {
	_, result, g, ok := s.extract(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		Graph:     storage.Export(g),
		Reports:   result.Reports,
		Entities:  entityGroups(g),
		Relations: relationRows(g),
		Stats:     algorithms.Summarize(g, 10),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extract parses the form, runs the pipeline and narrows the graph. It writes
// the error response itself and returns ok=false when the request failed.
func (s *Server) extract(w http.ResponseWriter, r *http.Request) (extractParams, *graph.Result, *graph.KnowledgeGraphData, bool) {
	log := logging.FromContext(r.Context(), s.logger)

	params, err := s.parseForm(w, r)
	if err != nil {
		log.WithError(err).Warn("Invalid extraction request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return params, nil, nil, false
	}

	result, err := s.pipeline.Process(r.Context(), params.request)
	if err != nil {
		if errors.Is(err, graph.ErrNoUploads) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return params, nil, nil, false
		}
		log.WithError(err).Error("Extraction failed")
		http.Error(w, "extraction failed", http.StatusInternalServerError)
		return params, nil, nil, false
	}

	g := result.Graph
	if params.minWeight > 1 {
		g = query.New().WithMinWeight(params.minWeight).Apply(g)
	}
	if params.focus != "" {
		g, err = algorithms.Focus(g, params.focus, params.depth)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, algorithms.ErrNodeNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return params, nil, nil, false
		}
	}

	return params, result, g, true
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (extractParams, error) {
	params := extractParams{
		physics:   s.options.Physics,
		minWeight: 1,
		depth:     1,
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.options.UploadLimit)
	if err := r.ParseMultipartForm(s.options.UploadLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return params, fmt.Errorf("upload exceeds %d MiB", s.options.UploadLimit>>20)
		}
		return params, fmt.Errorf("invalid form: %w", err)
	}
	form := r.MultipartForm

	for _, fh := range form.File["files"] {
		upload, err := readUpload(fh)
		if err != nil {
			return params, err
		}
		params.request.Uploads = append(params.request.Uploads, upload)
	}

	if values, ok := form.Value["skills"]; ok {
		params.request.Skills = processors.ParseSkills(strings.Join(values, ","))
	} else {
		params.request.Skills = s.options.Skills
	}

	if values, ok := form.Value["types"]; ok {
		types, err := graph.ParseTypes(values)
		if err != nil {
			return params, err
		}
		params.request.Types = types
	}

	var err error
	if v := form.Value["physics"]; len(v) > 0 && v[0] != "" {
		if params.physics, err = strconv.ParseBool(v[0]); err != nil {
			return params, fmt.Errorf("invalid physics value %q", v[0])
		}
	}
	if v := form.Value["min_weight"]; len(v) > 0 && v[0] != "" {
		if params.minWeight, err = strconv.Atoi(v[0]); err != nil || params.minWeight < 1 {
			return params, fmt.Errorf("invalid min_weight %q", v[0])
		}
	}
	if v := form.Value["depth"]; len(v) > 0 && v[0] != "" {
		if params.depth, err = strconv.Atoi(v[0]); err != nil || params.depth < 0 {
			return params, fmt.Errorf("invalid depth %q", v[0])
		}
	}
	if v := form.Value["focus"]; len(v) > 0 {
		params.focus = strings.TrimSpace(v[0])
	}

	return params, nil
}

func readUpload(fh *multipart.FileHeader) (graph.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return graph.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return graph.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return graph.Upload{Name: fh.Filename, Content: content}, nil
}

// entityGroups lists node labels per type.
func entityGroups(g *graph.KnowledgeGraphData) map[string][]string {
	groups := make(map[string][]string)
	for _, n := range g.Nodes {
		groups[n.Type] = append(groups[n.Type], n.Label)
	}
	return groups
}

type entityGroup struct {
	Type   string
	Labels []string
}

// orderedGroups is entityGroups in type rank order, for pages.
func orderedGroups(g *graph.KnowledgeGraphData) []entityGroup {
	groups := entityGroups(g)
	ordered := make([]entityGroup, 0, len(groups))
	for _, t := range graph.AllTypes {
		if labels, ok := groups[t]; ok {
			ordered = append(ordered, entityGroup{Type: t, Labels: labels})
		}
	}
	return ordered
}

func relationRows(g *graph.KnowledgeGraphData) []RelationRow {
	rows := make([]RelationRow, 0, len(g.Edges))
	for _, e := range g.Edges {
		source, _ := g.NodeByID(e.Source)
		target, _ := g.NodeByID(e.Target)
		rows = append(rows, RelationRow{
			Subject:   source.Label,
			Predicate: e.Predicate,
			Object:    target.Label,
			Weight:    e.Weight,
			Evidence:  e.Evidence,
		})
	}
	return rows
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logging.FromContext(r.Context(), s.logger).WithError(err).WithField("template", name).Error("Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
