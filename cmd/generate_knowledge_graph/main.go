package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/shreyaadani/Stier-kg-resume/pkg/app"
	"github.com/shreyaadani/Stier-kg-resume/pkg/config"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/processors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/query"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/storage"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/visualizer"
	"github.com/shreyaadani/Stier-kg-resume/pkg/logging"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("generate_knowledge_graph", pflag.ExitOnError)
	inputDir := flags.String("input", "", "Directory containing resumes or abstracts")
	outputFile := flags.String("output", "knowledge_graph.json", "Output file path for the knowledge graph")
	visualize := flags.Bool("visualize", false, "Generate a visualization of the knowledge graph")
	visualizeOutput := flags.String("viz-output", "knowledge_graph.html", "Output file for the visualization")
	types := flags.StringSlice("types", nil, "Entity types to keep (default: all but DATES and URLS)")
	minWeight := flags.Int("min-weight", 1, "Drop edges seen in fewer sentences")
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	if *inputDir == "" {
		logger.Fatal("Input directory must be specified")
	}

	typeMask, err := graph.ParseTypes(*types)
	if err != nil {
		logger.Fatalf("Invalid --types: %v", err)
	}

	skills, err := app.Skills(cfg)
	if err != nil {
		logger.Fatalf("Failed to load skills dictionary: %v", err)
	}

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Fatalf("NER model unavailable: %v", err)
	}

	loader := processors.NewLoader()
	files, err := readInputFiles(*inputDir, loader)
	if err != nil {
		logger.Fatalf("Failed to read input directory: %v", err)
	}
	if len(files) == 0 {
		logger.Fatal("No input files found")
	}

	logger.Infof("Processing %d input files...", len(files))

	uploads := make([]graph.Upload, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Errorf("Failed to read file %s: %v", file, err)
			continue
		}
		uploads = append(uploads, graph.Upload{Name: filepath.Base(file), Content: content})
	}

	req := graph.Request{Uploads: uploads, Skills: skills}
	if len(*types) > 0 {
		req.Types = typeMask
	}

	ctx := context.Background()
	result, err := pipeline.Process(ctx, req)
	if err != nil {
		logger.Fatalf("Failed to process documents: %v", err)
	}

	for _, report := range result.Reports {
		if report.Status != graph.StatusOK {
			logger.Warnf("%s: %s %s", report.Name, report.Status, report.Error)
		}
	}

	knowledgeGraph := result.Graph
	if *minWeight > 1 {
		knowledgeGraph = query.New().WithMinWeight(*minWeight).Apply(knowledgeGraph)
	}

	graphStore := storage.NewJSONGraphStore(*outputFile)
	if err := graphStore.StoreGraph(ctx, knowledgeGraph); err != nil {
		logger.Fatalf("Failed to store knowledge graph: %v", err)
	}

	logger.Infof("Knowledge graph generated with %d nodes and %d edges",
		len(knowledgeGraph.Nodes), len(knowledgeGraph.Edges))
	logger.Infof("Knowledge graph saved to %s", graphStore.Path())

	if *visualize {
		viz := visualizer.NewD3Visualizer(*visualizeOutput, visualizer.Options{
			Height:  cfg.GraphHeight,
			Physics: cfg.Physics,
		})
		if err := viz.Visualize(knowledgeGraph); err != nil {
			logger.Errorf("Failed to visualize knowledge graph: %v", err)
		} else {
			logger.Infof("Visualization saved to %s", *visualizeOutput)
		}
	}
}

// readInputFiles lists the files under inputDir the loader can read
func readInputFiles(inputDir string, loader *processors.Loader) ([]string, error) {
	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && loader.Supports(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	return files, err
}
