package app

import (
	"os"

	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/config"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/processors"
	"github.com/sirupsen/logrus"
)

// Skills returns the configured dictionary: the skills file, then the skills
// list, then the built-in list.
func Skills(cfg *config.Config) ([]string, error) {
	if cfg.SkillsFile != "" {
		data, err := os.ReadFile(cfg.SkillsFile)
		if err != nil {
			return nil, errors.Wrap(err, "read skills file")
		}
		return processors.ParseSkills(string(data)), nil
	}
	if len(cfg.Skills) > 0 {
		return cfg.Skills, nil
	}
	return processors.DefaultSkills, nil
}

// NewPipeline wires the loader, the prose-backed extractor and the relation
// builder. It fails when the NER model cannot be loaded.
func NewPipeline(cfg *config.Config, logger *logrus.Logger) (*graph.TextPipeline, error) {
	recognizer, err := processors.NewProseRecognizer()
	if err != nil {
		return nil, err
	}
	return NewPipelineWith(cfg, recognizer, logger)
}

// NewPipelineWith is NewPipeline with a given recognizer.
func NewPipelineWith(cfg *config.Config, recognizer processors.Recognizer, logger *logrus.Logger) (*graph.TextPipeline, error) {
	policy, err := processors.ParsePolicy(cfg.RelationRules)
	if err != nil {
		return nil, err
	}

	return graph.NewPipeline(
		processors.NewLoader(),
		processors.NewNLPProcessor(recognizer, logger),
		processors.NewCooccurrenceBuilder(policy, cfg.FallbackPredicate, logger),
		logger,
	), nil
}
