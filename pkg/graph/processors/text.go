package processors

import (
	"context"
	"strings"

	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// TextProcessor reads plain text uploads
type TextProcessor struct{}

// NewTextProcessor creates a new instance of TextProcessor.
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

// Process decodes the content as UTF-8, dropping invalid byte sequences.
func (p *TextProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	text := strings.ToValidUTF8(string(content), "")
	return newDocument(strings.TrimSpace(text), metadata), nil
}

// SupportedTypes returns the MIME types supported by the TextProcessor.
func (p *TextProcessor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

func newDocument(text string, metadata map[string]interface{}) *graph.Document {
	doc := &graph.Document{
		Content:  text,
		Metadata: metadata,
	}
	if name, ok := metadata["filename"].(string); ok {
		doc.Name = name
	}
	return doc
}
