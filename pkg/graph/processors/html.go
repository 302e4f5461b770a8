package processors

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// HTMLProcessor is responsible for processing HTML content.
type HTMLProcessor struct{}

// NewHTMLProcessor creates a new instance of HTMLProcessor.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{}
}

// Process parses the HTML content and keeps the text of its body.
func (p *HTMLProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document from HTML content")
	}

	body := doc.Find("body")
	body.Find("script, style").Remove()

	// Block elements end a line so that sentence splitting sees them
	body.Find("p, li, div, h1, h2, h3, h4, h5, h6, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return newDocument(strings.TrimSpace(body.Text()), metadata), nil
}

// SupportedTypes returns the MIME types supported by the HTMLProcessor.
func (p *HTMLProcessor) SupportedTypes() []string {
	return []string{"text/html"}
}
