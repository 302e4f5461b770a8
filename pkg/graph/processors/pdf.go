package processors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// PDFProcessor extracts the plain text of every page of a PDF
type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

// Process returns an error for unreadable files. The pdf library panics on
// some malformed inputs, so those are turned into errors as well.
func (p *PDFProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (doc *graph.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}

	pages := make([]string, 0, r.NumPage())
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	return newDocument(strings.TrimSpace(strings.Join(pages, "\n")), metadata), nil
}

func (p *PDFProcessor) SupportedTypes() []string {
	return []string{"application/pdf"}
}
