package processors

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph/metrics"
)

// ErrUnsupportedType is returned for uploads whose extension has no processor
var ErrUnsupportedType = errors.New("unsupported file type")

// Loader dispatches uploads to a DocumentProcessor by file extension
type Loader struct {
	processors map[string]graph.DocumentProcessor
}

// NewLoader creates a loader for TXT, Markdown, PDF and HTML files.
func NewLoader() *Loader {
	text := NewTextProcessor()
	html := NewHTMLProcessor()

	return &Loader{
		processors: map[string]graph.DocumentProcessor{
			".txt":  text,
			".md":   text,
			".pdf":  NewPDFProcessor(),
			".html": html,
			".htm":  html,
		},
	}
}

// Register adds or replaces the processor for an extension such as ".rtf".
func (l *Loader) Register(ext string, p graph.DocumentProcessor) {
	l.processors[strings.ToLower(ext)] = p
}

// Supports reports whether the file name has a registered extension.
func (l *Loader) Supports(name string) bool {
	_, ok := l.processors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the registered extensions.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.processors))
	for ext := range l.processors {
		exts = append(exts, ext)
	}
	return exts
}

// Load extracts the plain text of one upload.
func (l *Loader) Load(ctx context.Context, upload graph.Upload) (*graph.Document, error) {
	ext := strings.ToLower(filepath.Ext(upload.Name))
	p, ok := l.processors[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedType, "%s", upload.Name)
	}

	metrics.UploadBytes.Observe(float64(len(upload.Content)))

	doc, err := p.Process(ctx, upload.Content, map[string]interface{}{
		"filename":  upload.Name,
		"extension": ext,
		"size":      len(upload.Content),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", upload.Name)
	}
	doc.Name = upload.Name
	return doc, nil
}
