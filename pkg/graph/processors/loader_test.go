package processors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

func TestLoaderText(t *testing.T) {
	l := NewLoader()

	doc, err := l.Load(context.Background(), graph.Upload{
		Name:    "Resume.TXT",
		Content: []byte("  Jane Doe\xff worked at Acme Corp.  \n"),
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Content != "Jane Doe worked at Acme Corp." {
		t.Errorf("Unexpected content %q", doc.Content)
	}
	if doc.Name != "Resume.TXT" {
		t.Errorf("Expected document name Resume.TXT, got %q", doc.Name)
	}
	if doc.Metadata["extension"] != ".txt" {
		t.Errorf("Expected extension metadata .txt, got %v", doc.Metadata["extension"])
	}
}

func TestLoaderHTML(t *testing.T) {
	html := `<html><head><title>CV</title><style>p {}</style></head>
<body><h1>Jane Doe</h1><script>track()</script><p>Engineer at Acme Corp</p><ul><li>Go</li><li>SQL</li></ul></body></html>`

	doc, err := NewLoader().Load(context.Background(), graph.Upload{Name: "cv.html", Content: []byte(html)})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, want := range []string{"Jane Doe", "Engineer at Acme Corp", "Go", "SQL"} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("Expected content to contain %q, got %q", want, doc.Content)
		}
	}
	if strings.Contains(doc.Content, "track()") {
		t.Errorf("Expected scripts to be removed, got %q", doc.Content)
	}
	if !strings.Contains(doc.Content, "Jane Doe\n") {
		t.Errorf("Expected block elements on their own line, got %q", doc.Content)
	}
}

func TestLoaderCorruptPDF(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), graph.Upload{
		Name:    "broken.pdf",
		Content: []byte("this is not a pdf"),
	})
	if err == nil {
		t.Fatal("Expected an error for a corrupt PDF")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("Expected error to name the file, got %v", err)
	}
}

func TestLoaderUnsupportedType(t *testing.T) {
	l := NewLoader()

	_, err := l.Load(context.Background(), graph.Upload{Name: "resume.docx", Content: []byte("x")})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}

	if l.Supports("resume.docx") {
		t.Error("Expected .docx to be unsupported")
	}
	if !l.Supports("notes.MD") {
		t.Error("Expected .md to be supported")
	}
}

func TestLoaderRegister(t *testing.T) {
	l := NewLoader()
	l.Register(".RTF", NewTextProcessor())

	if !l.Supports("cv.rtf") {
		t.Error("Expected registered extension to be supported")
	}
	if len(l.Extensions()) != 6 {
		t.Errorf("Expected 6 extensions, got %v", l.Extensions())
	}
}
