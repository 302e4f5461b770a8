package graph

import (
	"regexp"
	"strings"
)

// Upload is a named file as received from the UI or read from disk
type Upload struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// Report statuses for a single upload
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

const previewLength = 1000

// DocumentReport describes what happened to one upload
type DocumentReport struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Chars    int    `json:"chars"`
	Entities int    `json:"entities"`
	Preview  string `json:"preview,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewDocumentReport builds the report for a successfully loaded document.
func NewDocumentReport(doc *Document) DocumentReport {
	report := DocumentReport{
		Name:   doc.Name,
		Status: StatusOK,
		Chars:  len([]rune(doc.Content)),
	}
	if report.Chars == 0 {
		report.Status = StatusEmpty
		return report
	}

	runes := []rune(doc.Content)
	if len(runes) > previewLength {
		report.Preview = string(runes[:previewLength]) + "..."
	} else {
		report.Preview = doc.Content
	}
	return report
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	bulletPrefix  = []string{"•", "-", "—", "*", "·"}
)

const trimNoise = "·•-—*, .;:"

// CleanText strips bullet prefixes and surrounding noise and collapses whitespace.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, p := range bulletPrefix {
			if strings.HasPrefix(s, p) {
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.Trim(s, trimNoise)
}

// NormalizeText is CleanText folded to lower case.
func NormalizeText(s string) string {
	return strings.ToLower(CleanText(s))
}

// EntityKey is the node uniqueness key: type plus normalized text.
func EntityKey(typ, text string) string {
	return typ + "|" + NormalizeText(text)
}
