package processors

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/shreyaadani/Stier-kg-resume/pkg/graph"
)

// SplitSentences returns the sentence boundaries of text. Every line is
// its own block, since resumes rarely end a line with punctuation; within
// a line prose's sentence segmenter decides.
func SplitSentences(text string) []graph.Sentence {
	sentences := make([]graph.Sentence, 0)

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)

		if strings.TrimSpace(line) == "" {
			continue
		}

		for _, span := range segmentLine(line) {
			sentences = append(sentences, graph.Sentence{
				Index:    len(sentences),
				Text:     line[span[0]:span[1]],
				StartPos: lineStart + span[0],
				EndPos:   lineStart + span[1],
			})
		}
	}

	return sentences
}

// segmentLine returns [start, end) byte spans of the sentences in line.
func segmentLine(line string) [][2]int {
	trimmedStart := len(line) - len(strings.TrimLeft(line, " \t\r\n"))
	trimmedEnd := len(strings.TrimRight(line, " \t\r\n"))
	whole := [][2]int{{trimmedStart, trimmedEnd}}

	doc, err := prose.NewDocument(line,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return whole
	}

	spans := make([][2]int, 0)
	cursor := 0
	for _, sent := range doc.Sentences() {
		s := strings.TrimSpace(sent.Text)
		if s == "" {
			continue
		}
		idx := strings.Index(line[cursor:], s)
		if idx < 0 {
			// The segmenter rewrote the text; keep the rest of the line as one sentence.
			rest := strings.TrimSpace(line[cursor:])
			if rest != "" {
				start := cursor + strings.Index(line[cursor:], rest)
				spans = append(spans, [2]int{start, start + len(rest)})
			}
			return spans
		}
		start := cursor + idx
		spans = append(spans, [2]int{start, start + len(s)})
		cursor = start + len(s)
	}

	if len(spans) == 0 {
		return whole
	}
	return spans
}
