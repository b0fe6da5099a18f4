package process

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultWordsPerMinute is the reading speed used when the config does not
// override it.
const DefaultWordsPerMinute = 200

// EstimateReadingTime returns the estimated reading time of markdown content
// in whole minutes.
//
// Contract: markup is stripped before counting. Words are the
// whitespace-delimited tokens of the document's plain text (code block
// content included, marker syntax not), minutes = ceil(words/wordsPerMinute).
// Any content with at least one word reads in at least 1 minute; content that
// is empty, or strips to nothing, returns 0.
func EstimateReadingTime(markdown string, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}

	words := CountWords(markdown)
	if words == 0 {
		return 0
	}

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// CountWords counts the whitespace-delimited tokens of the plain text
// rendered out of the markdown AST.
func CountWords(markdown string) int {
	source := []byte(markdown)
	reader := text.NewReader(source)
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var buf strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			buf.WriteByte(' ')
		case *ast.CodeBlock:
			writeBlockLines(&buf, node.Lines(), source)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeBlockLines(&buf, node.Lines(), source)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return len(strings.Fields(buf.String()))
}

func writeBlockLines(buf *strings.Builder, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
		buf.WriteByte(' ')
	}
}
