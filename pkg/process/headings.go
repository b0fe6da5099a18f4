package process

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"kotoba-press/pkg/models"
	"kotoba-press/pkg/utils"
)

// Table-of-contents heading levels. Level 1 is the post title, rendered
// separately by the site layout, and never appears in the extracted sequence.
const (
	minTOCLevel = 2
	maxTOCLevel = 4
)

// ExtractHeadings parses markdown content and extracts level 2-4 headings in
// document order, assigning each a URL-fragment-safe id that is unique within
// this call. Headings whose text slugifies to nothing get a positional
// `section-<n>` id; textual duplicates get the smallest free `-2`, `-3`, ...
// suffix. Malformed heading syntax is ordinary body text; this never fails.
func ExtractHeadings(markdown []byte) []models.Heading {
	reader := text.NewReader(markdown)
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var headings []models.Heading
	assigned := make(map[string]bool) // every id handed out in this run

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level < minTOCLevel || heading.Level > maxTOCLevel {
			return ast.WalkSkipChildren, nil
		}

		headingText := headingText(heading, markdown)
		if headingText == "" {
			return ast.WalkSkipChildren, nil
		}

		candidate := utils.Slugify(headingText)
		if candidate == "" {
			candidate = fmt.Sprintf("section-%d", len(headings)+1)
		}

		id := candidate
		for suffix := 2; assigned[id]; suffix++ {
			id = fmt.Sprintf("%s-%d", candidate, suffix)
		}
		assigned[id] = true

		headings = append(headings, models.Heading{
			ID:    id,
			Text:  headingText,
			Level: heading.Level,
		})
		return ast.WalkSkipChildren, nil
	})

	return headings
}

// headingText concatenates the text segments under a heading node, so text
// nested in emphasis or links is still captured.
func headingText(heading *ast.Heading, markdown []byte) string {
	var buf bytes.Buffer
	ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(markdown))
		}
		return ast.WalkContinue, nil
	})
	return string(bytes.TrimSpace(buf.Bytes()))
}
