// Package frontmatter splits YAML frontmatter from markdown post bodies.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"kotoba-press/pkg/models"
	"kotoba-press/pkg/utils"
)

var delimiter = []byte("---")

// Document is the result of splitting a content file: the raw frontmatter
// fields (for the validator), the typed metadata, and the markdown body.
type Document struct {
	Fields map[string]any
	Meta   models.BlogPostMeta
	Body   string
}

// Split parses a `---`-delimited YAML frontmatter block off the front of a
// content file. The same YAML block is decoded twice: once into a raw map so
// the validator can check presence and shape without assuming types, and once
// into the typed BlogPostMeta for downstream consumers.
func Split(content []byte) (*Document, error) {
	if !bytes.HasPrefix(content, delimiter) {
		return nil, fmt.Errorf("%w: document does not start with '---'", utils.ErrFrontmatterShape)
	}

	// Skip the rest of the opening line (could be "---\n" or "---\r\n").
	rest := content[len(delimiter):]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		return nil, fmt.Errorf("%w: nothing after opening delimiter", utils.ErrFrontmatterShape)
	}
	rest = rest[idx+1:]

	// The closing delimiter must start a line; it may be the line right
	// after the opening one (empty frontmatter block).
	var block, tail []byte
	if bytes.HasPrefix(rest, delimiter) {
		tail = rest[len(delimiter):]
	} else {
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return nil, fmt.Errorf("%w: closing '---' not found", utils.ErrFrontmatterShape)
		}
		block = rest[:end]
		tail = rest[end+1+len(delimiter):]
	}

	var fields map[string]any
	if err := yaml.Unmarshal(block, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrFrontmatterParse, err)
	}
	if fields == nil {
		fields = make(map[string]any)
	}

	var meta models.BlogPostMeta
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrFrontmatterParse, err)
	}

	// Body starts after the closing delimiter line. One blank separator line
	// after the delimiter is formatting, not body text; consuming it keeps
	// Split an exact inverse of Stringify.
	var body []byte
	if nl := bytes.IndexByte(tail, '\n'); nl >= 0 {
		body = tail[nl+1:]
	}
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	return &Document{
		Fields: fields,
		Meta:   meta,
		Body:   string(body),
	}, nil
}

// Stringify renders metadata and body back into a content file, used by the
// HTML importer to scaffold new posts.
func Stringify(meta models.BlogPostMeta, body string) (string, error) {
	yamlBytes, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("%w: YAML marshal: %v", utils.ErrParsing, err)
	}
	return "---\n" + string(yamlBytes) + "---\n\n" + body, nil
}
