package process

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/models"
)

// Chunk is one unit of a post's body prepared for the site search index.
type Chunk struct {
	Content    string   // The chunk content (heading context prepended by the splitter)
	Headings   []string // Headings present in this chunk, outermost first
	TokenCount int      // Token count for this chunk, -1 when unavailable
}

// headingLineRegex matches markdown headings at the start of lines.
var headingLineRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// ChunkPost splits a post body into search-index chunks: primary split on
// markdown headers (preserving heading hierarchy for retrieval context), with
// recursive character splitting as fallback for oversized sections. Length is
// measured in tokens when the tokenizer is initialized, runes otherwise.
func ChunkPost(post models.BlogPost, cfg config.ChunkerConfig) ([]Chunk, error) {
	if strings.TrimSpace(post.Content) == "" {
		return nil, nil
	}

	lenFunc := func(s string) int {
		if n := CountTokens(s); n >= 0 {
			return n
		}
		return len([]rune(s))
	}

	recursiveSplitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithLenFunc(lenFunc),
	)

	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithChunkSize(cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSecondSplitter(recursiveSplitter),
		textsplitter.WithLenFunc(lenFunc),
	)

	parts, err := splitter.SplitText(post.Content)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    part,
			Headings:   chunkHeadings(part),
			TokenCount: CountTokens(part),
		})
	}

	return chunks, nil
}

// chunkHeadings lists the heading texts appearing in chunk content, in order.
func chunkHeadings(content string) []string {
	matches := headingLineRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	headings := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) >= 3 {
			heading := strings.TrimSpace(match[2])
			if heading != "" {
				headings = append(headings, heading)
			}
		}
	}
	return headings
}
