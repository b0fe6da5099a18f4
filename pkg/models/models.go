package models

import "time"

// Heading is a single table-of-contents entry extracted from a post body.
// IDs are URL-fragment-safe and unique within one extraction run.
type Heading struct {
	ID    string `yaml:"id" json:"id"`
	Text  string `yaml:"text" json:"text"`
	Level int    `yaml:"level" json:"level"` // 2-4; level 1 is the post title and never appears here
}

// ValidationResult reports every frontmatter violation found in one pass.
// IsValid is true exactly when Errors is empty.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// BlogPostMeta is the frontmatter shape of a post content file.
type BlogPostMeta struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Slug         string   `yaml:"slug"`
	PublishedAt  string   `yaml:"publishedAt"` // YYYY-MM-DD
	UpdatedAt    string   `yaml:"updatedAt,omitempty"`
	Author       string   `yaml:"author"`
	Category     string   `yaml:"category"`
	Tags         []string `yaml:"tags"`
	ReadingTime  int      `yaml:"readingTime"`
	Difficulty   string   `yaml:"difficulty,omitempty"`
	RelatedPosts []string `yaml:"relatedPosts,omitempty"` // slugs of other posts
	Locale       string   `yaml:"locale"`
}

// BlogPost is a fully loaded post: parsed metadata, body markdown, and the
// navigation data derived from it.
type BlogPost struct {
	Meta     BlogPostMeta `yaml:"meta"`
	Content  string       `yaml:"-"`
	Headings []Heading    `yaml:"headings,omitempty"`

	// SourcePath is the content file this post was loaded from,
	// relative to the content directory.
	SourcePath string `yaml:"source_path"`
}

// PostDBEntry stores the build result for a post source file in the state
// database. It carries enough to decide whether a file needs re-processing
// and to report why a previous build rejected it.
type PostDBEntry struct {
	Status           string    `json:"status"`                      // "success" or "failure"
	ContentHash      string    `json:"content_hash,omitempty"`      // SHA-256 of the raw content file
	ErrorType        string    `json:"error_type,omitempty"`        // Error category (on failure)
	ValidationErrors []string  `json:"validation_errors,omitempty"` // Frontmatter violations (on failure)
	Slug             string    `json:"slug,omitempty"`
	ProcessedAt      time.Time `json:"processed_at,omitempty"` // Timestamp of successful processing
	LastAttempt      time.Time `json:"last_attempt"`           // Timestamp of the last build attempt
}

// PostIndex is the per-build artifact listing every valid post, written as
// index.yaml in the output directory and consumed by the site renderer.
type PostIndex struct {
	BuildID     string     `yaml:"build_id"`
	GeneratedAt time.Time  `yaml:"generated_at"`
	TotalPosts  int        `yaml:"total_posts"`
	Posts       []BlogPost `yaml:"posts"`
}

// ChunkJSONL is one line of the chunks.jsonl search-index artifact.
type ChunkJSONL struct {
	Slug       string   `json:"slug"`
	Locale     string   `json:"locale"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Headings   []string `json:"headings,omitempty"`
	TokenCount int      `json:"token_count,omitempty"`
}
