package config

// ValidationConfig holds the frontmatter schema: which fields are required
// and the closed enumerations their values are drawn from. It is passed
// explicitly to the validator so deployments can configure their own sets.
type ValidationConfig struct {
	RequiredFields      []string `yaml:"required_fields,omitempty"`
	AllowedCategories   []string `yaml:"allowed_categories,omitempty"`
	AllowedDifficulties []string `yaml:"allowed_difficulties,omitempty"`
	AllowedLocales      []string `yaml:"allowed_locales,omitempty"`
}

// ChunkerConfig holds settings for search-index chunking
type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size,omitempty"` // Maximum chunk size in tokens
	ChunkOverlap int `yaml:"chunk_overlap,omitempty"`  // Overlap between chunks in tokens
}

// AppConfig holds the global application configuration
type AppConfig struct {
	ContentDir        string           `yaml:"content_dir"`
	OutputDir         string           `yaml:"output_dir"`
	StateDir          string           `yaml:"state_dir"`
	NumWorkers        int              `yaml:"num_workers,omitempty"`
	WordsPerMinute    int              `yaml:"words_per_minute,omitempty"`
	IncludePatterns   []string         `yaml:"include_patterns,omitempty"` // Doublestar globs relative to content_dir
	ExcludePatterns   []string         `yaml:"exclude_patterns,omitempty"`
	Validation        ValidationConfig `yaml:"validation,omitempty"`
	Chunker           ChunkerConfig    `yaml:"chunker,omitempty"`
	TokenizerEncoding string           `yaml:"tokenizer_encoding,omitempty"`
	EnableSearchIndex bool             `yaml:"enable_search_index,omitempty"`
	IndexFilename     string           `yaml:"index_filename,omitempty"`
	ChunksFilename    string           `yaml:"chunks_filename,omitempty"`
}

// knownFrontmatterFields are the field names the validator understands.
// A required_fields entry outside this set is a configuration error.
var knownFrontmatterFields = []string{
	"title", "description", "slug", "publishedAt", "updatedAt", "author",
	"category", "tags", "readingTime", "difficulty", "relatedPosts", "locale",
}

// DefaultRequiredFields is the required set used when the config omits one.
func DefaultRequiredFields() []string {
	return []string{
		"title", "description", "slug", "publishedAt", "author",
		"category", "tags", "readingTime", "locale",
	}
}

// DefaultAllowedCategories returns the site's post categories.
func DefaultAllowedCategories() []string {
	return []string{"hiragana", "katakana", "kanji", "vocabulary", "grammar", "culture"}
}

// DefaultAllowedDifficulties returns the site's difficulty levels.
func DefaultAllowedDifficulties() []string {
	return []string{"beginner", "intermediate", "advanced"}
}

// DefaultAllowedLocales returns the locales the site publishes in.
func DefaultAllowedLocales() []string {
	return []string{"en", "ja"}
}
