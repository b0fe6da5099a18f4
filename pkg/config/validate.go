package config

import (
	"fmt"
	"slices"

	"kotoba-press/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// ContentDir
	if c.ContentDir == "" {
		warnings = append(warnings, "content_dir is empty, defaulting to './content'")
		c.ContentDir = "./content"
	}

	// OutputDir
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './public'")
		c.OutputDir = "./public"
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './build_state'")
		c.StateDir = "./build_state"
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// WordsPerMinute
	if c.WordsPerMinute <= 0 {
		warnings = append(warnings, "words_per_minute should be > 0, defaulting to 200")
		c.WordsPerMinute = 200
	}

	// IncludePatterns
	if len(c.IncludePatterns) == 0 {
		c.IncludePatterns = []string{"**/*.md", "**/*.mdx"}
	}

	// Chunker defaults
	if c.Chunker.MaxChunkSize <= 0 {
		c.Chunker.MaxChunkSize = 512
	}
	if c.Chunker.ChunkOverlap < 0 {
		warnings = append(warnings, "chunker.chunk_overlap cannot be negative, setting to 0")
		c.Chunker.ChunkOverlap = 0
	}
	if c.Chunker.ChunkOverlap == 0 && c.Chunker.MaxChunkSize == 512 {
		c.Chunker.ChunkOverlap = 50
	}

	// Output filenames
	if c.IndexFilename == "" {
		c.IndexFilename = "index.yaml"
	}
	if c.EnableSearchIndex && c.ChunksFilename == "" {
		warnings = append(warnings,
			"'enable_search_index' is true but 'chunks_filename' is empty. Defaulting to 'chunks.jsonl'")
		c.ChunksFilename = "chunks.jsonl"
	}

	// Validation schema (can fail fatally)
	vWarnings, vErr := c.Validation.Validate()
	warnings = append(warnings, vWarnings...)
	if vErr != nil {
		return warnings, vErr
	}

	return warnings, nil
}

// Validate checks the frontmatter schema configuration and applies the
// site defaults for any omitted set. A required field the validator does
// not know how to check is a fatal error.
func (v *ValidationConfig) Validate() (warnings []string, err error) {
	if len(v.RequiredFields) == 0 {
		v.RequiredFields = DefaultRequiredFields()
	}
	if len(v.AllowedCategories) == 0 {
		warnings = append(warnings, "validation.allowed_categories is empty, using site defaults")
		v.AllowedCategories = DefaultAllowedCategories()
	}
	if len(v.AllowedDifficulties) == 0 {
		v.AllowedDifficulties = DefaultAllowedDifficulties()
	}
	if len(v.AllowedLocales) == 0 {
		warnings = append(warnings, "validation.allowed_locales is empty, using site defaults")
		v.AllowedLocales = DefaultAllowedLocales()
	}

	for _, field := range v.RequiredFields {
		if !slices.Contains(knownFrontmatterFields, field) {
			return warnings, fmt.Errorf("%w: unknown required field %q", utils.ErrConfigValidation, field)
		}
	}

	return warnings, nil
}
