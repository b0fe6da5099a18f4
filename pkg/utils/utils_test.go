package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Overview", "overview"},
		{"spaces collapse", "Getting   Started", "getting-started"},
		{"punctuation collapses", "What's New?", "what-s-new"},
		{"mixed symbols", "Kanji: 音読み & 訓読み", "kanji"},
		{"leading and trailing symbols", "--Hello!--", "hello"},
		{"digits survive", "Lesson 42", "lesson-42"},
		{"all symbols", "!!!", ""},
		{"all non-ascii", "日本語", ""},
		{"empty", "", ""},
		{"already a slug", "hiragana-chart", "hiragana-chart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"my post.md", "my post.md"},
		{"a/b\\c", "a_b_c"},
		{"name:with*chars?", "name_with_chars"},
		{"", "untitled"},
		{"___", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestCalculateStringSHA256(t *testing.T) {
	h1 := CalculateStringSHA256("hello")
	h2 := CalculateStringSHA256("hello")
	h3 := CalculateStringSHA256("world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestCalculateFileSHA256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	fileHash, err := CalculateFileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, CalculateStringSHA256("hello"), fileHash)

	_, err = CalculateFileSHA256(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "None"},
		{"frontmatter parse", fmt.Errorf("%w: bad yaml", ErrFrontmatterParse), "Frontmatter_Parse"},
		{"frontmatter shape", ErrFrontmatterShape, "Frontmatter_Shape"},
		{"validation", fmt.Errorf("%w: 3 errors", ErrPostValidation), "Validation_Rejected"},
		{"duplicate slug", fmt.Errorf("%w: 'hiragana'", ErrDuplicateSlug), "Validation_DuplicateSlug"},
		{"dangling related", ErrDanglingRelated, "Validation_DanglingRelated"},
		{"parsing html", fmt.Errorf("%w: bad HTML input", ErrParsing), "Content_ParsingHTML"},
		{"parsing yaml", fmt.Errorf("%w: bad YAML input", ErrParsing), "Content_ParsingYAML"},
		{"parsing other", fmt.Errorf("%w: something else", ErrParsing), "Content_ParsingOther"},
		{"import", fmt.Errorf("%w: no title", ErrHTMLImport), "Import_HTML"},
		{"fs not exist", fmt.Errorf("%w: %w", ErrFilesystem, os.ErrNotExist), "Filesystem_NotExist"},
		{"fs other", fmt.Errorf("%w: disk weirdness", ErrFilesystem), "Filesystem_Other"},
		{"database", fmt.Errorf("%w: txn conflict", ErrDatabase), "Database_Other"},
		{"config", fmt.Errorf("%w: content_dir missing", ErrConfigValidation), "Config_Validation"},
		{"unknown", fmt.Errorf("mystery"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}
