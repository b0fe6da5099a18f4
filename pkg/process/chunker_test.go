package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/models"
)

func chunkerCfg() config.ChunkerConfig {
	return config.ChunkerConfig{MaxChunkSize: 512, ChunkOverlap: 50}
}

func testPost(content string) models.BlogPost {
	return models.BlogPost{
		Meta:    models.BlogPostMeta{Slug: "test-post", Locale: "en", Title: "Test Post"},
		Content: content,
	}
}

func TestChunkPost_Empty(t *testing.T) {
	chunks, err := ChunkPost(testPost(""), chunkerCfg())
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = ChunkPost(testPost("  \n \t "), chunkerCfg())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkPost_SmallBody(t *testing.T) {
	chunks, err := ChunkPost(testPost("## Overview\n\nA short section.\n"), chunkerCfg())
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	joined := ""
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
		joined += c.Content
	}
	assert.Contains(t, joined, "short section")
}

func TestChunkPost_LongBodySplits(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString("## Section\n\n")
		sb.WriteString(strings.Repeat("kanji practice sentence with several words in it. ", 40))
		sb.WriteString("\n\n")
	}

	chunks, err := ChunkPost(testPost(sb.String()), config.ChunkerConfig{MaxChunkSize: 200, ChunkOverlap: 20})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}

func TestChunkHeadings(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			"hierarchy preserved",
			"# Title\n## Section A\nbody\n### Sub\n",
			[]string{"Title", "Section A", "Sub"},
		},
		{"no headings", "just prose", nil},
		{"malformed marker ignored", "##NoSpace\n## Real\n", []string{"Real"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, chunkHeadings(tt.content))
		})
	}
}
