package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/frontmatter"
	"kotoba-press/pkg/utils"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Counting in Japanese</title>
  <meta name="description" content="Numbers and counters explained.">
</head>
<body>
  <article>
    <h1>Counting in Japanese</h1>
    <h2>Basic Numbers</h2>
    <p>Ichi, ni, san.</p>
    <h2>Counters</h2>
    <p>Different objects use different counter words.</p>
  </article>
</body>
</html>`

func newTestImporter(t *testing.T) (*Importer, config.AppConfig) {
	t.Helper()
	cfg := config.AppConfig{ContentDir: t.TempDir()}
	_, err := cfg.Validate()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewImporter(cfg, logger), cfg
}

func writeHTML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "article.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportFile_ScaffoldsValidPost(t *testing.T) {
	im, cfg := newTestImporter(t)

	outPath, err := im.ImportFile(writeHTML(t, sampleHTML), Options{Author: "Mei Sato"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ContentDir, "en", "counting-in-japanese.md"), outPath)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	doc, err := frontmatter.Split(raw)
	require.NoError(t, err)

	assert.Equal(t, "Counting in Japanese", doc.Meta.Title)
	assert.Equal(t, "Numbers and counters explained.", doc.Meta.Description)
	assert.Equal(t, "counting-in-japanese", doc.Meta.Slug)
	assert.Equal(t, "Mei Sato", doc.Meta.Author)
	assert.Equal(t, "en", doc.Meta.Locale)
	assert.Equal(t, []string{"imported"}, doc.Meta.Tags)
	assert.GreaterOrEqual(t, doc.Meta.ReadingTime, 1)

	// h1 dropped, section headings preserved as markdown.
	assert.NotContains(t, doc.Body, "# Counting in Japanese\n")
	assert.Contains(t, doc.Body, "## Basic Numbers")
	assert.Contains(t, doc.Body, "## Counters")
	assert.Contains(t, doc.Body, "Ichi, ni, san.")
}

func TestImportFile_OptionsOverride(t *testing.T) {
	im, cfg := newTestImporter(t)

	outPath, err := im.ImportFile(writeHTML(t, sampleHTML), Options{
		Slug:     "custom-slug",
		Category: "vocabulary",
		Locale:   "ja",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ContentDir, "ja", "custom-slug.md"), outPath)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc, err := frontmatter.Split(raw)
	require.NoError(t, err)

	assert.Equal(t, "custom-slug", doc.Meta.Slug)
	assert.Equal(t, "vocabulary", doc.Meta.Category)
	assert.Equal(t, "ja", doc.Meta.Locale)
}

func TestImportFile_RefusesOverwrite(t *testing.T) {
	im, _ := newTestImporter(t)
	htmlPath := writeHTML(t, sampleHTML)

	_, err := im.ImportFile(htmlPath, Options{})
	require.NoError(t, err)

	_, err = im.ImportFile(htmlPath, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestImportFile_NoTitle(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.ImportFile(writeHTML(t, `<html><body><p>anonymous text</p></body></html>`), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrHTMLImport)
}

func TestImportFile_MissingFile(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.ImportFile(filepath.Join(t.TempDir(), "nope.html"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrFilesystem)
}

func TestImportFile_H1FallbackTitle(t *testing.T) {
	im, _ := newTestImporter(t)

	html := `<html><body><article><h1>Particle Guide</h1><p>Wa and ga.</p></article></body></html>`
	outPath, err := im.ImportFile(writeHTML(t, html), Options{})
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc, err := frontmatter.Split(raw)
	require.NoError(t, err)
	assert.Equal(t, "Particle Guide", doc.Meta.Title)
	assert.Equal(t, "particle-guide", doc.Meta.Slug)
}
