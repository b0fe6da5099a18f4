// Package importer converts legacy HTML articles into markdown post files
// with a frontmatter scaffold, ready for editing and validation.
package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/frontmatter"
	"kotoba-press/pkg/models"
	"kotoba-press/pkg/process"
	"kotoba-press/pkg/utils"
)

// contentSelectors are tried in order to locate the article body.
var contentSelectors = []string{"article", "main", "body"}

// Importer turns HTML articles into content files under the content dir.
type Importer struct {
	cfg config.AppConfig
	log *logrus.Entry
}

// Options override the scaffold metadata derived from the HTML document.
type Options struct {
	Slug     string
	Author   string
	Category string
	Locale   string
}

// NewImporter creates an Importer
func NewImporter(cfg config.AppConfig, logger *logrus.Logger) *Importer {
	return &Importer{
		cfg: cfg,
		log: logger.WithField("component", "importer"),
	}
}

// ImportFile converts one HTML file into a markdown post and writes it as
// <content_dir>/<locale>/<slug>.md. Returns the written path.
func (im *Importer) ImportFile(htmlPath string, opts Options) (string, error) {
	raw, err := os.ReadFile(htmlPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, htmlPath, err)
	}

	post, err := im.convert(raw, opts)
	if err != nil {
		return "", err
	}

	out, err := frontmatter.Stringify(post.Meta, post.Content)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(im.cfg.ContentDir, post.Meta.Locale, post.Meta.Slug+".md")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, filepath.Dir(outPath), err)
	}
	if _, statErr := os.Stat(outPath); statErr == nil {
		return "", fmt.Errorf("%w: %s already exists: %w", utils.ErrFilesystem, outPath, os.ErrExist)
	}
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, outPath, err)
	}

	im.log.Infof("Imported %s -> %s", htmlPath, outPath)
	return outPath, nil
}

// convert builds the scaffolded post from raw HTML.
func (im *Importer) convert(raw []byte, opts Options) (*models.BlogPost, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", utils.ErrHTMLImport, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return nil, fmt.Errorf("%w: document has no title or h1", utils.ErrHTMLImport)
	}

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	description = strings.TrimSpace(description)

	var contentHTML string
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		// h1 belongs to the title; the body keeps levels 2+.
		clone := sel.First().Clone()
		clone.Find("h1").Remove()
		contentHTML, err = clone.Html()
		if err != nil {
			return nil, fmt.Errorf("%w: extracting content HTML: %v", utils.ErrHTMLImport, err)
		}
		break
	}
	if strings.TrimSpace(contentHTML) == "" {
		return nil, fmt.Errorf("%w: no article content found", utils.ErrHTMLImport)
	}

	converter := md.NewConverter("", true, nil)
	body, err := converter.ConvertString(contentHTML)
	if err != nil {
		return nil, fmt.Errorf("%w: markdown conversion: %v", utils.ErrHTMLImport, err)
	}
	body = strings.TrimSpace(body) + "\n"

	slug := opts.Slug
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		slug = strings.ToLower(utils.SanitizeFilename(title))
	}

	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}
	category := opts.Category
	if category == "" && len(im.cfg.Validation.AllowedCategories) > 0 {
		category = im.cfg.Validation.AllowedCategories[0]
	}

	readingTime := process.EstimateReadingTime(body, im.cfg.WordsPerMinute)
	if readingTime < 1 {
		readingTime = 1
	}

	return &models.BlogPost{
		Meta: models.BlogPostMeta{
			Title:       title,
			Description: description,
			Slug:        slug,
			PublishedAt: time.Now().Format("2006-01-02"),
			Author:      opts.Author,
			Category:    category,
			Tags:        []string{"imported"},
			ReadingTime: readingTime,
			Locale:      locale,
		},
		Content: body,
	}, nil
}
