// Package loader reads the content directory and turns post files into
// validated BlogPost values.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/frontmatter"
	"kotoba-press/pkg/models"
	"kotoba-press/pkg/process"
	"kotoba-press/pkg/utils"
	"kotoba-press/pkg/validate"
)

// Loader walks a content directory and loads every post matching the
// configured include/exclude globs.
type Loader struct {
	cfg       config.AppConfig
	validator *validate.Validator
	log       *logrus.Entry
}

// RejectedPost records a content file the pipeline refused, with either a
// processing error or the validator's findings.
type RejectedPost struct {
	SourcePath string
	Err        error
	Validation models.ValidationResult
}

// Result is the outcome of one Load run. Posts holds the accepted posts in
// source-path order; Rejected holds everything that failed, also ordered.
// Rejection is normal data, not an error: Load fails only on walk problems.
type Result struct {
	Posts    []models.BlogPost
	Rejected []RejectedPost
}

// NewLoader creates a Loader. The validator is built from cfg.Validation,
// which must already be validated/defaulted.
func NewLoader(cfg config.AppConfig, logger *logrus.Logger) *Loader {
	return &Loader{
		cfg:       cfg,
		validator: validate.New(cfg.Validation),
		log:       logger.WithField("component", "loader"),
	}
}

// Load walks the content directory, parses and validates every matching file
// concurrently, then applies the cross-post checks (duplicate slugs, dangling
// relatedPosts references). Paths in the result are relative to the content
// directory.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	paths, err := l.listContentFiles()
	if err != nil {
		return nil, err
	}
	l.log.Infof("Found %d content files under %s", len(paths), l.cfg.ContentDir)

	var (
		mu       sync.Mutex
		posts    []models.BlogPost
		rejected []RejectedPost
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.NumWorkers)

	for _, relPath := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			post, reject := l.loadFile(relPath)
			mu.Lock()
			defer mu.Unlock()
			if reject != nil {
				rejected = append(rejected, *reject)
			} else {
				posts = append(posts, *post)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].SourcePath < posts[j].SourcePath })

	posts, crossRejected := l.applyCrossPostChecks(posts)
	rejected = append(rejected, crossRejected...)
	sort.Slice(rejected, func(i, j int) bool { return rejected[i].SourcePath < rejected[j].SourcePath })

	l.log.Infof("Loaded %d posts (%d rejected)", len(posts), len(rejected))
	return &Result{Posts: posts, Rejected: rejected}, nil
}

// LoadOne loads and validates a single content file by path relative to the
// content directory. It skips the cross-post checks that need the full set.
func (l *Loader) LoadOne(relPath string) (*models.BlogPost, *RejectedPost) {
	return l.loadFile(relPath)
}

// listContentFiles walks ContentDir and returns the relative paths matching
// the include globs and none of the exclude globs, sorted.
func (l *Loader) listContentFiles() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(l.cfg.ContentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walking %s: %w", utils.ErrFilesystem, path, err)
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(l.cfg.ContentDir, path)
		if relErr != nil {
			return fmt.Errorf("%w: relativizing %s: %w", utils.ErrFilesystem, path, relErr)
		}
		relPath = filepath.ToSlash(relPath)

		if l.matches(relPath) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// matches applies the include/exclude doublestar globs to a relative path.
func (l *Loader) matches(relPath string) bool {
	included := false
	for _, pattern := range l.cfg.IncludePatterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range l.cfg.ExcludePatterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	return true
}

// loadFile reads, splits, validates, and enriches one content file.
// Exactly one of the return values is non-nil.
func (l *Loader) loadFile(relPath string) (*models.BlogPost, *RejectedPost) {
	fileLog := l.log.WithField("file", relPath)

	raw, err := os.ReadFile(filepath.Join(l.cfg.ContentDir, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, &RejectedPost{
			SourcePath: relPath,
			Err:        fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, relPath, err),
		}
	}

	doc, err := frontmatter.Split(raw)
	if err != nil {
		fileLog.Warnf("Frontmatter rejected: %v", err)
		return nil, &RejectedPost{SourcePath: relPath, Err: err}
	}

	result := l.validator.Validate(doc.Fields)
	if !result.IsValid {
		fileLog.Warnf("Validation rejected post (%d errors)", len(result.Errors))
		return nil, &RejectedPost{
			SourcePath: relPath,
			Err:        fmt.Errorf("%w: %d violations", utils.ErrPostValidation, len(result.Errors)),
			Validation: result,
		}
	}

	post := &models.BlogPost{
		Meta:       doc.Meta,
		Content:    doc.Body,
		Headings:   process.ExtractHeadings([]byte(doc.Body)),
		SourcePath: relPath,
	}

	// The declared readingTime is authoritative for rendering, but flag
	// values far off the estimate so authors notice stale frontmatter.
	estimate := process.EstimateReadingTime(doc.Body, l.cfg.WordsPerMinute)
	if estimate > 0 && absDiff(estimate, post.Meta.ReadingTime) > 2 {
		fileLog.Warnf("Declared readingTime %d differs from estimate %d", post.Meta.ReadingTime, estimate)
	}

	return post, nil
}

// applyCrossPostChecks rejects duplicate (locale, slug) pairs and posts whose
// relatedPosts reference slugs that do not exist in the same locale.
func (l *Loader) applyCrossPostChecks(posts []models.BlogPost) ([]models.BlogPost, []RejectedPost) {
	var rejected []RejectedPost

	// First pass: slug ownership in source-path order.
	seen := make(map[string]string) // locale+"/"+slug -> first source path
	kept := posts[:0]
	for _, post := range posts {
		key := post.Meta.Locale + "/" + post.Meta.Slug
		if first, dup := seen[key]; dup {
			rejected = append(rejected, RejectedPost{
				SourcePath: post.SourcePath,
				Err:        fmt.Errorf("%w: slug %q already used by %s", utils.ErrDuplicateSlug, post.Meta.Slug, first),
			})
			continue
		}
		seen[key] = post.SourcePath
		kept = append(kept, post)
	}

	// Second pass: relatedPosts must resolve within the same locale.
	final := kept[:0]
	for _, post := range kept {
		var dangling string
		for _, related := range post.Meta.RelatedPosts {
			if _, ok := seen[post.Meta.Locale+"/"+related]; !ok {
				dangling = related
				break
			}
		}
		if dangling != "" {
			rejected = append(rejected, RejectedPost{
				SourcePath: post.SourcePath,
				Err:        fmt.Errorf("%w: %q (from %s)", utils.ErrDanglingRelated, dangling, post.Meta.Slug),
			})
			continue
		}
		final = append(final, post)
	}

	return final, rejected
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
