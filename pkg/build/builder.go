// Package build orchestrates a full pipeline run: load and validate posts,
// reconcile build state, and write the site's content artifacts.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/loader"
	"kotoba-press/pkg/models"
	"kotoba-press/pkg/process"
	"kotoba-press/pkg/storage"
	"kotoba-press/pkg/utils"
)

// Options control one build run.
type Options struct {
	Fresh bool // Discard build state and rebuild everything
}

// Summary reports what a build run did.
type Summary struct {
	BuildID          string
	TotalPosts       int
	RejectedPosts    int
	ChangedFiles     int
	ArtifactsWritten bool
	Duration         time.Duration
}

// Builder wires the loader, the build state store, and artifact writers.
type Builder struct {
	cfg   config.AppConfig
	store storage.BuildStore
	log   *logrus.Entry
}

// NewBuilder creates a Builder using the given state store.
func NewBuilder(cfg config.AppConfig, store storage.BuildStore, logger *logrus.Logger) *Builder {
	return &Builder{
		cfg:   cfg,
		store: store,
		log:   logger.WithField("component", "build"),
	}
}

// Run executes one full build. Posts are always reloaded from disk (content
// files are the source of truth); the state store only decides whether any
// file changed since the last run, so an unchanged tree skips rewriting
// artifacts. Rejected posts are recorded in state and logged, never fatal.
func (b *Builder) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	summary := &Summary{BuildID: uuid.New().String()}
	buildLog := b.log.WithField("build_id", summary.BuildID)

	l := loader.NewLoader(b.cfg, b.log.Logger)
	result, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	summary.TotalPosts = len(result.Posts)
	summary.RejectedPosts = len(result.Rejected)

	now := time.Now().UTC()
	for _, post := range result.Posts {
		changed, err := b.recordOutcome(post.SourcePath, &models.PostDBEntry{
			Status:      string(models.PostStatusSuccess),
			Slug:        post.Meta.Slug,
			ProcessedAt: now,
			LastAttempt: now,
		})
		if err != nil {
			return nil, err
		}
		if changed {
			summary.ChangedFiles++
		}
	}

	for _, reject := range result.Rejected {
		buildLog.WithField("file", reject.SourcePath).Warnf("Rejected: %v", reject.Err)
		for _, violation := range reject.Validation.Errors {
			buildLog.WithField("file", reject.SourcePath).Warnf("  - %s", violation)
		}

		changed, err := b.recordOutcome(reject.SourcePath, &models.PostDBEntry{
			Status:           string(models.PostStatusFailure),
			ErrorType:        utils.CategorizeError(reject.Err),
			ValidationErrors: reject.Validation.Errors,
			LastAttempt:      now,
		})
		if err != nil {
			return nil, err
		}
		if changed {
			summary.ChangedFiles++
		}
	}

	if summary.ChangedFiles == 0 && !opts.Fresh && b.artifactsExist(result.Posts) {
		buildLog.Info("No content changes since last build; artifacts are up to date")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	if err := b.writeIndexes(result.Posts); err != nil {
		return nil, err
	}
	if b.cfg.EnableSearchIndex {
		if err := b.writeChunks(ctx, result.Posts); err != nil {
			return nil, err
		}
	}
	summary.ArtifactsWritten = true

	summary.Duration = time.Since(start)
	buildLog.Infof("Build finished: %d posts, %d rejected, %d changed, took %v",
		summary.TotalPosts, summary.RejectedPosts, summary.ChangedFiles, summary.Duration)
	return summary, nil
}

// recordOutcome hashes the source file, stores the entry, and reports whether
// the file's content differs from the previous run with the same status.
func (b *Builder) recordOutcome(relPath string, entry *models.PostDBEntry) (bool, error) {
	absPath := filepath.Join(b.cfg.ContentDir, filepath.FromSlash(relPath))
	hash, err := utils.CalculateFileSHA256(absPath)
	if err != nil {
		// The file may be the reason the post was rejected; record the
		// outcome without a hash so the next run retries it.
		b.log.WithField("file", relPath).Warnf("Could not hash content file: %v", err)
		hash = ""
	}
	entry.ContentHash = hash

	changed := true
	prevStatus, prevEntry, checkErr := b.store.CheckPostStatus(relPath)
	if checkErr == nil && prevEntry != nil && hash != "" &&
		prevStatus == models.PostStatus(entry.Status) && prevEntry.ContentHash == hash {
		changed = false
	}

	if err := b.store.UpdatePostStatus(relPath, entry); err != nil {
		return false, err
	}
	return changed, nil
}

// writeIndexes writes one index per locale under the output directory.
func (b *Builder) writeIndexes(posts []models.BlogPost) error {
	byLocale := make(map[string][]models.BlogPost)
	for _, post := range posts {
		byLocale[post.Meta.Locale] = append(byLocale[post.Meta.Locale], post)
	}

	for locale, localePosts := range byLocale {
		index := models.PostIndex{
			BuildID:     uuid.New().String(),
			GeneratedAt: time.Now().UTC(),
			TotalPosts:  len(localePosts),
			Posts:       localePosts,
		}

		data, err := yaml.Marshal(&index)
		if err != nil {
			return fmt.Errorf("%w: marshaling index YAML: %v", utils.ErrParsing, err)
		}

		dir := filepath.Join(b.cfg.OutputDir, locale)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, dir, err)
		}
		path := filepath.Join(dir, b.cfg.IndexFilename)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, path, err)
		}
		b.log.Infof("Wrote %s (%d posts)", path, len(localePosts))
	}
	return nil
}

// writeChunks writes the search-index chunks for all posts as JSONL.
func (b *Builder) writeChunks(ctx context.Context, posts []models.BlogPost) error {
	if !process.IsTokenizerInitialized() {
		b.log.Warn("Tokenizer not initialized, chunk lengths measured in runes")
	}

	path := filepath.Join(b.cfg.OutputDir, b.cfg.ChunksFilename)
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, b.cfg.OutputDir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	total := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunks, err := process.ChunkPost(post, b.cfg.Chunker)
		if err != nil {
			return fmt.Errorf("%w: chunking %s: %v", utils.ErrParsing, post.SourcePath, err)
		}
		for _, chunk := range chunks {
			line := models.ChunkJSONL{
				Slug:       post.Meta.Slug,
				Locale:     post.Meta.Locale,
				Title:      post.Meta.Title,
				Content:    chunk.Content,
				Headings:   chunk.Headings,
				TokenCount: chunk.TokenCount,
			}
			if err := enc.Encode(&line); err != nil {
				return fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, path, err)
			}
			total++
		}
	}

	b.log.Infof("Wrote %s (%d chunks)", path, total)
	return nil
}

// artifactsExist reports whether every expected index file is already present.
func (b *Builder) artifactsExist(posts []models.BlogPost) bool {
	locales := make(map[string]bool)
	for _, post := range posts {
		locales[post.Meta.Locale] = true
	}
	for locale := range locales {
		if _, err := os.Stat(filepath.Join(b.cfg.OutputDir, locale, b.cfg.IndexFilename)); err != nil {
			return false
		}
	}
	if b.cfg.EnableSearchIndex {
		if _, err := os.Stat(filepath.Join(b.cfg.OutputDir, b.cfg.ChunksFilename)); err != nil {
			return false
		}
	}
	return true
}
