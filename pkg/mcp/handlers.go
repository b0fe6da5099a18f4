package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"kotoba-press/pkg/build"
	"kotoba-press/pkg/loader"
	"kotoba-press/pkg/models"
	"kotoba-press/pkg/storage"
	"kotoba-press/pkg/utils"
	"kotoba-press/pkg/validate"
)

// handleListPosts handles the list_posts tool
func (s *Server) handleListPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locale := request.GetString("locale", "")

	l := loader.NewLoader(*s.cfg.AppConfig, s.cfg.Logger)
	loadResult, err := l.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load content: %v", err)), nil
	}

	posts := make([]map[string]interface{}, 0, len(loadResult.Posts))
	for _, post := range loadResult.Posts {
		if locale != "" && post.Meta.Locale != locale {
			continue
		}
		posts = append(posts, map[string]interface{}{
			"slug":         post.Meta.Slug,
			"title":        post.Meta.Title,
			"locale":       post.Meta.Locale,
			"category":     post.Meta.Category,
			"published_at": post.Meta.PublishedAt,
			"reading_time": post.Meta.ReadingTime,
			"headings":     len(post.Headings),
			"source_path":  post.SourcePath,
		})
	}

	rejected := make([]map[string]interface{}, 0, len(loadResult.Rejected))
	for _, reject := range loadResult.Rejected {
		entry := map[string]interface{}{
			"source_path": reject.SourcePath,
			"error":       reject.Err.Error(),
			"error_type":  utils.CategorizeError(reject.Err),
		}
		if len(reject.Validation.Errors) > 0 {
			entry["validation_errors"] = reject.Validation.Errors
		}
		rejected = append(rejected, entry)
	}

	result := map[string]interface{}{
		"posts":          posts,
		"rejected":       rejected,
		"total_posts":    len(posts),
		"total_rejected": len(rejected),
		"content_dir":    s.cfg.AppConfig.ContentDir,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetPost handles the get_post tool
func (s *Server) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := request.GetString("slug", "")
	if slug == "" {
		return mcp.NewToolResultError("slug parameter is required"), nil
	}
	locale := request.GetString("locale", "en")
	includeBody := request.GetBool("include_body", false)

	l := loader.NewLoader(*s.cfg.AppConfig, s.cfg.Logger)

	// Posts imported or laid out conventionally live at <locale>/<slug>.md;
	// try that single file before falling back to a full content walk.
	if post, reject := l.LoadOne(locale + "/" + slug + ".md"); reject == nil &&
		post.Meta.Slug == slug && post.Meta.Locale == locale {
		return renderPost(post, includeBody), nil
	}

	loadResult, err := l.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load content: %v", err)), nil
	}

	for _, post := range loadResult.Posts {
		if post.Meta.Slug == slug && post.Meta.Locale == locale {
			return renderPost(&post, includeBody), nil
		}
	}

	return mcp.NewToolResultError(fmt.Sprintf("post %q not found in locale %q", slug, locale)), nil
}

// renderPost formats a loaded post as a get_post tool result.
func renderPost(post *models.BlogPost, includeBody bool) *mcp.CallToolResult {
	headings := make([]map[string]interface{}, 0, len(post.Headings))
	for _, h := range post.Headings {
		headings = append(headings, map[string]interface{}{
			"id":    h.ID,
			"text":  h.Text,
			"level": h.Level,
		})
	}

	result := map[string]interface{}{
		"meta":              post.Meta,
		"table_of_contents": headings,
		"source_path":       post.SourcePath,
	}
	if includeBody {
		result["body"] = post.Content
	}
	return mcp.NewToolResultText(formatJSON(result))
}

// handleValidatePost handles the validate_post tool
func (s *Server) handleValidatePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("frontmatter", "")
	if raw == "" {
		return mcp.NewToolResultError("frontmatter parameter is required"), nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid YAML: %v", err)), nil
	}

	v := validate.New(s.cfg.AppConfig.Validation)
	validation := v.Validate(fields)

	result := map[string]interface{}{
		"is_valid": validation.IsValid,
		"errors":   validation.Errors,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchPosts handles the search_posts tool
func (s *Server) handleSearchPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	locale := request.GetString("locale", "")

	maxResults := int(request.GetFloat("max_results", 10))
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	l := loader.NewLoader(*s.cfg.AppConfig, s.cfg.Logger)
	loadResult, err := l.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load content: %v", err)), nil
	}

	queryLower := strings.ToLower(query)
	matches := make([]map[string]interface{}, 0, maxResults)
	for _, post := range loadResult.Posts {
		if locale != "" && post.Meta.Locale != locale {
			continue
		}
		if len(matches) >= maxResults {
			break
		}

		titleHit := strings.Contains(strings.ToLower(post.Meta.Title), queryLower)
		bodyHit := strings.Contains(strings.ToLower(post.Content), queryLower)
		if !titleHit && !bodyHit {
			continue
		}

		matches = append(matches, map[string]interface{}{
			"slug":    post.Meta.Slug,
			"title":   post.Meta.Title,
			"locale":  post.Meta.Locale,
			"snippet": extractSnippet(post.Content, query, 200),
		})
	}

	result := map[string]interface{}{
		"query":         query,
		"results":       matches,
		"total_results": len(matches),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleBuildSite handles the build_site tool
func (s *Server) handleBuildSite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fresh := request.GetBool("fresh", false)

	job, started := s.jobManager.CreateJob(fresh)
	if !started {
		result := map[string]interface{}{
			"job_id":  job.ID,
			"status":  string(job.Status),
			"message": "a build is already in progress; returning the running job",
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	go s.runBuildJob(job)

	result := map[string]interface{}{
		"job_id": job.ID,
		"status": string(JobStatusPending),
		"fresh":  fresh,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runBuildJob executes a build in the background and records its outcome
func (s *Server) runBuildJob(job *Job) {
	jobLog := s.log.WithField("job_id", job.ID)
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")

	store, err := storage.NewBadgerStore(s.cfg.AppConfig.StateDir, job.Fresh, jobLog)
	if err != nil {
		jobLog.Errorf("Build job failed to open state store: %v", err)
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, err.Error())
		return
	}
	defer store.Close()

	builder := build.NewBuilder(*s.cfg.AppConfig, store, s.cfg.Logger)
	summary, err := builder.Run(s.jobManager.Context(job.ID), build.Options{Fresh: job.Fresh})
	if err != nil {
		jobLog.Errorf("Build job failed: %v", err)
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, err.Error())
		return
	}

	s.jobManager.SetCounts(job.ID, int64(summary.TotalPosts), int64(summary.RejectedPosts))
	s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
	jobLog.Infof("Build job completed: %d posts, %d rejected", summary.TotalPosts, summary.RejectedPosts)
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job %q not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":         job.ID,
		"status":         string(job.Status),
		"started_at":     job.StartedAt,
		"posts_accepted": job.PostsAccepted,
		"posts_rejected": job.PostsRejected,
		"fresh":          job.Fresh,
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt
	}
	if job.ErrorMessage != "" {
		result["error"] = job.ErrorMessage
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// extractSnippet returns a short context window around the first match of
// query in content, case-insensitively. Operates on runes so Japanese text
// is never cut mid-character. Case folding is per-rune (unicode.ToLower)
// so match indices stay aligned with the original runes even for characters
// whose string lowercasing changes rune count.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(query)
	for i, r := range queryRunes {
		queryRunes[i] = unicode.ToLower(r)
	}
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	idx := -1
	for i := 0; i+len(queryRunes) <= len(lowered); i++ {
		match := true
		for j, q := range queryRunes {
			if lowered[i+j] != q {
				match = false
				break
			}
		}
		if match {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}
	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}

// formatJSON pretty-prints a result map for tool output
func formatJSON(data map[string]interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(out)
}
