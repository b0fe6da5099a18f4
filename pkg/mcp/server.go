package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"kotoba-press/pkg/config"
)

const (
	serverName    = "kotoba-press"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// Server exposes the content pipeline over MCP for editor tooling
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// list_posts - List all loadable posts
	listPostsTool := mcp.NewTool("list_posts",
		mcp.WithDescription("List every post in the content directory with its validation outcome"),
		mcp.WithString("locale",
			mcp.Description("Limit results to one locale (optional)"),
		),
	)
	s.mcpServer.AddTool(listPostsTool, s.handleListPosts)

	// get_post - Load a single post with its table of contents
	getPostTool := mcp.NewTool("get_post",
		mcp.WithDescription("Load a single post by slug, returning metadata, table of contents, and body"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The post slug"),
		),
		mcp.WithString("locale",
			mcp.Description("Locale to look in (defaults to 'en')"),
		),
		mcp.WithBoolean("include_body",
			mcp.Description("Include the markdown body in the response"),
		),
	)
	s.mcpServer.AddTool(getPostTool, s.handleGetPost)

	// validate_post - Run the frontmatter validator on ad-hoc YAML
	validatePostTool := mcp.NewTool("validate_post",
		mcp.WithDescription("Validate a frontmatter YAML document against the configured schema without touching disk"),
		mcp.WithString("frontmatter",
			mcp.Required(),
			mcp.Description("The frontmatter as a YAML document (without '---' delimiters)"),
		),
	)
	s.mcpServer.AddTool(validatePostTool, s.handleValidatePost)

	// search_posts - Text search across loaded posts
	searchPostsTool := mcp.NewTool("search_posts",
		mcp.WithDescription("Search post bodies and titles using case-insensitive text matching"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (case-insensitive substring match)"),
		),
		mcp.WithString("locale",
			mcp.Description("Limit search to one locale (optional)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchPostsTool, s.handleSearchPosts)

	// build_site - Start a background build
	buildSiteTool := mcp.NewTool("build_site",
		mcp.WithDescription("Start a background build of the content artifacts. Returns immediately with a job ID."),
		mcp.WithBoolean("fresh",
			mcp.Description("Discard build state and rebuild everything"),
		),
	)
	s.mcpServer.AddTool(buildSiteTool, s.handleBuildSite)

	// get_job_status - Check status of a build job
	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of a build job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by build_site"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	s.log.Infof("Registered %d MCP tools", 6)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	if s.jobManager.IsRunning() {
		s.log.Warn("Cancelling in-flight build job")
	}
	s.jobManager.CancelAll()
	return nil
}
