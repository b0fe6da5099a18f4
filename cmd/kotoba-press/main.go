package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"kotoba-press/pkg/build"
	"kotoba-press/pkg/config"
	"kotoba-press/pkg/importer"
	"kotoba-press/pkg/loader"
	"kotoba-press/pkg/process"
	"kotoba-press/pkg/storage"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "list-posts":
		runListPosts(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("kotoba-press %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `kotoba-press - Content pipeline for the Kotoba Press blog

Usage:
  kotoba-press <command> [options]

Commands:
  build       Validate content and write site artifacts
  check       Validate all content files without writing artifacts
  list-posts  List loadable posts and their metadata
  import      Convert an HTML article into a content file
  validate    Validate configuration file
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'kotoba-press <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}

	return log
}

// loadAndValidateConfig loads the config file, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	return appCfg
}

// runBuild handles the build subcommand
func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	fresh := fs.Bool("fresh", false, "Discard build state and rebuild everything")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kotoba-press build [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kotoba-press build\n")
		fmt.Fprintf(os.Stderr, "  kotoba-press build -fresh\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	executeBuild(*configFile, *logLevel, *fresh)
}

// executeBuild contains the main build logic
func executeBuild(configFile, logLevelStr string, fresh bool) {
	log := setupLogger(logLevelStr)
	appCfg := loadAndValidateConfig(configFile, log)

	log.Infof("Content dir: %s, Output dir: %s, State dir: %s, Workers: %d",
		appCfg.ContentDir, appCfg.OutputDir, appCfg.StateDir, appCfg.NumWorkers)

	if appCfg.EnableSearchIndex {
		if err := process.InitTokenizer(appCfg.TokenizerEncoding); err != nil {
			log.Warnf("Tokenizer init failed, chunk sizes fall back to character counts: %v", err)
		}
	}

	buildCtx, cancelBuild := context.WithCancel(context.Background())
	defer cancelBuild()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelBuild()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	logEntry := log.WithField("component", "build")

	store, err := storage.NewBadgerStore(appCfg.StateDir, fresh, logEntry)
	if err != nil {
		log.Fatalf("Failed to initialize build state DB: %v", err)
	}
	defer store.Close()

	go store.RunGC(buildCtx, 10*time.Minute)

	builder := build.NewBuilder(*appCfg, store, log)
	summary, err := builder.Run(buildCtx, build.Options{Fresh: fresh})

	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Build cancelled gracefully.")
			os.Exit(0)
		}
		log.Errorf("Build finished with error: %v", err)
		os.Exit(1)
	}

	log.Infof("Build %s completed in %v: %d posts, %d rejected, %d changed files",
		summary.BuildID, summary.Duration.Round(time.Millisecond),
		summary.TotalPosts, summary.RejectedPosts, summary.ChangedFiles)
	if tracked, countErr := store.GetPostCount(); countErr == nil {
		log.Infof("Build state tracks %d content files", tracked)
	}
	if !summary.ArtifactsWritten {
		log.Info("No content changes detected, artifacts left untouched.")
	}
	if summary.RejectedPosts > 0 {
		os.Exit(1)
	}
	os.Exit(0)
}

// runCheck handles the check subcommand
func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kotoba-press check [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doCheck(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doCheck loads every content file and reports validation outcomes.
// Returns exit code (0 = all posts valid, 1 = error or rejections).
func doCheck(configPath string, stdout, stderr io.Writer) int {
	appCfg, log, code := prepareQuietConfig(configPath, stderr)
	if code != 0 {
		return code
	}

	l := loader.NewLoader(*appCfg, log)
	result, err := l.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, post := range result.Posts {
		fmt.Fprintf(stdout, "OK: %s\n", post.SourcePath)
	}
	for _, reject := range result.Rejected {
		if len(reject.Validation.Errors) > 0 {
			fmt.Fprintf(stderr, "REJECTED: %s\n", reject.SourcePath)
			for _, vErr := range reject.Validation.Errors {
				fmt.Fprintf(stderr, "  - %s\n", vErr)
			}
		} else {
			fmt.Fprintf(stderr, "REJECTED: %s: %v\n", reject.SourcePath, reject.Err)
		}
	}

	fmt.Fprintf(stdout, "\n%d posts valid, %d rejected\n", len(result.Posts), len(result.Rejected))
	if len(result.Rejected) > 0 {
		return 1
	}
	return 0
}

// runListPosts handles the list-posts subcommand
func runListPosts(args []string) {
	fs := flag.NewFlagSet("list-posts", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	locale := fs.String("locale", "", "Limit output to one locale")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kotoba-press list-posts [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doListPosts(*configFile, *locale, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doListPosts lists posts and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListPosts(configPath, locale string, stdout, stderr io.Writer) int {
	appCfg, log, code := prepareQuietConfig(configPath, stderr)
	if code != 0 {
		return code
	}

	l := loader.NewLoader(*appCfg, log)
	result, err := l.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Posts in %s:\n\n", appCfg.ContentDir)
	for _, post := range result.Posts {
		if locale != "" && post.Meta.Locale != locale {
			continue
		}
		fmt.Fprintf(stdout, "  %s/%s\n", post.Meta.Locale, post.Meta.Slug)
		fmt.Fprintf(stdout, "    Title: %s\n", post.Meta.Title)
		fmt.Fprintf(stdout, "    Category: %s, Reading time: %d min\n", post.Meta.Category, post.Meta.ReadingTime)
		if len(post.Headings) > 0 {
			fmt.Fprintf(stdout, "    Sections: %d\n", len(post.Headings))
		}
		fmt.Fprintln(stdout)
	}
	if len(result.Rejected) > 0 {
		fmt.Fprintf(stdout, "%d files rejected (run 'kotoba-press check' for details)\n", len(result.Rejected))
	}
	return 0
}

// runImport handles the import subcommand
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	slug := fs.String("slug", "", "Override the slug derived from the HTML title")
	author := fs.String("author", "", "Author for the scaffolded frontmatter")
	category := fs.String("category", "", "Category for the scaffolded frontmatter")
	locale := fs.String("locale", "", "Locale subdirectory to write into (defaults to 'en')")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kotoba-press import [options] <file.html>\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kotoba-press import article.html\n")
		fmt.Fprintf(os.Stderr, "  kotoba-press import -category kanji -locale ja article.html\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one HTML file is required")
		fs.Usage()
		os.Exit(1)
	}

	opts := importer.Options{
		Slug:     *slug,
		Author:   *author,
		Category: *category,
		Locale:   *locale,
	}
	exitCode := doImport(*configFile, fs.Arg(0), opts, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doImport converts one HTML file and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doImport(configPath, htmlPath string, opts importer.Options, stdout, stderr io.Writer) int {
	appCfg, log, code := prepareQuietConfig(configPath, stderr)
	if code != 0 {
		return code
	}

	im := importer.NewImporter(*appCfg, log)
	outPath, err := im.ImportFile(htmlPath, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Imported %s -> %s\n", htmlPath, outPath)
	fmt.Fprintln(stdout, "Review the scaffolded frontmatter before publishing.")
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kotoba-press validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs config validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Required fields: %v\n", appCfg.Validation.RequiredFields)
	fmt.Fprintf(stdout, "Categories: %v\n", appCfg.Validation.AllowedCategories)
	fmt.Fprintf(stdout, "Locales: %v\n", appCfg.Validation.AllowedLocales)
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// prepareQuietConfig loads and validates config for the read-only
// subcommands, with a logger that stays out of stdout.
func prepareQuietConfig(configPath string, stderr io.Writer) (*config.AppConfig, *logrus.Logger, int) {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)

	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, 1
	}

	return appCfg, log, 0
}
