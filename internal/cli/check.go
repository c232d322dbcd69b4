package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/factlight/internal/cache"
	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/model"
	"github.com/ppiankov/factlight/internal/pipeline"
	"github.com/ppiankov/factlight/internal/source"
	"github.com/ppiankov/factlight/internal/worker"
)

var (
	inText    string
	inFile    string
	inURL     string
	inVideo   string
	outHTML   string
	outJSON   string
	mode      string
	format    string
	provider  string
	llmModel  string
	workers   int
	timeout   time.Duration
	stream    bool
	noCache   bool
	noRobots  bool
	pageTitle string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Highlight the factual claims of one document",
	Long: `Check reads one document, asks the configured model for its factual
claims, locates every claim in the original text, fetches a verdict for each
and renders the document as HTML.

Exactly one input is read: a positional argument, --text, --file, --url,
--video, or standard input when nothing else is given.

Example:
  factlight check "Water boils at 100 degrees Celsius at sea level."
  factlight check --file notes.txt --html notes.html --json notes.json
  factlight check --url https://en.wikipedia.org/wiki/Laksa --mode structured
  factlight check --video dQw4w9WgXcQ --provider openai --workers 4
  cat speech.txt | factlight check --stream > speech.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Input flags
	checkCmd.Flags().StringVar(&inText, "text", "", "document text")
	checkCmd.Flags().StringVar(&inFile, "file", "", "read the document from a UTF-8 text file")
	checkCmd.Flags().StringVar(&inURL, "url", "", "fetch a web page and check its visible text")
	checkCmd.Flags().StringVar(&inVideo, "video", "", "fetch a video transcript (URL or video id)")

	// Output flags
	checkCmd.Flags().StringVar(&outHTML, "html", "", "write a standalone HTML page to this path")
	checkCmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path")
	checkCmd.Flags().StringVar(&pageTitle, "title", "", "HTML page title (default: the input's title)")
	checkCmd.Flags().BoolVar(&stream, "stream", false, "write highlighted markup to stdout as each verdict arrives")

	// Pipeline flags
	checkCmd.Flags().StringVar(&mode, "mode", "", "extraction mode (markup, structured)")
	checkCmd.Flags().StringVar(&format, "format", "", "verdict format (json, text)")
	checkCmd.Flags().StringVar(&provider, "provider", "", "LLM provider (gemini, openai, anthropic, ollama)")
	checkCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	checkCmd.Flags().IntVar(&workers, "workers", 0, "concurrent verdict requests (default from config)")
	checkCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall timeout")

	// Fetch flags
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	checkCmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt before fetching pages")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := checkConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	in := source.Input{Text: inText, File: inFile, URL: inURL, Video: inVideo}
	if len(args) == 1 {
		if in.Text != "" {
			return fmt.Errorf("give the text either as an argument or with --text, not both")
		}
		in.Text = args[0]
	}
	if in.Text == "" && in.File == "" && in.URL == "" && in.Video == "" {
		in.Stdin = cmd.InOrStdin()
	}

	rt, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	doc, err := rt.loader.Load(ctx, in)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	logger.Info("document loaded",
		zap.String("kind", string(doc.Kind)),
		zap.String("origin", doc.Origin),
		zap.Int("bytes", len(doc.Text)))

	var report *model.Report
	if stream {
		report, err = rt.pipeline.Stream(ctx, doc, cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout())
	} else {
		report, err = rt.pipeline.Run(ctx, doc)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	title := pageTitle
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		title = cfg.Output.Title
	}

	out := pipeline.Outputs{
		HTMLPath:   outHTML,
		JSONPath:   outJSON,
		Title:      title,
		IncludeCSS: cfg.Output.IncludeCSS,
	}
	if err := pipeline.WriteReport(report, out, cmd.ErrOrStderr(), cfg.Output.Verbose); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	// With no file outputs the page goes to stdout
	if !stream && outHTML == "" && outJSON == "" {
		if err := pipeline.WriteHTML(cmd.OutOrStdout(), report, title, cfg.Output.IncludeCSS); err != nil {
			return fmt.Errorf("write page: %w", err)
		}
	}

	if cfg.Output.Verbose || len(report.Warnings) > 0 {
		pipeline.Summary(cmd.ErrOrStderr(), report)
	}
	return nil
}

// checkConfig applies command flags over the loaded configuration
func checkConfig() (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if provider != "" && provider != cfg.LLM.Provider {
		cfg.LLM.Provider = provider
		cfg.LLM.Model = llm.DefaultModel(provider)
		cfg.LLM.APIKey = ""
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if mode != "" {
		cfg.Extract.Mode = model.Mode(mode)
	}
	if format != "" {
		cfg.Annotate.Format = format
	}
	if workers > 0 {
		cfg.Concurrency.VerdictWorkers = workers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = llm.APIKeyFromEnv(cfg.LLM.Provider)
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = base
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session holds the per-process objects shared by every document
type session struct {
	loader   *source.Loader
	pipeline *pipeline.Pipeline
}

func newSession(cfg *model.Config, logger *zap.Logger) (*session, error) {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	client, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}

	p, err := pipeline.New(cfg, llm.WithLimiter(client, limiter), logger)
	if err != nil {
		return nil, err
	}

	return &session{
		loader:   source.NewLoader(cfg.HTTP, cache.New(cfg.Cache), cfg.Cache.DiskTTL, limiter, logger),
		pipeline: p,
	}, nil
}
