package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/factlight/internal/model"
	"github.com/ppiankov/factlight/internal/pipeline"
	"github.com/ppiankov/factlight/internal/source"
	"github.com/ppiankov/factlight/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many documents listed in a file",
	Long: `Batch reads one input per line (a web page URL, a video URL or a
local file path; blank lines and lines starting with # are ignored), checks
each document and writes an HTML page and a JSON report per input.

Documents are processed concurrently; verdict requests for each document
still follow --workers. All model and fetch requests share one rate limiter.

Example:
  factlight batch inputs.txt
  factlight batch inputs.txt --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of documents processed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factlight-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Shared with check
	batchCmd.Flags().StringVar(&mode, "mode", "", "extraction mode (markup, structured)")
	batchCmd.Flags().StringVar(&format, "format", "", "verdict format (json, text)")
	batchCmd.Flags().StringVar(&provider, "provider", "", "LLM provider (gemini, openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent verdict requests per document")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	batchCmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt before fetching pages")
}

// batchJob checks one listed input
type batchJob struct {
	ref     string
	session *session
}

type batchResult struct {
	ref    string
	report *model.Report
	err    error
}

func (r *batchResult) GetError() error { return r.err }

func (j *batchJob) Execute(ctx context.Context) worker.Result {
	doc, err := j.session.loader.Load(ctx, source.ParseRef(j.ref))
	if err != nil {
		return &batchResult{ref: j.ref, err: fmt.Errorf("load: %w", err)}
	}
	report, err := j.session.pipeline.Run(ctx, doc)
	if err != nil {
		return &batchResult{ref: j.ref, err: err}
	}
	return &batchResult{ref: j.ref, report: report}
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
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

	refs, err := readRefs(file)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  factlight batch\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s (%d inputs)\n", file, len(refs))
	fmt.Fprintf(stderr, "  Documents:    %d at once\n", concurrency)
	fmt.Fprintf(stderr, "  Verdicts:     %d per document\n", cfg.Concurrency.VerdictWorkers)
	fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}

	jobs := make([]worker.Job, len(refs))
	for i, ref := range refs {
		jobs[i] = &batchJob{ref: ref, session: s}
	}
	results := worker.RunAll(ctx, concurrency, jobs)

	successCount, failureCount := 0, 0
	used := make(map[string]int)
	for i, r := range results {
		if r == nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", refs[i], ctx.Err())
			continue
		}
		result := r.(*batchResult)
		if result.err != nil {
			failureCount++
			logger.Warn("batch input failed", zap.String("input", result.ref), zap.Error(result.err))
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.ref, result.err)
			continue
		}

		slug := uniqueSlug(sanitizeFilename(result.ref), used)
		out := pipeline.Outputs{
			HTMLPath:   filepath.Join(outputDir, slug+".html"),
			JSONPath:   filepath.Join(outputDir, slug+".json"),
			Title:      result.ref,
			IncludeCSS: cfg.Output.IncludeCSS,
		}
		if err := pipeline.WriteReport(result.report, out, stderr, cfg.Output.Verbose); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.ref, err)
			continue
		}

		successCount++
		counts := result.report.Counts()
		fmt.Fprintf(stderr, "✓ %s (%d claims, %d annotated, %d warnings)\n",
			result.ref, len(result.report.Claims), counts[model.StatusAnnotated], len(result.report.Warnings))
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d inputs\n", len(refs))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d inputs failed", failureCount)
	}
	return nil
}

// readRefs reads one input reference per line, skipping blanks and comments
func readRefs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input list: %w", err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no inputs in %s", path)
	}
	return refs, nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"=", "_",
	"&", "_",
	" ", "-",
)

// sanitizeFilename turns an input reference into a file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = filenameReplacer.Replace(s)
	s = strings.Trim(s, "._-")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "input"
	}
	return s
}

func uniqueSlug(slug string, used map[string]int) string {
	used[slug]++
	if n := used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
