package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlight/internal/model"
	"github.com/ppiankov/factlight/internal/render"
)

// Outputs names the files a report is written to. Empty paths are skipped.
type Outputs struct {
	HTMLPath   string
	JSONPath   string
	Title      string
	IncludeCSS bool
}

// WriteReport writes the report to the configured outputs and prints a summary
// to w when verbose is set
func WriteReport(report *model.Report, out Outputs, w io.Writer, verbose bool) error {
	if out.HTMLPath != "" {
		if err := writeFile(out.HTMLPath, func(f io.Writer) error {
			return WriteHTML(f, report, out.Title, out.IncludeCSS)
		}); err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		if verbose {
			fmt.Fprintf(w, "✓ Wrote HTML: %s\n", out.HTMLPath)
		}
	}

	if out.JSONPath != "" {
		if err := writeFile(out.JSONPath, func(f io.Writer) error {
			return WriteJSON(f, report)
		}); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(w, "✓ Wrote JSON: %s\n", out.JSONPath)
		}
	}

	return nil
}

// WriteHTML writes the report as a standalone page
func WriteHTML(w io.Writer, report *model.Report, title string, includeCSS bool) error {
	if title == "" {
		title = report.Source
	}
	return render.WritePage(w, title, report.HTML, includeCSS)
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// Summary prints claim counts and warnings
func Summary(w io.Writer, report *model.Report) {
	counts := report.Counts()

	fmt.Fprintf(w, "\nSource: %s\n", report.Source)
	fmt.Fprintf(w, "Mode: %s", report.Mode)
	if report.Model != "" {
		fmt.Fprintf(w, " (%s/%s)", report.Provider, report.Model)
	}
	fmt.Fprintln(w)
	if report.Topic != "" {
		fmt.Fprintf(w, "Topic: %s\n", report.Topic)
	}

	fmt.Fprintf(w, "Claims: %d\n", len(report.Claims))
	for _, status := range []model.ClaimStatus{
		model.StatusAnnotated,
		model.StatusFailed,
		model.StatusUnlocated,
		model.StatusRejected,
	} {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", status, n)
		}
	}

	for _, c := range report.Claims {
		if c.Verdict == nil {
			continue
		}
		fmt.Fprintf(w, "  [%d] %s | truth: %s | harm: %s\n", c.Index, clip(c.Text, 60), c.Verdict.Truth, c.Verdict.Harm)
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(report.Warnings))
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
