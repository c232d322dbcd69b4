// Package pipeline runs extraction, location, annotation and rendering over
// one document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/factlight/internal/annotate"
	"github.com/ppiankov/factlight/internal/extract"
	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/locate"
	"github.com/ppiankov/factlight/internal/model"
	"github.com/ppiankov/factlight/internal/render"
	"github.com/ppiankov/factlight/internal/source"
)

// Pipeline orchestrates one annotation run
type Pipeline struct {
	extractor extract.Extractor
	locator   *locate.Locator
	annotator *annotate.Annotator
	provider  llm.Provider
	workers   int
	logger    *zap.Logger
	now       func() time.Time
}

// New builds a pipeline around one provider shared by extraction and
// annotation. A nil logger disables logging.
func New(cfg *model.Config, provider llm.Provider, logger *zap.Logger) (*Pipeline, error) {
	if provider == nil {
		return nil, errors.New("pipeline needs an LLM provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	extractor, err := extract.New(cfg.Extract, provider)
	if err != nil {
		return nil, err
	}
	annotator, err := annotate.New(provider, annotate.Format(cfg.Annotate.Format))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		extractor: extractor,
		locator:   locate.NewLocator(locate.Markers{Open: cfg.Extract.OpenMarker, Close: cfg.Extract.CloseMarker}),
		annotator: annotator,
		provider:  provider,
		workers:   cfg.Concurrency.VerdictWorkers,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Run processes doc end to end and returns the report with the rendered
// markup. Only extraction failures and structural span errors abort the run;
// per-claim problems are recorded on the claim and in the warnings.
func (p *Pipeline) Run(ctx context.Context, doc *source.Document) (*model.Report, error) {
	report, err := p.prepare(ctx, doc)
	if err != nil {
		return nil, err
	}

	located := locatedIndexes(report.Claims)
	batch := make([]model.ClaimRecord, len(located))
	for i, idx := range located {
		batch[i] = report.Claims[idx]
	}

	start := p.now()
	outcomes := p.annotator.AnnotateAll(ctx, batch, p.workers)
	for i, idx := range located {
		p.applyOutcome(report, idx, outcomes[i])
	}
	p.logger.Info("claims annotated",
		zap.Int("claims", len(batch)),
		zap.Int("workers", p.workers),
		zap.Duration("elapsed", p.now().Sub(start)))

	html, err := render.Render(report.Document, report.Claims)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	report.HTML = html

	return report, nil
}

// Stream processes claims one at a time in document order, writing each
// rendered fragment to w as soon as its verdict arrives. The tail of the
// document is written once at the end. The returned report carries the same
// markup that was streamed.
func (p *Pipeline) Stream(ctx context.Context, doc *source.Document, w io.Writer) (*model.Report, error) {
	report, err := p.prepare(ctx, doc)
	if err != nil {
		return nil, err
	}

	var all strings.Builder
	emit := func(fragment string) error {
		all.WriteString(fragment)
		if _, err := io.WriteString(w, fragment); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		return nil
	}

	cursor := 0
	for _, idx := range locatedIndexes(report.Claims) {
		claim := report.Claims[idx]

		verdict, err := p.annotator.Annotate(ctx, claim.Text)
		p.applyOutcome(report, idx, annotate.Outcome{Index: claim.Index, Verdict: verdict, Err: err})

		var b strings.Builder
		next, err := render.RenderClaim(&b, report.Document, cursor, report.Claims[idx])
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		cursor = next

		if err := emit(b.String()); err != nil {
			return nil, err
		}
	}

	var tail strings.Builder
	render.RenderTail(&tail, report.Document, cursor)
	if err := emit(tail.String()); err != nil {
		return nil, err
	}

	report.HTML = all.String()
	return report, nil
}

// prepare extracts and locates claims and validates their spans
func (p *Pipeline) prepare(ctx context.Context, doc *source.Document) (*model.Report, error) {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, source.ErrEmptyInput
	}

	report := &model.Report{
		ID:        uuid.NewString(),
		Source:    doc.Origin,
		Mode:      p.extractor.Mode(),
		CreatedAt: p.now().UTC(),
		Document:  doc.Text,
		Provider:  p.provider.Name(),
	}
	logger := p.logger.With(zap.String("report", report.ID), zap.String("mode", string(report.Mode)))

	start := p.now()
	res, err := p.extractor.Extract(ctx, doc.Text)
	if err != nil {
		logger.Error("claim extraction failed", zap.Error(err))
		return nil, err
	}
	report.Model = res.Model
	report.Topic = res.Topic
	report.Modified = res.Modified
	logger.Info("claims extracted",
		zap.Int("claims", len(res.Claims)),
		zap.Int("tokens", res.TokensUsed),
		zap.Duration("elapsed", p.now().Sub(start)))

	var lookupErrs []error
	if report.Mode == model.ModeMarkup {
		report.Claims, lookupErrs = p.locator.LocateMarkup(doc.Text, res.Modified)
	} else {
		report.Claims, lookupErrs = p.locator.Locate(doc.Text, res.Claims)
	}
	for _, err := range lookupErrs {
		logger.Warn("claim skipped", zap.Error(err))
		report.Warnings = append(report.Warnings, err.Error())
	}

	if err := model.ValidateSpans(len(doc.Text), report.Claims); err != nil {
		return nil, fmt.Errorf("validate spans: %w", err)
	}

	return report, nil
}

func (p *Pipeline) applyOutcome(report *model.Report, idx int, o annotate.Outcome) {
	claim := &report.Claims[idx]
	if o.Err != nil {
		claim.Status = model.StatusFailed
		claim.Failure = o.Err.Error()
		claim.Verdict = nil
		report.Warnings = append(report.Warnings, fmt.Sprintf("claim %d: verdict unavailable: %v", claim.Index, o.Err))
		p.logger.Warn("verdict failed", zap.Int("claim", claim.Index), zap.Error(o.Err))
		return
	}

	a := model.Normalize(o.Verdict)
	claim.Verdict = &a
	claim.Status = model.StatusAnnotated
	claim.Failure = ""
	p.logger.Debug("verdict", zap.Int("claim", claim.Index), zap.String("truth", a.Truth), zap.String("harm", a.Harm))
}

// locatedIndexes returns the positions of located claims. The locator's
// cursor only moves forward, so slice order is document order.
func locatedIndexes(claims []model.ClaimRecord) []int {
	var idx []int
	for i, c := range claims {
		if c.Span != nil {
			idx = append(idx, i)
		}
	}
	return idx
}
