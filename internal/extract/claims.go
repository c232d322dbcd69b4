// Package extract asks a language model which statements of a document are
// factual claims.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/locate"
	"github.com/ppiankov/factlight/internal/model"
)

// ErrEmptyResponse is returned when the model replies with nothing
var ErrEmptyResponse = errors.New("empty response from model")

// ExtractionError wraps any provider or parse failure during extraction.
// Extraction is never retried and never yields partial output.
type ExtractionError struct {
	Mode     model.Mode
	Provider string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("claim extraction (%s via %s) failed: %v", e.Mode, e.Provider, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Result is the untrusted output of one extraction call
type Result struct {
	Claims     []model.ClaimRecord // Pending records in extraction order
	Modified   string              // Marked-up copy (markup mode only)
	Topic      string              // Topic (structured mode only)
	Model      string
	TokensUsed int
}

// Extractor turns a document into candidate claims
type Extractor interface {
	Mode() model.Mode
	Extract(ctx context.Context, doc string) (*Result, error)
}

// New creates the extractor for the configured mode
func New(cfg model.ExtractConfig, provider llm.Provider) (Extractor, error) {
	switch cfg.Mode {
	case model.ModeMarkup, "":
		markers := locate.Markers{Open: cfg.OpenMarker, Close: cfg.CloseMarker}
		return NewMarkupExtractor(provider, locate.NewLocator(markers)), nil
	case model.ModeStructured:
		return NewStructuredExtractor(provider), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode: %s", cfg.Mode)
	}
}

// MarkupExtractor asks the model to return the document with claims wrapped
// in markers
type MarkupExtractor struct {
	provider llm.Provider
	locator  *locate.Locator
}

// NewMarkupExtractor creates a markup extractor
func NewMarkupExtractor(provider llm.Provider, locator *locate.Locator) *MarkupExtractor {
	if locator == nil {
		locator = locate.NewLocator(locate.DefaultMarkers)
	}
	return &MarkupExtractor{provider: provider, locator: locator}
}

// Mode returns model.ModeMarkup
func (e *MarkupExtractor) Mode() model.Mode {
	return model.ModeMarkup
}

// Extract returns the modified text and the claims read from its markers
func (e *MarkupExtractor) Extract(ctx context.Context, doc string) (*Result, error) {
	markers := e.locator.Markers()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: MarkupPrompt(markers.Open, markers.Close),
		Prompt: doc,
	})
	if err != nil {
		return nil, e.fail(err)
	}

	modified := llm.StripCodeFence(resp.Text)
	if modified == "" {
		return nil, e.fail(ErrEmptyResponse)
	}

	return &Result{
		Claims:     e.locator.ClaimsFromMarkup(modified),
		Modified:   modified,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

func (e *MarkupExtractor) fail(err error) error {
	return &ExtractionError{Mode: model.ModeMarkup, Provider: e.provider.Name(), Err: err}
}

// StructuredExtractor asks the model for a JSON list of claim strings
type StructuredExtractor struct {
	provider llm.Provider
}

// NewStructuredExtractor creates a structured extractor
func NewStructuredExtractor(provider llm.Provider) *StructuredExtractor {
	return &StructuredExtractor{provider: provider}
}

// Mode returns model.ModeStructured
func (e *StructuredExtractor) Mode() model.Mode {
	return model.ModeStructured
}

type claimList struct {
	Claims []string `json:"claims"`
	Topic  string   `json:"topic"`
}

// Extract returns one pending record per listed claim.
// Blank entries are kept so the locator can reject them visibly.
func (e *StructuredExtractor) Extract(ctx context.Context, doc string) (*Result, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System: StructuredPrompt(),
		Prompt: doc,
		JSON:   true,
	})
	if err != nil {
		return nil, e.fail(err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, e.fail(ErrEmptyResponse)
	}

	var list claimList
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(resp.Text)), &list); err != nil {
		return nil, e.fail(fmt.Errorf("parse claim list: %w", err))
	}

	claims := make([]model.ClaimRecord, len(list.Claims))
	for i, text := range list.Claims {
		claims[i] = model.ClaimRecord{
			Index:  i,
			Text:   text,
			Status: model.StatusPending,
		}
	}

	return &Result{
		Claims:     claims,
		Topic:      strings.TrimSpace(list.Topic),
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

func (e *StructuredExtractor) fail(err error) error {
	return &ExtractionError{Mode: model.ModeStructured, Provider: e.provider.Name(), Err: err}
}
