// Package annotate asks a language model for a truth, bias and harm verdict
// on each claim.
package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/model"
)

// Format selects how the model is asked to answer
type Format string

const (
	FormatJSON Format = "json" // {"truth","bias","harm","decision"}
	FormatText Format = "text" // truth line, harm line, explanation
)

// ErrEmptyVerdict is returned when the model replies with nothing
var ErrEmptyVerdict = errors.New("empty verdict from model")

// Annotator fetches one verdict per claim
type Annotator struct {
	provider llm.Provider
	format   Format
}

// New creates an annotator; an empty format means FormatJSON
func New(provider llm.Provider, format Format) (*Annotator, error) {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unknown verdict format: %s", format)
	}
	return &Annotator{provider: provider, format: format}, nil
}

// Prompt returns the instruction text for the annotator's format
func (a *Annotator) Prompt() string {
	if a.format == FormatText {
		return textPrompt
	}
	return jsonPrompt
}

// Annotate returns the model's verdict on claim.
// Allowed values are not checked; unparsable JSON is kept as free text.
func (a *Annotator) Annotate(ctx context.Context, claim string) (model.Verdict, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return nil, model.ErrEmptyClaim
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: a.Prompt(),
		Prompt: claim,
		JSON:   a.format == FormatJSON,
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, ErrEmptyVerdict
	}

	if a.format == FormatJSON {
		if v, ok := ParseStructured(text); ok {
			return v, nil
		}
	}
	return model.FreeTextVerdict{Raw: llm.StripCodeFence(text)}, nil
}

// ParseStructured reads a JSON verdict object. Keys are matched
// case-insensitively, unknown keys are ignored and non-string values are
// coerced. It reports false when text holds no verdict object.
func ParseStructured(text string) (model.StructuredVerdict, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(text)), &raw); err != nil {
		return model.StructuredVerdict{}, false
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}

	known := false
	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := fields[k]; ok && v != nil {
				known = true
				if s := strings.TrimSpace(cast.ToString(v)); s != "" {
					return s
				}
			}
		}
		return ""
	}

	v := model.StructuredVerdict{
		Truth:       str("truth", "truth_value"),
		Bias:        str("bias"),
		Harm:        str("harm", "harm_value"),
		Explanation: str("decision", "explanation", "reasoning"),
	}

	var sources []string
	switch s := fields["sources"].(type) {
	case nil:
	case string:
		if s = strings.TrimSpace(s); s != "" {
			sources = []string{s}
		}
	default:
		sources = cast.ToStringSlice(s)
	}
	if len(sources) > 0 {
		known = true
		cited := "Sources: " + strings.Join(sources, "; ")
		if v.Explanation == "" {
			v.Explanation = cited
		} else {
			v.Explanation += " " + cited
		}
	}

	return v, known
}
