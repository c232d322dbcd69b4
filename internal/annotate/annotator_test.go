package annotate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factlight/internal/llm"
	"github.com/ppiankov/factlight/internal/model"
)

// scriptedProvider answers each prompt from a table
type scriptedProvider struct {
	mu       sync.Mutex
	replies  map[string]string
	failures map[string]error
	delay    time.Duration
	requests []llm.CompletionRequest
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *scriptedProvider) Name() string                         { return "scripted" }
func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }
func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := p.failures[req.Prompt]; err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: p.replies[req.Prompt]}, nil
}

const waterClaim = "Water boils at 100 degrees Celsius at sea level"

func TestNew(t *testing.T) {
	a, err := New(&scriptedProvider{}, "")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, a.format)

	_, err = New(&scriptedProvider{}, "xml")
	assert.Error(t, err)
}

func TestAnnotate_JSON(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{
		waterClaim: `{"truth": "Certainly True", "bias": "Neutral", "harm": "Harmful to no groups", "decision": "Standard physics.", "sources": ["NIST"]}`,
	}}
	a, err := New(p, FormatJSON)
	require.NoError(t, err)

	v, err := a.Annotate(context.Background(), "  "+waterClaim+" ")
	require.NoError(t, err)

	assert.Equal(t, model.StructuredVerdict{
		Truth:       "Certainly True",
		Bias:        "Neutral",
		Harm:        "Harmful to no groups",
		Explanation: "Standard physics. Sources: NIST",
	}, v)

	require.Len(t, p.requests, 1)
	assert.True(t, p.requests[0].JSON)
	assert.Equal(t, waterClaim, p.requests[0].Prompt)
	assert.Contains(t, p.requests[0].System, "Certainly False")
	assert.Contains(t, p.requests[0].System, "Harmful to no groups")
	assert.Contains(t, p.requests[0].System, "Cite")
}

func TestAnnotate_JSONFallsBackToFreeText(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{
		waterClaim: "Certainly True\nHarmful to no groups\nWater boils at 100 C at standard pressure.",
	}}
	a, _ := New(p, FormatJSON)

	v, err := a.Annotate(context.Background(), waterClaim)
	require.NoError(t, err)

	ft, ok := v.(model.FreeTextVerdict)
	require.True(t, ok, "expected FreeTextVerdict, got %T", v)
	assessment := model.Normalize(ft)
	assert.Equal(t, "Certainly True", assessment.Truth)
	assert.Equal(t, "Harmful to no groups", assessment.Harm)
	assert.Equal(t, model.Placeholder, assessment.Bias)
}

func TestAnnotate_Text(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{
		waterClaim: "Truth: Certainly True\n\nHarm: Harmful to no groups\nWell established.",
	}}
	a, _ := New(p, FormatText)

	v, err := a.Annotate(context.Background(), waterClaim)
	require.NoError(t, err)

	assert.False(t, p.requests[0].JSON)
	assert.Contains(t, p.requests[0].System, "first line")

	assessment := model.Normalize(v)
	assert.Equal(t, "Certainly True", assessment.Truth)
	assert.Equal(t, "Harmful to no groups", assessment.Harm)
	assert.Equal(t, "Well established.", assessment.Explanation)
}

func TestAnnotate_Errors(t *testing.T) {
	boom := errors.New("503 service unavailable")
	p := &scriptedProvider{
		replies:  map[string]string{"silent": "  "},
		failures: map[string]error{"down": boom},
	}
	a, _ := New(p, FormatJSON)

	_, err := a.Annotate(context.Background(), "down")
	assert.ErrorIs(t, err, boom)

	_, err = a.Annotate(context.Background(), "silent")
	assert.ErrorIs(t, err, ErrEmptyVerdict)

	_, err = a.Annotate(context.Background(), " \n ")
	assert.ErrorIs(t, err, model.ErrEmptyClaim)
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   model.StructuredVerdict
		wantOK bool
	}{
		{
			name:   "code fence and upper-case keys",
			in:     "```json\n{\"Truth\": \"Somewhat True\", \"HARM\": \"Slightly Harmful to farmers\"}\n```",
			want:   model.StructuredVerdict{Truth: "Somewhat True", Harm: "Slightly Harmful to farmers"},
			wantOK: true,
		},
		{
			name:   "non-string values are coerced",
			in:     `{"truth": 4, "bias": true, "harm": null, "explanation": "scored"}`,
			want:   model.StructuredVerdict{Truth: "4", Bias: "true", Explanation: "scored"},
			wantOK: true,
		},
		{
			name:   "single source string",
			in:     `{"truth": "Certainly False", "sources": "Encyclopaedia Britannica"}`,
			want:   model.StructuredVerdict{Truth: "Certainly False", Explanation: "Sources: Encyclopaedia Britannica"},
			wantOK: true,
		},
		{
			name:   "extra fields ignored",
			in:     `{"verdict_id": 7, "truth": "Neutral/Ambiguous"}`,
			want:   model.StructuredVerdict{Truth: "Neutral/Ambiguous"},
			wantOK: true,
		},
		{name: "no verdict keys", in: `{"answer": "yes"}`},
		{name: "not json", in: "Certainly True"},
		{name: "array", in: `["Certainly True"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStructured(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAnnotateAll_OrderAndFailures(t *testing.T) {
	p := &scriptedProvider{
		delay: 5 * time.Millisecond,
		replies: map[string]string{
			"claim a": `{"truth": "Certainly True"}`,
			"claim c": `{"truth": "Somewhat False"}`,
			"claim d": `{"truth": "Neutral/Ambiguous"}`,
		},
		failures: map[string]error{"claim b": errors.New("timeout")},
	}
	a, _ := New(p, FormatJSON)

	claims := []model.ClaimRecord{
		{Index: 0, Text: "claim a"},
		{Index: 3, Text: "claim b"},
		{Index: 5, Text: "claim c"},
		{Index: 6, Text: "claim d"},
	}

	outcomes := a.AnnotateAll(context.Background(), claims, 3)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes {
		assert.Equal(t, claims[i].Index, o.Index)
	}
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "Certainly True", model.Normalize(outcomes[0].Verdict).Truth)
	assert.EqualError(t, outcomes[1].Err, "timeout")
	assert.Nil(t, outcomes[1].Verdict)
	assert.Equal(t, "Somewhat False", model.Normalize(outcomes[2].Verdict).Truth)
	assert.Equal(t, "Neutral/Ambiguous", model.Normalize(outcomes[3].Verdict).Truth)

	assert.LessOrEqual(t, p.peak.Load(), int32(3))
}

func TestAnnotateAll_Sequential(t *testing.T) {
	p := &scriptedProvider{delay: 2 * time.Millisecond, replies: map[string]string{}}
	a, _ := New(p, FormatText)

	claims := make([]model.ClaimRecord, 5)
	for i := range claims {
		claims[i] = model.ClaimRecord{Index: i, Text: strings.Repeat("x", i+1)}
		p.replies[claims[i].Text] = "Certainly True\nHarmful to no groups"
	}

	outcomes := a.AnnotateAll(context.Background(), claims, 1)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
	}
	assert.Equal(t, int32(1), p.peak.Load())

	// One worker processes claims in submission order
	for i, req := range p.requests {
		assert.Equal(t, claims[i].Text, req.Prompt)
	}
}

func TestAnnotateAll_Cancelled(t *testing.T) {
	p := &scriptedProvider{delay: time.Second, replies: map[string]string{}}
	a, _ := New(p, FormatJSON)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	claims := []model.ClaimRecord{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}, {Index: 2, Text: "c"}}
	outcomes := a.AnnotateAll(ctx, claims, 1)

	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Error(t, o.Err, "outcome %d", i)
		assert.Equal(t, i, o.Index)
	}
}
