package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ClaimRecord is the unit of work passed between pipeline stages
type ClaimRecord struct {
	Index   int         `json:"index"`             // Ordinal assigned at extraction (ordering/debugging only)
	Text    string      `json:"text"`              // Claim text as returned by the extractor
	Span    *Span       `json:"span,omitempty"`    // Location in the original document (nil when not located)
	Verdict *Assessment `json:"verdict,omitempty"` // Canonical verdict, attached after annotation
	Status  ClaimStatus `json:"status"`            // Lifecycle state
	Failure string      `json:"failure,omitempty"` // Reason for unlocated/rejected/failed
}

// Span locates a claim within the original document.
// Offsets are byte offsets and always fall on UTF-8 rune boundaries.
type Span struct {
	Position int `json:"position"`
	Length   int `json:"length"`
}

// End returns the exclusive end offset of the span
func (s Span) End() int {
	return s.Position + s.Length
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(o Span) bool {
	return s.Position < o.End() && o.Position < s.End()
}

// ClaimStatus tracks where a claim is in the pipeline
type ClaimStatus string

const (
	StatusPending   ClaimStatus = "pending"   // Extracted, not yet located
	StatusLocated   ClaimStatus = "located"   // Span found in the original document
	StatusUnlocated ClaimStatus = "unlocated" // Claim text not found at or after the cursor
	StatusRejected  ClaimStatus = "rejected"  // Failed validation (e.g. empty text)
	StatusAnnotated ClaimStatus = "annotated" // Verdict attached
	StatusFailed    ClaimStatus = "failed"    // Verdict fetch failed
)

var (
	// ErrEmptyClaim is returned for claims whose text is empty after trimming
	ErrEmptyClaim = errors.New("empty claim text")

	// ErrOverlap is returned when two spans of the same document overlap
	ErrOverlap = errors.New("overlapping claim spans")

	// ErrOutOfRange is returned when a span reaches past the end of the document
	ErrOutOfRange = errors.New("claim span out of range")
)

// SpanError describes a structural problem with one or two spans
type SpanError struct {
	Err    error
	Index  int
	Span   Span
	Other  *Span // Set for overlaps
	DocLen int
}

func (e *SpanError) Error() string {
	switch {
	case e.Other != nil:
		return fmt.Sprintf("claim %d: %v: [%d,%d) and [%d,%d)", e.Index, e.Err,
			e.Other.Position, e.Other.End(), e.Span.Position, e.Span.End())
	default:
		return fmt.Sprintf("claim %d: %v: [%d,%d) in document of length %d", e.Index, e.Err,
			e.Span.Position, e.Span.End(), e.DocLen)
	}
}

func (e *SpanError) Unwrap() error {
	return e.Err
}

// Validate checks a single claim against the document length
func (c ClaimRecord) Validate(docLen int) error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("claim %d: %w", c.Index, ErrEmptyClaim)
	}
	if c.Span == nil {
		return nil
	}
	if c.Span.Length <= 0 {
		return &SpanError{Err: ErrEmptyClaim, Index: c.Index, Span: *c.Span, DocLen: docLen}
	}
	// compared without End so that huge values cannot overflow
	if c.Span.Position < 0 || c.Span.Position > docLen || c.Span.Length > docLen-c.Span.Position {
		return &SpanError{Err: ErrOutOfRange, Index: c.Index, Span: *c.Span, DocLen: docLen}
	}
	return nil
}

// ValidateSpans checks every located claim and rejects any pair of overlapping spans.
// Claims without a span are ignored.
func ValidateSpans(docLen int, claims []ClaimRecord) error {
	located := Located(claims)
	for _, c := range located {
		if err := c.Validate(docLen); err != nil {
			return err
		}
	}

	SortByPosition(located)
	for i := 1; i < len(located); i++ {
		prev, cur := located[i-1], located[i]
		if prev.Span.Overlaps(*cur.Span) {
			other := *prev.Span
			return &SpanError{Err: ErrOverlap, Index: cur.Index, Span: *cur.Span, Other: &other, DocLen: docLen}
		}
	}
	return nil
}

// Located returns a copy of the claims that carry a span
func Located(claims []ClaimRecord) []ClaimRecord {
	var out []ClaimRecord
	for _, c := range claims {
		if c.Span != nil {
			out = append(out, c)
		}
	}
	return out
}

// SortByPosition sorts claims by span position, keeping extraction order for ties
func SortByPosition(claims []ClaimRecord) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Span.Position < claims[j].Span.Position
	})
}
