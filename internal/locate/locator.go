// Package locate maps claim text back onto the original document.
package locate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/factlight/internal/model"
)

// ErrClaimNotFound is returned when a claim cannot be found at or after the cursor
var ErrClaimNotFound = errors.New("claim text not found in document")

// LookupError records a per-claim lookup failure
type LookupError struct {
	Index  int
	Text   string
	Cursor int
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("claim %d %q: %v (searched from offset %d)", e.Index, truncate(e.Text, 60), e.Err, e.Cursor)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Locator binds claims to spans of the original document
type Locator struct {
	markers Markers
}

// NewLocator creates a locator that scans for the given claim markers
func NewLocator(markers Markers) *Locator {
	if markers.Open == "" || markers.Close == "" {
		markers = DefaultMarkers
	}
	return &Locator{markers: markers}
}

// Markers returns the markers used by the marker-scan strategy
func (l *Locator) Markers() Markers {
	return l.markers
}

// ClaimsFromMarkup builds pending claim records from the modified text, in
// the order the claims appear there
func (l *Locator) ClaimsFromMarkup(modified string) []model.ClaimRecord {
	marked := ScanMarkers(modified, l.markers)
	claims := make([]model.ClaimRecord, len(marked))
	for i, m := range marked {
		claims[i] = model.ClaimRecord{
			Index:  i,
			Text:   m.Text,
			Status: model.StatusPending,
		}
	}
	return claims
}

// LocateMarkup runs the marker-scan strategy: claims are read from the
// modified text and then re-located in the original document
func (l *Locator) LocateMarkup(doc, modified string) ([]model.ClaimRecord, []error) {
	return l.Locate(doc, l.ClaimsFromMarkup(modified))
}

// Locate runs the direct-search strategy over claims in extraction order.
//
// Each claim binds to its first occurrence at or after the cursor left by the
// previous located claim, so repeated text resolves to successive occurrences
// and spans never overlap. Claims that cannot be found or are empty are
// returned without a span, with one error each in the second return value.
// The input slice is not modified.
func (l *Locator) Locate(doc string, claims []model.ClaimRecord) ([]model.ClaimRecord, []error) {
	out := make([]model.ClaimRecord, len(claims))
	var errs []error
	cursor := 0

	for i, c := range claims {
		c.Span = nil

		if strings.TrimSpace(c.Text) == "" {
			err := fmt.Errorf("claim %d: %w", c.Index, model.ErrEmptyClaim)
			c.Status = model.StatusRejected
			c.Failure = model.ErrEmptyClaim.Error()
			out[i] = c
			errs = append(errs, err)
			continue
		}

		start, end, ok := IndexFold(doc, c.Text, cursor)
		if !ok {
			err := &LookupError{Index: c.Index, Text: c.Text, Cursor: cursor, Err: ErrClaimNotFound}
			c.Status = model.StatusUnlocated
			c.Failure = ErrClaimNotFound.Error()
			out[i] = c
			errs = append(errs, err)
			continue
		}

		c.Span = &model.Span{Position: start, Length: end - start}
		c.Status = model.StatusLocated
		c.Failure = ""
		out[i] = c
		cursor = end
	}

	return out, errs
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
