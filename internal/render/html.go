// Package render turns a document and its located claims into highlighted HTML.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/factlight/internal/model"
	"golang.org/x/net/html"
)

// ErrOutOfOrder is returned when an incremental render is asked to go backwards
var ErrOutOfOrder = errors.New("claim span starts before render cursor")

// ErrNoSpan is returned when an incremental render gets a claim that was never located
var ErrNoSpan = errors.New("claim has no span")

// RenderClaim appends the plain text between cursor and the claim, then the
// highlighted claim, and returns the new cursor.
//
// Callers rendering one claim at a time must pass claims in non-decreasing
// position order and call RenderTail once after the last claim.
func RenderClaim(b *strings.Builder, doc string, cursor int, claim model.ClaimRecord) (int, error) {
	if claim.Span == nil {
		return cursor, fmt.Errorf("claim %d: %w", claim.Index, ErrNoSpan)
	}
	if err := claim.Validate(len(doc)); err != nil {
		return cursor, err
	}
	if claim.Span.Position < cursor {
		return cursor, fmt.Errorf("claim %d at %d, cursor %d: %w", claim.Index, claim.Span.Position, cursor, ErrOutOfOrder)
	}

	b.WriteString(html.EscapeString(doc[cursor:claim.Span.Position]))

	slice := html.EscapeString(doc[claim.Span.Position:claim.Span.End()])
	if claim.Status == model.StatusFailed {
		writeFailed(b, claim, slice)
	} else {
		writeHighlight(b, claim, slice)
	}

	return claim.Span.End(), nil
}

// RenderTail appends the escaped remainder of the document from cursor
func RenderTail(b *strings.Builder, doc string, cursor int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor < len(doc) {
		b.WriteString(html.EscapeString(doc[cursor:]))
	}
}

// Render renders the whole document in one pass.
//
// Claims without a span are skipped. Overlapping or out-of-range spans
// reject the render with no output.
func Render(doc string, claims []model.ClaimRecord) (string, error) {
	if err := model.ValidateSpans(len(doc), claims); err != nil {
		return "", err
	}

	located := model.Located(claims)
	model.SortByPosition(located)

	var b strings.Builder
	b.Grow(len(doc) + len(located)*256)

	cursor := 0
	for _, c := range located {
		next, err := RenderClaim(&b, doc, cursor, c)
		if err != nil {
			return "", err
		}
		cursor = next
	}
	RenderTail(&b, doc, cursor)

	return b.String(), nil
}

func writeHighlight(b *strings.Builder, claim model.ClaimRecord, slice string) {
	a := model.Normalize(nil)
	if claim.Verdict != nil {
		a = *claim.Verdict
	}

	b.WriteString(`<mark class="claim" data-index="`)
	b.WriteString(strconv.Itoa(claim.Index))
	writeAttr(b, "data-truth", a.Truth)
	writeAttr(b, "data-bias", a.Bias)
	writeAttr(b, "data-harm", a.Harm)
	writeAttr(b, "title", Tooltip(a, *claim.Span))
	b.WriteString(`">`)
	b.WriteString(slice)
	b.WriteString(`</mark>`)
}

func writeFailed(b *strings.Builder, claim model.ClaimRecord, slice string) {
	reason := claim.Failure
	if reason == "" {
		reason = "unknown error"
	}

	b.WriteString(`<span class="claim-failed" data-index="`)
	b.WriteString(strconv.Itoa(claim.Index))
	writeAttr(b, "title", "verdict unavailable: "+reason)
	b.WriteString(`">`)
	b.WriteString(slice)
	b.WriteString(`</span>`)
}

// writeAttr closes the previous attribute value and writes name="value"
// without the closing quote
func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(`" `)
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
}

// Tooltip builds the hover text for a highlighted claim
func Tooltip(a model.Assessment, span model.Span) string {
	lines := []string{
		"Truth: " + a.Truth,
		"Bias: " + a.Bias,
		"Harm: " + a.Harm,
	}
	if a.Explanation != "" {
		lines = append(lines, a.Explanation)
	}
	lines = append(lines, fmt.Sprintf("Position: %d, Length: %d", span.Position, span.Length))
	return strings.Join(lines, "\n")
}
