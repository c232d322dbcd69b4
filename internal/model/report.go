package model

import "time"

// Report is the result of one pipeline run.
// It lives for a single request and is only written out on demand.
type Report struct {
	ID        string    `json:"id"`              // Run identifier
	Source    string    `json:"source"`          // Where the document came from (file path, URL, "stdin")
	Mode      Mode      `json:"mode"`            // Extraction variant used
	Topic     string    `json:"topic,omitempty"` // Topic reported by structured extraction
	CreatedAt time.Time `json:"created_at"`

	Document string        `json:"document"`           // Original text, never mutated
	Modified string        `json:"modified,omitempty"` // Marked-up copy returned by markup extraction
	Claims   []ClaimRecord `json:"claims"`
	HTML     string        `json:"html"`               // Rendered markup (fragment, not a full page)
	Warnings []string      `json:"warnings,omitempty"` // Per-claim problems that did not abort the run

	Provider string `json:"provider,omitempty"` // LLM provider name
	Model    string `json:"model,omitempty"`    // LLM model name
}

// Mode selects the extraction variant and with it the span-location strategy
type Mode string

const (
	ModeMarkup     Mode = "markup"     // <claim>...</claim> inline tags, marker-scan strategy
	ModeStructured Mode = "structured" // JSON list of claims, direct-search strategy
)

// Counts summarises claim statuses for display
func (r *Report) Counts() map[ClaimStatus]int {
	counts := make(map[ClaimStatus]int)
	for _, c := range r.Claims {
		counts[c.Status]++
	}
	return counts
}
