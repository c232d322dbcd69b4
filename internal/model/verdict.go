package model

import (
	"strings"
)

// Placeholder is shown for verdict fields the annotator did not supply
const Placeholder = "unknown"

// Verdict is the annotator's judgment about a claim.
// It is either a StructuredVerdict or a FreeTextVerdict; Normalize turns
// both into an Assessment.
type Verdict interface {
	verdict()
}

// StructuredVerdict is a verdict returned as a JSON object
type StructuredVerdict struct {
	Truth       string `json:"truth"`
	Bias        string `json:"bias"`
	Harm        string `json:"harm"`
	Explanation string `json:"explanation"`
}

// FreeTextVerdict is a verdict returned as "truth\nharm\nexplanation..."
type FreeTextVerdict struct {
	Raw string `json:"raw"`
}

func (StructuredVerdict) verdict() {}
func (FreeTextVerdict) verdict()   {}

// Assessment is the canonical verdict shape consumed by the renderer
type Assessment struct {
	Truth       string `json:"truth"`
	Bias        string `json:"bias"`
	Harm        string `json:"harm"`
	Explanation string `json:"explanation,omitempty"`
}

// Normalize converts any verdict variant into an Assessment.
// Missing fields become Placeholder; a nil verdict yields all placeholders.
func Normalize(v Verdict) Assessment {
	var a Assessment

	switch v := v.(type) {
	case StructuredVerdict:
		a = Assessment{
			Truth:       strings.TrimSpace(v.Truth),
			Bias:        strings.TrimSpace(v.Bias),
			Harm:        strings.TrimSpace(v.Harm),
			Explanation: strings.TrimSpace(v.Explanation),
		}
	case *StructuredVerdict:
		if v != nil {
			return Normalize(*v)
		}
	case FreeTextVerdict:
		a = parseFreeText(v.Raw)
	case *FreeTextVerdict:
		if v != nil {
			return Normalize(*v)
		}
	}

	if a.Truth == "" {
		a.Truth = Placeholder
	}
	if a.Bias == "" {
		a.Bias = Placeholder
	}
	if a.Harm == "" {
		a.Harm = Placeholder
	}
	return a
}

// parseFreeText reads the first non-empty line as truth, the second as harm
// and joins the rest into the explanation. Free text carries no bias line.
func parseFreeText(raw string) Assessment {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	var a Assessment
	if len(lines) > 0 {
		a.Truth = stripLabel(lines[0], "truth")
	}
	if len(lines) > 1 {
		a.Harm = stripLabel(lines[1], "harm")
	}
	if len(lines) > 2 {
		a.Explanation = strings.Join(lines[2:], " ")
	}
	return a
}

// stripLabel removes a leading "Label:" that models like to add
func stripLabel(line, label string) string {
	if len(line) > len(label) && strings.EqualFold(line[:len(label)], label) {
		rest := strings.TrimSpace(line[len(label):])
		if strings.HasPrefix(rest, ":") {
			return strings.TrimSpace(rest[1:])
		}
	}
	return line
}
