package locate

import "strings"

// Markers delimit claims in model-modified text
type Markers struct {
	Open  string
	Close string
}

// DefaultMarkers are the tags the claim prompt asks the model to emit
var DefaultMarkers = Markers{Open: "<claim>", Close: "</claim>"}

// Marked is a claim found between markers, in modified-text coordinates
type Marked struct {
	Text     string
	Position int // Offset of the first content byte (after the opening marker)
	Length   int
}

type scanState int

const (
	outsideClaim scanState = iota
	insideClaim
)

// ScanMarkers walks the modified text once and returns every complete
// claim in order.
//
// outsideClaim --open--> insideClaim --close--> outsideClaim
//
// A closing marker seen outside a claim and an opening marker seen inside
// one are ordinary text. A claim still open at the end of input is dropped.
func ScanMarkers(modified string, m Markers) []Marked {
	if m.Open == "" || m.Close == "" {
		return nil
	}

	var (
		out   []Marked
		state = outsideClaim
		start int
	)

	for i := 0; i < len(modified); {
		switch state {
		case outsideClaim:
			if strings.HasPrefix(modified[i:], m.Open) {
				i += len(m.Open)
				start = i
				state = insideClaim
				continue
			}
		case insideClaim:
			if strings.HasPrefix(modified[i:], m.Close) {
				out = append(out, Marked{
					Text:     modified[start:i],
					Position: start,
					Length:   i - start,
				})
				i += len(m.Close)
				state = outsideClaim
				continue
			}
		}
		i++
	}

	return out
}

// StripMarkers removes every complete marker pair, leaving claim content in place.
// Stray or unterminated markers are kept as text, matching ScanMarkers.
func StripMarkers(modified string, m Markers) string {
	claims := ScanMarkers(modified, m)
	if len(claims) == 0 {
		return modified
	}

	var b strings.Builder
	b.Grow(len(modified))
	prev := 0
	for _, c := range claims {
		b.WriteString(modified[prev : c.Position-len(m.Open)])
		b.WriteString(c.Text)
		prev = c.Position + c.Length + len(m.Close)
	}
	b.WriteString(modified[prev:])
	return b.String()
}
