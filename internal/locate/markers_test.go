package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanMarkers(t *testing.T) {
	modified := "A <claim>one</claim> b <claim>two words</claim>."
	got := ScanMarkers(modified, DefaultMarkers)

	assert.Equal(t, []Marked{
		{Text: "one", Position: 9, Length: 3},
		{Text: "two words", Position: 30, Length: 9},
	}, got)
	for _, m := range got {
		assert.Equal(t, m.Text, modified[m.Position:m.Position+m.Length])
	}
}

func TestScanMarkers_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		modified string
		want     []string
	}{
		{"empty", "", nil},
		{"no markers", "plain text", nil},
		{"marker at start and end", "<claim>all of it</claim>", []string{"all of it"}},
		{"stray close before open", "</claim>x <claim>y</claim>", []string{"y"}},
		{"open inside claim is text", "<claim>a <claim>b</claim> c", []string{"a <claim>b"}},
		{"unterminated dropped", "<claim>done</claim> <claim>never closed", []string{"done"}},
		{"empty claim", "<claim></claim>", []string{""}},
		{"multiline", "<claim>line one\nline two</claim>", []string{"line one\nline two"}},
		{"partial marker at end", "text <cla", nil},
		{"partial close at end", "<claim>text</cl", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range ScanMarkers(tt.modified, DefaultMarkers) {
				got = append(got, m.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanMarkers_CustomMarkers(t *testing.T) {
	got := ScanMarkers("x [[a]] y [[b]]", Markers{Open: "[[", Close: "]]"})
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)
	assert.Equal(t, "b", got[1].Text)

	assert.Nil(t, ScanMarkers("x [[a]]", Markers{}))
}

func TestStripMarkers(t *testing.T) {
	assert.Equal(t, "A one b two.", StripMarkers("A <claim>one</claim> b <claim>two</claim>.", DefaultMarkers))
	assert.Equal(t, "no tags", StripMarkers("no tags", DefaultMarkers))
	assert.Equal(t, "</claim>x y <claim>z", StripMarkers("</claim>x <claim>y</claim> <claim>z", DefaultMarkers))
}
