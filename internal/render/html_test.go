package render

import (
	"bytes"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/factlight/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripMarkup(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

func claimAt(index, pos, length int) model.ClaimRecord {
	return model.ClaimRecord{
		Index:  index,
		Text:   "claim",
		Span:   &model.Span{Position: pos, Length: length},
		Status: model.StatusAnnotated,
		Verdict: &model.Assessment{
			Truth: "Certainly True",
			Bias:  "Neutral",
			Harm:  "Harmful to no groups",
		},
	}
}

func TestRender_WaterBoils(t *testing.T) {
	doc := "Water boils at 100 degrees Celsius at sea level."
	claim := model.ClaimRecord{
		Index:  0,
		Text:   "Water boils at 100 degrees Celsius at sea level",
		Span:   &model.Span{Position: 0, Length: 47},
		Status: model.StatusAnnotated,
		Verdict: &model.Assessment{
			Truth: "Certainly True",
			Bias:  model.Placeholder,
			Harm:  "Harmful to no groups",
		},
	}

	out, err := Render(doc, []model.ClaimRecord{claim})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<mark class="claim"`), "no plain prefix expected: %s", out)
	assert.True(t, strings.HasSuffix(out, `</mark>.`), "expected escaped tail '.': %s", out)
	assert.Contains(t, out, `data-truth="Certainly True"`)
	assert.Contains(t, out, `data-harm="Harmful to no groups"`)
	assert.Contains(t, out, ">Water boils at 100 degrees Celsius at sea level</mark>")
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRenderClaim_ReturnsCursor(t *testing.T) {
	doc := "AAAAA BBB  CCCC"
	var b strings.Builder

	cursor, err := RenderClaim(&b, doc, 0, claimAt(0, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, 8, cursor)

	first := b.Len()
	cursor, err = RenderClaim(&b, doc, cursor, claimAt(1, 10, 4))
	require.NoError(t, err)
	assert.Equal(t, 14, cursor)

	// plain text of the second step is doc[8:10]
	assert.True(t, strings.HasPrefix(b.String()[first:], "B <mark"))

	RenderTail(&b, doc, cursor)
	assert.Equal(t, doc, stripMarkup(b.String()))
}

func TestRenderClaim_OutOfOrder(t *testing.T) {
	var b strings.Builder
	_, err := RenderClaim(&b, "0123456789", 6, claimAt(0, 2, 2))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Zero(t, b.Len())
}

func TestRenderClaim_NoSpan(t *testing.T) {
	var b strings.Builder
	cursor, err := RenderClaim(&b, "abc", 1, model.ClaimRecord{Index: 3, Text: "x"})
	assert.ErrorIs(t, err, ErrNoSpan)
	assert.Equal(t, 1, cursor)
}

func TestRender_RejectsOverlap(t *testing.T) {
	out, err := Render("0123456789", []model.ClaimRecord{claimAt(0, 0, 5), claimAt(1, 3, 4)})
	assert.ErrorIs(t, err, model.ErrOverlap)
	assert.Empty(t, out)
}

func TestRender_RejectsOutOfRange(t *testing.T) {
	_, err := Render("short", []model.ClaimRecord{claimAt(0, 3, 10)})
	assert.ErrorIs(t, err, model.ErrOutOfRange)
}

func TestRender_SortsByPosition(t *testing.T) {
	doc := "one two three"
	out, err := Render(doc, []model.ClaimRecord{claimAt(1, 8, 5), claimAt(0, 0, 3)})
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `data-index="0"`), strings.Index(out, `data-index="1"`))
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRender_SkipsUnlocated(t *testing.T) {
	doc := "nothing found here"
	out, err := Render(doc, []model.ClaimRecord{{Index: 0, Text: "missing", Status: model.StatusUnlocated}})
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestRender_EmptyDocument(t *testing.T) {
	out, err := Render("", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRender_EscapesOnce(t *testing.T) {
	doc := `if a < b && c > d then "x" <claim & co> done`
	start := strings.Index(doc, "<claim & co>")
	out, err := Render(doc, []model.ClaimRecord{claimAt(0, start, len("<claim & co>"))})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "if a &lt; b &amp;&amp; c &gt; d then &#34;x&#34; <mark"))
	assert.Contains(t, out, ">&lt;claim &amp; co&gt;</mark>")
	assert.NotContains(t, out, "&amp;lt;")
	assert.NotContains(t, out, "&amp;amp;")
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRender_AlreadyEscapedSourceIsEscapedAgainOnce(t *testing.T) {
	doc := "literal &amp; entity"
	out, err := Render(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "literal &amp;amp; entity", out)
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRender_VerdictIsEscaped(t *testing.T) {
	doc := "claim text"
	c := claimAt(0, 0, 5)
	c.Verdict = &model.Assessment{Truth: `"><script>alert(1)</script>`, Bias: "a & b", Harm: "<none>"}

	out, err := Render(doc, []model.ClaimRecord{c})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `data-bias="a &amp; b"`)
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRender_MissingVerdictUsesPlaceholders(t *testing.T) {
	c := claimAt(0, 0, 3)
	c.Verdict = nil
	c.Status = model.StatusLocated

	out, err := Render("abc", []model.ClaimRecord{c})
	require.NoError(t, err)
	assert.Contains(t, out, `data-truth="unknown"`)
	assert.Contains(t, out, `data-harm="unknown"`)
}

func TestRender_FailedVerdictMarker(t *testing.T) {
	doc := "Alpha. Beta."
	ok := claimAt(0, 0, 5)
	failed := claimAt(1, 7, 4)
	failed.Status = model.StatusFailed
	failed.Verdict = nil
	failed.Failure = "timeout <5s>"

	out, err := Render(doc, []model.ClaimRecord{ok, failed})
	require.NoError(t, err)

	assert.Contains(t, out, `<mark class="claim" data-index="0"`)
	assert.Contains(t, out, `<span class="claim-failed" data-index="1" title="verdict unavailable: timeout &lt;5s&gt;">Beta</span>`)
	assert.Equal(t, doc, stripMarkup(out))
}

func TestRender_RoundTripProperty(t *testing.T) {
	alphabet := []rune("ab <>&\"'\n\té€😀 xyz.")
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(60)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[rng.Intn(len(alphabet))]
		}
		doc := string(runes)

		// rune boundaries in byte offsets
		var bounds []int
		for i := range doc {
			bounds = append(bounds, i)
		}
		bounds = append(bounds, len(doc))

		picked := map[int]bool{}
		for k := rng.Intn(8); k > 0; k-- {
			picked[bounds[rng.Intn(len(bounds))]] = true
		}
		var cuts []int
		for p := range picked {
			cuts = append(cuts, p)
		}
		sort.Ints(cuts)

		var claims []model.ClaimRecord
		for i := 0; i+1 < len(cuts); i += 2 {
			claims = append(claims, claimAt(len(claims), cuts[i], cuts[i+1]-cuts[i]))
		}
		rng.Shuffle(len(claims), func(i, j int) { claims[i], claims[j] = claims[j], claims[i] })

		out, err := Render(doc, claims)
		require.NoError(t, err, "doc %q claims %d", doc, len(claims))
		require.True(t, utf8.ValidString(out))
		require.Equal(t, doc, stripMarkup(out), "doc %q", doc)
	}
}

func TestWritePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, "Report <1>", `<mark class="claim">x</mark>`, true))

	page := buf.String()
	assert.Contains(t, page, "<title>Report &lt;1&gt;</title>")
	assert.Contains(t, page, `<div class="document"><mark class="claim">x</mark></div>`)
	assert.Contains(t, page, "mark.claim")

	buf.Reset()
	require.NoError(t, WritePage(&buf, "t", "", false))
	assert.NotContains(t, buf.String(), "<style>")
}

func TestRender_RejectsOverflowingSpans(t *testing.T) {
	doc := "hello world"
	for _, span := range []model.Span{
		{Position: math.MaxInt, Length: 1},
		{Position: 2, Length: math.MaxInt},
	} {
		c := model.ClaimRecord{Index: 0, Text: "x", Span: &span, Status: model.StatusAnnotated}

		_, err := Render(doc, []model.ClaimRecord{c})
		assert.ErrorIs(t, err, model.ErrOutOfRange)

		var b strings.Builder
		cursor, err := RenderClaim(&b, doc, 0, c)
		assert.ErrorIs(t, err, model.ErrOutOfRange)
		assert.Equal(t, 0, cursor)
		assert.Empty(t, b.String())
	}
}
