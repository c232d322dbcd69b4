package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrNoCaptions is returned when a video has no caption track in the
// requested language
var ErrNoCaptions = errors.New("no captions available")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID derives the video identifier from a watch URL (v= query
// parameter), a youtu.be short link, an /embed/ or /shorts/ URL, or a bare id
func VideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("not a video URL or id: %q", raw)
	}

	if id := parsed.Query().Get("v"); videoIDPattern.MatchString(id) {
		return id, nil
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch {
	case host == "youtu.be" && len(segments) >= 1 && videoIDPattern.MatchString(segments[0]):
		return segments[0], nil
	case len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "v") &&
		videoIDPattern.MatchString(segments[1]):
		return segments[1], nil
	}

	return "", fmt.Errorf("could not extract video id from %q", raw)
}

// Segment is one caption cue
type Segment struct {
	Text     string        `json:"text"`
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// JoinSegments concatenates caption texts with single spaces. Timing is
// discarded. Whitespace runs inside a cue, line breaks included, collapse to
// one space and cues with no text are skipped, so the transcript never holds
// doubled separators.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.Join(strings.Fields(s.Text), " "); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// json3 caption track format
type captionTrack struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ParseCaptions decodes a json3 caption track into segments
func ParseCaptions(data []byte) ([]Segment, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoCaptions
	}

	var track captionTrack
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}

	var segments []Segment
	for _, event := range track.Events {
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		t := strings.TrimSpace(text.String())
		if t == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     t,
			Start:    time.Duration(event.TStartMs) * time.Millisecond,
			Duration: time.Duration(event.DDurationMs) * time.Millisecond,
		})
	}

	if len(segments) == 0 {
		return nil, ErrNoCaptions
	}
	return segments, nil
}

// TranscriptURL builds the caption request for a video on the timedtext endpoint
func TranscriptURL(baseURL, videoID, lang string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse transcript endpoint: %w", err)
	}
	q := u.Query()
	q.Set("v", videoID)
	if lang != "" {
		q.Set("lang", lang)
	}
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TranscriptClient fetches caption tracks
type TranscriptClient struct {
	fetcher *Fetcher
	baseURL string
	lang    string
}

// NewTranscriptClient creates a client for the given timedtext endpoint
func NewTranscriptClient(fetcher *Fetcher, baseURL, lang string) *TranscriptClient {
	return &TranscriptClient{fetcher: fetcher, baseURL: baseURL, lang: lang}
}

// Fetch downloads the raw caption track of a video
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string) ([]byte, string, error) {
	trackURL, err := TranscriptURL(c.baseURL, videoID, c.lang)
	if err != nil {
		return nil, "", err
	}
	res, err := c.fetcher.Fetch(ctx, trackURL, "application/json")
	if err != nil {
		return nil, trackURL, fmt.Errorf("fetch captions for %s: %w", videoID, err)
	}
	return res.Body, trackURL, nil
}
