package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/factlight/internal/cache"
	"github.com/ppiankov/factlight/internal/model"
)

var (
	// ErrNoInput is returned when no input was given
	ErrNoInput = errors.New("no input given")

	// ErrTooManyInputs is returned when more than one input was given
	ErrTooManyInputs = errors.New("give exactly one input")

	// ErrDisallowed is returned when robots.txt forbids fetching a page
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// Waiter throttles outbound requests per host
type Waiter interface {
	WaitURL(ctx context.Context, rawURL string) error
}

// Input names exactly one document source
type Input struct {
	Text  string
	File  string
	URL   string
	Video string
	Stdin io.Reader
}

// ParseRef classifies a one-line input reference: http(s) URLs on video
// hosts become Video, other URLs become URL, anything else is a File path.
func ParseRef(ref string) Input {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if isVideoHost(lower) {
			if _, err := VideoID(ref); err == nil {
				return Input{Video: ref}
			}
		}
		return Input{URL: ref}
	}
	return Input{File: ref}
}

func isVideoHost(lowerURL string) bool {
	for _, host := range []string{"://youtu.be/", "://youtube.com/", "://www.youtube.com/", "://m.youtube.com/"} {
		if strings.Contains(lowerURL, host) {
			return true
		}
	}
	return false
}

// Loader resolves an Input into a Document
type Loader struct {
	fetcher     *Fetcher
	transcripts *TranscriptClient
	robots      *RobotsChecker
	registry    *Registry
	cache       cache.Cache
	cacheTTL    time.Duration
	limiter     Waiter
	maxBytes    int64
	logger      *zap.Logger
}

// NewLoader wires fetching, caching and throttling from configuration.
// Any of c, limiter and logger may be nil.
func NewLoader(cfg model.HTTPConfig, c cache.Cache, cacheTTL time.Duration, limiter Waiter, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NopCache{}
	}

	fetcher := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(cfg.UserAgent, fetcher.httpClient)
	}

	return &Loader{
		fetcher:     fetcher,
		transcripts: NewTranscriptClient(fetcher, cfg.TranscriptURL, cfg.TranscriptLang),
		robots:      robots,
		registry:    NewRegistry(),
		cache:       c,
		cacheTTL:    cacheTTL,
		limiter:     limiter,
		maxBytes:    cfg.MaxBodyBytes,
		logger:      logger,
	}
}

// Load reads the one input named by in
func (l *Loader) Load(ctx context.Context, in Input) (*Document, error) {
	given := 0
	for _, set := range []bool{in.Text != "", in.File != "", in.URL != "", in.Video != "", in.Stdin != nil} {
		if set {
			given++
		}
	}
	switch {
	case given == 0:
		return nil, ErrNoInput
	case given > 1:
		return nil, ErrTooManyInputs
	}

	switch {
	case in.Text != "":
		return FromText(in.Text)
	case in.File != "":
		return FromFile(in.File, l.maxBytes)
	case in.URL != "":
		return l.LoadPage(ctx, in.URL)
	case in.Video != "":
		return l.LoadTranscript(ctx, in.Video)
	default:
		return FromReader(in.Stdin, l.maxBytes)
	}
}

// LoadPage fetches a web page and keeps its visible text
func (l *Loader) LoadPage(ctx context.Context, rawURL string) (*Document, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("unsupported URL %q: only http and https are fetched", rawURL)
	}

	if l.robots != nil {
		allowed, delay, err := l.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if delay > 0 {
			l.logger.Debug("robots.txt crawl delay", zap.String("url", rawURL), zap.Duration("delay", delay))
		}
	}

	body, hit, err := cache.GetOrLoad(ctx, l.cache, cache.Key("page", rawURL), l.cacheTTL, func(ctx context.Context) ([]byte, error) {
		if err := l.wait(ctx, rawURL); err != nil {
			return nil, err
		}
		res, err := l.fetcher.Fetch(ctx, rawURL, "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")
		if err != nil {
			return nil, err
		}
		if !isTextContent(res.ContentType) {
			return nil, fmt.Errorf("unsupported content type %q", res.ContentType)
		}
		return res.Body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", rawURL, err)
	}
	l.logger.Debug("page loaded", zap.String("url", rawURL), zap.Bool("cache_hit", hit), zap.Int("bytes", len(body)))

	page, err := l.registry.ExtractPageText(string(body), rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", rawURL, err)
	}
	if strings.TrimSpace(page.Text) == "" {
		return nil, fmt.Errorf("page %s: %w", rawURL, ErrEmptyInput)
	}

	title := page.Title
	if title == "" {
		title = extractSubject(rawURL)
	}

	return &Document{Kind: KindWeb, Origin: rawURL, Title: title, Text: page.Text}, nil
}

// LoadTranscript fetches a video's captions and joins them into one document
func (l *Loader) LoadTranscript(ctx context.Context, video string) (*Document, error) {
	id, err := VideoID(video)
	if err != nil {
		return nil, err
	}

	key := cache.Key("transcript", id+"@"+l.transcripts.lang)
	data, hit, err := cache.GetOrLoad(ctx, l.cache, key, l.cacheTTL, func(ctx context.Context) ([]byte, error) {
		if err := l.wait(ctx, l.transcripts.baseURL); err != nil {
			return nil, err
		}
		data, _, err := l.transcripts.Fetch(ctx, id)
		return data, err
	})
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	segments, err := ParseCaptions(data)
	if err != nil {
		if hit {
			_ = l.cache.Delete(key)
		}
		return nil, fmt.Errorf("video %s: %w", id, err)
	}
	l.logger.Debug("transcript loaded", zap.String("video", id), zap.Bool("cache_hit", hit), zap.Int("segments", len(segments)))

	return &Document{Kind: KindTranscript, Origin: id, Text: JoinSegments(segments)}, nil
}

func (l *Loader) wait(ctx context.Context, rawURL string) error {
	if l.limiter == nil {
		return nil
	}
	if err := l.limiter.WaitURL(ctx, rawURL); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/xhtml+xml"
}
