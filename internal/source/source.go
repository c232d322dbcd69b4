// Package source turns user input (typed text, files, web pages, video
// captions) into the plain document the pipeline annotates.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Kind names where a document came from
type Kind string

const (
	KindText       Kind = "text"
	KindFile       Kind = "file"
	KindStdin      Kind = "stdin"
	KindWeb        Kind = "web"
	KindTranscript Kind = "transcript"
)

var (
	// ErrEmptyInput is returned when the input holds no text
	ErrEmptyInput = errors.New("input is empty")

	// ErrInvalidUTF8 is returned when a file or stream is not UTF-8 text
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")
)

// Document is the immutable original text plus where it came from
type Document struct {
	Kind   Kind
	Origin string // file path, URL, video id, or "stdin"
	Title  string
	Text   string
}

// FromText wraps typed text
func FromText(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	return &Document{Kind: KindText, Origin: "text", Text: text}, nil
}

// FromFile reads a local UTF-8 text file
func FromFile(path string, maxBytes int64) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := FromReader(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc.Kind = KindFile
	doc.Origin = path
	return doc, nil
}

// FromReader reads a whole stream (stdin) as one document.
// A positive maxBytes caps the read; longer input is an error rather than
// silently truncated text.
func FromReader(r io.Reader, maxBytes int64) (*Document, error) {
	var data []byte
	var err error
	if maxBytes > 0 {
		data, err = io.ReadAll(io.LimitReader(r, maxBytes+1))
		if err == nil && int64(len(data)) > maxBytes {
			return nil, fmt.Errorf("input exceeds %d bytes", maxBytes)
		}
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	return &Document{Kind: KindStdin, Origin: "stdin", Text: text}, nil
}
