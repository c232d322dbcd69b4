package locate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IndexFold finds the first occurrence of substr in s at or after byte offset from.
//
// The comparison is case-insensitive, treats any run of whitespace in substr as
// matching any non-empty run of whitespace in s, and treats typographic quotes
// as their ASCII forms. substr is trimmed first. start and end are byte offsets
// into s, so s[start:end] is the matched slice of the original.
func IndexFold(s, substr string, from int) (start, end int, ok bool) {
	needle := strings.TrimSpace(substr)
	if needle == "" {
		return 0, 0, false
	}
	if from < 0 {
		from = 0
	}

	for i := from; i < len(s); {
		if end, ok := matchAt(s, i, needle); ok {
			return i, end, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

// matchAt reports whether needle matches s starting at byte offset i and
// returns the end offset of the match in s
func matchAt(s string, i int, needle string) (int, bool) {
	j, k := 0, i
	for j < len(needle) {
		nr, nsize := utf8.DecodeRuneInString(needle[j:])

		if unicode.IsSpace(nr) {
			for j < len(needle) {
				r, size := utf8.DecodeRuneInString(needle[j:])
				if !unicode.IsSpace(r) {
					break
				}
				j += size
			}
			matched := false
			for k < len(s) {
				r, size := utf8.DecodeRuneInString(s[k:])
				if !unicode.IsSpace(r) {
					break
				}
				k += size
				matched = true
			}
			if !matched {
				return 0, false
			}
			continue
		}

		if k >= len(s) {
			return 0, false
		}
		sr, ssize := utf8.DecodeRuneInString(s[k:])
		if !foldEqual(canonical(nr), canonical(sr)) {
			return 0, false
		}
		j += nsize
		k += ssize
	}
	return k, true
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

func canonical(r rune) rune {
	switch r {
	case '‘', '’', '‛', '′':
		return '\''
	case '“', '”', '‟', '″':
		return '"'
	case '–', '—':
		return '-'
	}
	return r
}
