// Package literal decodes the raw, delimiter-included lexemes the scanner
// produces for strings and numbers (spec.md §4.1: "Strings are returned
// with their delimiters ... escape decoding is delegated to a separate
// decoder"). It is grounded on the escape table spec.md §4.1 specifies and
// on cue/scanner.scanEscape's structure, adapted to the C-style escapes the
// original pjs::Utf8Decoder supports instead of CUE's own escape set.
package literal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unquote decodes a scanner STRING lexeme (including its opening and
// closing quote, ' " or `) into its value. Raw (backtick) strings are
// returned verbatim with no escape processing.
func Unquote(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("literal: %q is too short to be quoted", raw)
	}
	quote := raw[0]
	body := raw[1 : len(raw)-1]
	if quote == '`' {
		return body, nil
	}
	if raw[len(raw)-1] != quote {
		return "", fmt.Errorf("literal: unterminated string %q", raw)
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		r, n, err := DecodeEscape(body[i+1:])
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		i += 1 + n
	}
	return b.String(), nil
}

// DecodeEscape decodes one escape sequence from s, where s starts just
// after the backslash. It returns the decoded rune, the number of bytes of
// s consumed (not counting the backslash), and an error for malformed
// sequences.
func DecodeEscape(s string) (rune, int, error) {
	if s == "" {
		return 0, 0, fmt.Errorf("literal: escape sequence not terminated")
	}
	switch s[0] {
	case 'a':
		return '\a', 1, nil
	case 'b':
		return '\b', 1, nil
	case 'f':
		return '\f', 1, nil
	case 'n':
		return '\n', 1, nil
	case 'r':
		return '\r', 1, nil
	case 't':
		return '\t', 1, nil
	case 'v':
		return '\v', 1, nil
	case '\\':
		return '\\', 1, nil
	case '\'':
		return '\'', 1, nil
	case '"':
		return '"', 1, nil
	case '`':
		return '`', 1, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		return decodeFixed(s, 0, 3, 8)
	case 'x':
		return decodeFixed(s[1:], 1, 2, 16)
	case 'u':
		if len(s) > 1 && s[1] == '{' {
			r, ndigits, err := decodeBraced(s[2:])
			return r, 3 + ndigits, err
		}
		return decodeFixed(s[1:], 1, 4, 16)
	default:
		return 0, 0, fmt.Errorf("literal: unknown escape sequence \\%c", s[0])
	}
}

func decodeFixed(s string, offset, n, base int) (rune, int, error) {
	if len(s) < n {
		return 0, 0, fmt.Errorf("literal: escape sequence not terminated")
	}
	v, err := strconv.ParseUint(s[:n], base, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("literal: illegal escape sequence \\%s", s[:n])
	}
	return rune(v), offset + n, nil
}

// decodeBraced decodes the hex digits of a \u{...} escape, where s starts
// just after the opening brace. It returns the rune and the number of hex
// digits consumed (the closing brace is not included in that count).
func decodeBraced(s string) (rune, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0, 0, fmt.Errorf("literal: \\u{...} escape not terminated")
	}
	v, err := strconv.ParseUint(s[:end], 16, 32)
	if err != nil || v > utf8.MaxRune {
		return 0, 0, fmt.Errorf("literal: illegal \\u{%s} escape", s[:end])
	}
	return rune(v), end, nil
}
