package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EncodeGenres renders tags as a JSON array literal. An empty or nil list is "[]".
func EncodeGenres(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DecodeGenres parses a list literal produced by [EncodeGenres].
//
// Single-quoted list literals such as ['idm', "drum 'n' bass"] are accepted as well.
// A blank field decodes to an empty list.
func DecodeGenres(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err == nil {
		if tags == nil {
			tags = []string{}
		}
		return tags, nil
	}

	return parseQuotedList(s)
}

// parseQuotedList reads a bracketed, comma separated list of single or double quoted strings.
func parseQuotedList(s string) ([]string, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("genres %q is not a list literal", s)
	}

	tags := []string{}
	body := []rune(s[1 : len(s)-1])
	expectItem := true

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == ' ' || c == '\t':
			continue
		case c == ',':
			if expectItem {
				return nil, fmt.Errorf("genres %q has an empty item", s)
			}
			expectItem = true
		case c == '\'' || c == '"':
			if !expectItem {
				return nil, fmt.Errorf("genres %q is missing a comma", s)
			}

			var item strings.Builder
			closed := false
			for i++; i < len(body); i++ {
				r := body[i]
				if r == '\\' && i+1 < len(body) {
					decoded, last, err := unescape(body, i+1)
					if err != nil {
						return nil, fmt.Errorf("genres %q: %w", s, err)
					}
					item.WriteString(decoded)
					i = last
					continue
				}
				if r == c {
					closed = true
					break
				}
				item.WriteRune(r)
			}
			if !closed {
				return nil, fmt.Errorf("genres %q has an unterminated string", s)
			}

			tags = append(tags, item.String())
			expectItem = false
		default:
			return nil, fmt.Errorf("genres %q has unexpected character %q", s, c)
		}
	}

	// a trailing comma, as in ['idm',], is allowed
	return tags, nil
}

// unescape decodes the escape sequence whose letter is body[at] and returns
// the text it stands for together with the index of its last rune.
// Unknown escapes are kept verbatim, backslash included.
func unescape(body []rune, at int) (string, int, error) {
	switch c := body[at]; c {
	case 'n':
		return "\n", at, nil
	case 't':
		return "\t", at, nil
	case 'r':
		return "\r", at, nil
	case '\\', '\'', '"':
		return string(c), at, nil
	case 'x':
		return hexEscape(body, at, 2)
	case 'u':
		return hexEscape(body, at, 4)
	case 'U':
		return hexEscape(body, at, 8)
	default:
		return "\\" + string(c), at, nil
	}
}

// hexEscape reads the n hex digits following body[at] as a code point.
func hexEscape(body []rune, at, n int) (string, int, error) {
	end := at + 1 + n
	if end > len(body) {
		return "", at, fmt.Errorf("truncated \\%c escape", body[at])
	}

	digits := string(body[at+1 : end])
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return "", at, fmt.Errorf("invalid \\%c%s escape", body[at], digits)
	}
	return string(rune(v)), end - 1, nil
}
