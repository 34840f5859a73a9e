package normalize

import (
	"errors"
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeCode trims whitespace, uppercases, and strips non-alphanumeric characters,
// so "e11.65" and "E1165" compare equal. Returns "" when nothing is left.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return nonAlphanumeric.ReplaceAllString(strings.ToUpper(s), "")
}

var errNotList = errors.New("not a list literal")

// ParseCodeList parses a serialized list literal such as ['E1165', "I509"].
// An empty value yields no codes and no error. Anything that is not a list of
// quoted strings is an error; callers treat the patient as having no codes.
func ParseCodeList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errNotList
	}
	body := s[1 : len(s)-1]

	var codes []string
	i := 0
	expectItem := true
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ',':
			if expectItem {
				return nil, errors.New("empty list element")
			}
			expectItem = true
			i++
		case c == '\'' || c == '"':
			if !expectItem {
				return nil, errors.New("missing comma between elements")
			}
			item, n, err := readQuoted(body[i:], c)
			if err != nil {
				return nil, err
			}
			codes = append(codes, item)
			i += n
			expectItem = false
		default:
			return nil, errors.New("list element is not a quoted string")
		}
	}
	return codes, nil
}

// readQuoted reads a quoted string starting at s[0] and returns the unquoted
// value and the number of bytes consumed.
func readQuoted(s string, quote byte) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errors.New("dangling escape")
			}
			i++
			b.WriteByte(s[i])
		case quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, errors.New("unterminated string")
}
