// Package util provides string helpers shared by the command parser and the scenario reader.
package util

import (
	"errors"
	"strings"
)

// ErrUnbalanced is returned by SplitArgs for an unterminated quote, bracket or brace.
var ErrUnbalanced = errors.New("unbalanced quotes or brackets")

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArgs trims quotes and unescapes every argument in place.
func CleanArgs(args []string) []string {
	for i, v := range args {
		args[i] = FixEscapeQuotes(TrimQuotes(strings.TrimSpace(v)))
	}
	return args
}

// SplitArgs splits a comma separated argument list. Commas inside double quotes,
// square brackets or braces do not split, so `"[1,2]",45` yields two arguments and a
// JSON object stays whole.
// An empty input yields no arguments.
func SplitArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		bracket int
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[' || r == '{':
			bracket++
		case r == ']' || r == '}':
			bracket--
			if bracket < 0 {
				return nil, ErrUnbalanced
			}
		case r == ',' && bracket == 0:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if quoted || bracket != 0 {
		return nil, ErrUnbalanced
	}
	return append(args, strings.TrimSpace(cur.String())), nil
}

// StripBrackets removes one pair of surrounding square brackets, if present.
func StripBrackets(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}
