// Package util provides string helpers for operator command lines.
package util

import (
	"errors"
	"strings"
	"unicode"
)

// TrimQuotes removes one enclosing pair of double quotes. Unpaired or inner
// quotes are kept.
func TrimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg trims surrounding whitespace, removes one enclosing pair of
// quotes and unescapes doubled quotes. Quotes that are part of the value
// survive.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// ErrUnterminatedQuote is returned by SplitArgs for a quote left open.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a command line on whitespace. A double-quoted section
// keeps its spaces and may be empty; "" inside quotes is a literal quote.
//
//	:AIRCRAFT:ADD: false "16 WPS" SNAKE  ->  [":AIRCRAFT:ADD:", "false", "16 WPS", "SNAKE"]
func SplitArgs(line string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuote = false
		case r == '"':
			inQuote = true
			started = true
		case !inQuote && unicode.IsSpace(r):
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	if started {
		out = append(out, cur.String())
	}
	return out, nil
}
