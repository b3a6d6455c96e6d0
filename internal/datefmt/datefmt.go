// Package datefmt renders the edition date printed on the cover page.
package datefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFormat indicates a date pattern that cannot be rendered.
var ErrInvalidFormat = errors.New("invalid date format")

// MaxPatternLength caps user-supplied patterns.
const MaxPatternLength = 64

// Presets are named patterns accepted after "auto:".
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"long":     "MMMM D, YYYY",
	"masthead": "dddd, MMMM D, YYYY",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
}

// tokens maps pattern tokens to Go layout fragments, longest first.
var tokens = [...]struct {
	tok, layout string
}{
	{"dddd", "Monday"},
	{"MMMM", "January"},
	{"YYYY", "2006"},
	{"ddd", "Mon"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// Layout converts a pattern such as "dddd, MMMM D, YYYY" into a Go time
// layout. Text inside square brackets is copied verbatim.
func Layout(pattern string) (string, error) {
	switch {
	case pattern == "":
		return "", fmt.Errorf("%w: empty pattern", ErrInvalidFormat)
	case len(pattern) > MaxPatternLength:
		return "", fmt.Errorf("%w: pattern longer than %d bytes", ErrInvalidFormat, MaxPatternLength)
	}

	var b strings.Builder
	rest := pattern
	for rest != "" {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidFormat, pattern)
			}
			b.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}
		n := 1
		frag := rest[:1]
		for _, t := range tokens {
			if strings.HasPrefix(rest, t.tok) {
				n, frag = len(t.tok), t.layout
				break
			}
		}
		b.WriteString(frag)
		rest = rest[n:]
	}
	return b.String(), nil
}

// Resolve renders value for the instant now.
//
//	"auto"          -> now as YYYY-MM-DD
//	"auto:long"     -> now with the named preset
//	"auto:PATTERN"  -> now with a custom pattern
//	anything else   -> returned unchanged
func Resolve(value string, now time.Time) (string, error) {
	head, pattern, hasPattern := strings.Cut(value, ":")
	if !strings.EqualFold(head, "auto") {
		return value, nil
	}
	if !hasPattern {
		pattern = Presets["iso"]
	} else if pattern == "" {
		return "", fmt.Errorf("%w: missing pattern after %q", ErrInvalidFormat, head+":")
	} else if preset, ok := Presets[strings.ToLower(pattern)]; ok {
		pattern = preset
	}

	layout, err := Layout(pattern)
	if err != nil {
		return "", err
	}
	return now.Format(layout), nil
}
