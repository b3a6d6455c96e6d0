package datefmt

import (
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestLayout - Pattern to Go layout conversion
// ---------------------------------------------------------------------------

func TestLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		want    string
		wantErr bool
	}{
		{name: "iso", pattern: "YYYY-MM-DD", want: "2006-01-02"},
		{name: "masthead", pattern: "dddd, MMMM D, YYYY", want: "Monday, January 2, 2006"},
		{name: "short names", pattern: "ddd MMM YY", want: "Mon Jan 06"},
		{name: "non-padded", pattern: "M/D", want: "1/2"},
		{name: "bracket literal", pattern: "[Edition of] D", want: "Edition of 2"},
		{name: "literal text kept", pattern: "x", want: "x"},
		{name: "empty", pattern: "", wantErr: true},
		{name: "unclosed bracket", pattern: "[Edition D", wantErr: true},
		{name: "too long", pattern: string(make([]byte, MaxPatternLength+1)), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Layout(tt.pattern)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("Layout(%q) error = %v, want ErrInvalidFormat", tt.pattern, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Layout(%q) unexpected error: %v", tt.pattern, err)
			}
			if got != tt.want {
				t.Errorf("Layout(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolve - auto values and passthrough
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 19, 7, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "auto", value: "auto", want: "2026-10-19"},
		{name: "auto upper case", value: "AUTO", want: "2026-10-19"},
		{name: "long preset", value: "auto:long", want: "October 19, 2026"},
		{name: "masthead preset", value: "auto:Masthead", want: "Monday, October 19, 2026"},
		{name: "custom pattern", value: "auto:DD.MM.YYYY", want: "19.10.2026"},
		{name: "literal passthrough", value: "Sunday Edition", want: "Sunday Edition"},
		{name: "empty passthrough", value: "", want: ""},
		{name: "missing pattern", value: "auto:", wantErr: true},
		{name: "bad pattern", value: "auto:[oops", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.value, now)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("Resolve(%q) error = %v, want ErrInvalidFormat", tt.value, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
