package words

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"mixed endings", "cat\ndog\n\n  fox  \r\n", []string{"cat", "dog", "fox"}},
		{"empty", "", []string{}},
		{"only blanks", "\n \r\n\t\n", []string{}},
		{"no trailing newline", "alpha\r\nbeta", []string{"alpha", "beta"}},
		{"duplicates kept", "a\na\nb\na", []string{"a", "a", "b", "a"}},
		{"inner spaces kept", "  ice cream \n hip hop", []string{"ice cream", "hip hop"}},
		{"bom and nbsp trimmed", "\ufeffword\n other ", []string{"word", "other"}},
		{"bare carriage return is not a break", "a\rb", []string{"a\rb"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Split(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplitIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"cat\ndog\n\n  fox  \r\n",
		"\r\n\r\n  one two  \r\n three\n",
		"\ufeff  lead\n\ttabbed\t\n",
		"x",
		strings.Repeat("word\n", 50),
	}

	for _, in := range inputs {
		once := Split(in)
		twice := Split(strings.Join(once, "\n"))
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Split not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
