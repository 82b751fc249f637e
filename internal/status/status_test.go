package status

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/dgnsrekt/wordboard/internal/words"
)

func TestFromError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		kind Kind
		want string
	}{
		{
			name: "input",
			err:  &words.LoadError{Kind: words.InputError, Err: words.ErrEmptyURL},
			kind: Failed,
			want: "Please enter a URL to the words file.",
		},
		{
			name: "network",
			err:  &words.LoadError{Kind: words.NetworkError, StatusCode: 404, Err: errors.New("HTTP status 404")},
			kind: Failed,
			want: "Error loading file: Network response not ok: 404",
		},
		{
			name: "empty",
			err:  &words.LoadError{Kind: words.EmptyResultError, Err: words.ErrNoWords},
			kind: Empty,
			want: "No words found in the file.",
		},
		{
			name: "transport unreachable",
			err:  &words.LoadError{Kind: words.TransportError, Err: refused},
			kind: Failed,
			want: "Error loading file: " + refused.Error() + " (network unreachable?)",
		},
		{
			name: "transport other",
			err:  &words.LoadError{Kind: words.TransportError, Err: words.ErrUnsupportedScheme},
			kind: Failed,
			want: "Error loading file: unsupported protocol",
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("load: %w", &words.LoadError{Kind: words.EmptyResultError, Err: words.ErrNoWords}),
			kind: Empty,
			want: "No words found in the file.",
		},
		{
			name: "foreign error",
			err:  errors.New("boom"),
			kind: Failed,
			want: "Error loading file: boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Kind != tc.kind {
				t.Errorf("kind = %s, want %s", got.Kind, tc.kind)
			}
			if got.Message != tc.want {
				t.Errorf("message = %q, want %q", got.Message, tc.want)
			}
		})
	}
}

func TestNewLoaded(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "Loaded 0 words."},
		{3, "Loaded 3 words."},
		{1234, "Loaded 1,234 words."},
		{1000000, "Loaded 1,000,000 words."},
	}
	for _, tc := range tests {
		s := NewLoaded(tc.n)
		if s.Message != tc.want {
			t.Errorf("NewLoaded(%d) = %q, want %q", tc.n, s.Message, tc.want)
		}
		if s.Count != tc.n || s.Kind != Loaded {
			t.Errorf("NewLoaded(%d) = %+v", tc.n, s)
		}
	}
}

func TestReporterOverwrites(t *testing.T) {
	r := NewReporter()
	if r.Current().Kind != Idle {
		t.Fatalf("new reporter should be idle, got %s", r.Current().Kind)
	}
	if r.Current().Message != "Enter a URL to a words file and press enter." {
		t.Errorf("unexpected idle prompt %q", r.Current().Message)
	}

	r.Set(NewLoading())
	r.Set(NewLoaded(2))
	if got := r.Current(); got.Kind != Loaded || got.Message != "Loaded 2 words." {
		t.Errorf("expected last set status, got %+v", got)
	}

	r.Set(NewUnsupported("no engine found"))
	got := r.Current()
	if !got.IsError() {
		t.Error("unsupported status should be an error")
	}
	if got.Message != "Speech synthesis not available: no engine found" {
		t.Errorf("unexpected message %q", got.Message)
	}
}
