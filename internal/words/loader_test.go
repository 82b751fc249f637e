package words

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/words.txt":
			_, _ = w.Write([]byte("cat\ndog\n\n  fox  \r\n"))
		case "/empty.txt":
		case "/bom.txt":
			_, _ = w.Write([]byte("\xef\xbb\xbfapple\nbanana\n"))
		case "/gzip.txt":
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte("red\ngreen\nblue\n"))
			_ = gz.Close()
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader()
	ctx := context.Background()

	t.Run("words", func(t *testing.T) {
		got, err := l.Load(ctx, srv.URL+"/words.txt")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := []string{"cat", "dog", "fox"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("surrounding whitespace in url", func(t *testing.T) {
		got, err := l.Load(ctx, "  "+srv.URL+"/words.txt\n")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 words, got %d", len(got))
		}
	})

	t.Run("byte order mark", func(t *testing.T) {
		got, err := l.Load(ctx, srv.URL+"/bom.txt")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 2 || got[0] != "apple" {
			t.Errorf("BOM not stripped: %q", got)
		}
	})

	t.Run("gzip body", func(t *testing.T) {
		got, err := l.Load(ctx, srv.URL+"/gzip.txt")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := []string{"red", "green", "blue"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		got, err := l.Load(ctx, srv.URL+"/empty.txt")
		if KindOf(err) != EmptyResultError {
			t.Fatalf("expected EmptyResultError, got %v", err)
		}
		if !errors.Is(err, ErrNoWords) {
			t.Errorf("expected ErrNoWords in chain, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no words, got %q", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		got, err := l.Load(ctx, srv.URL+"/missing.txt")
		var le *LoadError
		if !errors.As(err, &le) {
			t.Fatalf("expected *LoadError, got %T", err)
		}
		if le.Kind != NetworkError {
			t.Errorf("expected NetworkError, got %s", le.Kind)
		}
		if le.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", le.StatusCode)
		}
		if !strings.Contains(le.Error(), "404") {
			t.Errorf("error %q does not mention 404", le.Error())
		}
		if got != nil {
			t.Errorf("expected no words, got %q", got)
		}
	})
}

func TestLoadEmptyURLIssuesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	l := NewLoader()
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := l.Load(context.Background(), in)
		if KindOf(err) != InputError {
			t.Errorf("Load(%q): expected InputError, got %v", in, err)
		}
		if !errors.Is(err, ErrEmptyURL) {
			t.Errorf("Load(%q): expected ErrEmptyURL, got %v", in, err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("expected no requests, got %d", hits.Load())
	}
}

func TestLoadTransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = NewLoader().Load(context.Background(), "http://"+addr+"/words.txt")
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if le.Kind != TransportError {
		t.Fatalf("expected TransportError, got %s", le.Kind)
	}
	if !le.Unreachable() {
		t.Errorf("expected refused connection to be reported as unreachable: %v", le.Err)
	}
}

func TestLoadUnsupportedScheme(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "ftp://example.com/words.txt")
	if KindOf(err) != TransportError {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	var le *LoadError
	if errors.As(err, &le) && le.Unreachable() {
		t.Error("unsupported scheme should not carry the unreachable hint")
	}
}

func TestLoadLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "common_words.txt")
	if err := os.WriteFile(path, []byte("one\r\ntwo\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"one", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "nope.txt"))
	if KindOf(err) != NetworkError {
		t.Errorf("expected missing local file to be a NetworkError, got %v", err)
	}
}

func TestLoadRefusesRedirectToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(path, []byte("secret\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "file://"+filepath.ToSlash(path), http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	got, err := NewLoader().Load(context.Background(), srv.URL+"/words.txt")
	if !errors.Is(err, ErrFileRedirect) {
		t.Fatalf("expected ErrFileRedirect, got %v (words %q)", err, got)
	}
	if KindOf(err) != TransportError {
		t.Errorf("kind = %v, want TransportError", KindOf(err))
	}
}

func TestLoaderGenerations(t *testing.T) {
	l := NewLoader()

	ctx1, gen1 := l.Begin(context.Background())
	if !l.Current(gen1) {
		t.Fatal("first generation should be current")
	}

	ctx2, gen2 := l.Begin(context.Background())
	if gen2 <= gen1 {
		t.Errorf("generations should increase: %d then %d", gen1, gen2)
	}
	if l.Current(gen1) {
		t.Error("older generation should no longer be current")
	}
	if ctx1.Err() == nil {
		t.Error("older generation's context should be cancelled")
	}
	if ctx2.Err() != nil {
		t.Error("newest generation's context should be live")
	}

	l.Cancel()
	if ctx2.Err() == nil {
		t.Error("Cancel should cancel the in-flight generation")
	}
}

func TestLoadCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	l := NewLoader()
	ctx, _ := l.Begin(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, srv.URL)
		done <- err
	}()

	l.Begin(context.Background())
	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
