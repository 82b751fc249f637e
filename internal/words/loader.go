package words

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Loader fetches word lists. A Loader numbers every load it begins so that
// callers can tell a stale completion from the most recent one.
type Loader struct {
	client    *http.Client
	userAgent string

	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds every request. Zero means no timeout, which is the
// default.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithHTTPClient replaces the HTTP client. The client's transport is used
// as-is.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// NewLoader returns a Loader that understands http, https and file URLs and
// transparently decompresses gzip and zstd responses.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{
			Transport:     newTransport(),
			CheckRedirect: checkRedirect,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newTransport() http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return gzhttp.Transport(base)
}

// checkRedirect keeps remote servers from redirecting to local files.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if req.URL.Scheme == "file" && via[0].URL.Scheme != "file" {
		return ErrFileRedirect
	}
	return nil
}

// Begin starts a new load generation. The context of the previous
// generation, if still running, is cancelled. The returned context must be
// passed to Load.
func (l *Loader) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	gen := l.generation.Add(1)
	log.Debug("load generation started", "generation", gen)
	return ctx, gen
}

// Current reports whether gen is the most recently started generation.
func (l *Loader) Current(gen uint64) bool {
	return l.generation.Load() == gen
}

// Cancel aborts the in-flight load, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Load fetches rawURL and returns its words. Errors are always *LoadError.
func (l *Loader) Load(ctx context.Context, rawURL string) ([]string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, &LoadError{Kind: InputError, Err: ErrEmptyURL}
	}

	target, err := resolveURL(rawURL)
	if err != nil {
		return nil, &LoadError{Kind: TransportError, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &LoadError{Kind: TransportError, URL: target, Err: err}
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	log.Debug("fetching word list", "url", target)
	start := time.Now()

	resp, err := l.client.Do(req)
	if err != nil {
		log.Warn("word list request failed", "url", target, "error", err)
		return nil, &LoadError{Kind: TransportError, URL: target, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("word list request not ok", "url", target, "status", resp.StatusCode)
		return nil, &LoadError{
			Kind:       NetworkError,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP status %d", resp.StatusCode),
		}
	}

	text, err := readText(resp.Body)
	if err != nil {
		return nil, &LoadError{Kind: TransportError, URL: target, Err: err}
	}

	words := Split(text)
	log.Debug("word list fetched",
		"url", target,
		"bytes", len(text),
		"words", len(words),
		"elapsed", time.Since(start))

	if len(words) == 0 {
		return words, &LoadError{Kind: EmptyResultError, URL: target, Err: ErrNoWords}
	}
	return words, nil
}

// readText decodes a response body the way a browser's Response.text()
// does: UTF-8 unless a byte order mark says otherwise, BOM removed, invalid
// sequences replaced.
func readText(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("unable to read response: %w", err)
	}
	return string(b), nil
}

// resolveURL turns user input into a request URL. Anything without a
// scheme is treated as a path on the local filesystem.
func resolveURL(raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil && strings.Contains(raw, "://") {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return u.String(), nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}
