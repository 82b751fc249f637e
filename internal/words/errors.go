package words

import (
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a word list could not be loaded.
type ErrorKind int

const (
	// InputError means no usable URL was supplied. No request is issued.
	InputError ErrorKind = iota + 1
	// NetworkError means the server answered with a non-success status.
	NetworkError
	// TransportError means the request never produced a response.
	TransportError
	// EmptyResultError means the resource held no usable lines.
	EmptyResultError
)

func (k ErrorKind) String() string {
	switch k {
	case InputError:
		return "input"
	case NetworkError:
		return "network"
	case TransportError:
		return "transport"
	case EmptyResultError:
		return "empty"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyURL is returned when Load is called without a URL.
	ErrEmptyURL = errors.New("empty url")

	// ErrNoWords is returned when the fetched text contains no words.
	ErrNoWords = errors.New("no words found")

	// ErrUnsupportedScheme is returned for URLs that are neither http(s) nor
	// local files.
	ErrUnsupportedScheme = errors.New("unsupported protocol")

	// ErrFileRedirect is returned when a remote server redirects to a
	// local file.
	ErrFileRedirect = errors.New("redirect to a local file refused")
)

// LoadError describes a failed load.
type LoadError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case NetworkError:
		return fmt.Sprintf("Network response not ok: %d", e.StatusCode)
	case InputError, EmptyResultError:
		return e.Err.Error()
	default:
		if e.Err == nil {
			return "transport failure"
		}
		return e.Err.Error()
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the failure happened before any response
// could be read, i.e. the origin refused, was unresolvable, or the
// connection was dropped. Timeouts are not included.
func (e *LoadError) Unreachable() bool {
	if e.Kind != TransportError {
		return false
	}

	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return false
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	return errors.As(e.Err, &opErr) || errors.As(e.Err, &dnsErr)
}

// KindOf returns the ErrorKind of err, or 0 if err is not a *LoadError.
func KindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}
