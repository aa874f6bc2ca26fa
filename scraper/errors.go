package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a URL cannot be normalized into something fetchable
	ErrInvalidURL = errors.New("invalid url")
	// ErrDomainNotAllowed is returned by the SSRF guard
	ErrDomainNotAllowed = errors.New("domain not allowed")
)

// ErrorKind classifies extraction failures so the orchestrator can decide
// between escalating to the browser and giving up.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindBlocked
	KindHTTPStatus
	KindParse
	KindRender
	KindEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBlocked:
		return "blocked"
	case KindHTTPStatus:
		return "http_status"
	case KindParse:
		return "parse"
	case KindRender:
		return "render"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// ExtractionError is returned by every extraction stage (fetch, parse, render)
type ExtractionError struct {
	Kind  ErrorKind
	Stage string
	URL   string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Stage, e.Kind, e.URL)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Stage, e.Kind, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries an ExtractionError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Kind == kind
	}
	return false
}

// DomainNotAllowedError names the host rejected by the SSRF guard
type DomainNotAllowedError struct {
	Host string
}

func (e *DomainNotAllowedError) Error() string {
	return fmt.Sprintf("domain not allowed: %s", e.Host)
}

func (e *DomainNotAllowedError) Is(target error) bool {
	return target == ErrDomainNotAllowed
}
