package heygen

import (
	"errors"
	"fmt"
)

// Kind classifies why a provider call did not produce a usable result.
type Kind string

const (
	KindKeyUnavailable   Kind = "key_unavailable"
	KindTransport        Kind = "transport"
	KindUpstreamRejected Kind = "upstream_rejected"
	KindJobFailed        Kind = "job_failed"
)

// Error is returned by every Client call that fails.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUpstreamRejected:
		if e.StatusCode != 0 {
			if e.Message == "" {
				return fmt.Sprintf("API error %d", e.StatusCode)
			}
			return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
		}
	case KindTransport:
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a provider error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrUnsupportedLanguage is returned before any call when the target is not in models.Languages.
var ErrUnsupportedLanguage = errors.New("unsupported target language")
