package inventory

import (
	"errors"
	"fmt"
)

// Failure kinds. Every FetchError unwraps to exactly one of these.
var (
	ErrConnection      = errors.New("connection failure")
	ErrTimeout         = errors.New("request timed out")
	ErrRequest         = errors.New("request failed")
	ErrStatus          = errors.New("non-success status")
	ErrMalformedJSON   = errors.New("malformed JSON")
	ErrUnexpectedShape = errors.New("unexpected structure")
)

// PreviewLimit caps how much of a response body goes into diagnostics.
const PreviewLimit = 200

// FetchError describes why an inventory fetch was rejected.
type FetchError struct {
	Kind       error
	StatusCode int    // zero when no response was received
	Preview    string // first PreviewLimit characters of the body, if any
	Err        error  // underlying cause, may be nil
}

func (e *FetchError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 && e.Kind == ErrStatus {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Preview != "" {
		msg = fmt.Sprintf("%s (response preview: %q)", msg, e.Preview)
	}
	return msg
}

// Is lets errors.Is match the failure kind.
func (e *FetchError) Is(target error) bool {
	return target == e.Kind
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// preview truncates body to PreviewLimit runes.
func preview(body []byte) string {
	r := []rune(string(body))
	if len(r) > PreviewLimit {
		r = r[:PreviewLimit]
	}
	return string(r)
}
