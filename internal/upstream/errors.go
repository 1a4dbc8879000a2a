package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies why a call to an upstream failed.
type Kind string

const (
	KindRequest Kind = "request"
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindRead    Kind = "read"
	KindDecode  Kind = "decode"
)

// Error is returned by every operation in this package. Upstream is empty
// for decode failures that happen outside a fetch.
type Error struct {
	Upstream string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Upstream == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream %s: %s: %v", e.Upstream, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError carries the status of a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// KindOf reports the Kind of err, or "" when err did not come from here.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// UpstreamOf reports which upstream err came from, or "".
func UpstreamOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Upstream
	}
	return ""
}
