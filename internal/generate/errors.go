package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soppliger/auteur/internal/volc"
)

var (
	// ErrMalformedResponse marks responses that were empty, not JSON, or did
	// not match the requested shape. These are retried.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAuth marks a credential the endpoint rejected. These are not retried.
	ErrAuth = errors.New("authentication failed")
)

// MalformedError carries the reason a response was rejected.
type MalformedError struct {
	Reason string
	Raw    string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedResponse }

func malformed(raw, format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// AuthError wraps the transport error that was classified as an
// authentication or authorization failure.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", ErrAuth, e.Err)
}

func (e *AuthError) Unwrap() []error { return []error{ErrAuth, e.Err} }

// Kind is the retry-relevant class of a failure.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindMalformed Kind = "malformed"
	KindCanceled  Kind = "canceled"
	KindTransient Kind = "transient"
)

// authMarkers are substrings the ark SDK and gateway put in rejected
// credential errors when no typed status is available.
var authMarkers = []string{
	"status 401",
	"status 403",
	"statuscode=401",
	"statuscode=403",
	"unauthorized",
	"authenticationerror",
	"permissiondenied",
	"invalid api key",
	"api key is invalid",
	"accessdenied",
}

// IsAuth reports whether err means the credential was missing or rejected.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) {
		return true
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var apiErr *volc.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Unauthorized()
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Classify maps err onto a Kind. A per-call deadline is transient; the
// caller's own cancellation is checked separately by the retry wrapper.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case IsAuth(err):
		return KindAuth
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	default:
		return KindTransient
	}
}
