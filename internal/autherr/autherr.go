package autherr

import (
	"errors"

	"github.com/kitbase/authsync/internal/domain"
)

// Kind is the closed taxonomy of expected authentication failures. Adapters
// translate vendor error text into exactly one Kind; everything unexpected
// collapses to KindUnknown.
type Kind string

const (
	KindEmailNotConfirmed  Kind = "email_not_confirmed"
	KindNetwork            Kind = "network_error"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailNotFound      Kind = "email_not_found"
	KindAlreadyRegistered  Kind = "already_registered"
	KindInvalidEmailFormat Kind = "invalid_email_format"
	KindWeakPassword       Kind = "weak_password"
	KindRateLimited        Kind = "rate_limited"
	KindUnknown            Kind = "unknown"
)

// Error is a classified authentication failure. Message keeps the backend's
// original text so RateLimited wait times survive verbatim. PendingUser is
// set only for KindEmailNotConfirmed, so the caller can route the user to a
// verification screen without treating them as authenticated.
type Error struct {
	Kind        Kind
	Message     string
	PendingUser *domain.User
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// New builds a classified error with the given kind and backend message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the Kind from an error chain, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// AsError returns the classified error in the chain, or wraps err as
// KindUnknown so callers always see a classified result.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindUnknown, Message: err.Error()}
}
