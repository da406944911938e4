package shortlink

import "errors"

// Kind classifies lifecycle errors so the HTTP boundary can map them
// to status codes without string matching.
type Kind string

const (
	KindInvalid   Kind = "invalid_url"
	KindConflict  Kind = "conflict"
	KindNotFound  Kind = "not_found"
	KindExpired   Kind = "expired"
	KindExhausted Kind = "exhausted"
)

// Error is a lifecycle error with a stable kind and a human-readable
// message. Sentinel instances below are matched with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrInvalidURL is returned for URLs that are not valid http(s).
	ErrInvalidURL = &Error{Kind: KindInvalid, Message: "invalid URL: only http and https are supported"}

	// ErrInvalidCode is returned for malformed custom short codes.
	ErrInvalidCode = &Error{Kind: KindInvalid, Message: "custom short code must be 3-20 alphanumeric characters"}

	// ErrCodeTaken is returned when a requested short code is already in use.
	ErrCodeTaken = &Error{Kind: KindConflict, Message: "custom short code already exists"}

	// ErrNotFound is returned when no record matches a short code.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "short link not found"}

	// ErrExpired is returned when a link exists but its expiry has passed.
	ErrExpired = &Error{Kind: KindExpired, Message: "short link has expired"}

	// ErrGenerationExhausted is returned when the retry budget for
	// finding a free code runs out. It signals keyspace pressure and is
	// fatal for the request but never for the process.
	ErrGenerationExhausted = &Error{Kind: KindExhausted, Message: "unable to generate a unique short code"}
)

// KindOf returns the kind of a lifecycle error, or an empty Kind for
// any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}
