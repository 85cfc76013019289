package domain

import (
	"errors"
	"strings"
)

// SourceUnknown replaces an empty source at construction time.
const SourceUnknown = "unknown"

// Kind identifies one of the five security lifecycle events.
type Kind string

const (
	KindAuthenticated        Kind = "authenticated"
	KindFailedToAuthenticate Kind = "failed_to_authenticate"
	KindLoggedIn             Kind = "logged_in"
	KindFailedToLogIn        Kind = "failed_to_log_in"
	KindLoggedOut            Kind = "logged_out"
)

// Kinds lists every kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindAuthenticated, KindFailedToAuthenticate, KindLoggedIn, KindFailedToLogIn, KindLoggedOut}
}

// ParseKind accepts the canonical name as well as dashed variants ("logged-in").
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind{Kind: s}
}

var (
	ErrEmptyUsername        = errors.New("username is required")
	ErrNilUserDetails       = errors.New("user details are required")
	ErrEmptyAuthority       = errors.New("authority names must not be empty")
	ErrMissingFailureDetail = errors.New("failure detail requires a reason or a cause")
)

// ErrUnknownKind is returned when a kind name does not match any event kind.
type ErrUnknownKind struct {
	Kind string
}

func (e ErrUnknownKind) Error() string {
	return "unknown security event kind '" + e.Kind + "'"
}

// Event is the capability set shared by every security event.
type Event interface {
	Kind() Kind
	Username() string
	Source() string
	// FromLegacy reports whether the event was synthesized from a legacy callback.
	FromLegacy() bool
}

// Option adjusts an event at construction.
type Option func(*header)

// FromLegacy marks the event as translated from the legacy API.
func FromLegacy() Option {
	return func(h *header) { h.fromLegacy = true }
}

type header struct {
	username   string
	source     string
	fromLegacy bool
}

func newHeader(username, source string, opts []Option) (header, error) {
	if username == "" {
		return header{}, ErrEmptyUsername
	}
	if source == "" {
		source = SourceUnknown
	}
	h := header{username: username, source: source}
	for _, opt := range opts {
		if opt != nil {
			opt(&h)
		}
	}
	return h, nil
}

func (h header) Username() string { return h.username }
func (h header) Source() string   { return h.source }
func (h header) FromLegacy() bool { return h.fromLegacy }
