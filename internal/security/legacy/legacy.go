// Package legacy models the older, narrower security listener API and the
// host layer that fires it. Events forwarded from the new API carry
// ForwardedSourcePrefix in their source so they can be recognised when they
// come back.
package legacy

import (
	"context"
	"strings"

	"github.com/corvusHold/seclink/internal/security/domain"
)

// ForwardedSourcePrefix marks sources forwarded by the New->Legacy bridge.
// Both bridges depend on this exact literal.
const ForwardedSourcePrefix = "sl2:"

// Forwarded returns source tagged as forwarded from the new API.
func Forwarded(source string) string { return ForwardedSourcePrefix + source }

// IsForwarded reports whether source was produced by Forwarded.
func IsForwarded(source string) bool { return strings.HasPrefix(source, ForwardedSourcePrefix) }

// Listener receives legacy security callbacks.
type Listener interface {
	Authenticated(ctx context.Context, details domain.UserDetails, source string)
	FailedToAuthenticate(ctx context.Context, username, source string)
	LoggedIn(ctx context.Context, username, source string)
	FailedToLogIn(ctx context.Context, username, source string)
	LoggedOut(ctx context.Context, username, source string)
}

// SourceTransformer lets a listener replace the default source transform the
// Hub applies before each callback.
type SourceTransformer interface {
	TransformSource(source string) string
}

// DefaultTransformSource hides the forwarding marker from ordinary legacy listeners.
func DefaultTransformSource(source string) string {
	return strings.TrimPrefix(source, ForwardedSourcePrefix)
}

// Firer is the extension seam through which the legacy firing layer is
// invoked from outside the host. Implementations notify every legacy listener.
type Firer interface {
	FireAuthenticated(ctx context.Context, details domain.UserDetails, source string) error
	FireFailedToAuthenticate(ctx context.Context, username, source string) error
	FireLoggedIn(ctx context.Context, username, source string) error
	FireFailedToLogIn(ctx context.Context, username, source string) error
	FireLoggedOut(ctx context.Context, username, source string) error
}
