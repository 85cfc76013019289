package domain

import "context"

// Listener observes security events through the new API.
//
// Each method reports whether propagation to the remaining listeners may
// continue. Whether a false return actually stops propagation is decided by
// the dispatcher's propagation policy.
type Listener interface {
	// Authenticated is called when a user was authenticated using any credentials.
	Authenticated(ctx context.Context, event AuthenticationEvent) bool
	// FailedToAuthenticate is called when authentication failed in its last layer.
	FailedToAuthenticate(ctx context.Context, event AuthenticationFailureEvent) bool
	// LoggedIn is called after Authenticated, once the session is established.
	LoggedIn(ctx context.Context, event LoginEvent) bool
	// FailedToLogIn is called after FailedToAuthenticate.
	FailedToLogIn(ctx context.Context, event LoginFailureEvent) bool
	LoggedOut(ctx context.Context, event LogoutEvent) bool
}

// BaseListener ignores every event. Embed it to implement only some kinds.
type BaseListener struct{}

func (BaseListener) Authenticated(context.Context, AuthenticationEvent) bool               { return true }
func (BaseListener) FailedToAuthenticate(context.Context, AuthenticationFailureEvent) bool { return true }
func (BaseListener) LoggedIn(context.Context, LoginEvent) bool                             { return true }
func (BaseListener) FailedToLogIn(context.Context, LoginFailureEvent) bool                 { return true }
func (BaseListener) LoggedOut(context.Context, LogoutEvent) bool                           { return true }

var _ Listener = BaseListener{}
