package bridge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/metrics"
	"github.com/corvusHold/seclink/internal/security/domain"
	"github.com/corvusHold/seclink/internal/security/legacy"
)

// Notifier is the new-API dispatch facade.
type Notifier interface {
	FireAuthenticated(ctx context.Context, ev domain.AuthenticationEvent)
	FireFailedToAuthenticate(ctx context.Context, ev domain.AuthenticationFailureEvent)
	FireLoggedIn(ctx context.Context, ev domain.LoginEvent)
	FireFailedToLogIn(ctx context.Context, ev domain.LoginFailureEvent)
	FireLoggedOut(ctx context.Context, ev domain.LogoutEvent)
}

const legacyToNewName = "legacy_to_new"

// LegacyToNew is registered as a legacy listener and re-fires every legacy
// callback through the new API, tagged as legacy-origin.
//
// Callbacks whose source carries the forwarding marker were produced by
// NewToLegacy and are dropped; re-firing them would loop between the bridges.
type LegacyToNew struct {
	notifier Notifier
	log      zerolog.Logger
}

func NewLegacyToNew(n Notifier) *LegacyToNew {
	return &LegacyToNew{notifier: n, log: zerolog.Nop()}
}

// SetLogger allows injection of a structured logger.
func (b *LegacyToNew) SetLogger(l zerolog.Logger) { b.log = l }

// TransformSource keeps the source untouched so the forwarding marker survives.
func (b *LegacyToNew) TransformSource(source string) string { return source }

func (b *LegacyToNew) Authenticated(ctx context.Context, details domain.UserDetails, source string) {
	if b.echo(domain.KindAuthenticated, source) {
		return
	}
	ev, err := domain.NewAuthenticationEventWithDetails(details, source, domain.FromLegacy())
	if b.invalid(domain.KindAuthenticated, source, err) {
		return
	}
	b.notifier.FireAuthenticated(ctx, ev)
}

func (b *LegacyToNew) FailedToAuthenticate(ctx context.Context, username, source string) {
	if b.echo(domain.KindFailedToAuthenticate, source) {
		return
	}
	ev, err := domain.NewAuthenticationFailureEvent(username, source, domain.FromLegacy())
	if b.invalid(domain.KindFailedToAuthenticate, source, err) {
		return
	}
	b.notifier.FireFailedToAuthenticate(ctx, ev)
}

func (b *LegacyToNew) LoggedIn(ctx context.Context, username, source string) {
	if b.echo(domain.KindLoggedIn, source) {
		return
	}
	ev, err := domain.NewLoginEvent(username, source, nil, domain.FromLegacy())
	if b.invalid(domain.KindLoggedIn, source, err) {
		return
	}
	b.notifier.FireLoggedIn(ctx, ev)
}

func (b *LegacyToNew) FailedToLogIn(ctx context.Context, username, source string) {
	if b.echo(domain.KindFailedToLogIn, source) {
		return
	}
	ev, err := domain.NewLoginFailureEvent(username, source, domain.FromLegacy())
	if b.invalid(domain.KindFailedToLogIn, source, err) {
		return
	}
	b.notifier.FireFailedToLogIn(ctx, ev)
}

func (b *LegacyToNew) LoggedOut(ctx context.Context, username, source string) {
	if b.echo(domain.KindLoggedOut, source) {
		return
	}
	ev, err := domain.NewLogoutEvent(username, source, domain.FromLegacy())
	if b.invalid(domain.KindLoggedOut, source, err) {
		return
	}
	b.notifier.FireLoggedOut(ctx, ev)
}

func (b *LegacyToNew) echo(kind domain.Kind, source string) bool {
	if !legacy.IsForwarded(source) {
		return false
	}
	metrics.IncLoopDrop(legacyToNewName, string(kind))
	b.log.Trace().Str("kind", string(kind)).Str("source", source).Msg("bridge: dropping forwarded legacy event")
	return true
}

func (b *LegacyToNew) invalid(kind domain.Kind, source string, err error) bool {
	if err == nil {
		return false
	}
	b.log.Warn().Err(err).Str("kind", string(kind)).Str("source", source).Msg("bridge: cannot translate legacy event")
	return true
}

var (
	_ legacy.Listener          = (*LegacyToNew)(nil)
	_ legacy.SourceTransformer = (*LegacyToNew)(nil)
)
