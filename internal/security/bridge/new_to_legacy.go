package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/metrics"
	"github.com/corvusHold/seclink/internal/security/domain"
	"github.com/corvusHold/seclink/internal/security/legacy"
)

const newToLegacyName = "new_to_legacy"

// ErrLegacyUnavailable is logged when no legacy firing layer is configured.
var ErrLegacyUnavailable = errors.New("legacy firing layer unavailable")

// NewToLegacy is registered as a new-API listener and forwards every event
// to the legacy firing layer with the forwarding marker prepended to its
// source. Legacy-origin events are not forwarded back.
//
// Forwarding is best effort: failures are logged and never reach the
// dispatcher. Every method returns true.
type NewToLegacy struct {
	legacy legacy.Firer
	log    zerolog.Logger
}

func NewNewToLegacy(f legacy.Firer) *NewToLegacy {
	return &NewToLegacy{legacy: f, log: zerolog.Nop()}
}

// SetLogger allows injection of a structured logger.
func (b *NewToLegacy) SetLogger(l zerolog.Logger) { b.log = l }

func (b *NewToLegacy) Authenticated(ctx context.Context, ev domain.AuthenticationEvent) bool {
	if b.echo(ev) {
		return true
	}
	details, ok := ev.UserDetails()
	if !ok {
		details = legacy.NewUserDetails(ev)
	}
	b.forward(ev, func(f legacy.Firer) error {
		return f.FireAuthenticated(ctx, details, legacy.Forwarded(ev.Source()))
	})
	return true
}

func (b *NewToLegacy) FailedToAuthenticate(ctx context.Context, ev domain.AuthenticationFailureEvent) bool {
	if b.echo(ev) {
		return true
	}
	b.forward(ev, func(f legacy.Firer) error {
		return f.FireFailedToAuthenticate(ctx, ev.Username(), legacy.Forwarded(ev.Source()))
	})
	return true
}

func (b *NewToLegacy) LoggedIn(ctx context.Context, ev domain.LoginEvent) bool {
	if b.echo(ev) {
		return true
	}
	b.forward(ev, func(f legacy.Firer) error {
		return f.FireLoggedIn(ctx, ev.Username(), legacy.Forwarded(ev.Source()))
	})
	return true
}

func (b *NewToLegacy) FailedToLogIn(ctx context.Context, ev domain.LoginFailureEvent) bool {
	if b.echo(ev) {
		return true
	}
	b.forward(ev, func(f legacy.Firer) error {
		return f.FireFailedToLogIn(ctx, ev.Username(), legacy.Forwarded(ev.Source()))
	})
	return true
}

func (b *NewToLegacy) LoggedOut(ctx context.Context, ev domain.LogoutEvent) bool {
	if b.echo(ev) {
		return true
	}
	b.forward(ev, func(f legacy.Firer) error {
		return f.FireLoggedOut(ctx, ev.Username(), legacy.Forwarded(ev.Source()))
	})
	return true
}

func (b *NewToLegacy) echo(ev domain.Event) bool {
	if !ev.FromLegacy() {
		return false
	}
	metrics.IncLoopDrop(newToLegacyName, string(ev.Kind()))
	b.log.Trace().Str("kind", string(ev.Kind())).Str("source", ev.Source()).Msg("bridge: not forwarding legacy-origin event")
	return true
}

func (b *NewToLegacy) forward(ev domain.Event, call func(legacy.Firer) error) {
	kind := string(ev.Kind())
	err := b.invoke(call)
	if err != nil {
		metrics.IncLegacyForward(kind, "failure")
		b.log.Warn().Err(err).
			Str("kind", kind).
			Str("username", ev.Username()).
			Str("source", ev.Source()).
			Msg("bridge: forwarding to legacy listeners failed")
		return
	}
	metrics.IncLegacyForward(kind, "success")
}

func (b *NewToLegacy) invoke(call func(legacy.Firer) error) (err error) {
	if b.legacy == nil {
		return ErrLegacyUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("legacy firing layer panicked: %v", r)
		}
	}()
	return call(b.legacy)
}

var _ domain.Listener = (*NewToLegacy)(nil)
