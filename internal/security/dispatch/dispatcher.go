package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/metrics"
	"github.com/corvusHold/seclink/internal/security/domain"
)

// Directory reports the listeners currently registered, in notification order.
type Directory interface {
	All() []domain.Listener
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func() []domain.Listener

func (f DirectoryFunc) All() []domain.Listener { return f() }

// Propagation decides what a listener's false return means.
type Propagation int

const (
	// PropagateAll notifies every listener regardless of return values.
	PropagateAll Propagation = iota
	// StopOnFalse stops notifying once a listener returns false.
	StopOnFalse
)

// ParsePropagation maps "all" and "stop_on_false" to a Propagation.
func ParsePropagation(s string) (Propagation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PropagateAll, nil
	case "stop_on_false", "stop-on-false":
		return StopOnFalse, nil
	default:
		return PropagateAll, fmt.Errorf("unknown propagation policy %q", s)
	}
}

func (p Propagation) String() string {
	if p == StopOnFalse {
		return "stop_on_false"
	}
	return "all"
}

// Dispatcher fans security events out to the listeners of a Directory.
// It holds no mutable state and may be used from many goroutines.
type Dispatcher struct {
	dir         Directory
	propagation Propagation
	log         zerolog.Logger
}

type Option func(*Dispatcher)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

func WithPropagation(p Propagation) Option {
	return func(d *Dispatcher) { d.propagation = p }
}

func New(dir Directory, opts ...Option) *Dispatcher {
	d := &Dispatcher{dir: dir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) FireAuthenticated(ctx context.Context, ev domain.AuthenticationEvent) {
	fire(ctx, d, ev, "authenticated", domain.Listener.Authenticated)
}

func (d *Dispatcher) FireFailedToAuthenticate(ctx context.Context, ev domain.AuthenticationFailureEvent) {
	fire(ctx, d, ev, "failed to authenticate", domain.Listener.FailedToAuthenticate)
}

func (d *Dispatcher) FireLoggedIn(ctx context.Context, ev domain.LoginEvent) {
	fire(ctx, d, ev, "logged in", domain.Listener.LoggedIn)
}

func (d *Dispatcher) FireFailedToLogIn(ctx context.Context, ev domain.LoginFailureEvent) {
	fire(ctx, d, ev, "failed to log in", domain.Listener.FailedToLogIn)
}

func (d *Dispatcher) FireLoggedOut(ctx context.Context, ev domain.LogoutEvent) {
	fire(ctx, d, ev, "logged out", domain.Listener.LoggedOut)
}

func fire[E domain.Event](ctx context.Context, d *Dispatcher, ev E, msg string, handle func(domain.Listener, context.Context, E) bool) {
	kind := string(ev.Kind())
	d.log.Debug().
		Str("kind", kind).
		Str("username", ev.Username()).
		Str("source", ev.Source()).
		Bool("legacy", ev.FromLegacy()).
		Msg(msg)
	metrics.IncEventDispatched(kind, ev.FromLegacy())

	if d.dir == nil {
		return
	}
	for _, l := range d.dir.All() {
		if l == nil {
			d.log.Warn().Str("kind", kind).Msg("dispatch: skipping nil listener")
			continue
		}
		cont, ok := d.invoke(l, kind, func() bool { return handle(l, ctx, ev) })
		if !ok {
			continue
		}
		if !cont && d.propagation == StopOnFalse {
			metrics.IncListenerInvocation(kind, "stop")
			d.log.Debug().Str("kind", kind).Str("listener", fmt.Sprintf("%T", l)).Msg("dispatch: propagation stopped")
			return
		}
		metrics.IncListenerInvocation(kind, "continue")
	}
}

// invoke isolates a listener panic so the remaining listeners are still notified.
func (d *Dispatcher) invoke(l domain.Listener, kind string, call func() bool) (cont bool, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncListenerInvocation(kind, "panic")
			d.log.Error().
				Str("kind", kind).
				Str("listener", fmt.Sprintf("%T", l)).
				Interface("panic", r).
				Msg("dispatch: listener failed")
			cont, ok = true, false
		}
	}()
	return call(), true
}
