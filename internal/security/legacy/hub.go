package legacy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/security/domain"
)

// Directory reports the registered legacy listeners in notification order.
type Directory interface {
	All() []Listener
}

// Hub is the host's legacy firing layer: it calls every legacy listener with
// the source passed through that listener's transform.
type Hub struct {
	dir Directory
	log zerolog.Logger
}

func NewHub(dir Directory) *Hub {
	return &Hub{dir: dir, log: zerolog.Nop()}
}

// SetLogger allows injection of a structured logger.
func (h *Hub) SetLogger(l zerolog.Logger) { h.log = l }

func (h *Hub) FireAuthenticated(ctx context.Context, details domain.UserDetails, source string) error {
	if details == nil {
		return domain.ErrNilUserDetails
	}
	if details.Username() == "" {
		return domain.ErrEmptyUsername
	}
	h.each("authenticated", details.Username(), source, func(l Listener, src string) {
		l.Authenticated(ctx, details, src)
	})
	return nil
}

func (h *Hub) FireFailedToAuthenticate(ctx context.Context, username, source string) error {
	return h.fire("failed to authenticate", username, source, func(l Listener, src string) {
		l.FailedToAuthenticate(ctx, username, src)
	})
}

func (h *Hub) FireLoggedIn(ctx context.Context, username, source string) error {
	return h.fire("logged in", username, source, func(l Listener, src string) {
		l.LoggedIn(ctx, username, src)
	})
}

func (h *Hub) FireFailedToLogIn(ctx context.Context, username, source string) error {
	return h.fire("failed to log in", username, source, func(l Listener, src string) {
		l.FailedToLogIn(ctx, username, src)
	})
}

func (h *Hub) FireLoggedOut(ctx context.Context, username, source string) error {
	return h.fire("logged out", username, source, func(l Listener, src string) {
		l.LoggedOut(ctx, username, src)
	})
}

func (h *Hub) fire(msg, username, source string, call func(Listener, string)) error {
	if username == "" {
		return domain.ErrEmptyUsername
	}
	h.each(msg, username, source, call)
	return nil
}

func (h *Hub) each(msg, username, source string, call func(Listener, string)) {
	h.log.Debug().Str("username", username).Str("source", source).Msg("legacy " + msg)
	if h.dir == nil {
		return
	}
	for _, l := range h.dir.All() {
		if l == nil {
			continue
		}
		src := DefaultTransformSource(source)
		if t, ok := l.(SourceTransformer); ok {
			src = t.TransformSource(source)
		}
		h.call(l, msg, func() { call(l, src) })
	}
}

func (h *Hub) call(l Listener, msg string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Str("listener", fmt.Sprintf("%T", l)).
				Interface("panic", r).
				Msg("legacy " + msg + ": listener failed")
		}
	}()
	fn()
}

var _ Firer = (*Hub)(nil)
