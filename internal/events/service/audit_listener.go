package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	evdomain "github.com/corvusHold/seclink/internal/events/domain"
	"github.com/corvusHold/seclink/internal/security/domain"
)

const (
	TypeAuthenticated        = "auth.authenticated"
	TypeAuthenticationFailed = "auth.authentication.failed"
	TypeLoginSuccess         = "auth.login.success"
	TypeLoginFailed          = "auth.login.failed"
	TypeLogout               = "auth.logout"
)

// AuditListener is a new-API listener publishing an audit record for every
// observed event. Publisher errors are logged and never stop dispatch.
type AuditListener struct {
	pub evdomain.Publisher
	log zerolog.Logger
	now func() time.Time
}

func NewAuditListener(pub evdomain.Publisher) *AuditListener {
	return &AuditListener{pub: pub, log: zerolog.Nop(), now: time.Now}
}

// SetLogger allows injection of a structured logger.
func (a *AuditListener) SetLogger(l zerolog.Logger) { a.log = l }

func (a *AuditListener) Authenticated(ctx context.Context, ev domain.AuthenticationEvent) bool {
	meta := map[string]string{}
	if d, ok := ev.UserDetails(); ok {
		meta["authorities"] = strings.Join(d.Authorities(), ",")
	}
	a.publish(ctx, TypeAuthenticated, ev, meta)
	return true
}

func (a *AuditListener) FailedToAuthenticate(ctx context.Context, ev domain.AuthenticationFailureEvent) bool {
	a.publish(ctx, TypeAuthenticationFailed, ev, failureMeta(ev.Reason(), ev.Cause()))
	return true
}

func (a *AuditListener) LoggedIn(ctx context.Context, ev domain.LoginEvent) bool {
	meta := map[string]string{}
	if ev.Authorities().Len() > 0 {
		meta["authorities"] = strings.Join(ev.Authorities().Slice(), ",")
	}
	a.publish(ctx, TypeLoginSuccess, ev, meta)
	return true
}

func (a *AuditListener) FailedToLogIn(ctx context.Context, ev domain.LoginFailureEvent) bool {
	a.publish(ctx, TypeLoginFailed, ev, failureMeta(ev.Reason(), ev.Cause()))
	return true
}

func (a *AuditListener) LoggedOut(ctx context.Context, ev domain.LogoutEvent) bool {
	a.publish(ctx, TypeLogout, ev, map[string]string{})
	return true
}

func failureMeta(reason string, cause error) map[string]string {
	meta := map[string]string{}
	if reason != "" {
		meta["reason"] = reason
	}
	if cause != nil {
		meta["cause"] = cause.Error()
	}
	return meta
}

func (a *AuditListener) publish(ctx context.Context, typ string, ev domain.Event, meta map[string]string) {
	if a.pub == nil {
		return
	}
	err := a.pub.Publish(ctx, evdomain.Event{
		Type:     typ,
		Username: ev.Username(),
		Source:   ev.Source(),
		Legacy:   ev.FromLegacy(),
		Meta:     meta,
		Time:     a.now(),
	})
	if err != nil {
		a.log.Warn().Err(err).Str("type", typ).Msg("audit: publish failed")
	}
}

var _ domain.Listener = (*AuditListener)(nil)
