package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evdomain "github.com/corvusHold/seclink/internal/events/domain"
	"github.com/corvusHold/seclink/internal/security/domain"
)

type capturePublisher struct {
	events []evdomain.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, e evdomain.Event) error {
	c.events = append(c.events, e)
	return c.err
}

func fixedClock() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestAuditListener_PublishesEveryKind(t *testing.T) {
	pub := &capturePublisher{}
	a := NewAuditListener(pub)
	a.now = fixedClock
	ctx := context.Background()

	auth, err := domain.NewAuthenticationEvent("alice", "apiToken")
	require.NoError(t, err)
	authFail, err := domain.NewAuthenticationFailureWithDetail("alice", "ldap", "bad password", errors.New("invalid credentials"))
	require.NoError(t, err)
	login, err := domain.NewLoginEvent("alice", "formLogin", []string{"user", "admin"}, domain.FromLegacy())
	require.NoError(t, err)
	loginFail, err := domain.NewLoginFailureEvent("alice", "formLogin")
	require.NoError(t, err)
	logout, err := domain.NewLogoutEvent("alice", "formLogin")
	require.NoError(t, err)

	assert.True(t, a.Authenticated(ctx, auth))
	assert.True(t, a.FailedToAuthenticate(ctx, authFail))
	assert.True(t, a.LoggedIn(ctx, login))
	assert.True(t, a.FailedToLogIn(ctx, loginFail))
	assert.True(t, a.LoggedOut(ctx, logout))

	require.Len(t, pub.events, 5)
	types := make([]string, len(pub.events))
	for i, e := range pub.events {
		types[i] = e.Type
		assert.Equal(t, "alice", e.Username)
		assert.Equal(t, fixedClock(), e.Time)
	}
	assert.Equal(t, []string{TypeAuthenticated, TypeAuthenticationFailed, TypeLoginSuccess, TypeLoginFailed, TypeLogout}, types)

	assert.Equal(t, map[string]string{"reason": "bad password", "cause": "invalid credentials"}, pub.events[1].Meta)
	assert.Equal(t, "admin,user", pub.events[2].Meta["authorities"])
	assert.True(t, pub.events[2].Legacy)
	assert.Empty(t, pub.events[3].Meta)
}

func TestAuditListener_PublishErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	pub := &capturePublisher{err: errors.New("sink down")}
	a := NewAuditListener(pub)
	a.SetLogger(zerolog.New(&buf))

	ev, err := domain.NewLogoutEvent("alice", "")
	require.NoError(t, err)
	assert.True(t, a.LoggedOut(context.Background(), ev))
	assert.Contains(t, buf.String(), "audit: publish failed")
	assert.Contains(t, buf.String(), "sink down")
}

func TestLogger_Publish(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	err := l.Publish(context.Background(), evdomain.Event{
		Type:     TypeLoginSuccess,
		Username: "alice",
		Source:   "formLogin",
		Legacy:   true,
		Meta:     map[string]string{"authorities": "admin"},
		Time:     fixedClock(),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"type":"auth.login.success"`)
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, `"legacy":true`)
	assert.Contains(t, out, `"authorities":"admin"`)
	assert.Contains(t, out, `"message":"event"`)
}
