package legacy

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/seclink/internal/security/directory"
	"github.com/corvusHold/seclink/internal/security/domain"
)

type call struct {
	kind     string
	username string
	source   string
}

type captureListener struct {
	calls []call
}

func (c *captureListener) Authenticated(_ context.Context, d domain.UserDetails, source string) {
	c.calls = append(c.calls, call{"authenticated", d.Username(), source})
}
func (c *captureListener) FailedToAuthenticate(_ context.Context, username, source string) {
	c.calls = append(c.calls, call{"failed_to_authenticate", username, source})
}
func (c *captureListener) LoggedIn(_ context.Context, username, source string) {
	c.calls = append(c.calls, call{"logged_in", username, source})
}
func (c *captureListener) FailedToLogIn(_ context.Context, username, source string) {
	c.calls = append(c.calls, call{"failed_to_log_in", username, source})
}
func (c *captureListener) LoggedOut(_ context.Context, username, source string) {
	c.calls = append(c.calls, call{"logged_out", username, source})
}

// rawListener keeps the forwarding marker.
type rawListener struct{ captureListener }

func (*rawListener) TransformSource(source string) string { return source }

type panicListener struct{ captureListener }

func (*panicListener) LoggedIn(context.Context, string, string) { panic("boom") }

func newHub(t *testing.T, ls ...Listener) *Hub {
	t.Helper()
	reg := directory.New[Listener]()
	for _, l := range ls {
		_, err := reg.Register(l)
		require.NoError(t, err)
	}
	return NewHub(reg)
}

func TestForwardedPrefix(t *testing.T) {
	assert.Equal(t, "sl2:ldap", Forwarded("ldap"))
	assert.True(t, IsForwarded("sl2:ldap"))
	assert.False(t, IsForwarded("ldap"))
	assert.False(t, IsForwarded("xsl2:ldap"))
	assert.Equal(t, "ldap", DefaultTransformSource("sl2:ldap"))
	assert.Equal(t, "ldap", DefaultTransformSource("ldap"))
}

func TestHub_AppliesTransforms(t *testing.T) {
	plain := &captureListener{}
	raw := &rawListener{}
	h := newHub(t, plain, raw)
	ctx := context.Background()

	require.NoError(t, h.FireLoggedIn(ctx, "alice", "sl2:formLogin"))
	require.NoError(t, h.FireLoggedOut(ctx, "alice", "formLogin"))

	assert.Equal(t, []call{
		{"logged_in", "alice", "formLogin"},
		{"logged_out", "alice", "formLogin"},
	}, plain.calls)
	assert.Equal(t, []call{
		{"logged_in", "alice", "sl2:formLogin"},
		{"logged_out", "alice", "formLogin"},
	}, raw.calls)
}

func TestHub_AllKinds(t *testing.T) {
	l := &captureListener{}
	h := newHub(t, l)
	ctx := context.Background()
	u, err := domain.NewUser("bob", "", domain.ActiveAccount)
	require.NoError(t, err)

	require.NoError(t, h.FireAuthenticated(ctx, u, "a"))
	require.NoError(t, h.FireFailedToAuthenticate(ctx, "bob", "b"))
	require.NoError(t, h.FireLoggedIn(ctx, "bob", "c"))
	require.NoError(t, h.FireFailedToLogIn(ctx, "bob", "d"))
	require.NoError(t, h.FireLoggedOut(ctx, "bob", "e"))

	assert.Equal(t, []call{
		{"authenticated", "bob", "a"},
		{"failed_to_authenticate", "bob", "b"},
		{"logged_in", "bob", "c"},
		{"failed_to_log_in", "bob", "d"},
		{"logged_out", "bob", "e"},
	}, l.calls)
}

func TestHub_RejectsInvalidArguments(t *testing.T) {
	l := &captureListener{}
	h := newHub(t, l)
	ctx := context.Background()

	assert.ErrorIs(t, h.FireAuthenticated(ctx, nil, "x"), domain.ErrNilUserDetails)
	assert.ErrorIs(t, h.FireAuthenticated(ctx, domain.User{}, "x"), domain.ErrEmptyUsername)
	assert.ErrorIs(t, h.FireLoggedOut(ctx, "", "x"), domain.ErrEmptyUsername)
	assert.Empty(t, l.calls)
}

func TestHub_IsolatesPanickingListener(t *testing.T) {
	var buf bytes.Buffer
	bad := &panicListener{}
	good := &captureListener{}
	h := newHub(t, bad, good)
	h.SetLogger(zerolog.New(&buf))

	require.NoError(t, h.FireLoggedIn(context.Background(), "alice", "formLogin"))
	assert.Equal(t, []call{{"logged_in", "alice", "formLogin"}}, good.calls)
	assert.Contains(t, buf.String(), "listener failed")
}

func TestUserDetails_Placeholder(t *testing.T) {
	ev, err := domain.NewAuthenticationEvent("carol", "apiToken")
	require.NoError(t, err)

	d := NewUserDetails(ev)
	assert.Equal(t, "carol", d.Username())
	assert.Empty(t, d.Password())
	assert.Empty(t, d.Authorities())
	assert.True(t, d.Enabled())
	assert.True(t, d.AccountNonExpired())
	assert.True(t, d.CredentialsNonExpired())
	assert.True(t, d.AccountNonLocked())
	assert.Equal(t, "apiToken", d.OriginalSource())
	assert.Equal(t, ev, d.OriginalEvent())
}
