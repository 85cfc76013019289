package dispatch

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/corvusHold/seclink/internal/security/directory"
	"github.com/corvusHold/seclink/internal/security/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder appends "<name>:<kind>" to a shared journal.
type recorder struct {
	name    string
	journal *[]string
	result  bool
	panics  bool
}

func (r *recorder) record(kind domain.Kind) bool {
	*r.journal = append(*r.journal, r.name+":"+string(kind))
	if r.panics {
		panic("listener " + r.name + " exploded")
	}
	return r.result
}

func (r *recorder) Authenticated(_ context.Context, e domain.AuthenticationEvent) bool {
	return r.record(e.Kind())
}
func (r *recorder) FailedToAuthenticate(_ context.Context, e domain.AuthenticationFailureEvent) bool {
	return r.record(e.Kind())
}
func (r *recorder) LoggedIn(_ context.Context, e domain.LoginEvent) bool { return r.record(e.Kind()) }
func (r *recorder) FailedToLogIn(_ context.Context, e domain.LoginFailureEvent) bool {
	return r.record(e.Kind())
}
func (r *recorder) LoggedOut(_ context.Context, e domain.LogoutEvent) bool { return r.record(e.Kind()) }

func newRegistry(t *testing.T, ls ...domain.Listener) *directory.Registry[domain.Listener] {
	t.Helper()
	reg := directory.New[domain.Listener]()
	for _, l := range ls {
		_, err := reg.Register(l)
		require.NoError(t, err)
	}
	return reg
}

func fireAll(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx := context.Background()

	auth, err := domain.NewAuthenticationEvent("alice", "apiToken")
	require.NoError(t, err)
	authFail, err := domain.NewAuthenticationFailureEvent("alice", "ldap")
	require.NoError(t, err)
	login, err := domain.NewLoginEvent("alice", "formLogin", []string{"admin"})
	require.NoError(t, err)
	loginFail, err := domain.NewLoginFailureWithDetail("alice", "formLogin", "bad password", nil)
	require.NoError(t, err)
	logout, err := domain.NewLogoutEvent("alice", "formLogin")
	require.NoError(t, err)

	d.FireAuthenticated(ctx, auth)
	d.FireFailedToAuthenticate(ctx, authFail)
	d.FireLoggedIn(ctx, login)
	d.FireFailedToLogIn(ctx, loginFail)
	d.FireLoggedOut(ctx, logout)
}

func TestDispatcher_EveryListenerOnceInOrder(t *testing.T) {
	var journal []string
	a := &recorder{name: "a", journal: &journal, result: true}
	b := &recorder{name: "b", journal: &journal, result: true}
	d := New(newRegistry(t, a, b))

	fireAll(t, d)

	assert.Equal(t, []string{
		"a:authenticated", "b:authenticated",
		"a:failed_to_authenticate", "b:failed_to_authenticate",
		"a:logged_in", "b:logged_in",
		"a:failed_to_log_in", "b:failed_to_log_in",
		"a:logged_out", "b:logged_out",
	}, journal)
}

func TestDispatcher_PropagateAllIgnoresFalse(t *testing.T) {
	var journal []string
	a := &recorder{name: "a", journal: &journal, result: false}
	b := &recorder{name: "b", journal: &journal, result: true}
	d := New(newRegistry(t, a, b))

	ev, err := domain.NewLogoutEvent("alice", "")
	require.NoError(t, err)
	d.FireLoggedOut(context.Background(), ev)

	assert.Equal(t, []string{"a:logged_out", "b:logged_out"}, journal)
}

func TestDispatcher_StopOnFalse(t *testing.T) {
	var journal []string
	a := &recorder{name: "a", journal: &journal, result: true}
	b := &recorder{name: "b", journal: &journal, result: false}
	c := &recorder{name: "c", journal: &journal, result: true}
	d := New(newRegistry(t, a, b, c), WithPropagation(StopOnFalse))

	ev, err := domain.NewLogoutEvent("alice", "")
	require.NoError(t, err)
	d.FireLoggedOut(context.Background(), ev)

	assert.Equal(t, []string{"a:logged_out", "b:logged_out"}, journal)
}

func TestDispatcher_IsolatesPanickingListener(t *testing.T) {
	var journal []string
	var buf bytes.Buffer
	a := &recorder{name: "a", journal: &journal, panics: true}
	b := &recorder{name: "b", journal: &journal, result: true}
	d := New(newRegistry(t, a, b), WithLogger(zerolog.New(&buf)))

	ev, err := domain.NewLoginEvent("alice", "formLogin", nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { d.FireLoggedIn(context.Background(), ev) })

	assert.Equal(t, []string{"a:logged_in", "b:logged_in"}, journal)
	assert.Contains(t, buf.String(), "dispatch: listener failed")
	assert.Contains(t, buf.String(), "listener a exploded")
}

func TestDispatcher_LooksUpListenersOnEveryCall(t *testing.T) {
	var journal []string
	reg := newRegistry(t, &recorder{name: "a", journal: &journal, result: true})
	d := New(reg)

	ev, err := domain.NewLogoutEvent("alice", "")
	require.NoError(t, err)
	d.FireLoggedOut(context.Background(), ev)

	remove, err := reg.Register(&recorder{name: "b", journal: &journal, result: true})
	require.NoError(t, err)
	d.FireLoggedOut(context.Background(), ev)
	remove()
	d.FireLoggedOut(context.Background(), ev)

	assert.Equal(t, []string{"a:logged_out", "a:logged_out", "b:logged_out", "a:logged_out"}, journal)
}

func TestDispatcher_EmptyAndNilEntries(t *testing.T) {
	var journal []string
	a := &recorder{name: "a", journal: &journal, result: true}
	d := New(DirectoryFunc(func() []domain.Listener { return []domain.Listener{nil, a} }))

	ev, err := domain.NewLogoutEvent("alice", "")
	require.NoError(t, err)
	d.FireLoggedOut(context.Background(), ev)
	assert.Equal(t, []string{"a:logged_out"}, journal)

	assert.NotPanics(t, func() { New(nil).FireLoggedOut(context.Background(), ev) })
	assert.NotPanics(t, func() {
		New(DirectoryFunc(func() []domain.Listener { return nil })).FireLoggedOut(context.Background(), ev)
	})
}

func TestDispatcher_DebugLog(t *testing.T) {
	var buf bytes.Buffer
	d := New(newRegistry(t), WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	ev, err := domain.NewLoginEvent("alice", "formLogin", nil, domain.FromLegacy())
	require.NoError(t, err)
	d.FireLoggedIn(context.Background(), ev)

	out := buf.String()
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, `"source":"formLogin"`)
	assert.Contains(t, out, `"legacy":true`)
	assert.Contains(t, out, `"message":"logged in"`)
}

func TestParsePropagation(t *testing.T) {
	p, err := ParsePropagation("")
	require.NoError(t, err)
	assert.Equal(t, PropagateAll, p)

	p, err = ParsePropagation("STOP_ON_FALSE")
	require.NoError(t, err)
	assert.Equal(t, StopOnFalse, p)
	assert.Equal(t, "stop_on_false", p.String())

	_, err = ParsePropagation("random")
	assert.Error(t, err)
}
