package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/seclink/internal/config"
	"github.com/corvusHold/seclink/internal/logger"
	"github.com/corvusHold/seclink/internal/version"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUDIT_ENABLED", "false")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestFire_LegacyReachesNewAPIOnce(t *testing.T) {
	isolate(t)
	out, err := run(t, "fire", "logged-in", "--legacy", "-u", "alice", "-s", "formLogin")
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 2, out)
	assert.Contains(t, out, "username=alice source=formLogin legacy=true")
	assert.Contains(t, out, "legacy logged_in")
}

func TestFire_NewReachesLegacyOnce(t *testing.T) {
	isolate(t)
	out, err := run(t, "fire", "failed_to_authenticate", "-u", "bob", "-s", "ldap", "--reason", "bad password")
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 2, out)
	assert.Contains(t, out, "username=bob source=ldap legacy=false")
	assert.Contains(t, out, "legacy failed_to_authenticate")
	assert.NotContains(t, out, "sl2:")
}

func TestFire_Errors(t *testing.T) {
	isolate(t)
	_, err := run(t, "fire", "exploded", "-u", "bob")
	assert.Error(t, err)

	_, err = run(t, "fire", "logged_in")
	assert.Error(t, err)

	_, err = run(t, "fire", "logged_in", "-u", "bob", "--propagation", "sometimes")
	assert.Error(t, err)
}

func TestToken_SignedWithConfiguredKey(t *testing.T) {
	isolate(t)
	t.Setenv("SECLINK_JWT_SIGNING_KEY", "cli-key")
	out, err := run(t, "token", "--subject", "ops")
	require.NoError(t, err)

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), &claims, func(*jwt.Token) (any, error) {
		return []byte("cli-key"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestNewServer_Routes(t *testing.T) {
	cfg := config.Config{DispatchPropagation: "all", JWTSigningKey: "k", RateLimitPerMinute: 10}
	e, err := newServer(cfg, logger.Nop(), nil)
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache":"disabled"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seclink_http_requests_total")

	assert.Equal(t, http.StatusUnauthorized, get("/v1/security/listeners").Code)
}
