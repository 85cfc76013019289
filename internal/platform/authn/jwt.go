package authn

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const ctxSubjectKey = "authn_subject"

// NewJWT returns an Echo middleware that validates HS256 bearer tokens signed
// with key and stores the token subject in the context.
func NewJWT(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			tokStr := strings.TrimPrefix(auth, "Bearer ")

			var claims jwt.RegisteredClaims
			tok, err := jwt.ParseWithClaims(tokStr, &claims, func(token *jwt.Token) (any, error) {
				return []byte(key), nil
			}, jwt.WithLeeway(30*time.Second), jwt.WithIssuedAt(), jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			if strings.TrimSpace(claims.Subject) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing subject"})
			}

			c.Set(ctxSubjectKey, claims.Subject)
			return next(c)
		}
	}
}

// Subject returns the authenticated caller's subject from context.
func Subject(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxSubjectKey).(string)
	return s, ok && s != ""
}

// Sign issues an HS256 token for subject valid for ttl. Used by the CLI and
// tests to mint harness credentials.
func Sign(key, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}
