package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const claimsKey = "auth.claims"

// TokenSource extracts a raw token from the request, or "".
type TokenSource func(c echo.Context) string

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware resolves the caller's identity on every request from the first
// source that yields a token. It never rejects a request; handlers decide
// what an anonymous caller may do.
func Middleware(v *Verifier, log logrus.FieldLogger, sources ...TokenSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, src := range sources {
				raw := src(c)
				if raw == "" {
					continue
				}
				claims, err := v.Verify(raw)
				if err != nil {
					log.WithError(err).WithField("path", c.Path()).Debug("token rejected")
					continue
				}
				c.Set(claimsKey, claims)
				break
			}
			return next(c)
		}
	}
}

// FromContext returns the verified claims for this request.
func FromContext(c echo.Context) (Claims, bool) {
	claims, ok := c.Get(claimsKey).(Claims)
	return claims, ok
}

// Owner returns the verified subject, or "" for anonymous requests.
func Owner(c echo.Context) string {
	claims, ok := FromContext(c)
	if !ok {
		return ""
	}
	return claims.Subject
}
