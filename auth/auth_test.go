package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestIssueAndVerify(t *testing.T) {
	tok, err := Issue(secret, "inkpost", "user-1", "ada@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := NewVerifier(secret, "inkpost").Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "ada", claims.DisplayName())
}

func TestVerifyRejects(t *testing.T) {
	good, err := Issue(secret, "", "user-1", "", time.Hour)
	require.NoError(t, err)
	expired, err := Issue(secret, "", "user-1", "", -time.Hour)
	require.NoError(t, err)
	otherIssuer, err := Issue(secret, "elsewhere", "user-1", "", time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *Verifier
		token    string
	}{
		{"wrong secret", NewVerifier("other", ""), good},
		{"expired", NewVerifier(secret, ""), expired},
		{"issuer mismatch", NewVerifier(secret, "inkpost"), otherIssuer},
		{"missing subject", NewVerifier(secret, ""), noSub},
		{"alg none", NewVerifier(secret, ""), none},
		{"garbage", NewVerifier(secret, ""), "not.a.token"},
	}
	for _, tt := range tests {
		if _, err := tt.verifier.Verify(tt.token); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	_, err = NewVerifier("", "").Verify(good)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestMiddlewareResolvesBearer(t *testing.T) {
	e := echo.New()
	logger, _ := test.NewNullLogger()
	tok, err := Issue(secret, "", "user-7", "", time.Hour)
	require.NoError(t, err)

	var owner string
	h := Middleware(NewVerifier(secret, ""), logger, BearerToken)(func(c echo.Context) error {
		owner = Owner(c)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "user-7", owner)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer broken")
	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "", owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearerToken(t *testing.T) {
	e := echo.New()
	tests := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"Basic dXNlcjp": "",
		"Bearer":        "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		if got := BearerToken(c); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
