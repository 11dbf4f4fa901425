package newsletter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, client *Client, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	logger, _ := test.NewNullLogger()
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, Handler(client, logger)(e.NewContext(req, rec)))
	return rec
}

func TestSubscribeForwards(t *testing.T) {
	var got map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"id":"c1"}`))
	}))
	defer upstream.Close()

	rec := serve(t, NewClient(upstream.URL, "key-1", upstream.Client()), `{"email":"a@b.co","firstName":"Ada"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"id":"c1"}`, rec.Body.String())
	assert.Equal(t, map[string]any{"email": "a@b.co", "firstName": "Ada", "source": "signup"}, got)
}

func TestSubscribeBadRequests(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "k", nil)
	for _, body := range []string{`not json`, `{}`, `{"email":"  "}`} {
		rec := serve(t, client, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestSubscribeUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"Email already on list."}`))
	}))
	defer upstream.Close()

	rec := serve(t, NewClient(upstream.URL, "k", upstream.Client()), `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":{"success":false,"message":"Email already on list."}}`, rec.Body.String())
}

func TestSubscribeNonJSONUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer upstream.Close()

	rec := serve(t, NewClient(upstream.URL, "k", upstream.Client()), `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid response")
}

func TestSubscribeUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	rec := serve(t, NewClient(url, "k", nil), `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to reach")
}
