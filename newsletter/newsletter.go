// Package newsletter forwards mailing-list signups to the Loops contacts API.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the Loops create-contact URL.
const DefaultEndpoint = "https://app.loops.so/api/v1/contacts/create"

const signupSource = "signup"

// Signup is the inbound request body.
type Signup struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
}

type contact struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	Source    string `json:"source"`
}

// ErrUnreachable is returned when the upstream request could not be made.
var ErrUnreachable = errors.New("newsletter: upstream unreachable")

// ErrBadResponse is returned when the upstream body is not JSON.
var ErrBadResponse = errors.New("newsletter: invalid upstream response")

// Client talks to the contacts API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient returns a client. An empty endpoint selects DefaultEndpoint.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}
}

// Subscribe forwards one signup and returns the upstream status and its
// JSON body.
func (c *Client) Subscribe(ctx context.Context, s Signup) (int, json.RawMessage, error) {
	payload, err := json.Marshal(contact{Email: s.Email, FirstName: s.FirstName, Source: signupSource})
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if !json.Valid(body) {
		return resp.StatusCode, nil, ErrBadResponse
	}
	return resp.StatusCode, json.RawMessage(body), nil
}

// Handler returns the POST /api/subscribe endpoint.
//
//	400 malformed body or missing email
//	502 upstream unreachable or non-JSON upstream body
//	upstream status with {"error": <upstream body>} when upstream fails
//	upstream body otherwise
func Handler(c *Client, log logrus.FieldLogger) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var s Signup
		if err := json.NewDecoder(ctx.Request().Body).Decode(&s); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		s.Email = strings.TrimSpace(s.Email)
		if s.Email == "" {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Email is required"})
		}

		status, body, err := c.Subscribe(ctx.Request().Context(), s)
		switch {
		case errors.Is(err, ErrBadResponse):
			log.WithField("status", status).Warn("newsletter upstream returned non-JSON body")
			return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "Invalid response from Loops API"})
		case err != nil:
			log.WithError(err).Warn("newsletter upstream unreachable")
			return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to reach Loops API"})
		}

		if status < 200 || status > 299 {
			log.WithField("status", status).Info("newsletter signup rejected upstream")
			return ctx.JSON(status, map[string]json.RawMessage{"error": body})
		}
		return ctx.JSONBlob(http.StatusOK, body)
	}
}
