package inkpost

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/inkpost/blog"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// statusFor maps a gateway error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, blog.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, blog.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, blog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blog.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, blog.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown to the author for err. Validation messages
// are passed through; everything else gets a fixed sentence.
func userMessage(err error) string {
	switch {
	case errors.Is(err, blog.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), blog.ErrValidation.Error()+": ")
		return "Please check the form: " + msg
	case errors.Is(err, blog.ErrAuthentication):
		return "Please sign in again."
	case errors.Is(err, blog.ErrNotFound):
		return "That post no longer exists."
	case errors.Is(err, blog.ErrConfiguration):
		return "This feature is not configured on the server."
	case errors.Is(err, blog.ErrUpstream):
		return "An external service failed. Please try again."
	}
	return "Something went wrong. Please try again."
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard/"
	}
	return next
}
