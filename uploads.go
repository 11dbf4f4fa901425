package inkpost

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/auth"
	"github.com/eringen/inkpost/blog"
)

var errNoFile = errors.New("no file provided")

// formUpload opens the multipart file in field. The returned func closes it.
// A missing or empty file yields errNoFile.
func formUpload(c echo.Context, field string) (blog.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return blog.Upload{}, nil, errNoFile
		}
		return blog.Upload{}, nil, err
	}
	if fh.Size == 0 && fh.Filename == "" {
		return blog.Upload{}, nil, errNoFile
	}
	f, err := fh.Open()
	if err != nil {
		return blog.Upload{}, nil, err
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
			ct = byExt
		}
	}
	return blog.Upload{
		Name:        fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	return a.upload(c, a.Posts.UploadImage)
}

// handleAvatarUpload stores the avatar and points the profile at it.
func (a *App) handleAvatarUpload(c echo.Context) error {
	return a.upload(c, func(ctx context.Context, owner string, up blog.Upload) (string, error) {
		url, err := a.Posts.UploadAvatar(ctx, owner, up)
		if err != nil {
			return "", err
		}
		if err := a.Posts.UpdateProfile(ctx, owner, blog.ProfileFields{AvatarURL: &url}); err != nil {
			return "", err
		}
		return url, nil
	})
}

// upload answers JSON: {"url": ...} on success, {"error": ...} otherwise.
func (a *App) upload(c echo.Context, store func(context.Context, string, blog.Upload) (string, error)) error {
	up, closeUp, err := formUpload(c, "file")
	if err != nil {
		if errors.Is(err, errNoFile) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
		}
		return err
	}
	defer closeUp()

	url, err := store(c.Request().Context(), auth.Owner(c), up)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			return err
		}
		return c.JSON(code, map[string]string{"error": userMessage(err)})
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
