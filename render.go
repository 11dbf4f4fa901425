package inkpost

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/auth"
	"github.com/eringen/inkpost/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) siteView() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// page assembles the chrome shared by every page: site settings, CSRF
// token, signed-in user and pending flashes.
func (a *App) page(c echo.Context, meta views.PageMeta) views.Page {
	p := views.Page{
		Site:    a.siteView(),
		Meta:    meta,
		CSRF:    CsrfToken(c),
		Flashes: takeFlashes(c),
	}
	if claims, ok := auth.FromContext(c); ok {
		u := &views.User{ID: claims.Subject, Name: claims.DisplayName(), Email: claims.Email}
		if prof, err := a.Posts.GetProfile(c.Request().Context(), claims.Subject); err == nil {
			if prof.DisplayName != "" {
				u.Name = prof.DisplayName
			}
			u.AvatarURL = prof.AvatarURL
		}
		p.User = u
	}
	return p
}

// dashboardPage is page with the dashboard chrome enabled and section
// highlighted in the nav.
func (a *App) dashboardPage(c echo.Context, title, section string) views.Page {
	p := a.page(c, views.PageMeta{Title: title, NoIndex: true})
	p.Dashboard = true
	p.Section = section
	return p
}
