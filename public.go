package inkpost

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/views"
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Posts.ListPublished(c.Request().Context(), a.Config.HomeLatest)
	if err != nil {
		return err
	}
	meta := views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
	}
	return Render(c, a.Views.Home(views.HomeData{Page: a.page(c, meta), Latest: posts}))
}

func (a *App) handleBlogList(c echo.Context) error {
	posts, err := a.Posts.ListPublished(c.Request().Context(), 0)
	if err != nil {
		return err
	}
	meta := views.PageMeta{
		Title:       "Blog",
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "blog"),
		OGType:      "website",
	}
	return Render(c, a.Views.BlogList(views.BlogListData{Page: a.page(c, meta), Posts: posts}))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Posts.GetPublishedBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if post == nil {
		return echo.ErrNotFound
	}
	meta := views.PageMeta{
		Title:       post.Title,
		Description: post.Summary,
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:      "article",
		Image:       post.Image,
	}
	return Render(c, a.Views.Post(views.PostData{
		Page:   a.page(c, meta),
		Post:   *post,
		JSONLD: views.BlogPostingJsonLD(a.siteView(), *post),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Posts.ListPublished(c.Request().Context(), 0)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Posts.ListPublished(c.Request().Context(), a.Config.FeedLimit)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// handleRobots allows crawling of public pages only and points at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /dashboard/\n")
	b.WriteString("Disallow: /auth/\n")
	b.WriteString("Disallow: /api/\n")
	fmt.Fprintf(&b, "\nSitemap: %s\n", strings.TrimRight(BuildURL(a.Config.URL), "/")+"/sitemap.xml")
	return c.String(http.StatusOK, b.String())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, views.PageMeta{Title: "Not found", NoIndex: true})))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.WithError(err).WithField("path", c.Request().URL.Path).Error("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, views.PageMeta{Title: "Error", NoIndex: true})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
