package inkpost

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/auth"
	"github.com/eringen/inkpost/blog"
	"github.com/eringen/inkpost/richtext"
	"github.com/eringen/inkpost/views"
)

const recentPosts = 5

func (a *App) handleLogin(c echo.Context) error {
	next := safeNext(c.QueryParam("next"))
	if auth.Owner(c) != "" {
		return c.Redirect(http.StatusSeeOther, next)
	}
	pg := a.page(c, views.PageMeta{Title: "Sign in", NoIndex: true})
	return Render(c, a.Views.Login(views.LoginData{Page: pg, Next: next}))
}

// handleSession exchanges an identity-provider token for a session cookie.
// Only failed attempts count against the limiter.
func (a *App) handleSession(c echo.Context) error {
	ip := c.RealIP()
	next := safeNext(c.FormValue("next"))
	pg := a.page(c, views.PageMeta{Title: "Sign in", NoIndex: true})
	if !a.tokenLimiter.Check(ip) {
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(views.LoginData{
			Page: pg, Next: next, Error: "Too many sign-in attempts. Try again later.",
		}))
	}
	token := strings.TrimSpace(c.FormValue("token"))
	claims, err := a.Verifier.Verify(token)
	if err != nil {
		a.tokenLimiter.Record(ip)
		a.Log.WithError(err).WithField("ip", ip).Info("sign-in rejected")
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(views.LoginData{
			Page: pg, Next: next, Error: "Invalid or expired token.",
		}))
	}
	if err := setSessionToken(c, token); err != nil {
		return err
	}
	a.Log.WithField("owner", claims.Subject).Info("signed in")
	addFlash(c, flashSuccess, "Welcome back, "+claims.DisplayName()+".")
	return c.Redirect(http.StatusSeeOther, next)
}

func handleLogout(c echo.Context) error {
	if err := clearSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	owner := auth.Owner(c)
	stats, err := a.Posts.Stats(ctx, owner)
	if err != nil {
		return a.fail(err)
	}
	posts, err := a.Posts.ListPosts(ctx, owner, "")
	if err != nil {
		return a.fail(err)
	}
	if len(posts) > recentPosts {
		posts = posts[:recentPosts]
	}
	return Render(c, a.Views.DashboardHome(views.DashboardHomeData{
		Page:   a.dashboardPage(c, "Dashboard", "home"),
		Stats:  stats,
		Recent: posts,
	}))
}

func (a *App) handleDashboardBlogs(c echo.Context) error {
	status := blog.Status(strings.ToLower(strings.TrimSpace(c.QueryParam("status"))))
	posts, err := a.Posts.ListPosts(c.Request().Context(), auth.Owner(c), status)
	if err != nil {
		return a.fail(err)
	}
	return Render(c, a.Views.DashboardBlogs(views.DashboardBlogsData{
		Page:   a.dashboardPage(c, "Blogs", "blogs"),
		Posts:  posts,
		Status: string(status),
	}))
}

func (a *App) handleNewChooser(c echo.Context) error {
	return Render(c, a.Views.NewChooser(a.dashboardPage(c, "New post", "blogs")))
}

func (a *App) handleNewManual(c echo.Context) error {
	return Render(c, a.Views.Editor(views.EditorData{
		Page:   a.dashboardPage(c, "Write a post", "blogs"),
		Action: "/dashboard/blogs/",
		Status: string(blog.StatusDraft),
	}))
}

func (a *App) handleNewAI(c echo.Context) error {
	return Render(c, a.Views.AIForm(views.AIData{
		Page:       a.dashboardPage(c, "Create with AI", "blogs"),
		Configured: a.Generator.Configured(),
	}))
}

func (a *App) handleCreatePost(c echo.Context) error {
	owner := auth.Owner(c)
	form, data, err := a.readEditor(c, owner, "")
	data.Action = "/dashboard/blogs/"
	if err == nil {
		var id string
		id, err = a.Posts.CreatePost(c.Request().Context(), owner, form)
		if err == nil {
			addFlash(c, flashSuccess, "Post created.")
			return c.Redirect(http.StatusSeeOther, "/dashboard/blogs/"+id+"/edit/")
		}
	}
	return a.editorError(c, data, "Write a post", err)
}

func (a *App) handleEditPost(c echo.Context) error {
	post, err := a.Posts.GetPost(c.Request().Context(), auth.Owner(c), c.Param("id"))
	if err != nil {
		return a.fail(err)
	}
	if post == nil {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.Editor(views.EditorData{
		Page:    a.dashboardPage(c, "Edit post", "blogs"),
		Post:    post,
		Action:  "/dashboard/blogs/" + post.ID + "/",
		Title:   post.Title,
		Summary: post.Summary,
		Image:   post.Image,
		Status:  string(post.Status),
		Content: richtext.Outline(post.Body),
		Body:    encodeDoc(post.Body),
	}))
}

func (a *App) handleUpdatePost(c echo.Context) error {
	ctx := c.Request().Context()
	owner := auth.Owner(c)
	id := c.Param("id")
	form, data, err := a.readEditor(c, owner, id)
	data.Action = "/dashboard/blogs/" + id + "/"
	if err == nil {
		err = a.Posts.UpdatePost(ctx, owner, id, form)
		if err == nil {
			addFlash(c, flashSuccess, "Post saved.")
			return c.Redirect(http.StatusSeeOther, "/dashboard/blogs/"+id+"/edit/")
		}
	}
	if errors.Is(err, blog.ErrNotFound) {
		return echo.ErrNotFound
	}
	if post, gerr := a.Posts.GetPost(ctx, owner, id); gerr == nil {
		data.Post = post
	}
	return a.editorError(c, data, "Edit post", err)
}

func (a *App) handleDeletePost(c echo.Context) error {
	err := a.Posts.DeletePost(c.Request().Context(), auth.Owner(c), c.Param("id"))
	switch {
	case err == nil:
		addFlash(c, flashSuccess, "Post deleted.")
	case errors.Is(err, blog.ErrNotFound):
		addFlash(c, flashError, userMessage(err))
	default:
		return a.fail(err)
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/blogs/")
}

func (a *App) handleGeneratePost(c echo.Context) error {
	owner := auth.Owner(c)
	prompt := strings.TrimSpace(c.FormValue("prompt"))
	data := views.AIData{
		Page:       a.dashboardPage(c, "Create with AI", "blogs"),
		Prompt:     prompt,
		Configured: a.Generator.Configured(),
	}
	if !a.aiLimiter.Allow(owner) {
		data.Error = "Too many generation requests. Try again in a minute."
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.AIForm(data))
	}
	post, err := a.Generator.GenerateDraft(c.Request().Context(), owner, prompt)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusBadRequest {
			code = http.StatusUnprocessableEntity
		}
		data.Error = userMessage(err)
		return RenderStatus(c, code, a.Views.AIForm(data))
	}
	addFlash(c, flashSuccess, "Draft generated. Review it before publishing.")
	return c.Redirect(http.StatusSeeOther, "/dashboard/blogs/"+post.ID+"/edit/")
}

func (a *App) handleSettings(c echo.Context) error {
	claims, _ := auth.FromContext(c)
	prof, err := a.Posts.GetProfile(c.Request().Context(), claims.Subject)
	if err != nil {
		return a.fail(err)
	}
	return Render(c, a.Views.Settings(views.SettingsData{
		Page:    a.dashboardPage(c, "Settings", "settings"),
		Profile: prof,
		Email:   claims.Email,
	}))
}

func (a *App) handleSaveSettings(c echo.Context) error {
	ctx := c.Request().Context()
	owner := auth.Owner(c)
	var fields blog.ProfileFields
	name := c.FormValue("display_name")
	if c.Request().Form.Has("display_name") {
		fields.DisplayName = &name
	}
	up, closeUp, err := formUpload(c, "avatar")
	switch {
	case err == nil:
		defer closeUp()
		url, uerr := a.Posts.UploadAvatar(ctx, owner, up)
		if uerr != nil {
			addFlash(c, flashError, userMessage(uerr))
			return c.Redirect(http.StatusSeeOther, "/dashboard/settings/")
		}
		fields.AvatarURL = &url
	case !errors.Is(err, errNoFile):
		return err
	}
	if err := a.Posts.UpdateProfile(ctx, owner, fields); err != nil {
		addFlash(c, flashError, userMessage(err))
	} else {
		addFlash(c, flashSuccess, "Profile updated.")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/settings/")
}

// readEditor decodes the editor form. The hidden body JSON is kept while the
// outline text is unchanged, so marks and images survive a plain save. An
// attached cover file replaces the image URL; it is uploaded only once the
// rest of the form is valid and, for an edit, the post id is owned.
func (a *App) readEditor(c echo.Context, owner, id string) (blog.Form, views.EditorData, error) {
	d := views.EditorData{
		Title:   c.FormValue("title"),
		Summary: c.FormValue("summary"),
		Image:   strings.TrimSpace(c.FormValue("image")),
		Status:  c.FormValue("status"),
		Content: c.FormValue("content"),
		Body:    c.FormValue("body"),
	}
	status, ok := blog.ParseStatus(d.Status)
	if !ok {
		return blog.Form{}, d, fmt.Errorf("%w: unknown status %q", blog.ErrValidation, d.Status)
	}
	d.Status = string(status)

	var doc *richtext.Node
	if normalizeNewlines(d.Content) == normalizeNewlines(c.FormValue("content_original")) && d.Body != "" {
		parsed, err := richtext.Parse([]byte(d.Body))
		if err != nil {
			// Resubmitting rebuilds the body from the outline text.
			d.Body = ""
			return blog.Form{}, d, fmt.Errorf("%w: body: %v", blog.ErrValidation, err)
		}
		doc = parsed
	} else {
		doc = richtext.FromOutline(d.Content)
	}
	// A re-rendered form must carry the body that matches its text.
	d.Body = encodeDoc(doc)

	form := blog.Form{
		Title:   d.Title,
		Summary: d.Summary,
		Body:    doc,
		Image:   d.Image,
		Status:  status,
	}

	up, closeUp, err := formUpload(c, "image_file")
	switch {
	case errors.Is(err, errNoFile):
		return form, d, nil
	case err != nil:
		return blog.Form{}, d, err
	}
	defer closeUp()

	ctx := c.Request().Context()
	check := form
	check.Image = ""
	if err := a.Posts.CheckForm(check); err != nil {
		return blog.Form{}, d, err
	}
	if id != "" {
		post, err := a.Posts.GetPost(ctx, owner, id)
		if err != nil {
			return blog.Form{}, d, err
		}
		if post == nil {
			return blog.Form{}, d, fmt.Errorf("%w: post %s", blog.ErrNotFound, id)
		}
	}
	url, err := a.Posts.UploadImage(ctx, owner, up)
	if err != nil {
		return blog.Form{}, d, err
	}
	d.Image = url
	form.Image = url
	return form, d, nil
}

func (a *App) editorError(c echo.Context, d views.EditorData, title string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway && code != http.StatusServiceUnavailable {
		return err
	}
	if code == http.StatusBadRequest {
		code = http.StatusUnprocessableEntity
	}
	d.Page = a.dashboardPage(c, title, "blogs")
	d.Error = userMessage(err)
	return RenderStatus(c, code, a.Views.Editor(d))
}

// fail turns a gateway error into an HTTP error. Server faults go to the
// error handler unchanged so they are logged with their cause.
func (a *App) fail(err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		return err
	}
	return echo.NewHTTPError(code, userMessage(err)).SetInternal(err)
}

func encodeDoc(doc *richtext.Node) string {
	if doc == nil {
		return ""
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(b)
}

func normalizeNewlines(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
