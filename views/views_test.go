package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/inkpost/blog"
	"github.com/eringen/inkpost/richtext"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func samplePost() blog.Post {
	at := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	return blog.Post{
		ID:        "p1",
		Title:     "Hello <World>",
		Summary:   "A summary",
		Body:      richtext.NewDoc(richtext.Heading(2, "Intro"), richtext.Paragraph("Body text")),
		Status:    blog.StatusPublished,
		ReadTime:  3,
		Slug:      "hello-world-abcdefgh",
		CreatedAt: at,
		UpdatedAt: at,
		Author:    &blog.Profile{ID: "u1", DisplayName: "Ada"},
	}
}

func testPage() Page {
	return Page{Site: SiteConfig{Name: "Inkpost", URL: "https://example.com"}, CSRF: "tok"}
}

func TestPostPage(t *testing.T) {
	p := samplePost()
	out := renderString(t, Post(PostData{Page: testPage(), Post: p, JSONLD: BlogPostingJsonLD(testPage().Site, p)}))

	for _, want := range []string{
		"Hello &lt;World&gt;",
		"<h2>Intro</h2>",
		"<p>Body text</p>",
		"Ada",
		"3 min read",
		"Feb 3, 2025",
		`"@type":"BlogPosting"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("post page missing %q", want)
		}
	}
}

func TestListPagesHandleMissingAuthor(t *testing.T) {
	p := samplePost()
	p.Author = nil
	out := renderString(t, BlogList(BlogListData{Page: testPage(), Posts: []blog.Post{p}}))
	if !strings.Contains(out, "Anonymous") {
		t.Errorf("expected Anonymous author, got:\n%s", out)
	}
	if !strings.Contains(out, `href="/blog/hello-world-abcdefgh/"`) {
		t.Errorf("expected post link")
	}

	out = renderString(t, Home(HomeData{Page: testPage(), Latest: []blog.Post{p}}))
	if !strings.Contains(out, "Latest posts") {
		t.Errorf("expected latest posts section")
	}
}

func TestDashboardPagesRender(t *testing.T) {
	pg := testPage()
	pg.Dashboard = true
	pg.User = &User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	pg.Flashes = []Flash{{Kind: "success", Message: "Post saved."}}
	p := samplePost()

	cases := map[string]templ.Component{
		"home":     DashboardHome(DashboardHomeData{Page: pg, Stats: blog.Stats{Total: 2}, Recent: []blog.Post{p}}),
		"blogs":    DashboardBlogs(DashboardBlogsData{Page: pg, Posts: []blog.Post{p}, Status: "draft"}),
		"chooser":  NewChooser(pg),
		"new":      Editor(EditorData{Page: pg, Action: "/dashboard/blogs/", Status: "draft"}),
		"edit":     Editor(EditorData{Page: pg, Post: &p, Action: "/dashboard/blogs/p1/", Title: p.Title, Status: "published", Body: `{"type":"doc"}`}),
		"ai":       AIForm(AIData{Page: pg, Configured: false}),
		"settings": Settings(SettingsData{Page: pg, Profile: blog.Profile{ID: "u1"}, Email: "ada@example.com"}),
		"login":    Login(LoginData{Page: testPage(), Next: "/dashboard/", Error: "Invalid token"}),
		"404":      NotFound(testPage()),
		"500":      ServerError(testPage()),
	}
	for name, c := range cases {
		out := renderString(t, c)
		if !strings.Contains(out, "</html>") {
			t.Errorf("%s: incomplete document", name)
		}
	}

	out := renderString(t, cases["home"])
	if !strings.Contains(out, "Post saved.") {
		t.Errorf("flash not rendered")
	}
	out = renderString(t, cases["edit"])
	if !strings.Contains(out, "hello-world-abcdefgh") || !strings.Contains(out, `value="published" selected`) {
		t.Errorf("edit form missing slug or status:\n%s", out)
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	ld := WebsiteJsonLD(SiteConfig{Name: "Inkpost", URL: "https://example.com", Description: "Words"})
	if !strings.Contains(ld, `"url":"https://example.com"`) || !strings.Contains(ld, `"description":"Words"`) {
		t.Errorf("unexpected JSON-LD: %s", ld)
	}
}

func TestLayoutChrome(t *testing.T) {
	pg := testPage()
	pg.Dashboard = true
	pg.Section = "blogs"
	pg.User = &User{ID: "u1", Name: "Ada", AvatarURL: "https://cdn.example.com/a.png"}
	pg.Meta = PageMeta{Title: "Posts", URL: "https://example.com/dashboard/blogs/", NoIndex: true}
	pg.Flashes = []Flash{{Kind: "error", Message: "Nope <b>"}}
	out := renderString(t, NewChooser(pg))

	for _, want := range []string{
		"<!doctype html>",
		"<title>Posts | Inkpost</title>",
		`<meta name="robots" content="noindex">`,
		`<link rel="canonical" href="https://example.com/dashboard/blogs/">`,
		`<a href="/dashboard/blogs/" data-active>Posts</a>`,
		`<img src="https://cdn.example.com/a.png" alt="Ada">`,
		`class="flash flash-error"`,
		"Nope &lt;b&gt;",
		`name="_csrf" value="tok"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("layout missing %q", want)
		}
	}
	if strings.Contains(out, `<a href="/dashboard/" data-active>`) {
		t.Errorf("overview tab should not be active")
	}
}
