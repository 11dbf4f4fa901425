package views

import (
	"github.com/eringen/inkpost/blog"
)

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	NoIndex     bool
}

// Flash is a one-shot notification shown after a redirect.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// User is the signed-in author shown in the dashboard chrome.
type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}

// Initial returns the first letter of the user's name.
func (u *User) Initial() string {
	if u == nil {
		return "A"
	}
	return (&blog.Profile{DisplayName: u.Name}).Initial()
}

// Page is embedded in every page's data.
type Page struct {
	Site      SiteConfig
	Meta      PageMeta
	CSRF      string
	User      *User
	Flashes   []Flash
	Dashboard bool
	Section   string // active dashboard nav item
}

// HomeData is the landing page.
type HomeData struct {
	Page
	Latest []blog.Post
}

// BlogListData is the public blog index.
type BlogListData struct {
	Page
	Posts []blog.Post
}

// PostData is a single public post.
type PostData struct {
	Page
	Post   blog.Post
	JSONLD string
}

// LoginData is the sign-in page.
type LoginData struct {
	Page
	Next  string
	Error string
}

// DashboardHomeData is the dashboard landing page.
type DashboardHomeData struct {
	Page
	Stats  blog.Stats
	Recent []blog.Post
}

// DashboardBlogsData lists the author's posts.
type DashboardBlogsData struct {
	Page
	Posts  []blog.Post
	Status string // active filter, "" for all
}

// EditorData drives the manual create and edit forms.
type EditorData struct {
	Page
	Post    *blog.Post // nil when creating
	Action  string
	Title   string
	Summary string
	Image   string
	Status  string
	Content string // outline text of the body
	Body    string // body JSON as loaded, kept while Content is untouched
	Error   string
}

// AIData is the AI generation form.
type AIData struct {
	Page
	Prompt     string
	Configured bool
	Error      string
}

// SettingsData is the profile settings page.
type SettingsData struct {
	Page
	Profile blog.Profile
	Email   string
}
