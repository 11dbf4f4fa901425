package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/inkpost/blog"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
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

// PostURL returns the canonical URL of a post.
func PostURL(cfg SiteConfig, post blog.Post) string {
	return buildURL(cfg.URL, "blog", post.Slug)
}

// AuthorName returns the display name for a post's author.
func AuthorName(p *blog.Profile) string {
	if p == nil || p.DisplayName == "" {
		return "Anonymous"
	}
	return p.DisplayName
}

// FormatDate renders a timestamp as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// StatusClass returns CSS classes for a status badge.
func StatusClass(s blog.Status) string {
	base := "badge"
	if s == blog.StatusPublished {
		return base + " badge-published"
	}
	return base + " badge-draft"
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post blog.Post) string {
	postURL := PostURL(cfg, post)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.CreatedAt.UTC().Format(time.RFC3339),
		"dateModified":  post.UpdatedAt.UTC().Format(time.RFC3339),
		"timeRequired":  readTimeISO(post.ReadTime),
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	author := cfg.Author
	if post.Author != nil && post.Author.DisplayName != "" {
		author = post.Author.DisplayName
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if post.Image != "" {
		data["image"] = post.Image
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func readTimeISO(minutes int) string {
	if minutes < 1 {
		minutes = 1
	}
	return "PT" + strconv.Itoa(minutes) + "M"
}
