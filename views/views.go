// Package views holds the default page components. Pages are templ
// templates (the .templ sources next to their generated _templ.go files);
// callers can swap any of them for their own templ component.
package views

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/inkpost/blog"
)

func pageTitle(site SiteConfig, meta PageMeta) string {
	if meta.Title == "" {
		return site.Name
	}
	return meta.Title + " | " + site.Name
}

func metaDescription(p Page) string {
	if p.Meta.Description != "" {
		return p.Meta.Description
	}
	return p.Site.Description
}

func ogType(meta PageMeta) string {
	if meta.OGType == "" {
		return "website"
	}
	return meta.OGType
}

func minutesLabel(n int) string {
	if n <= 1 {
		return "1 min read"
	}
	return fmt.Sprintf("%d min read", n)
}

func authorAvatar(p *blog.Profile) string {
	if p == nil {
		return ""
	}
	return p.AvatarURL
}

func editorHeading(p *blog.Post) string {
	if p == nil {
		return "Write a post"
	}
	return "Edit post"
}

func editURL(p blog.Post) templ.SafeURL {
	return templ.SafeURL("/dashboard/blogs/" + p.ID + "/edit/")
}

// ldScript wraps a JSON-LD document in its script element. json.Marshal
// escapes '<', so the payload cannot close the element early.
func ldScript(doc string) string {
	if doc == "" {
		return ""
	}
	return `<script type="application/ld+json">` + strings.TrimSpace(doc) + `</script>`
}
