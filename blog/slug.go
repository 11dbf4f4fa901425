package blog

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	slugBaseMax   = 60
	slugSuffixLen = 8
)

var (
	reSlugStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	reSlugSpace  = regexp.MustCompile(`\s+`)
	reSlugHyphen = regexp.MustCompile(`-+`)
)

// Slugify derives a post's URL slug from its title and id. The base is the
// lower-cased title reduced to [a-z0-9-], at most 60 characters; the first 8
// characters of id follow after a hyphen so equal titles get distinct slugs.
func Slugify(title, id string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return ' '
		}
		return r
	}, title)
	base = strings.TrimSpace(strings.ToLower(base))
	base = reSlugStrip.ReplaceAllString(base, "")
	base = reSlugSpace.ReplaceAllString(base, "-")
	base = reSlugHyphen.ReplaceAllString(base, "-")
	if len(base) > slugBaseMax {
		base = base[:slugBaseMax]
	}
	suffix := id
	if len(suffix) > slugSuffixLen {
		suffix = suffix[:slugSuffixLen]
	}
	return base + "-" + suffix
}
