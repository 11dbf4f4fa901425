// Package blog holds the post and profile model, the metadata derived from
// a post's content, and the owner-scoped gateway that persists them.
package blog

import (
	"strings"
	"time"

	"github.com/eringen/inkpost/richtext"
)

// Status is a post's visibility state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// ParseStatus maps form input to a Status. Empty input means draft.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	}
	return "", false
}

// Post is a blog post owned by one user.
type Post struct {
	ID        string
	OwnerID   string
	Title     string
	Summary   string // empty when unset
	Body      *richtext.Node
	Image     string // cover image URL, empty when unset
	Status    Status
	ReadTime  int
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Author is filled by public reads that join the owner's profile.
	Author *Profile
}

// Link returns the post's public path.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// Published reports whether the post is publicly visible.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// Form is the editable part of a post as submitted by its owner.
type Form struct {
	Title   string         `validate:"required,max=300"`
	Summary string         `validate:"max=1000"`
	Body    *richtext.Node `validate:"-"`
	Image   string         `validate:"omitempty,url"`
	Status  Status         `validate:"omitempty,oneof=draft published"`
}

func (f Form) normalized() Form {
	f.Title = strings.TrimSpace(f.Title)
	f.Summary = strings.TrimSpace(f.Summary)
	f.Image = strings.TrimSpace(f.Image)
	if f.Status == "" {
		f.Status = StatusDraft
	}
	return f
}

// Profile is the public face of an owner.
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	UpdatedAt   time.Time
}

// Initial returns the first letter of the display name, or "A".
func (p *Profile) Initial() string {
	if p == nil {
		return "A"
	}
	for _, r := range p.DisplayName {
		return strings.ToUpper(string(r))
	}
	return "A"
}

// ProfileFields is a partial profile update; nil fields stay unchanged.
type ProfileFields struct {
	DisplayName *string `validate:"omitempty,max=100"`
	AvatarURL   *string `validate:"omitempty,max=2048"`
}

// Empty reports whether the update changes nothing.
func (f ProfileFields) Empty() bool {
	return f.DisplayName == nil && f.AvatarURL == nil
}

// Stats summarises an owner's posts for the dashboard home.
type Stats struct {
	Total       int
	Published   int
	Drafts      int
	ReadMinutes int
}
