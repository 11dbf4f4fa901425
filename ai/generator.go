// Package ai turns a free-text prompt into a structured blog draft using a
// schema-constrained completion call, and saves the result as a draft post.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/eringen/inkpost/blog"
	"github.com/eringen/inkpost/richtext"
)

// Completer performs one structured completion call and returns the raw JSON
// object the model produced. Implementations must not retry.
type Completer interface {
	CompleteDraft(ctx context.Context, instructions string) ([]byte, error)
}

// Draft is the object the model is asked to return. The validate tags mirror
// the bounds stated in the instructions and the response schema.
type Draft struct {
	Title    string    `json:"title" validate:"min=8,max=120"`
	Summary  string    `json:"summary" validate:"min=24,max=240"`
	Sections []Section `json:"sections" validate:"min=3,max=8,dive"`
}

// Section is one headed block of a draft.
type Section struct {
	Heading    string   `json:"heading" validate:"min=3,max=120"`
	Paragraphs []string `json:"paragraphs" validate:"min=1,max=4,dive,min=20,max=1000"`
}

// Doc maps the draft to a rich-text document: each section becomes a level-2
// heading followed by one paragraph per paragraph string, in order.
func (d Draft) Doc() *richtext.Node {
	doc := richtext.NewDoc()
	for _, s := range d.Sections {
		doc.Content = append(doc.Content, richtext.Heading(2, s.Heading))
		for _, p := range s.Paragraphs {
			doc.Content = append(doc.Content, richtext.Paragraph(p))
		}
	}
	return doc
}

// Result is the outcome of one completion: either a validated draft or the
// error that prevented it.
type Result struct {
	Draft *Draft
	Err   error
}

// OK reports whether the completion produced a usable draft.
func (r Result) OK() bool {
	return r.Err == nil && r.Draft != nil
}

// Doc returns the draft body, or nil when the completion failed.
func (r Result) Doc() *richtext.Node {
	if !r.OK() {
		return nil
	}
	return r.Draft.Doc()
}

// PostCreator is the part of the persistence gateway the generator needs.
type PostCreator interface {
	NewID() string
	CreatePostWithID(ctx context.Context, owner, id string, form blog.Form) (blog.Post, error)
}

// Generator produces AI drafts and saves them through a PostCreator.
type Generator struct {
	completer Completer
	posts     PostCreator
	log       logrus.FieldLogger
	validate  *validator.Validate
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Generator) { g.log = l }
}

// NewGenerator returns a generator. A nil completer is allowed; every
// generation then fails with blog.ErrConfiguration.
func NewGenerator(c Completer, posts PostCreator, opts ...Option) *Generator {
	g := &Generator{
		completer: c,
		posts:     posts,
		log:       logrus.StandardLogger(),
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether a completion provider is set.
func (g *Generator) Configured() bool {
	return g != nil && g.completer != nil
}

// Complete runs one completion for prompt and validates the answer.
func (g *Generator) Complete(ctx context.Context, prompt string) Result {
	if strings.TrimSpace(prompt) == "" {
		return Result{Err: fmt.Errorf("%w: prompt is required", blog.ErrValidation)}
	}
	if !g.Configured() {
		return Result{Err: fmt.Errorf("%w: no AI provider configured", blog.ErrConfiguration)}
	}

	raw, err := g.completer.CompleteDraft(ctx, Instructions(prompt))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: completion failed: %v", blog.ErrUpstream, err)}
	}
	draft, err := decodeDraft(raw)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", blog.ErrUpstream, err)}
	}
	if err := g.validate.Struct(draft); err != nil {
		return Result{Err: fmt.Errorf("%w: draft out of bounds: %v", blog.ErrUpstream, err)}
	}
	return Result{Draft: &draft}
}

// GenerateDraft completes prompt and stores the result as a new draft post
// owned by owner. Nothing is stored when the completion fails.
func (g *Generator) GenerateDraft(ctx context.Context, owner, prompt string) (blog.Post, error) {
	if strings.TrimSpace(owner) == "" {
		return blog.Post{}, blog.ErrAuthentication
	}
	res := g.Complete(ctx, prompt)
	if !res.OK() {
		g.log.WithError(res.Err).WithField("owner", owner).Warn("ai draft generation failed")
		return blog.Post{}, res.Err
	}

	form := blog.Form{
		Title:   res.Draft.Title,
		Summary: res.Draft.Summary,
		Body:    res.Doc(),
		Status:  blog.StatusDraft,
	}
	post, err := g.posts.CreatePostWithID(ctx, owner, g.posts.NewID(), form)
	if err != nil {
		return blog.Post{}, err
	}
	g.log.WithFields(logrus.Fields{
		"owner":    owner,
		"post":     post.ID,
		"sections": len(res.Draft.Sections),
	}).Info("ai draft saved")
	return post, nil
}

func decodeDraft(raw []byte) (Draft, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var d Draft
	if err := dec.Decode(&d); err != nil {
		return Draft{}, fmt.Errorf("malformed draft: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Draft{}, errors.New("malformed draft: trailing data")
	}
	return d, nil
}
