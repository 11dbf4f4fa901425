package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eringen/inkpost/objstore"
	"github.com/eringen/inkpost/richtext"
)

// MaxUploadSize caps image and avatar uploads.
const MaxUploadSize = 10 << 20 // 10MB

const uploadCacheControl = "max-age=3600"

// Upload is a single file received from a client.
type Upload struct {
	Name        string // original file name, used for the extension
	ContentType string
	Size        int64 // -1 when unknown
	Body        io.Reader
}

// Gateway is the owner-scoped entry point for reading and writing posts,
// profiles and uploaded media. Every method re-checks the owner it is given;
// nothing is cached between calls.
type Gateway struct {
	store    *Store
	images   objstore.Bucket
	avatars  objstore.Bucket
	log      logrus.FieldLogger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l logrus.FieldLogger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// WithIDs overrides the id generator (uuid v4 by default).
func WithIDs(fn func() string) GatewayOption {
	return func(g *Gateway) { g.newID = fn }
}

// NewGateway wires a gateway over the store and the two media buckets.
func NewGateway(store *Store, images, avatars objstore.Bucket, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:    store,
		images:   images,
		avatars:  avatars,
		log:      logrus.StandardLogger(),
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewID returns a fresh post id.
func (g *Gateway) NewID() string {
	return g.newID()
}

// Validator exposes the shared validator so callers check input the same way.
func (g *Gateway) Validator() *validator.Validate {
	return g.validate
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrAuthentication
	}
	return nil
}

// CheckForm validates f the way CreatePost and UpdatePost will, without
// storing anything.
func (g *Gateway) CheckForm(f Form) error {
	return g.checkForm(f.normalized())
}

func (g *Gateway) checkForm(f Form) error {
	if err := g.validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	return nil
}

// ListPosts returns the owner's posts, newest update first. An empty status
// returns every post.
func (g *Gateway) ListPosts(ctx context.Context, owner string, status Status) ([]Post, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	posts, err := g.store.ListByOwner(ctx, owner, status)
	if err != nil {
		return nil, g.persistence("list posts", err)
	}
	return posts, nil
}

// GetPost returns the post with id if owner owns it. Absent and foreign
// posts both yield nil, nil.
func (g *Gateway) GetPost(ctx context.Context, owner, id string) (*Post, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	p, err := g.store.GetByOwner(ctx, owner, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, g.persistence("get post", err)
	}
	return &p, nil
}

// CreatePost stores a new post with a fresh id and returns that id.
func (g *Gateway) CreatePost(ctx context.Context, owner string, form Form) (string, error) {
	p, err := g.CreatePostWithID(ctx, owner, g.newID(), form)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// CreatePostWithID stores a new post under a caller-chosen id. The slug is
// derived from the title and id and never changes afterwards.
func (g *Gateway) CreatePostWithID(ctx context.Context, owner, id string, form Form) (Post, error) {
	if err := requireOwner(owner); err != nil {
		return Post{}, err
	}
	form = form.normalized()
	if err := g.checkForm(form); err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Post{}, fmt.Errorf("%w: empty post id", ErrValidation)
	}

	now := g.now().UTC()
	p := Post{
		ID:        id,
		OwnerID:   owner,
		Title:     form.Title,
		Summary:   form.Summary,
		Body:      form.Body,
		Image:     form.Image,
		Status:    form.Status,
		ReadTime:  richtext.ReadTime(form.Body),
		Slug:      Slugify(form.Title, id),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.store.Insert(ctx, p); err != nil {
		return Post{}, g.persistence("create post", err)
	}
	g.log.WithFields(logrus.Fields{"post": p.ID, "owner": owner, "status": p.Status}).Info("post created")
	return p, nil
}

// UpdatePost replaces the editable fields of an owned post and recomputes
// its read time. The slug is left untouched. A post that does not exist or
// belongs to someone else yields ErrNotFound.
func (g *Gateway) UpdatePost(ctx context.Context, owner, id string, form Form) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	form = form.normalized()
	if err := g.checkForm(form); err != nil {
		return err
	}
	p := Post{
		ID:        id,
		OwnerID:   owner,
		Title:     form.Title,
		Summary:   form.Summary,
		Body:      form.Body,
		Image:     form.Image,
		Status:    form.Status,
		ReadTime:  richtext.ReadTime(form.Body),
		UpdatedAt: g.now().UTC(),
	}
	n, err := g.store.Update(ctx, p)
	if err != nil {
		return g.persistence("update post", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	g.log.WithFields(logrus.Fields{"post": id, "owner": owner, "status": p.Status}).Info("post updated")
	return nil
}

// DeletePost removes an owned post.
func (g *Gateway) DeletePost(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	n, err := g.store.Delete(ctx, owner, id)
	if err != nil {
		return g.persistence("delete post", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	g.log.WithFields(logrus.Fields{"post": id, "owner": owner}).Info("post deleted")
	return nil
}

// UploadImage stores a blog image under a fresh random name and returns its
// public URL. Existing objects are never overwritten.
func (g *Gateway) UploadImage(ctx context.Context, owner string, up Upload) (string, error) {
	if err := requireOwner(owner); err != nil {
		return "", err
	}
	data, ext, err := readUpload(up)
	if err != nil {
		return "", err
	}
	if g.images == nil {
		return "", fmt.Errorf("%w: image storage not configured", ErrConfiguration)
	}
	key := g.newID() + "." + ext
	if err := g.images.Put(ctx, key, bytes.NewReader(data), int64(len(data)), objstore.PutOptions{
		ContentType:  up.ContentType,
		CacheControl: uploadCacheControl,
	}); err != nil {
		return "", fmt.Errorf("%w: upload image: %v", ErrUpstream, err)
	}
	return g.images.PublicURL(key), nil
}

// UploadAvatar stores the owner's avatar, replacing any previous one, and
// returns its public URL. Wide JPEG and PNG avatars are downscaled first.
func (g *Gateway) UploadAvatar(ctx context.Context, owner string, up Upload) (string, error) {
	if err := requireOwner(owner); err != nil {
		return "", err
	}
	data, ext, err := readUpload(up)
	if err != nil {
		return "", err
	}
	if g.avatars == nil {
		return "", fmt.Errorf("%w: avatar storage not configured", ErrConfiguration)
	}
	if resized, err := downscaleAvatar(data, up.ContentType); err != nil {
		if !errors.Is(err, errNotResizable) {
			g.log.WithError(err).WithField("owner", owner).Warn("avatar resize skipped")
		}
	} else {
		data = resized
	}
	key := owner + "/avatar." + ext
	if err := g.avatars.Put(ctx, key, bytes.NewReader(data), int64(len(data)), objstore.PutOptions{
		ContentType:  up.ContentType,
		CacheControl: uploadCacheControl,
		Upsert:       true,
	}); err != nil {
		return "", fmt.Errorf("%w: upload avatar: %v", ErrUpstream, err)
	}
	return g.avatars.PublicURL(key), nil
}

// GetProfile returns the owner's profile. A missing row is returned as an
// empty profile carrying only the id.
func (g *Gateway) GetProfile(ctx context.Context, owner string) (Profile, error) {
	if err := requireOwner(owner); err != nil {
		return Profile{}, err
	}
	p, err := g.store.GetProfile(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{ID: owner}, nil
		}
		return Profile{}, g.persistence("get profile", err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields to the owner's profile. An empty
// update does nothing.
func (g *Gateway) UpdateProfile(ctx context.Context, owner string, fields ProfileFields) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	if fields.Empty() {
		return nil
	}
	if err := g.validate.Struct(fields); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	p, err := g.GetProfile(ctx, owner)
	if err != nil {
		return err
	}
	if fields.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*fields.DisplayName)
	}
	if fields.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*fields.AvatarURL)
	}
	p.UpdatedAt = g.now().UTC()
	if err := g.store.UpsertProfile(ctx, p); err != nil {
		return g.persistence("update profile", err)
	}
	return nil
}

// ListPublished returns published posts across all owners, newest first,
// with author profiles attached. limit <= 0 returns all of them.
func (g *Gateway) ListPublished(ctx context.Context, limit int) ([]Post, error) {
	posts, err := g.store.ListPublished(ctx, limit)
	if err != nil {
		return nil, g.persistence("list published", err)
	}
	return posts, nil
}

// GetPublishedBySlug returns a published post, or nil if there is none.
func (g *Gateway) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	p, err := g.store.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, g.persistence("get published post", err)
	}
	return &p, nil
}

// Stats summarises the owner's posts.
func (g *Gateway) Stats(ctx context.Context, owner string) (Stats, error) {
	if err := requireOwner(owner); err != nil {
		return Stats{}, err
	}
	st, err := g.store.Stats(ctx, owner)
	if err != nil {
		return Stats{}, g.persistence("stats", err)
	}
	return st, nil
}

func (g *Gateway) persistence(op string, err error) error {
	g.log.WithError(err).WithField("op", op).Error("storage error")
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// readUpload checks the MIME type and size and buffers the body. It never
// touches storage.
func readUpload(up Upload) ([]byte, string, error) {
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if !strings.HasPrefix(ct, "image/") {
		return nil, "", fmt.Errorf("%w: not an image (%q)", ErrValidation, up.ContentType)
	}
	if up.Size > MaxUploadSize {
		return nil, "", fmt.Errorf("%w: file too large (max 10MB)", ErrValidation)
	}
	if up.Body == nil {
		return nil, "", fmt.Errorf("%w: empty upload", ErrValidation)
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, MaxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read upload: %v", ErrValidation, err)
	}
	if len(data) > MaxUploadSize {
		return nil, "", fmt.Errorf("%w: file too large (max 10MB)", ErrValidation)
	}
	return data, uploadExt(up.Name, ct), nil
}

// uploadExt takes the extension from the file name, falling back to the
// MIME subtype.
func uploadExt(name, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext != "" && isSafeExt(ext) {
		return ext
	}
	sub := strings.TrimPrefix(contentType, "image/")
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	switch sub {
	case "jpeg", "pjpeg":
		return "jpg"
	case "":
		return "jpg"
	}
	if !isSafeExt(sub) {
		return "jpg"
	}
	return sub
}

func isSafeExt(ext string) bool {
	if len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		case "min":
			msgs = append(msgs, fe.Field()+" must be at least "+fe.Param()+" characters")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of: "+fe.Param())
		case "url":
			msgs = append(msgs, fe.Field()+" must be a URL")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
