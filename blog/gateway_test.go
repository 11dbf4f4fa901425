package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/inkpost/objstore"
	"github.com/eringen/inkpost/richtext"
)

type putCall struct {
	key  string
	data []byte
	opts objstore.PutOptions
}

type fakeBucket struct {
	base  string
	calls []putCall
	err   error
}

func (b *fakeBucket) Put(ctx context.Context, key string, r io.Reader, size int64, opts objstore.PutOptions) error {
	data, _ := io.ReadAll(r)
	b.calls = append(b.calls, putCall{key: key, data: data, opts: opts})
	return b.err
}

func (b *fakeBucket) PublicURL(key string) string {
	return b.base + "/" + key
}

type testEnv struct {
	gw      *Gateway
	images  *fakeBucket
	avatars *fakeBucket
	clock   *time.Time
}

func newTestGateway(t *testing.T) *testEnv {
	t.Helper()
	store := setupTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{
		images:  &fakeBucket{base: "https://cdn.test/blog-images"},
		avatars: &fakeBucket{base: "https://cdn.test/avatars"},
		clock:   &now,
	}
	n := 0
	logger, _ := test.NewNullLogger()
	env.gw = NewGateway(store, env.images, env.avatars,
		WithLogger(logger),
		WithClock(func() time.Time { return *env.clock }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("%08x-0000-4000-8000-000000000000", n)
		}),
	)
	return env
}

func (e *testEnv) tick() {
	*e.clock = e.clock.Add(time.Minute)
}

func bodyOfWords(n int) *richtext.Node {
	return richtext.NewDoc(richtext.Paragraph(strings.TrimSpace(strings.Repeat("word ", n))))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title, id, want string
	}{
		{"Hello, World!", "abcdefgh-1234", "hello-world-abcdefgh"},
		{"  Go   is -- fun  ", "12345678", "go-is-fun-12345678"},
		{"Ünïcode only", "abcdefgh", "ncode-only-abcdefgh"},
		{"", "abcdefgh", "-abcdefgh"},
		{"short id", "abc", "short-id-abc"},
		{"Hello\u00a0World", "abcdefgh", "hello-world-abcdefgh"},
		{"Line\u2028break\ufeffhere", "abcdefgh", "line-break-here-abcdefgh"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.title, tt.id); got != tt.want {
			t.Errorf("Slugify(%q, %q) = %q, want %q", tt.title, tt.id, got, tt.want)
		}
	}
}

func TestSlugifyMaxLength(t *testing.T) {
	got := Slugify(strings.Repeat("long title ", 20), "0123456789abcdef")
	assert.LessOrEqual(t, len(got), 69)
	assert.True(t, strings.HasSuffix(got, "-01234567"), got)
}

func TestCreatePostDerivesMetadata(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Hello World", Body: bodyOfWords(470)})
	require.NoError(t, err)

	p, err := env.gw.GetPost(ctx, "u1", id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, 3, p.ReadTime)
	assert.Equal(t, "hello-world-00000001", p.Slug)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestCreatePostEmptyBody(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Nothing here"})
	require.NoError(t, err)
	p, err := env.gw.GetPost(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ReadTime)
	assert.Nil(t, p.Body)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	_, err := env.gw.CreatePost(ctx, "u1", Form{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.gw.CreatePost(ctx, "u1", Form{Title: "ok", Status: "scheduled"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.gw.CreatePost(ctx, "", Form{Title: "ok"})
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestCheckFormMatchesCreate(t *testing.T) {
	env := newTestGateway(t)

	assert.ErrorIs(t, env.gw.CheckForm(Form{Title: " \t "}), ErrValidation)
	assert.ErrorIs(t, env.gw.CheckForm(Form{Title: "ok", Status: "scheduled"}), ErrValidation)
	assert.NoError(t, env.gw.CheckForm(Form{Title: "  ok  ", Status: StatusDraft}))

	posts, err := env.gw.ListPosts(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestUpdatePostKeepsSlugAndRecomputesReadTime(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Original Title", Body: bodyOfWords(10)})
	require.NoError(t, err)
	before, _ := env.gw.GetPost(ctx, "u1", id)

	env.tick()
	form := Form{Title: "Renamed", Body: bodyOfWords(401), Status: StatusPublished}
	require.NoError(t, env.gw.UpdatePost(ctx, "u1", id, form))

	after, err := env.gw.GetPost(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, before.Slug, after.Slug)
	assert.Equal(t, "Renamed", after.Title)
	assert.Equal(t, 3, after.ReadTime)
	assert.Equal(t, StatusPublished, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	// Applying the same update twice leaves the same content.
	require.NoError(t, env.gw.UpdatePost(ctx, "u1", id, form))
	again, _ := env.gw.GetPost(ctx, "u1", id)
	assert.Equal(t, after.Title, again.Title)
	assert.Equal(t, after.ReadTime, again.ReadTime)
	assert.Equal(t, after.Slug, again.Slug)
	assert.Equal(t, after.Status, again.Status)
}

func TestCrossOwnerAccess(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Private"})
	require.NoError(t, err)

	p, err := env.gw.GetPost(ctx, "u2", id)
	require.NoError(t, err)
	assert.Nil(t, p)

	err = env.gw.UpdatePost(ctx, "u2", id, Form{Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrNotFound)
	err = env.gw.DeletePost(ctx, "u2", id)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := env.gw.GetPost(ctx, "u1", id)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, "Private", mine.Title)
}

func TestDeletePost(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Gone soon"})
	require.NoError(t, err)
	require.NoError(t, env.gw.DeletePost(ctx, "u1", id))

	p, err := env.gw.GetPost(ctx, "u1", id)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, env.gw.DeletePost(ctx, "u1", id), ErrNotFound)
}

func TestDraftNotInPublishedList(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	id, err := env.gw.CreatePost(ctx, "u1", Form{Title: "Work in progress"})
	require.NoError(t, err)
	env.tick()
	_, err = env.gw.CreatePost(ctx, "u1", Form{Title: "Live", Status: StatusPublished})
	require.NoError(t, err)

	posts, err := env.gw.ListPublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Live", posts[0].Title)

	draft, _ := env.gw.GetPost(ctx, "u1", id)
	p, err := env.gw.GetPublishedBySlug(ctx, draft.Slug)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestListPostsStatusFilter(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	_, err := env.gw.CreatePost(ctx, "u1", Form{Title: "One"})
	require.NoError(t, err)
	env.tick()
	_, err = env.gw.CreatePost(ctx, "u1", Form{Title: "Two", Status: StatusPublished})
	require.NoError(t, err)

	all, err := env.gw.ListPosts(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Two", all[0].Title)

	drafts, err := env.gw.ListPosts(ctx, "u1", StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "One", drafts[0].Title)

	_, err = env.gw.ListPosts(ctx, "u1", "archived")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.gw.ListPosts(ctx, "", "")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestUploadImageRejectsNonImageBeforeStorage(t *testing.T) {
	env := newTestGateway(t)
	_, err := env.gw.UploadImage(context.Background(), "u1", Upload{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Size:        5,
		Body:        strings.NewReader("hello"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.images.calls)
}

func TestUploadImageTooLarge(t *testing.T) {
	env := newTestGateway(t)
	_, err := env.gw.UploadImage(context.Background(), "u1", Upload{
		Name:        "big.png",
		ContentType: "image/png",
		Size:        MaxUploadSize + 1,
		Body:        strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.images.calls)
}

func TestUploadImage(t *testing.T) {
	env := newTestGateway(t)
	url, err := env.gw.UploadImage(context.Background(), "u1", Upload{
		Name:        "Cover.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	require.NoError(t, err)
	require.Len(t, env.images.calls, 1)
	call := env.images.calls[0]
	assert.Equal(t, "00000001-0000-4000-8000-000000000000.png", call.key)
	assert.False(t, call.opts.Upsert)
	assert.Equal(t, "max-age=3600", call.opts.CacheControl)
	assert.Equal(t, "https://cdn.test/blog-images/"+call.key, url)
}

func TestUploadImageStorageFailure(t *testing.T) {
	env := newTestGateway(t)
	env.images.err = errors.New("bucket unavailable")
	_, err := env.gw.UploadImage(context.Background(), "u1", Upload{
		Name: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestUploadAvatarOverwritesAndResizes(t *testing.T) {
	env := newTestGateway(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1024, 256))))

	url, err := env.gw.UploadAvatar(context.Background(), "u1", Upload{
		Name:        "me.png",
		ContentType: "image/png",
		Size:        int64(buf.Len()),
		Body:        bytes.NewReader(buf.Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/u1/avatar.png", url)
	require.Len(t, env.avatars.calls, 1)
	call := env.avatars.calls[0]
	assert.True(t, call.opts.Upsert)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(call.data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 128, cfg.Height)
}

func TestUploadAvatarKeepsUnresizableFormats(t *testing.T) {
	env := newTestGateway(t)
	_, err := env.gw.UploadAvatar(context.Background(), "u1", Upload{
		Name: "me.webp", ContentType: "image/webp", Size: 4, Body: strings.NewReader("webp"),
	})
	require.NoError(t, err)
	require.Len(t, env.avatars.calls, 1)
	assert.Equal(t, "u1/avatar.webp", env.avatars.calls[0].key)
	assert.Equal(t, "webp", string(env.avatars.calls[0].data))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, env.gw.UpdateProfile(ctx, "u1", ProfileFields{}))
	p, err := env.gw.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Profile{ID: "u1"}, p)

	name := "  Ada  "
	require.NoError(t, env.gw.UpdateProfile(ctx, "u1", ProfileFields{DisplayName: &name}))
	avatar := "https://cdn.test/avatars/u1/avatar.png"
	require.NoError(t, env.gw.UpdateProfile(ctx, "u1", ProfileFields{AvatarURL: &avatar}))

	p, err = env.gw.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, avatar, p.AvatarURL)
	assert.Equal(t, "A", p.Initial())

	assert.ErrorIs(t, env.gw.UpdateProfile(ctx, "", ProfileFields{DisplayName: &name}), ErrAuthentication)
}

func TestStatsThroughGateway(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()
	_, err := env.gw.CreatePost(ctx, "u1", Form{Title: "A", Body: bodyOfWords(250), Status: StatusPublished})
	require.NoError(t, err)
	_, err = env.gw.CreatePost(ctx, "u1", Form{Title: "B"})
	require.NoError(t, err)

	st, err := env.gw.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 2, Published: 1, Drafts: 1, ReadMinutes: 2}, st)
}

func TestPersistenceErrorsAreLogged(t *testing.T) {
	store := setupTestStore(t)
	logger, hook := test.NewNullLogger()
	gw := NewGateway(store, nil, nil, WithLogger(logger))
	store.Close()

	_, err := gw.ListPosts(context.Background(), "u1", "")
	assert.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
