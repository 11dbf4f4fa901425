package blog

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/inkpost/richtext"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "data", "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(id, owner, title string, status Status, at time.Time) Post {
	body := richtext.NewDoc(richtext.Paragraph("some words in a body"))
	return Post{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Body:      body,
		Status:    status,
		ReadTime:  richtext.ReadTime(body),
		Slug:      Slugify(title, id),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	if _, err := NewStore("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestInsertAndGetByOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	p := testPost("11111111-aaaa", "u1", "Hello World", StatusDraft, at)
	p.Summary = "A summary"
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.GetByOwner(ctx, "u1", p.ID)
	if err != nil {
		t.Fatalf("GetByOwner failed: %v", err)
	}
	if got.Title != p.Title {
		t.Errorf("Title = %q, want %q", got.Title, p.Title)
	}
	if got.Summary != "A summary" {
		t.Errorf("Summary = %q, want %q", got.Summary, "A summary")
	}
	if got.Image != "" {
		t.Errorf("Image = %q, want empty", got.Image)
	}
	if got.Slug != "hello-world-11111111" {
		t.Errorf("Slug = %q", got.Slug)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
	if got.Body == nil || richtext.PlainText(got.Body) != "some words in a body" {
		t.Errorf("Body not restored: %+v", got.Body)
	}
}

func TestGetByOwnerForeign(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := testPost("22222222-bbbb", "u1", "Mine", StatusDraft, time.Now())
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.GetByOwner(ctx, "u2", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicateSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := testPost("33333333-cccc", "u1", "Same", StatusDraft, time.Now())
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	q := p
	q.ID = "33333333-dddd" // same 8-char prefix, same title
	if err := s.Insert(ctx, q); err == nil {
		t.Fatal("expected unique slug violation")
	}
}

func TestBodyPreservesUnknownKeys(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	raw := `{"type":"doc","content":[{"type":"callout","attrs":{"emoji":"💡"},"content":[{"type":"text","text":"hi"}],"x-editor":{"v":2}}]}`
	body, err := richtext.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := testPost("44444444-eeee", "u1", "Unknown", StatusDraft, time.Now())
	p.Body = body
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := s.GetByOwner(ctx, "u1", p.ID)
	if err != nil {
		t.Fatalf("GetByOwner failed: %v", err)
	}
	out, err := json.Marshal(got.Body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var want, have any
	json.Unmarshal([]byte(raw), &want)
	json.Unmarshal(out, &have)
	wantJSON, _ := json.Marshal(want)
	haveJSON, _ := json.Marshal(have)
	if string(wantJSON) != string(haveJSON) {
		t.Errorf("body = %s, want %s", haveJSON, wantJSON)
	}
}

func TestListByOwnerOrderAndFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	posts := []Post{
		testPost("aaaaaaaa-1", "u1", "Old", StatusPublished, base),
		testPost("bbbbbbbb-2", "u1", "New", StatusDraft, base.Add(2*time.Hour)),
		testPost("cccccccc-3", "u1", "Mid", StatusPublished, base.Add(time.Hour)),
		testPost("dddddddd-4", "u2", "Other", StatusPublished, base.Add(3*time.Hour)),
	}
	for _, p := range posts {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %s failed: %v", p.ID, err)
		}
	}

	all, err := s.ListByOwner(ctx, "u1", "")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}
	wantOrder := []string{"New", "Mid", "Old"}
	for i, w := range wantOrder {
		if all[i].Title != w {
			t.Errorf("post[%d] = %q, want %q", i, all[i].Title, w)
		}
	}

	published, err := s.ListByOwner(ctx, "u1", StatusPublished)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(published) != 2 {
		t.Errorf("expected 2 published posts, got %d", len(published))
	}
}

func TestUpdateAndDeleteRowsAffected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	p := testPost("eeeeeeee-5", "u1", "Before", StatusDraft, time.Now())
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p.Title = "After"
	n, err := s.Update(ctx, p)
	if err != nil || n != 1 {
		t.Fatalf("Update = %d, %v; want 1, nil", n, err)
	}

	foreign := p
	foreign.OwnerID = "u2"
	if n, err := s.Update(ctx, foreign); err != nil || n != 0 {
		t.Errorf("foreign Update = %d, %v; want 0, nil", n, err)
	}
	if n, err := s.Delete(ctx, "u2", p.ID); err != nil || n != 0 {
		t.Errorf("foreign Delete = %d, %v; want 0, nil", n, err)
	}

	got, _ := s.GetByOwner(ctx, "u1", p.ID)
	if got.Title != "After" {
		t.Errorf("Title = %q, want %q", got.Title, "After")
	}
	if got.Slug != Slugify("Before", p.ID) {
		t.Errorf("slug changed to %q", got.Slug)
	}

	if n, err := s.Delete(ctx, "u1", p.ID); err != nil || n != 1 {
		t.Errorf("Delete = %d, %v; want 1, nil", n, err)
	}
}

func TestListPublishedJoinsProfile(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, p := range []Post{
		testPost("aaaaaaaa-1", "u1", "First", StatusPublished, base),
		testPost("bbbbbbbb-2", "u2", "Second", StatusPublished, base.Add(time.Hour)),
		testPost("cccccccc-3", "u1", "Hidden", StatusDraft, base.Add(2*time.Hour)),
	} {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := s.UpsertProfile(ctx, Profile{ID: "u1", DisplayName: "Ada", UpdatedAt: base}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}

	posts, err := s.ListPublished(ctx, 0)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(posts))
	}
	if posts[0].Title != "Second" || posts[1].Title != "First" {
		t.Errorf("order = %q, %q", posts[0].Title, posts[1].Title)
	}
	if posts[0].Author != nil {
		t.Errorf("expected no author for u2, got %+v", posts[0].Author)
	}
	if posts[1].Author == nil || posts[1].Author.DisplayName != "Ada" {
		t.Errorf("expected author Ada, got %+v", posts[1].Author)
	}

	limited, err := s.ListPublished(ctx, 1)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 post with limit, got %d", len(limited))
	}

	if _, err := s.GetPublishedBySlug(ctx, Slugify("Hidden", "cccccccc-3")); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft should not be found by slug, got %v", err)
	}
	got, err := s.GetPublishedBySlug(ctx, Slugify("First", "aaaaaaaa-1"))
	if err != nil {
		t.Fatalf("GetPublishedBySlug failed: %v", err)
	}
	if got.Title != "First" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, p := range []Post{
		testPost("aaaaaaaa-1", "u1", "A", StatusPublished, time.Now()),
		testPost("bbbbbbbb-2", "u1", "B", StatusDraft, time.Now()),
		testPost("cccccccc-3", "u1", "C", StatusDraft, time.Now()),
		testPost("dddddddd-4", "u2", "D", StatusDraft, time.Now()),
	} {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	st, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := Stats{Total: 3, Published: 1, Drafts: 2, ReadMinutes: 3}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}
}

func TestProfileUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpsertProfile(ctx, Profile{ID: "u1", DisplayName: "Ada", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	if err := s.UpsertProfile(ctx, Profile{ID: "u1", DisplayName: "Ada", AvatarURL: "http://x/a.png", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	p, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.DisplayName != "Ada" || p.AvatarURL != "http://x/a.png" {
		t.Errorf("profile = %+v", p)
	}
}
