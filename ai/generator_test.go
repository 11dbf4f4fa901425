package ai

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/inkpost/blog"
	"github.com/eringen/inkpost/richtext"
)

type fakeCompleter struct {
	out   []byte
	err   error
	calls []string
}

func (f *fakeCompleter) CompleteDraft(ctx context.Context, instructions string) ([]byte, error) {
	f.calls = append(f.calls, instructions)
	return f.out, f.err
}

func validDraft() Draft {
	para := func(s string) string { return s + " with enough characters to pass." }
	return Draft{
		Title:   "Shipping small services in Go",
		Summary: "A practical look at keeping Go services small and boring.",
		Sections: []Section{
			{Heading: "Start small", Paragraphs: []string{para("Begin with one binary"), para("Add packages when needed")}},
			{Heading: "Measure", Paragraphs: []string{para("Log what matters"), para("Keep metrics cheap")}},
			{Heading: "Ship", Paragraphs: []string{para("Deploy often"), para("Roll back quickly")}},
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newGatewayForTest(t *testing.T) *blog.Gateway {
	t.Helper()
	store, err := blog.NewStore("sqlite", filepath.Join(t.TempDir(), "ai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	logger, _ := test.NewNullLogger()
	return blog.NewGateway(store, nil, nil, blog.WithLogger(logger))
}

func TestDraftDocMapping(t *testing.T) {
	doc := validDraft().Doc()
	require.Len(t, doc.Content, 9)

	var headings, paragraphs int
	for _, n := range doc.Content {
		switch n.Type {
		case richtext.KindHeading:
			headings++
			level, _ := n.Attrs.Int("level")
			assert.Equal(t, 2, level)
		case richtext.KindParagraph:
			paragraphs++
		}
	}
	assert.Equal(t, 3, headings)
	assert.Equal(t, 6, paragraphs)
	assert.Equal(t, "Start small", richtext.PlainText(doc.Content[0]))
	assert.Equal(t, "Begin with one binary with enough characters to pass.", richtext.PlainText(doc.Content[1]))
	assert.Equal(t, "Measure", richtext.PlainText(doc.Content[3]))
}

func TestCompleteEmbedsPromptVerbatim(t *testing.T) {
	fc := &fakeCompleter{out: mustJSON(t, validDraft())}
	logger, _ := test.NewNullLogger()
	g := NewGenerator(fc, nil, WithLogger(logger))

	prompt := "Write about 100% uptime {and} \"quotes\""
	res := g.Complete(context.Background(), prompt)
	require.True(t, res.OK(), "err: %v", res.Err)
	require.Len(t, fc.calls, 1)
	assert.True(t, strings.HasSuffix(fc.calls[0], prompt))
	assert.Contains(t, fc.calls[0], "3 to 8 sections")
}

func TestCompleteErrors(t *testing.T) {
	tooFew := validDraft()
	tooFew.Sections = tooFew.Sections[:2]
	shortPara := validDraft()
	shortPara.Sections[0].Paragraphs[0] = "too short"

	tests := []struct {
		name    string
		fc      Completer
		prompt  string
		wantErr error
	}{
		{"empty prompt", &fakeCompleter{}, "   ", blog.ErrValidation},
		{"no provider", nil, "hello", blog.ErrConfiguration},
		{"upstream failure", &fakeCompleter{err: errors.New("503")}, "hello", blog.ErrUpstream},
		{"not json", &fakeCompleter{out: []byte("Sure! Here is")}, "hello", blog.ErrUpstream},
		{"unknown field", &fakeCompleter{out: []byte(`{"title":"x","extra":1}`)}, "hello", blog.ErrUpstream},
		{"too few sections", &fakeCompleter{out: mustJSON(t, tooFew)}, "hello", blog.ErrUpstream},
		{"short paragraph", &fakeCompleter{out: mustJSON(t, shortPara)}, "hello", blog.ErrUpstream},
	}
	logger, _ := test.NewNullLogger()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.fc, nil, WithLogger(logger))
			res := g.Complete(context.Background(), tt.prompt)
			assert.False(t, res.OK())
			assert.Nil(t, res.Doc())
			assert.ErrorIs(t, res.Err, tt.wantErr)
		})
	}
}

func TestEmptyPromptNeverCallsProvider(t *testing.T) {
	fc := &fakeCompleter{out: mustJSON(t, validDraft())}
	g := NewGenerator(fc, nil)
	res := g.Complete(context.Background(), "")
	assert.ErrorIs(t, res.Err, blog.ErrValidation)
	assert.Empty(t, fc.calls)
}

func TestGenerateDraftSavesDraft(t *testing.T) {
	gw := newGatewayForTest(t)
	fc := &fakeCompleter{out: mustJSON(t, validDraft())}
	logger, _ := test.NewNullLogger()
	g := NewGenerator(fc, gw, WithLogger(logger))
	ctx := context.Background()

	post, err := g.GenerateDraft(ctx, "u1", "go services")
	require.NoError(t, err)
	assert.Equal(t, blog.StatusDraft, post.Status)
	assert.Empty(t, post.Image)
	assert.Equal(t, "Shipping small services in Go", post.Title)
	assert.Equal(t, 1, post.ReadTime)
	assert.True(t, strings.HasPrefix(post.Slug, "shipping-small-services-in-go-"))

	stored, err := gw.GetPost(ctx, "u1", post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Body.Content, 9)
}

func TestGenerateDraftFailureStoresNothing(t *testing.T) {
	gw := newGatewayForTest(t)
	g := NewGenerator(&fakeCompleter{err: errors.New("boom")}, gw)
	ctx := context.Background()

	_, err := g.GenerateDraft(ctx, "u1", "anything")
	assert.ErrorIs(t, err, blog.ErrUpstream)

	posts, err := gw.ListPosts(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = g.GenerateDraft(ctx, "", "anything")
	assert.ErrorIs(t, err, blog.ErrAuthentication)
}

func TestNewCompleterConfig(t *testing.T) {
	_, err := NewCompleter(context.Background(), Config{})
	assert.ErrorIs(t, err, blog.ErrConfiguration)

	_, err = NewCompleter(context.Background(), Config{Provider: "llama", APIKey: "k"})
	assert.ErrorIs(t, err, blog.ErrConfiguration)

	c, err := NewCompleter(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)
}
