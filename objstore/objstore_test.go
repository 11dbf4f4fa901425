package objstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemPutNoOverwrite(t *testing.T) {
	fsys, err := NewFileSystem(t.TempDir(), "http://localhost:3000/media/blog-images")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fsys.Put(ctx, "a.png", strings.NewReader("one"), 3, PutOptions{}))
	err = fsys.Put(ctx, "a.png", strings.NewReader("two"), 3, PutOptions{})
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(filepath.Join(fsys.Root(), "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestFileSystemPutUpsert(t *testing.T) {
	fsys, err := NewFileSystem(t.TempDir(), "http://localhost:3000/media/avatars")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fsys.Put(ctx, "u1/avatar.png", strings.NewReader("old"), 3, PutOptions{Upsert: true}))
	require.NoError(t, fsys.Put(ctx, "u1/avatar.png", strings.NewReader("new"), 3, PutOptions{Upsert: true}))

	data, err := os.ReadFile(filepath.Join(fsys.Root(), "u1", "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, "http://localhost:3000/media/avatars/u1/avatar.png", fsys.PublicURL("u1/avatar.png"))
}

func TestFileSystemRejectsTraversal(t *testing.T) {
	fsys, err := NewFileSystem(t.TempDir(), "/media/x")
	require.NoError(t, err)
	err = fsys.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, PutOptions{})
	assert.Error(t, err)
}

func TestOpenFilesystemDefault(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(context.Background(), Config{Dir: dir, BaseURL: "http://h/media/"}, "blog-images")
	require.NoError(t, err)
	assert.Equal(t, "http://h/media/blog-images/k.jpg", b.PublicURL("k.jpg"))
	_, err = os.Stat(filepath.Join(dir, "blog-images"))
	assert.NoError(t, err)
}

func TestOpenUnknownProvider(t *testing.T) {
	_, err := Open(context.Background(), Config{Provider: "tape"}, "x")
	assert.Error(t, err)
}

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ProviderFileSystem},
		{"filesystem", ProviderFileSystem},
		{" Local ", ProviderFileSystem},
		{"FS", ProviderFileSystem},
		{"S3", ProviderS3},
		{"minio", ProviderS3},
		{"aws", ProviderS3},
		{"Tape", "tape"},
	}
	for _, tt := range tests {
		if got := NormalizeProvider(tt.in); got != tt.want {
			t.Errorf("NormalizeProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestS3PublicURL(t *testing.T) {
	tests := []struct {
		name string
		s    S3
		want string
	}{
		{"aws default", S3{bucket: "avatars", region: "eu-west-1"}, "https://avatars.s3.eu-west-1.amazonaws.com/u%201/avatar.png"},
		{"custom endpoint", S3{bucket: "avatars", endpoint: "http://minio:9000"}, "http://minio:9000/avatars/u%201/avatar.png"},
		{"public prefix", S3{bucket: "avatars", endpoint: "http://minio:9000", publicURL: "https://cdn.example.com"}, "https://cdn.example.com/avatars/u%201/avatar.png"},
	}
	for _, tt := range tests {
		if got := tt.s.PublicURL("u 1/avatar.png"); got != tt.want {
			t.Errorf("%s: PublicURL = %q, want %q", tt.name, got, tt.want)
		}
	}
}
