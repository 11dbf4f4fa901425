// Package objstore stores uploaded files and hands out public URLs for them.
// A Bucket is either a directory served by the app itself or an S3 (or
// S3-compatible) bucket.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrExists is returned by Put when the key is taken and Upsert is false.
var ErrExists = errors.New("objstore: object already exists")

// PutOptions controls a single upload.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool // overwrite an existing object
}

// Bucket is a flat key space of objects with publicly resolvable URLs.
type Bucket interface {
	// Put uploads r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error

	// PublicURL returns the URL under which key is served.
	PublicURL(key string) string
}

// Config selects and configures a bucket backend.
type Config struct {
	Provider string // "filesystem" (default) or "s3"

	// Filesystem
	Dir     string // root directory; one subdirectory per bucket
	BaseURL string // public URL prefix, e.g. "http://localhost:3000/media"

	// S3
	Region    string
	Endpoint  string // custom endpoint for S3-compatible services
	AccessKey string
	SecretKey string
	PublicURL string // optional CDN/public prefix; bucket name is appended
}

// Provider names accepted by Open after normalization.
const (
	ProviderFileSystem = "filesystem"
	ProviderS3         = "s3"
)

// NormalizeProvider maps provider aliases onto ProviderFileSystem or
// ProviderS3. Unknown names come back lower-cased and trimmed.
func NormalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "", ProviderFileSystem, "local", "fs":
		return ProviderFileSystem
	case ProviderS3, "aws", "minio":
		return ProviderS3
	}
	return p
}

// Open returns the bucket called name using cfg.
func Open(ctx context.Context, cfg Config, name string) (Bucket, error) {
	switch NormalizeProvider(cfg.Provider) {
	case ProviderFileSystem:
		if cfg.Dir == "" {
			cfg.Dir = "data/media"
		}
		return NewFileSystem(joinPath(cfg.Dir, name), joinURL(cfg.BaseURL, name))
	case ProviderS3:
		return NewS3(ctx, cfg, name)
	default:
		return nil, fmt.Errorf("objstore: unsupported provider %q", cfg.Provider)
	}
}

func joinURL(base, elem string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(elem, "/")
}

func joinPath(dir, elem string) string {
	return strings.TrimRight(dir, "/") + "/" + elem
}
