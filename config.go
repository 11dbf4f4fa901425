package inkpost

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eringen/inkpost/ai"
	"github.com/eringen/inkpost/newsletter"
	"github.com/eringen/inkpost/objstore"
)

// SiteConfig holds all configuration for an inkpost site.
type SiteConfig struct {
	Name        string // Site name (default "Inkpost")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Fallback author name for JSON-LD

	Addr           string // Listen address (default ":3000")
	DatabaseDriver string // "sqlite" (default) or "postgres"
	DatabaseURL    string // SQLite path or Postgres DSN (default "data/inkpost.db")

	SessionSecret string // Required: session cookie secret
	CookieSecure  bool   // Set true for HTTPS

	JWTSecret string // Required: HS256 secret shared with the identity provider
	JWTIssuer string // Optional expected "iss" claim

	Storage objstore.Config
	AI      ai.Config

	NewsletterAPIKey   string
	NewsletterEndpoint string // default newsletter.DefaultEndpoint

	HomeLatest int // posts shown on the landing page (default 3)
	FeedLimit  int // posts in feed.xml (default 20)
}

const (
	imagesBucket  = "blog-images"
	avatarsBucket = "avatars"
)

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Inkpost"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "data/inkpost.db"
	}
	c.Storage.Provider = objstore.NormalizeProvider(c.Storage.Provider)
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/media"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = BuildURL(c.URL, "media")
	}
	if c.NewsletterEndpoint == "" {
		c.NewsletterEndpoint = newsletter.DefaultEndpoint
	}
	if c.HomeLatest == 0 {
		c.HomeLatest = 3
	}
	if c.FeedLimit == 0 {
		c.FeedLimit = 20
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the default logrus logger.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithCompleter sets the AI completion provider instead of building one
// from Config.AI.
func WithCompleter(c ai.Completer) Option {
	return func(a *App) {
		a.completer = c
	}
}

// WithBuckets sets the image and avatar buckets instead of opening them
// from Config.Storage.
func WithBuckets(images, avatars objstore.Bucket) Option {
	return func(a *App) {
		a.images = images
		a.avatars = avatars
	}
}

// WithNewsletterClient sets the HTTP client used for mailing-list signups.
func WithNewsletterClient(c *http.Client) Option {
	return func(a *App) {
		a.newsletterHTTP = c
	}
}
