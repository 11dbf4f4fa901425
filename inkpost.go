// Package inkpost is a blogging platform built with Go, Echo and templ.
// It serves public pages, an authenticated dashboard for writing posts by
// hand or with AI assistance, a mailing-list endpoint, and sitemap, robots
// and RSS surfaces.
//
// Pages are rendered through the ViewFuncs struct. The defaults come from
// the views package; any page can be replaced with a custom templ component.
package inkpost

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/inkpost/ai"
	"github.com/eringen/inkpost/auth"
	"github.com/eringen/inkpost/blog"
	"github.com/eringen/inkpost/newsletter"
	"github.com/eringen/inkpost/objstore"
	"github.com/eringen/inkpost/views"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
// Nil entries fall back to the views package defaults.
type ViewFuncs struct {
	Home           func(views.HomeData) templ.Component
	BlogList       func(views.BlogListData) templ.Component
	Post           func(views.PostData) templ.Component
	Login          func(views.LoginData) templ.Component
	DashboardHome  func(views.DashboardHomeData) templ.Component
	DashboardBlogs func(views.DashboardBlogsData) templ.Component
	NewChooser     func(views.Page) templ.Component
	Editor         func(views.EditorData) templ.Component
	AIForm         func(views.AIData) templ.Component
	Settings       func(views.SettingsData) templ.Component
	NotFound       func(views.Page) templ.Component
	ServerError    func(views.Page) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.BlogList == nil {
		v.BlogList = views.BlogList
	}
	if v.Post == nil {
		v.Post = views.Post
	}
	if v.Login == nil {
		v.Login = views.Login
	}
	if v.DashboardHome == nil {
		v.DashboardHome = views.DashboardHome
	}
	if v.DashboardBlogs == nil {
		v.DashboardBlogs = views.DashboardBlogs
	}
	if v.NewChooser == nil {
		v.NewChooser = views.NewChooser
	}
	if v.Editor == nil {
		v.Editor = views.Editor
	}
	if v.AIForm == nil {
		v.AIForm = views.AIForm
	}
	if v.Settings == nil {
		v.Settings = views.Settings
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App is the central inkpost application. It wires together the store,
// gateway, AI generator, handlers, middleware and templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Log        *logrus.Logger
	Store      *blog.Store
	Posts      *blog.Gateway
	Generator  *ai.Generator
	Newsletter *newsletter.Client
	Verifier   *auth.Verifier
	Views      ViewFuncs

	tokenLimiter     *Limiter
	subscribeLimiter *Limiter
	aiLimiter        *Limiter

	completer      ai.Completer
	images         objstore.Bucket
	avatars        objstore.Bucket
	newsletterHTTP *http.Client
	customRoutes   []func(*App)
	staticDir      string
	initialized    bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Log:       logrus.StandardLogger(),
		Views:     v,
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the database and storage, builds the services and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return errors.New("inkpost: SessionSecret is required")
	}
	if a.Config.JWTSecret == "" {
		return errors.New("inkpost: JWTSecret is required")
	}

	var err error
	if a.images == nil {
		if a.images, err = objstore.Open(ctx, a.Config.Storage, imagesBucket); err != nil {
			return fmt.Errorf("inkpost: open %s bucket: %w", imagesBucket, err)
		}
	}
	if a.avatars == nil {
		if a.avatars, err = objstore.Open(ctx, a.Config.Storage, avatarsBucket); err != nil {
			return fmt.Errorf("inkpost: open %s bucket: %w", avatarsBucket, err)
		}
	}

	// Opened last so no earlier failure leaves the database handle behind.
	store, err := blog.NewStore(a.Config.DatabaseDriver, a.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("inkpost: init store: %w", err)
	}
	a.Store = store
	a.Posts = blog.NewGateway(store, a.images, a.avatars, blog.WithLogger(a.Log))

	if a.completer == nil {
		c, err := ai.NewCompleter(ctx, a.Config.AI)
		if err != nil {
			a.Log.WithError(err).Warn("AI draft generation disabled")
		} else {
			a.completer = c
		}
	}
	a.Generator = ai.NewGenerator(a.completer, a.Posts, ai.WithLogger(a.Log))

	if a.Config.NewsletterAPIKey == "" {
		a.Log.Warn("newsletter API key not set; signups will be rejected upstream")
	}
	a.Newsletter = newsletter.NewClient(a.Config.NewsletterEndpoint, a.Config.NewsletterAPIKey, a.newsletterHTTP)
	a.Verifier = auth.NewVerifier(a.Config.JWTSecret, a.Config.JWTIssuer)

	a.tokenLimiter = NewLimiter(5, time.Minute)
	a.subscribeLimiter = NewLimiter(10, time.Minute)
	a.aiLimiter = NewLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and runs the HTTP server until it stops.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	a.Log.WithFields(logrus.Fields{"addr": a.Config.Addr, "url": a.Config.URL}).Info("inkpost listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.staticDir)
	if objstore.NormalizeProvider(a.Config.Storage.Provider) == objstore.ProviderFileSystem {
		e.Static("/media", a.Config.Storage.Dir)
	}

	// Public routes
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog/", a.handleBlogList)
	e.GET("/blog/:slug/", a.handlePost)

	// Mailing list
	subscribe := a.limit(a.subscribeLimiter, newsletter.Handler(a.Newsletter, a.Log))
	e.POST("/api/subscribe", subscribe)
	e.POST("/api/loops", subscribe)

	// Session
	e.GET("/auth/login/", a.handleLogin)
	e.POST("/auth/session/", a.handleSession)
	e.POST("/auth/logout/", handleLogout)

	// Dashboard
	d := e.Group("/dashboard", a.requireAuth)
	d.GET("/", a.handleDashboard)
	d.GET("/blogs/", a.handleDashboardBlogs)
	d.GET("/blogs/new/", a.handleNewChooser)
	d.GET("/blogs/new/manual/", a.handleNewManual)
	d.GET("/blogs/new/ai/", a.handleNewAI)
	d.POST("/blogs/", a.handleCreatePost)
	d.POST("/blogs/ai/", a.handleGeneratePost)
	d.GET("/blogs/:id/edit/", a.handleEditPost)
	d.POST("/blogs/:id/", a.handleUpdatePost)
	d.POST("/blogs/:id/delete/", a.handleDeletePost)
	d.GET("/settings/", a.handleSettings)
	d.POST("/settings/", a.handleSaveSettings)
	d.POST("/uploads/image/", a.handleImageUpload)
	d.POST("/uploads/avatar/", a.handleAvatarUpload)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	for _, l := range []*Limiter{a.tokenLimiter, a.subscribeLimiter, a.aiLimiter} {
		if l != nil {
			l.Close()
		}
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
