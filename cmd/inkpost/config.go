package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/eringen/inkpost"
	"github.com/eringen/inkpost/ai"
	"github.com/eringen/inkpost/objstore"
)

type settings struct {
	Site inkpost.SiteConfig
	Log  *logrus.Logger
}

// loadSettings reads an optional YAML file and INKPOST_* environment
// variables. Nested keys map to env names with dots replaced by
// underscores, so server.addr is INKPOST_SERVER_ADDR.
func loadSettings(path string) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix("inkpost")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names the hosted deployment used before the rename.
	_ = v.BindEnv("ai.api_key", "INKPOST_AI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("newsletter.api_key", "INKPOST_NEWSLETTER_API_KEY", "LOOPS_API_KEY")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("storage.provider", "filesystem")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("inkpost")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/inkpost")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	log, err := newLogger(v.GetString("log.level"), v.GetString("log.format"))
	if err != nil {
		return settings{}, err
	}

	site := inkpost.SiteConfig{
		Name:           v.GetString("site.name"),
		URL:            v.GetString("site.url"),
		Description:    v.GetString("site.description"),
		Author:         v.GetString("site.author"),
		Addr:           v.GetString("server.addr"),
		DatabaseDriver: v.GetString("database.driver"),
		DatabaseURL:    v.GetString("database.url"),
		SessionSecret:  v.GetString("session.secret"),
		CookieSecure:   v.GetBool("session.cookie_secure"),
		JWTSecret:      v.GetString("auth.jwt_secret"),
		JWTIssuer:      v.GetString("auth.jwt_issuer"),
		Storage: objstore.Config{
			Provider:  v.GetString("storage.provider"),
			Dir:       v.GetString("storage.dir"),
			BaseURL:   v.GetString("storage.base_url"),
			Region:    v.GetString("storage.region"),
			Endpoint:  v.GetString("storage.endpoint"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			PublicURL: v.GetString("storage.public_url"),
		},
		AI: ai.Config{
			Provider: v.GetString("ai.provider"),
			APIKey:   v.GetString("ai.api_key"),
			Model:    v.GetString("ai.model"),
			BaseURL:  v.GetString("ai.base_url"),
		},
		NewsletterAPIKey:   v.GetString("newsletter.api_key"),
		NewsletterEndpoint: v.GetString("newsletter.endpoint"),
		HomeLatest:         v.GetInt("site.home_latest"),
		FeedLimit:          v.GetInt("site.feed_limit"),
	}
	if f := v.ConfigFileUsed(); f != "" {
		log.WithField("file", f).Debug("config loaded")
	}
	return settings{Site: site, Log: log}, nil
}

func newLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
