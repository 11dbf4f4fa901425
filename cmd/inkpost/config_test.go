package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkpost.yaml")
	yaml := `
site:
  name: Test Blog
  url: https://blog.example.com
  feed_limit: 7
database:
  driver: sqlite
  url: /tmp/test.db
log:
  level: debug
  format: json
storage:
  provider: s3
  region: eu-west-1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("INKPOST_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("INKPOST_SITE_NAME", "From Env")

	s, err := loadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", s.Site.Name)
	assert.Equal(t, "https://blog.example.com", s.Site.URL)
	assert.Equal(t, 7, s.Site.FeedLimit)
	assert.Equal(t, "/tmp/test.db", s.Site.DatabaseURL)
	assert.Equal(t, "s3cret", s.Site.JWTSecret)
	assert.Equal(t, "sk-test", s.Site.AI.APIKey)
	assert.Equal(t, "s3", s.Site.Storage.Provider)
	assert.Equal(t, "eu-west-1", s.Site.Storage.Region)
	assert.Equal(t, logrus.DebugLevel, s.Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, s.Log.Formatter)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := loadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger("loud", "text")
	assert.Error(t, err)
}
