package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
http:
  listen_addr: ":9090"
  read_timeout: 5s
api:
  base_url: "http://127.0.0.1:5000"
  timeout: 3s
session:
  ttl: 24h
database:
  audit_dsn: ""
log:
  level: debug
`

func writeConf(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "app.yaml"), []byte(body), 0o644))
	return root
}

func TestLoadFrom(t *testing.T) {
	root := writeConf(t, sampleYAML)
	t.Setenv("COURSEDESK_SESSION__SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("COURSEDESK_API__BASE_URL", "https://api.example.edu")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout, "default applied")
	assert.Equal(t, "https://api.example.edu", cfg.API.BaseURL, "env overrides yaml")
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.Same(t, cfg, Get())
}

func TestLoadFrom_ShortSecretFails(t *testing.T) {
	root := writeConf(t, sampleYAML)
	t.Setenv("COURSEDESK_SESSION__SECRET", "short")

	_, err := LoadFrom(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret")
}

func TestLoadFrom_BadLogLevel(t *testing.T) {
	root := writeConf(t, sampleYAML+"\n")
	t.Setenv("COURSEDESK_SESSION__SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("COURSEDESK_LOG__LEVEL", "chatty")

	_, err := LoadFrom(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoadFrom_MissingYAML(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}
