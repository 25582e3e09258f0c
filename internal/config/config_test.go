package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func devConfig() *Config {
	c := DefaultConfig()
	c.Dev = true
	c.Auth.JWTKey = "k"
	return c
}

func TestDefaultConfig_NeedsKeyAndDev(t *testing.T) {
	c := DefaultConfig()
	require.ErrorContains(t, c.Validate(), "jwt_key")

	c.Auth.JWTKey = "k"
	require.ErrorContains(t, c.Validate(), "notify.driver log")

	require.NoError(t, devConfig().Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ayur.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dev: true
server:
  addr: ":9443"
storage:
  driver: postgres
  seed: true
auth:
  access_ttl: 30m
  code_ttl: 2m
recognition:
  mode: random
  min_confidence: 90
  max_confidence: 100
notify:
  driver: telegram
  chats:
    "9876543210": 42
`), 0o600))

	t.Setenv(EnvJWTKey, "from-env")
	t.Setenv(EnvTelegramToken, "tg")
	c, err := Load(path)
	require.NoError(t, err)
	require.True(t, c.Dev)
	require.Equal(t, ":9443", c.Server.Addr)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.True(t, c.Storage.Seed)
	require.Equal(t, 30*time.Minute, c.Auth.AccessTTL)
	require.Equal(t, 2*time.Minute, c.Auth.CodeTTL)
	require.Equal(t, 6, c.Auth.CodeDigits, "defaults survive partial files")
	require.Equal(t, "from-env", c.Auth.JWTKey)
	require.Equal(t, int64(42), c.Notify.Chats["9876543210"])
	require.NoError(t, c.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}

func TestValidate_Rules(t *testing.T) {
	cases := map[string]func(*Config){
		"fixed code outside dev": func(c *Config) { c.Dev = false; c.Notify.Driver = "telegram"; c.Notify.TelegramToken = "t"; c.Auth.FixedCode = "123456" },
		"tls outside dev":        func(c *Config) { c.Dev = false; c.Notify.Driver = "telegram"; c.Notify.TelegramToken = "t"; c.Server.TLSCert = "" },
		"storage driver":         func(c *Config) { c.Storage.Driver = "sqlite" },
		"postgres dsn":           func(c *Config) { c.Storage.Driver = "postgres"; c.Storage.DSN = "" },
		"confidence range":       func(c *Config) { c.Recognition.MinConfidence = 99; c.Recognition.MaxConfidence = 98 },
		"recognition mode":       func(c *Config) { c.Recognition.Mode = "vision" },
		"geocoder driver":        func(c *Config) { c.Geocoder.Driver = "google" },
		"telegram token":         func(c *Config) { c.Notify.Driver = "telegram" },
		"s3 bucket":              func(c *Config) { c.Media.Driver = "s3" },
		"nats url":               func(c *Config) { c.Events.Driver = "nats" },
		"code digits":            func(c *Config) { c.Auth.CodeDigits = 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := devConfig()
			mutate(c)
			require.Error(t, c.Validate())
		})
	}
}
