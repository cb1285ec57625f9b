package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Defaults fill missing keys", func(t *testing.T) {
		// Given: a config with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf := MustLoad(path)

		// Then: everything else falls back to defaults
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 700*time.Millisecond, conf.Game.BotDelay)
		assert.Equal(t, time.Second, conf.Chat.ReplyMinDelay)
		assert.Equal(t, 3*time.Second, conf.Chat.ReplyMaxDelay)
		assert.Equal(t, []string{"http://localhost:3000"}, conf.CORS.AllowedOrigins)
	})

	t.Run("Values from the file win", func(t *testing.T) {
		path := writeConfig(t, `
redis:
  enabled: true
  host: cache
  port: "6380"
game:
  bot-delay: 50ms
`)

		conf := MustLoad(path)

		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 50*time.Millisecond, conf.Game.BotDelay)
	})

	t.Run("Inverted chat delays panic", func(t *testing.T) {
		path := writeConfig(t, `
chat:
  reply-min-delay: 5s
  reply-max-delay: 1s
`)

		assert.Panics(t, func() { MustLoad(path) })
	})

	t.Run("Missing file panics", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yml")) })
	})
}
