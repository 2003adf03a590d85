package engine

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
	path := filepath.Join(t.TempDir(), "mqguard.config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"port": "1883",
		"httpPort": "8080",
		"opTimeoutMs": 2000,
		"directory": {"backend": "postgres", "dsn": "postgres://localhost/mq"},
		"audit": {"kafka": true, "addr": ["127.0.0.1:9092"], "topic": "mq-audit"}
	}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config.Host, "host defaults when only a port is given")
	assert.Equal(t, "1883", config.Port)
	assert.Equal(t, 2*time.Second, config.OpTimeout())
	assert.Equal(t, time.Minute, config.Heartbeat(), "heartbeat falls back to the default")
	assert.Equal(t, "postgres", config.Directory.Backend)
	assert.True(t, config.Audit.Kafka)
	assert.Equal(t, []string{"127.0.0.1:9092"}, config.Audit.Addr)
}

func TestLoadConfigEmptyObjectGetsDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Directory.Backend)
	assert.Equal(t, DefaultConfig.OpTimeoutMs, config.OpTimeoutMs)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.config"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "{not json"))
	assert.Error(t, err)
}
