package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOMI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOMI_BASE_URL", "")
	t.Setenv("HOMI_MODEL", "")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), conf)
	assert.Error(t, conf.RequireModel())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOMI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HOMI_BASE_URL", "")
	t.Setenv("HOMI_MODEL", "")

	path := filepath.Join(t.TempDir(), "homi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  api_key: sk-file
  model: gpt-4.1
dialogue:
  mode: tool
  think_delay: 1500ms
  language: Spanish
storage:
  driver: memory
server:
  addr: 127.0.0.1:9000
  allowed_origins: ["https://homi.app"]
log:
  level: debug
  format: json
`), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", conf.Model.APIKey)
	assert.Equal(t, "gpt-4.1", conf.Model.Model)
	assert.Equal(t, ModeTool, conf.Dialogue.Mode)
	assert.Equal(t, 1500*time.Millisecond, conf.Dialogue.ThinkDelay)
	assert.Equal(t, 50, conf.Dialogue.HistoryLimit)
	assert.Equal(t, "Spanish", conf.Dialogue.Language)
	assert.Equal(t, StorageMemory, conf.Storage.Driver)
	assert.Equal(t, "127.0.0.1:9000", conf.Server.Addr)
	assert.Equal(t, []string{"https://homi.app"}, conf.Server.AllowedOrigins)
	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, 10, conf.Log.MaxSizeMB)
	assert.NoError(t, conf.RequireModel())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY": "sk-openai",
		"HOMI_BASE_URL":  "http://localhost:11434/v1",
	}
	conf := Default()
	conf.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "sk-openai", conf.Model.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", conf.Model.BaseURL)

	env["HOMI_API_KEY"] = "sk-homi"
	env["HOMI_MODEL"] = "qwen2.5"
	conf.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "sk-homi", conf.Model.APIKey)
	assert.Equal(t, "qwen2.5", conf.Model.Model)
}

func TestValidate(t *testing.T) {
	conf := Default()
	conf.Dialogue.Mode = "magic"
	conf.Storage.Driver = "postgres"
	err := conf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialogue.mode")
	assert.Contains(t, err.Error(), "storage.driver")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
