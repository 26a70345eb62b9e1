package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[catalog]
base_url = "https://example.org"
[telegram]
token = "t"
channel_id = "@c"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./db", cfg.StorePath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1, cfg.Catalog.MaxPages)
	assert.Equal(t, 50, cfg.Catalog.MaxImages)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout())
	assert.True(t, cfg.Telegraph.Upload)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
db_path = "/var/lib/gallerysync/db"
threads_num = 8

[catalog]
base_url = "https://example.org"
keyword = "artbook"
max_pages = 3
max_img_cnt = 20
local_cache = true

[telegraph]
token = "ph-token"
upload = false

[telegram]
token = "bot-token"
channel_id = "@mirror"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "artbook", cfg.Catalog.Keyword)
	assert.Equal(t, 20, cfg.Catalog.MaxImages)
	assert.True(t, cfg.Catalog.LocalCache)
	assert.False(t, cfg.Telegraph.Upload)
	assert.Equal(t, "@mirror", cfg.Telegram.Channel)
}

func TestLoadConfigRejectsIncomplete(t *testing.T) {
	path := writeConfig(t, `
[telegram]
token = "t"
channel_id = "@c"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "catalog.base_url")
}
