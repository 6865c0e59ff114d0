package providers

import (
	"os"
	"path/filepath"
	"ringsync/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYaml = `
api:
  baseUrl: https://api.ouraring.com/v2/usercollection
  tokenFile: /etc/ringsync/private_token.json
  timeout: 15s
  heartRateOffset: "-07:00"
snapshot:
  dir: /var/lib/ringsync/data
  bootstrapDate: "2024-01-01"
  compress: true
database:
  path: /var/lib/ringsync/ringsync.db
logger:
  level: debug
  mode: 0644
  dir: /var/log/ringsync
cache:
  enabled: true
  size: 4
`

func TestNewConfigProvider_ReadsYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYaml), 0644))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, AppName, conf.AppName)
	assert.Equal(t, path, conf.Path)
	assert.True(t, conf.Debug)
	assert.Equal(t, 15*time.Second, conf.Api.Timeout)
	assert.Equal(t, "-07:00", conf.Api.HeartRateOffset)
	assert.Equal(t, "2024-01-01", conf.Snapshot.BootstrapDate)
	assert.True(t, conf.Snapshot.Compress)
	assert.Equal(t, 4, conf.Cache.Size)
}

func TestNewConfigProvider_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYaml), 0644))
	t.Setenv("RINGSYNC_SNAPSHOT_DIR", "/srv/snapshots")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "/srv/snapshots", conf.Snapshot.Dir)
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yml")})
	assert.Error(t, err)
}
