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
	tmp := t.TempDir()
	t.Setenv("DISPATCHD_DATA_DIR", tmp)
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("ROUTING_OFFLINE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, tmp, cfg.DataPath)
	assert.False(t, cfg.RoutingOffline)
	assert.Equal(t, 6, cfg.VehicleCandidateLimit)
	assert.Equal(t, 4, cfg.AgentCandidateLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("DISPATCHD_DATA_DIR", tmp)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ROUTING_OFFLINE", "true")
	t.Setenv("OSRM_HOSTS", "http://a.local, http://b.local")
	t.Setenv("FEED_POLL_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.True(t, cfg.RoutingOffline)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.OSRMHosts)
	assert.Equal(t, 5*time.Second, cfg.FeedPollInterval)
}

func TestLoadDotEnvFile(t *testing.T) {
	tmp := t.TempDir()
	envFile := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`MAPBOX_TOKEN="from-dotenv"`), 0644))

	t.Setenv("DISPATCHD_DATA_DIR", tmp)
	t.Setenv("DISPATCHD_ENV_FILE", envFile)
	os.Unsetenv("MAPBOX_TOKEN")
	t.Cleanup(func() { os.Unsetenv("MAPBOX_TOKEN") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.MapboxToken)
}

func TestWatchFileInvokesCallbackOnWrite(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	var calls int
	var lastContent []byte
	fw, err := WatchFile(path, func(p string) error {
		calls++
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		lastContent = b
		return nil
	})
	require.NoError(t, err)
	defer fw.Stop()

	assert.Equal(t, 1, calls)
	assert.Equal(t, "[]", string(lastContent))

	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"x"}]`), 0644))

	require.Eventually(t, func() bool {
		return calls >= 2
	}, 2*time.Second, 50*time.Millisecond)
	assert.Equal(t, `[{"name":"x"}]`, string(lastContent))
}
