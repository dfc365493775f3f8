package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "bulletforce", cfg.AppID)
	assert.Equal(t, 30*time.Second, cfg.JoinTimeout())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listen_addr": ":9090",
		"lobby_addr": "lobby.example:5055",
		"join_timeout_sec": 10,
		"proxies": ["socks5://127.0.0.1:1080"]
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "lobby.example:5055", cfg.LobbyAddr)
	assert.Equal(t, 10*time.Second, cfg.JoinTimeout())
	assert.Equal(t, []string{"socks5://127.0.0.1:1080"}, cfg.Proxies)
	// Untouched fields keep their defaults.
	assert.Equal(t, "bulletforce", cfg.AppID)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BLFBOT_LISTEN_ADDR", ":7070")
	t.Setenv("BLFBOT_ANNOUNCE_JOIN", "true")
	t.Setenv("BLFBOT_JOIN_TIMEOUT_SEC", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.True(t, cfg.AnnounceJoinInChat)
	assert.Equal(t, 5*time.Second, cfg.JoinTimeout())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
