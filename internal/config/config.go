// Package config loads the service configuration: a JSON file with
// environment overrides on top. A .env file next to the process is honored
// when present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr   string   `json:"listen_addr"`
	LobbyAddr    string   `json:"lobby_addr"`
	AppID        string   `json:"app_id"`
	AppVersion   string   `json:"app_version"`
	AuthCodeURL  string   `json:"auth_code_url"`
	AccountsFile string   `json:"accounts_file"`
	Proxies      []string `json:"proxies,omitempty"`

	AnnounceJoinInChat bool `json:"announce_join_in_chat"`

	JoinTimeoutSec int `json:"join_timeout_sec"`

	LogLevel string `json:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		LobbyAddr:      "game-ca1.blayzegames.com:2053",
		AppID:          "bulletforce",
		AppVersion:     "1.0",
		AuthCodeURL:    "https://server.blayzegames.com",
		AccountsFile:   "accounts.txt",
		JoinTimeoutSec: 30,
		LogLevel:       "info",
	}
}

// Load reads path (missing file falls back to defaults), then applies
// BLFBOT_* environment overrides. godotenv loads a local .env first so the
// overrides work the same in development and in a container.
func Load(path string) (Config, error) {
	cfg := Default()
	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if cfg.JoinTimeoutSec <= 0 {
		cfg.JoinTimeoutSec = 30
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setStr("BLFBOT_LISTEN_ADDR", &cfg.ListenAddr)
	setStr("BLFBOT_LOBBY_ADDR", &cfg.LobbyAddr)
	setStr("BLFBOT_APP_ID", &cfg.AppID)
	setStr("BLFBOT_APP_VERSION", &cfg.AppVersion)
	setStr("BLFBOT_AUTH_CODE_URL", &cfg.AuthCodeURL)
	setStr("BLFBOT_ACCOUNTS_FILE", &cfg.AccountsFile)
	setStr("BLFBOT_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv("BLFBOT_ANNOUNCE_JOIN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AnnounceJoinInChat = b
		}
	}
	if v, ok := os.LookupEnv("BLFBOT_JOIN_TIMEOUT_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.JoinTimeoutSec = n
		}
	}
}

// JoinTimeout returns the join deadline as a duration.
func (c Config) JoinTimeout() time.Duration {
	return time.Duration(c.JoinTimeoutSec) * time.Second
}
