package config

import (
	"fmt"
	"os"
)

type Config struct {
	AppEnv             string
	Port               string
	LogLevel           string
	LogFormat          string
	OBSWebsocketURL    string
	OBSPassword        string
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRedirectURI  string
	TwitchBotUsername  string
	TwitchChannel      string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		OBSWebsocketURL:    getEnv("OBS_WEBSOCKET_URL", ""),
		OBSPassword:        getEnv("OBS_PASSWORD", ""),
		TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
		TwitchRedirectURI:  getEnv("TWITCH_REDIRECT_URI", ""),
		TwitchBotUsername:  getEnv("TWITCH_BOT_USERNAME", ""),
		TwitchChannel:      getEnv("TWITCH_CHANNEL", ""),
	}

	// Twitch config: client credentials and redirect URI must be set together
	if cfg.TwitchClientID != "" || cfg.TwitchClientSecret != "" || cfg.TwitchRedirectURI != "" {
		if cfg.TwitchClientID == "" {
			return nil, fmt.Errorf("TWITCH_CLIENT_ID is required when Twitch integration is configured")
		}
		if cfg.TwitchClientSecret == "" {
			return nil, fmt.Errorf("TWITCH_CLIENT_SECRET is required when Twitch integration is configured")
		}
		if cfg.TwitchRedirectURI == "" {
			return nil, fmt.Errorf("TWITCH_REDIRECT_URI is required when Twitch integration is configured")
		}
	}

	return cfg, nil
}

// TwitchEnabled reports whether the Twitch integration is configured.
func (c *Config) TwitchEnabled() bool {
	return c.TwitchClientID != ""
}

// OBSEnabled reports whether the OBS integration is configured.
func (c *Config) OBSEnabled() bool {
	return c.OBSWebsocketURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
