package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "DAYBOOK"
	defaultHTTPAddress    = "127.0.0.1:8080"
	defaultDatabasePath   = "daybook.db"
	defaultLogLevel       = "info"
	defaultQuotaBytes     = 5 << 20 // browser-storage sized ceiling
	defaultSessionMinutes = 720
)

// AppConfig captures runtime configuration for the Daybook process.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	QuotaBytes        int64
	LogLevel          string
	SessionSecret     string
	SessionPassphrase string
	SessionTTL        time.Duration
	MirrorBaseURL     string
	MirrorToken       string
}

// NewViper returns a viper instance with defaults and env bindings
// configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("storage.quota_bytes", defaultQuotaBytes)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.ttl_minutes", defaultSessionMinutes)
	configViper.SetDefault("mirror.base_url", "")
	configViper.SetDefault("mirror.token", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		QuotaBytes:        configViper.GetInt64("storage.quota_bytes"),
		LogLevel:          configViper.GetString("log.level"),
		SessionSecret:     configViper.GetString("session.signing_secret"),
		SessionPassphrase: configViper.GetString("session.passphrase"),
		SessionTTL:        time.Duration(configViper.GetInt("session.ttl_minutes")) * time.Minute,
		MirrorBaseURL:     configViper.GetString("mirror.base_url"),
		MirrorToken:       configViper.GetString("mirror.token"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("storage.quota_bytes must not be negative")
	}
	return nil
}

// ValidateServe checks the additional settings the HTTP server needs.
// Export and import runs work without them.
func (c AppConfig) ValidateServe() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.SessionPassphrase) == "" {
		return fmt.Errorf("session.passphrase is required")
	}
	return nil
}
