package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Journal JournalConfig     `yaml:"journal"`
	Remote  RemoteConfig      `yaml:"remote"`
	Preview PreviewConfig     `yaml:"preview"`
}

// Validate validates everything except the remote credentials. Remote
// settings are checked by RequireRemote only when a command actually needs
// the network, so local commands work on an unconfigured checkout.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.Preview.Validate()
}

// RequireRemote validates that the remote endpoint is fully configured.
func (c *Config) RequireRemote() error {
	return c.Remote.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel string `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// Level maps the configured log level onto slog.
func (c *ApplicationConfig) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// JournalConfig holds the SQLite sync journal location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RemoteConfig holds the AtomPub endpoint and credentials. APIKey usually
// arrives through ${HATENA_API_KEY} expansion rather than a literal value
// in the config file.
type RemoteConfig struct {
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	BlogID   string `yaml:"blog_id"`
	APIKey   string `yaml:"api_key"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.BlogID, validation.Required),
	); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("remote: api_key is empty (set HATENA_API_KEY or remote.api_key)")
	}
	return nil
}

// PreviewConfig holds the preview HTTP server configuration.
type PreviewConfig struct {
	Port int `yaml:"port"`
}

// Address returns the preview server listen address.
func (c *PreviewConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: "info",
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Journal: JournalConfig{
			Path: "./hatena-sync.db",
		},
		Remote: RemoteConfig{
			Endpoint: "https://blog.hatena.ne.jp",
		},
		Preview: PreviewConfig{
			Port: 8085,
		},
	}
}
