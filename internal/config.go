package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/kenaz-canvas/internal/canvas"
	"github.com/starford/kenaz-canvas/internal/canvas/history"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Scene store backends.
const (
	StorageBackendFS    = "fs"
	StorageBackendRedis = "redis"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Storage StorageConfig     `yaml:"storage"`
	Canvas  CanvasConfig      `yaml:"canvas"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Canvas.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig names the Markdown vault and where it lives. ID is the vault
// component of canvas keys.
type VaultConfig struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// StorageConfig selects where canvas scenes are persisted.
type StorageConfig struct {
	Backend string             `yaml:"backend"`
	FS      FSStorageConfig    `yaml:"fs"`
	Redis   RedisStorageConfig `yaml:"redis"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = StorageBackendFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(StorageBackendFS, StorageBackendRedis)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case StorageBackendFS:
		return c.FS.Validate()
	default:
		return c.Redis.Validate()
	}
}

// FSStorageConfig holds the directory for scene files.
type FSStorageConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the file storage configuration.
func (c *FSStorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisStorageConfig holds the Redis connection used for scenes.
type RedisStorageConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the Redis storage configuration.
func (c *RedisStorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
	)
}

// CanvasConfig tunes live canvases.
type CanvasConfig struct {
	SaveDebounce  time.Duration `yaml:"save_debounce"`
	UndoCapacity  int           `yaml:"undo_capacity"`
	EventThrottle time.Duration `yaml:"event_throttle"`
}

// Validate validates the canvas configuration.
func (c *CanvasConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SaveDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.UndoCapacity, validation.Min(0)),
		validation.Field(&c.EventThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			ID:   "main",
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./kenaz-canvas.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Storage: StorageConfig{
			Backend: StorageBackendFS,
			FS:      FSStorageConfig{Path: "./canvases"},
			Redis:   RedisStorageConfig{Addr: "localhost:6379", Prefix: "kenaz:"},
		},
		Canvas: CanvasConfig{
			SaveDebounce:  canvas.DefaultSaveDebounce,
			UndoCapacity:  history.DefaultCapacity,
			EventThrottle: 2 * time.Second,
		},
	}
}
