// Package config handles the configuration directory, the TOML config file
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskdash"

	// ConfigFile is the TOML configuration filename.
	ConfigFile = "config.toml"

	// EnvFile is the optional dotenv filename.
	EnvFile = ".env"

	// OAuthClientFile is the Google OAuth client used by the login command.
	OAuthClientFile = "oauth_client.json"
)

// Store drivers.
const (
	DriverMemory    = "memory"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
)

// Identity providers.
const (
	ProviderStatic   = "static"
	ProviderFirebase = "firebase"
	ProviderGoogle   = "google"
)

// Default values.
const (
	DefaultAddr         = ":8080"
	DefaultCollection   = "tasks"
	DefaultDatabase     = "taskdash"
	DefaultStoreTimeout = 5 * time.Second
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Auth   AuthConfig   `toml:"auth"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	CORSOrigins  []string      `toml:"cors_origins"` // "*" reflects any origin

	// StrictValidation rejects request bodies that do not match the task
	// schema. When false, any JSON object is accepted and absent fields are
	// stored empty.
	StrictValidation bool `toml:"strict_validation"`
}

// StoreConfig selects and configures the task store.
type StoreConfig struct {
	Driver          string        `toml:"driver"` // memory, firestore, mongo
	ProjectID       string        `toml:"project_id"`
	CredentialsFile string        `toml:"credentials_file"`
	Collection      string        `toml:"collection"`
	MongoURI        string        `toml:"mongo_uri"`
	Database        string        `toml:"database"`
	Timeout         time.Duration `toml:"timeout"`
}

// AuthConfig selects and configures the identity verifier.
type AuthConfig struct {
	Provider     string        `toml:"provider"` // static, firebase, google
	ProjectID    string        `toml:"project_id"`
	Audience     string        `toml:"audience"`  // OAuth client id for google
	CertsURL     string        `toml:"certs_url"` // override for firebase key endpoint
	StaticTokens []StaticToken `toml:"static_tokens"`
}

// StaticToken maps a fixed bearer token to an identity (development only).
type StaticToken struct {
	Token       string `toml:"token"`
	UID         string `toml:"uid"`
	Email       string `toml:"email"`
	DisplayName string `toml:"display_name"`
	PhotoURL    string `toml:"photo_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json, logfmt
}

// Default returns a Config with defaults applied and no directory set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             DefaultAddr,
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			CORSOrigins:      []string{"*"},
			StrictValidation: true,
		},
		Store: StoreConfig{
			Driver:     DriverMemory,
			Collection: DefaultCollection,
			Database:   DefaultDatabase,
			Timeout:    DefaultStoreTimeout,
		},
		Auth: AuthConfig{
			Provider: ProviderStatic,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdash or $HOME/.config/taskdash.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Default()
	cfg.Dir = dir
	return cfg, nil
}

// Load creates a Config for configDir, then applies the .env file, the
// config file and environment overrides, in that order.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the environment
	if cfg.HasEnvFile() {
		if err := godotenv.Load(cfg.EnvPath()); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", EnvFile, err)
		}
	}

	if cfg.HasConfigFile() {
		if _, err := toml.DecodeFile(cfg.ConfigPath(), cfg); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies TASKDASH_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("TASKDASH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TASKDASH_STORE"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("TASKDASH_MONGO_URI"); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv("TASKDASH_AUTH"); v != "" {
		c.Auth.Provider = v
	}
	if v := os.Getenv("TASKDASH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	project := os.Getenv("TASKDASH_PROJECT_ID")
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project != "" {
		if c.Store.ProjectID == "" {
			c.Store.ProjectID = project
		}
		if c.Auth.ProjectID == "" {
			c.Auth.ProjectID = project
		}
	}
}

// Validate checks driver/provider names and their required settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("store.project_id is required for the firestore driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	switch c.Auth.Provider {
	case ProviderStatic:
		for _, st := range c.Auth.StaticTokens {
			if strings.TrimSpace(st.Token) == "" || strings.TrimSpace(st.UID) == "" {
				return fmt.Errorf("auth.static_tokens entries need both token and uid")
			}
		}
	case ProviderFirebase:
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("auth.project_id is required for the firebase provider")
		}
	case ProviderGoogle:
		if c.Auth.Audience == "" {
			return fmt.Errorf("auth.audience is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown auth provider: %s", c.Auth.Provider)
	}

	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}

	for _, o := range c.Server.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("server.cors_origins entries must be \"*\" or start with http:// or https://: %s", o)
		}
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to the TOML config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnvPath returns the path to the dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// HasConfigFile checks if the config file exists.
func (c *Config) HasConfigFile() bool {
	_, err := os.Stat(c.ConfigPath())
	return err == nil
}

// HasEnvFile checks if the dotenv file exists.
func (c *Config) HasEnvFile() bool {
	_, err := os.Stat(c.EnvPath())
	return err == nil
}

// OAuthClientPath returns the path to oauth_client.json.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// HasOAuthClient returns true if oauth_client.json exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}
