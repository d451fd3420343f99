package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Cloudinary CloudinaryConfig `toml:"cloudinary"`
	Store      StoreConfig      `toml:"store"`
	Server     ServerConfig     `toml:"server"`
	Sync       SyncConfig       `toml:"sync"`
	Download   DownloadConfig   `toml:"download"`
}

// CloudinaryConfig contains the media host credentials.
//
// CloudName and UploadPreset are enough for unsigned uploads and delivery URLs.
// APIKey and APISecret are only needed by the listing proxy (Admin API).
type CloudinaryConfig struct {
	CloudName    string `toml:"cloud_name"`
	UploadPreset string `toml:"upload_preset"`
	APIKey       string `toml:"api_key"`
	APISecret    string `toml:"api_secret"`
	ProxyURL     string `toml:"proxy_url"`
	Tag          string `toml:"tag"`
}

// StoreConfig selects and configures the key-value store backing the media cache.
type StoreConfig struct {
	Driver        string `toml:"driver"` // sqlite, redis or memory
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ServerConfig contains HTTP server settings for the listing proxy.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// SyncConfig tunes reconciliation against the remote listing.
type SyncConfig struct {
	OnStart        bool `toml:"on_start"`
	MaxFailures    int  `toml:"max_failures"`
	OpenTimeoutSec int  `toml:"open_timeout_sec"`
	HTTPTimeoutSec int  `toml:"http_timeout_sec"`
}

// DownloadConfig contains defaults for single and bulk downloads.
type DownloadConfig struct {
	Dir            string  `toml:"dir"`
	Workers        int     `toml:"workers"`
	RateLimit      float64 `toml:"rate_limit"`
	ThumbnailWidth int     `toml:"thumbnail_width"`
}

// Address returns the host:port pair the proxy listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CanUpload reports whether unsigned uploads are configured.
func (c CloudinaryConfig) CanUpload() bool {
	return c.CloudName != "" && c.UploadPreset != ""
}

// CanList reports whether the Admin API credentials are configured.
func (c CloudinaryConfig) CanList() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Environment variables overlaid on top of the TOML config.
//
// The VITE_ prefixed names are shared with the web front-end's .env.local.
const (
	EnvCloudName    = "VITE_CLOUDINARY_CLOUD_NAME"
	EnvUploadPreset = "VITE_CLOUDINARY_UPLOAD_PRESET"
	EnvAPIKey       = "CLOUDINARY_API_KEY"
	EnvAPISecret    = "CLOUDINARY_API_SECRET"
	EnvProxyURL     = "GALLERY_PROXY_URL"
)

// ApplyEnv loads the given dotenv files (missing files are skipped) and overlays
// any non-empty Cloudinary variables onto the config.
//
// Variables already in the environment win, then earlier files win over later ones,
// so pass ".env.local" before ".env".
func ApplyEnv(config *Config, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	overlay := map[string]*string{
		EnvCloudName:    &config.Cloudinary.CloudName,
		EnvUploadPreset: &config.Cloudinary.UploadPreset,
		EnvAPIKey:       &config.Cloudinary.APIKey,
		EnvAPISecret:    &config.Cloudinary.APISecret,
		EnvProxyURL:     &config.Cloudinary.ProxyURL,
	}
	for name, target := range overlay {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*target = v
		}
	}

	return nil
}
