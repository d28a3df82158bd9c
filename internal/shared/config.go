package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Transfer     TransferConfig     `toml:"transfer"`
	Credentials  CredentialsConfig  `toml:"credentials"`
	Destinations DestinationsConfig `toml:"destinations"`
	Database     DatabaseConfig     `toml:"database"`
}

// TransferConfig contains knobs shared by every transfer run.
type TransferConfig struct {
	ResolveBatchSize int     `toml:"resolve_batch_size"` // concurrent searches per batch
	RateLimit        float64 `toml:"rate_limit"`         // requests per second per destination
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyCredentials    `toml:"spotify"`
	YouTube    YouTubeCredentials    `toml:"youtube"`
	AppleMusic AppleMusicCredentials `toml:"applemusic"`
}

// SpotifyCredentials contains Spotify API credentials.
type SpotifyCredentials struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
}

// YouTubeCredentials contains YouTube Data API credentials.
type YouTubeCredentials struct {
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
}

// AppleMusicCredentials contains Apple Music web-session tokens.
type AppleMusicCredentials struct {
	BearerToken    string `toml:"bearer_token"`
	MediaUserToken string `toml:"media_user_token"`
	CountryCode    string `toml:"country_code"`
}

// DestinationsConfig contains the per-destination tuning tables.
type DestinationsConfig struct {
	Spotify    DestinationConfig `toml:"spotify"`
	YouTube    DestinationConfig `toml:"youtube"`
	AppleMusic DestinationConfig `toml:"applemusic"`
}

// DestinationConfig tunes the gateway and resolver for one destination catalog.
type DestinationConfig struct {
	Endpoints         []string `toml:"endpoints"`           // API base URL pool, rotated on throttling
	SearchEndpoints   []string `toml:"search_endpoints"`    // separate search pool (Apple Music only)
	WriteBatchSize    int      `toml:"write_batch_size"`    // items per addItems call
	SearchToleranceMS int      `toml:"search_tolerance_ms"` // tier-2 duration window
}

// DatabaseConfig contains transfer-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// SaveConfig writes a Config back to a TOML file. Used by the auth commands
// to persist freshly acquired tokens.
func SaveConfig(path string, config *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open config for writing: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
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
