package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Valid Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[transfer]
resolve_batch_size = 5
rate_limit = 2.5

[credentials.spotify]
client_id = "abc"

[destinations.youtube]
endpoints = ["https://primary", "https://fallback"]
write_batch_size = 1
search_tolerance_ms = 15000

[database]
path = "test.db"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if config.Transfer.ResolveBatchSize != 5 || config.Transfer.RateLimit != 2.5 {
			t.Errorf("transfer section = %+v", config.Transfer)
		}
		if len(config.Destinations.YouTube.Endpoints) != 2 {
			t.Errorf("expected endpoint pool of 2, got %v", config.Destinations.YouTube.Endpoints)
		}
		if config.Credentials.Spotify.ClientID != "abc" {
			t.Errorf("credentials = %+v", config.Credentials.Spotify)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Malformed TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Transfer.ResolveBatchSize != 10 {
		t.Errorf("resolve batch size = %d, want 10", config.Transfer.ResolveBatchSize)
	}
	if config.Destinations.YouTube.WriteBatchSize != 1 {
		t.Errorf("youtube write batch = %d, want 1", config.Destinations.YouTube.WriteBatchSize)
	}
	if config.Destinations.Spotify.WriteBatchSize != 100 {
		t.Errorf("spotify write batch = %d, want 100", config.Destinations.Spotify.WriteBatchSize)
	}
	if len(config.Destinations.AppleMusic.SearchEndpoints) == 0 {
		t.Error("apple music search endpoint pool missing")
	}
	if config.Database.Path == "" {
		t.Error("database path missing")
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("created config does not parse: %v", err)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	config := DefaultConfig()
	config.Credentials.Spotify.AccessToken = "fresh-token"
	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Credentials.Spotify.AccessToken != "fresh-token" {
		t.Error("token not round-tripped")
	}
	if loaded.Destinations.YouTube.SearchToleranceMS != config.Destinations.YouTube.SearchToleranceMS {
		t.Error("destination tuning not round-tripped")
	}
}
