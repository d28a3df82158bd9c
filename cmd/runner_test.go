package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"playlistporter/internal/models"
	"playlistporter/internal/shared"
	tu "playlistporter/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"count": 3}, true); err != nil {
				t.Fatalf("writeJSON: %v", err)
			}
			if !strings.Contains(output.String(), "  \"count\": 3") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("write failure surfaces", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]int{}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})

	t.Run("buildProvider", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		config := shared.DefaultConfig()

		t.Run("unknown service", func(t *testing.T) {
			_, err := runner.buildProvider(config, "tidal")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("missing credentials", func(t *testing.T) {
			_, err := runner.buildProvider(config, "spotify")
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("service name aliases", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.YouTube.APIKey = "key"
			for _, alias := range []string{"youtube", "yt", "ytmusic", "YouTube"} {
				if _, err := runner.buildProvider(config, alias); err != nil {
					t.Errorf("alias %q: %v", alias, err)
				}
			}
		})
	})

	t.Run("buildSource", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		t.Run("text source needs no credentials", func(t *testing.T) {
			src, err := runner.buildSource(shared.DefaultConfig(), "text")
			if err != nil {
				t.Fatalf("buildSource: %v", err)
			}
			if src.Name() != "Text" {
				t.Errorf("source name = %q", src.Name())
			}
		})

		t.Run("unknown service", func(t *testing.T) {
			_, err := runner.buildSource(shared.DefaultConfig(), "cassette")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("writeReport formats", func(t *testing.T) {
		report := &models.TransferReport{
			SourceName:   "Text",
			DestName:     "YouTube",
			PlaylistName: "Mix",
			TotalTracks:  2,
			FoundCount:   2,
		}

		for _, format := range []string{"text", "markdown", "csv", "json"} {
			t.Run(format, func(t *testing.T) {
				output := &bytes.Buffer{}
				runner := NewRunner(RunnerOpts{Output: output})
				if err := runner.writeReport(report, format); err != nil {
					t.Fatalf("writeReport(%s): %v", format, err)
				}
				if output.Len() == 0 {
					t.Error("expected output")
				}
			})
		}

		t.Run("unknown format", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeReport(report, "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestSetupCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})

	// Point the default database at the temp dir so setup does not litter
	// the working directory.
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, wd)

	app := &cli.Command{Commands: []*cli.Command{setupCommand(runner)}}
	if err := app.Run(context.Background(), []string{"porter", "setup", "--config", configPath}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tu.AssertFileExists(t, configPath)
	content := tu.MustReadFile(t, configPath)
	if !strings.Contains(content, "[transfer]") {
		t.Errorf("config template missing transfer section:\n%s", content)
	}

	// Second run must be idempotent against the existing config and schema.
	if err := app.Run(context.Background(), []string{"porter", "setup", "--config", configPath}); err != nil {
		t.Fatalf("setup rerun: %v", err)
	}
}

func TestNormalizeServiceName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Spotify", "spotify"},
		{" spot ", "spotify"},
		{"YT", "youtube"},
		{"apple", "applemusic"},
		{"file", "text"},
		{"winamp", ""},
	}

	for _, tt := range tests {
		if got := normalizeServiceName(tt.input); got != tt.want {
			t.Errorf("normalizeServiceName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
