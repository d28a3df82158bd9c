package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"playlistporter/internal/repositories"
	"playlistporter/internal/services"
	"playlistporter/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for
// each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, transferCommand, playlistsCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file named by the command's --config flag,
// falling back to the runner's existing config when the file is absent or
// unreadable.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Debug("config not loaded, using defaults", "path", path, "error", err)
		return r.config
	}
	return config
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

// buildProvider constructs the destination adapter for a service name.
func (r *Runner) buildProvider(config *shared.Config, name string) (services.Provider, error) {
	switch normalizeServiceName(name) {
	case "spotify":
		return services.NewSpotifyService(services.SpotifyOptions{
			Credentials: config.Credentials.Spotify,
			Destination: config.Destinations.Spotify,
			RateLimit:   config.Transfer.RateLimit,
			Client:      r.httpClient,
			Logger:      r.logger,
		})
	case "youtube":
		return services.NewYouTubeService(services.YouTubeOptions{
			Credentials: config.Credentials.YouTube,
			Destination: config.Destinations.YouTube,
			RateLimit:   config.Transfer.RateLimit,
			Client:      r.httpClient,
			Logger:      r.logger,
		})
	case "applemusic":
		return services.NewAppleMusicService(services.AppleMusicOptions{
			Credentials: config.Credentials.AppleMusic,
			Destination: config.Destinations.AppleMusic,
			RateLimit:   config.Transfer.RateLimit,
			Client:      r.httpClient,
			Logger:      r.logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown destination service %q", shared.ErrInvalidArgument, name)
	}
}

// buildSource constructs the source adapter for a service name.
func (r *Runner) buildSource(config *shared.Config, name string) (services.Source, error) {
	switch normalizeServiceName(name) {
	case "spotify":
		return services.NewSpotifyService(services.SpotifyOptions{
			Credentials: config.Credentials.Spotify,
			Destination: config.Destinations.Spotify,
			RateLimit:   config.Transfer.RateLimit,
			Client:      r.httpClient,
			Logger:      r.logger,
		})
	case "youtube":
		return services.NewYouTubeService(services.YouTubeOptions{
			Credentials: config.Credentials.YouTube,
			Destination: config.Destinations.YouTube,
			RateLimit:   config.Transfer.RateLimit,
			Client:      r.httpClient,
			Logger:      r.logger,
		})
	case "text":
		return services.NewTextSource(), nil
	default:
		return nil, fmt.Errorf("%w: unknown source service %q", shared.ErrInvalidArgument, name)
	}
}

// openHistory opens the transfer history store from config.
func (r *Runner) openHistory(config *shared.Config) (*repositories.TransferRepository, func(), error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewTransferRepository(db), func() { db.Close() }, nil
}

func normalizeServiceName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spotify", "spot":
		return "spotify"
	case "youtube", "yt", "ytmusic":
		return "youtube"
	case "applemusic", "apple", "itunes":
		return "applemusic"
	case "text", "file", "txt":
		return "text"
	default:
		return ""
	}
}
