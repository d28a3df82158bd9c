package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"playlistporter/internal/server"
	"playlistporter/internal/services"
	"playlistporter/internal/shared"
)

// authTimeout bounds how long the callback server waits for the browser.
const authTimeout = 5 * time.Minute

// authCommand acquires and stores service tokens
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize porter with a music service",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Run the Spotify OAuth flow and store the access token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthSpotify,
			},
		},
	}
}

// AuthSpotify runs the authorization code flow against Spotify and writes
// the resulting access token back into the config file.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("run `porter setup` first: %w", err)
	}

	creds := config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set in %s",
			shared.ErrMissingCredentials, configPath)
	}

	flow, err := server.NewOAuthFlow(services.SpotifyOAuthConfig(creds))
	if err != nil {
		return err
	}

	r.writePlain("Open this URL in your browser to authorize:\n\n  %s\n\n", flow.AuthURL())
	r.writePlain("Waiting for authorization...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := flow.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	config.Credentials.Spotify.AccessToken = token.AccessToken
	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}

	r.logger.Info("spotify token stored", "path", configPath, "expires", token.Expiry)
	r.writePlain("Authorization successful. Token saved to %s\n", configPath)
	return nil
}
