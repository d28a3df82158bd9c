// Spotify implementation of [Provider] and [Source]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"playlistporter/internal/gateway"
	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// SpotifyTrack represents a Spotify track object.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist object.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album object.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Public       bool                `json:"public"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	Tracks       struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPlaylistTracksPage struct {
	Items []struct {
		Track SpotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

type spotifyPlaylistsPage struct {
	Items []SpotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	Credentials shared.SpotifyCredentials
	Destination shared.DestinationConfig
	RateLimit   float64
	Client      *http.Client // overrides the oauth2 client, for tests
	Logger      *log.Logger
}

// SpotifyService implements [Provider] and [Source] against the Spotify Web
// API. All requests flow through its gateway.
type SpotifyService struct {
	gw     *gateway.Gateway
	config *oauth2.Config
	tol    time.Duration
	batch  int
	logger *log.Logger
}

// SpotifyOAuthConfig builds the OAuth2 config for the Spotify authorization
// code flow. The auth command uses it to acquire tokens; the adapter uses it
// to build its authorized client.
func SpotifyOAuthConfig(creds shared.SpotifyCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// NewSpotifyService creates a Spotify adapter from an already-acquired
// access token. Token acquisition (the OAuth redirect dance) happens in the
// auth command; a missing token is a precondition failure.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.Credentials.AccessToken == "" {
		return nil, fmt.Errorf("%w: spotify access_token", shared.ErrMissingCredentials)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	config := SpotifyOAuthConfig(opts.Credentials)

	client := opts.Client
	if client == nil {
		token := &oauth2.Token{AccessToken: opts.Credentials.AccessToken}
		client = config.Client(context.Background(), token)
	}

	endpoints := opts.Destination.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{"https://api.spotify.com/v1"}
	}

	gw, err := gateway.New(gateway.Options{
		Endpoints: endpoints,
		Client:    client,
		RateLimit: opts.RateLimit,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	batch := opts.Destination.WriteBatchSize
	if batch <= 0 {
		batch = 100
	}
	tol := time.Duration(opts.Destination.SearchToleranceMS) * time.Millisecond
	if tol <= 0 {
		tol = 7 * time.Second
	}

	return &SpotifyService{
		gw:     gw,
		config: config,
		tol:    tol,
		batch:  batch,
		logger: opts.Logger,
	}, nil
}

func (s *SpotifyService) Name() string { return "Spotify" }

func (s *SpotifyService) WriteBatchSize() int { return s.batch }

func (s *SpotifyService) SearchTolerance() time.Duration { return s.tol }

// PublicURL returns the open.spotify.com link for a playlist id.
func (s *SpotifyService) PublicURL(playlistID string) string {
	return "https://open.spotify.com/playlist/" + playlistID
}

// Search performs a catalog search. Structured queries use Spotify's
// field-filter syntax (track:/artist:/album:); tier-3 free text goes
// through as-is.
func (s *SpotifyService) Search(ctx context.Context, query SearchQuery, limit int) ([]models.CandidateMatch, error) {
	q := query.FreeText
	if q == "" {
		var parts []string
		if query.Title != "" {
			parts = append(parts, "track:"+query.Title)
		}
		if query.Artist != "" {
			parts = append(parts, "artist:"+query.Artist)
		}
		if query.Album != "" {
			parts = append(parts, "album:"+query.Album)
		}
		q = strings.Join(parts, " ")
	}

	values := url.Values{}
	values.Set("q", q)
	values.Set("type", "track")
	values.Set("limit", strconv.Itoa(limit))

	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query:  values,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		candidate := models.CandidateMatch{
			DestinationID: item.URI,
			Name:          item.Name,
			DurationMS:    item.DurationMS,
		}
		if len(item.Artists) > 0 {
			candidate.Artist = item.Artists[0].Name
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// CreateOrReusePlaylist probes the user's playlists for an exact name match
// and creates a new private playlist when none exists.
func (s *SpotifyService) CreateOrReusePlaylist(ctx context.Context, name string) (string, error) {
	path := "/me/playlists?limit=50"
	for path != "" {
		resp, err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path})
		if err != nil {
			return "", err
		}

		var page spotifyPlaylistsPage
		if err := resp.Decode(&page); err != nil {
			return "", err
		}
		for _, pl := range page.Items {
			if pl.Name == name {
				s.logger.Info("reusing existing playlist", "name", name, "id", pl.ID)
				return pl.ID, nil
			}
		}

		path = ""
		if page.Next != nil {
			path = strings.TrimPrefix(*page.Next, s.gw.ActiveEndpoint())
		}
	}

	var user struct {
		ID string `json:"id"`
	}
	resp, err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/me"})
	if err != nil {
		return "", err
	}
	if err := resp.Decode(&user); err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"name":        name,
		"description": "Transferred by porter",
		"public":      false,
	})
	if err != nil {
		return "", err
	}

	resp, err = s.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/users/%s/playlists", user.ID),
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	var created SpotifyPlaylist
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: empty playlist id in create response", shared.ErrAPIRequest)
	}
	return created.ID, nil
}

// AddItems appends track URIs to a playlist. Spotify accepts up to 100 per
// call.
func (s *SpotifyService) AddItems(ctx context.Context, playlistID string, ids []string) error {
	body, err := json.Marshal(map[string]any{"uris": ids})
	if err != nil {
		return err
	}

	_, err = s.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/playlists/%s/tracks", playlistID),
		Body:   body,
	})
	return err
}

// ExportPlaylist fetches a playlist with its full track listing. Accepts a
// raw id or an open.spotify.com URL.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, idOrURL string) (*models.PlaylistExport, error) {
	playlistID := parseSpotifyPlaylistID(idOrURL)

	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/playlists/" + playlistID,
	})
	if err != nil {
		return nil, err
	}

	var playlist SpotifyPlaylist
	if err := resp.Decode(&playlist); err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          playlist.ID,
			Name:        playlist.Name,
			Description: playlist.Description,
			TrackCount:  playlist.Tracks.Total,
			Public:      playlist.Public,
		},
	}

	path := fmt.Sprintf("/playlists/%s/tracks?limit=50", playlistID)
	for path != "" {
		resp, err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path})
		if err != nil {
			return nil, err
		}

		var page spotifyPlaylistTracksPage
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.Name == "" {
				continue // removed or local-only entries come back empty
			}
			track := models.Track{
				Title:      item.Track.Name,
				Album:      item.Track.Album.Name,
				DurationMS: item.Track.DurationMS,
			}
			if len(item.Track.Artists) > 0 {
				track.Artist = item.Track.Artists[0].Name
			}
			export.Tracks = append(export.Tracks, track)
		}

		path = ""
		if page.Next != nil {
			path = strings.TrimPrefix(*page.Next, s.gw.ActiveEndpoint())
		}
	}

	return export, nil
}

// parseSpotifyPlaylistID extracts the playlist id from a share URL, or
// returns the input unchanged when it is already an id.
func parseSpotifyPlaylistID(idOrURL string) string {
	s := idOrURL
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	return s
}
