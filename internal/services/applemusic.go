// Apple Music implementation of [Provider]
//
// Catalog search goes through the public iTunes Search API, which needs no
// credentials. Library writes go through the amp-api endpoint used by the
// music.apple.com web player, authenticated with the web session's bearer
// token and media-user-token. The two pools throttle independently, so each
// gets its own gateway.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"playlistporter/internal/gateway"
	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

type itunesSearchResult struct {
	Results []struct {
		TrackID         int    `json:"trackId"`
		TrackName       string `json:"trackName"`
		ArtistName      string `json:"artistName"`
		CollectionName  string `json:"collectionName"`
		TrackTimeMillis int    `json:"trackTimeMillis"`
	} `json:"results"`
}

type appleLibraryPlaylistsPage struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
	Next string `json:"next"`
}

// AppleMusicOptions configures an [AppleMusicService].
type AppleMusicOptions struct {
	Credentials shared.AppleMusicCredentials
	Destination shared.DestinationConfig
	RateLimit   float64
	Client      *http.Client
	Logger      *log.Logger
}

// AppleMusicService implements [Provider] against the iTunes catalog and the
// Apple Music web library API.
type AppleMusicService struct {
	search  *gateway.Gateway
	library *gateway.Gateway
	creds   shared.AppleMusicCredentials
	country string
	tol     time.Duration
	batch   int
	logger  *log.Logger
}

// NewAppleMusicService creates an Apple Music adapter from web-session
// tokens.
func NewAppleMusicService(opts AppleMusicOptions) (*AppleMusicService, error) {
	if opts.Credentials.BearerToken == "" || opts.Credentials.MediaUserToken == "" {
		return nil, fmt.Errorf("%w: applemusic bearer_token and media_user_token", shared.ErrMissingCredentials)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	searchEndpoints := opts.Destination.SearchEndpoints
	if len(searchEndpoints) == 0 {
		searchEndpoints = []string{"https://itunes.apple.com"}
	}
	libraryEndpoints := opts.Destination.Endpoints
	if len(libraryEndpoints) == 0 {
		libraryEndpoints = []string{"https://amp-api.music.apple.com"}
	}

	search, err := gateway.New(gateway.Options{
		Endpoints: searchEndpoints,
		Client:    opts.Client,
		RateLimit: opts.RateLimit,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	library, err := gateway.New(gateway.Options{
		Endpoints: libraryEndpoints,
		Client:    opts.Client,
		RateLimit: opts.RateLimit,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	country := opts.Credentials.CountryCode
	if country == "" {
		country = "us"
	}
	batch := opts.Destination.WriteBatchSize
	if batch <= 0 {
		batch = 100
	}
	tol := time.Duration(opts.Destination.SearchToleranceMS) * time.Millisecond
	if tol <= 0 {
		tol = 7 * time.Second
	}

	return &AppleMusicService{
		search:  search,
		library: library,
		creds:   opts.Credentials,
		country: country,
		tol:     tol,
		batch:   batch,
		logger:  opts.Logger,
	}, nil
}

func (s *AppleMusicService) Name() string { return "Apple Music" }

func (s *AppleMusicService) WriteBatchSize() int { return s.batch }

func (s *AppleMusicService) SearchTolerance() time.Duration { return s.tol }

// PublicURL returns the web player link for a library playlist.
func (s *AppleMusicService) PublicURL(playlistID string) string {
	return "https://music.apple.com/library/playlist/" + playlistID
}

func (s *AppleMusicService) libraryHeader() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.creds.BearerToken)
	header.Set("Media-User-Token", s.creds.MediaUserToken)
	header.Set("Origin", "https://music.apple.com")
	return header
}

// Search queries the iTunes catalog for songs.
func (s *AppleMusicService) Search(ctx context.Context, query SearchQuery, limit int) ([]models.CandidateMatch, error) {
	values := url.Values{}
	values.Set("term", query.Text())
	values.Set("media", "music")
	values.Set("entity", "song")
	values.Set("limit", strconv.Itoa(limit))
	values.Set("country", s.country)

	resp, err := s.search.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query:  values,
	})
	if err != nil {
		return nil, err
	}

	var result itunesSearchResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(result.Results))
	for _, song := range result.Results {
		candidates = append(candidates, models.CandidateMatch{
			DestinationID: strconv.Itoa(song.TrackID),
			Name:          song.TrackName,
			Artist:        song.ArtistName,
			DurationMS:    song.TrackTimeMillis,
		})
	}
	return candidates, nil
}

// CreateOrReusePlaylist probes the library for an exact name match before
// creating a new playlist.
func (s *AppleMusicService) CreateOrReusePlaylist(ctx context.Context, name string) (string, error) {
	path := "/v1/me/library/playlists?limit=100"
	for path != "" {
		resp, err := s.library.Do(ctx, gateway.Request{
			Method: http.MethodGet,
			Path:   path,
			Header: s.libraryHeader(),
		})
		if err != nil {
			return "", err
		}

		var page appleLibraryPlaylistsPage
		if err := resp.Decode(&page); err != nil {
			return "", err
		}
		for _, pl := range page.Data {
			if pl.Attributes.Name == name {
				s.logger.Info("reusing existing playlist", "name", name, "id", pl.ID)
				return pl.ID, nil
			}
		}
		path = page.Next
	}

	body, err := json.Marshal(map[string]any{
		"attributes": map[string]any{
			"name":        name,
			"description": "Transferred by porter",
		},
	})
	if err != nil {
		return "", err
	}

	resp, err := s.library.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/v1/me/library/playlists",
		Header: s.libraryHeader(),
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	var created appleLibraryPlaylistsPage
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	if len(created.Data) == 0 || created.Data[0].ID == "" {
		return "", fmt.Errorf("%w: empty playlist id in create response", shared.ErrAPIRequest)
	}
	return created.Data[0].ID, nil
}

// AddItems appends catalog songs to a library playlist.
func (s *AppleMusicService) AddItems(ctx context.Context, playlistID string, ids []string) error {
	data := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]string{"id": id, "type": "songs"})
	}
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return err
	}

	_, err = s.library.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v1/me/library/playlists/%s/tracks", playlistID),
		Header: s.libraryHeader(),
		Body:   body,
	})
	return err
}
