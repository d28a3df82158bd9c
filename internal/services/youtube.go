// YouTube implementation of [Provider] and [Source]
//
// Uses the YouTube Data API v3. Reads authenticate with an API key; playlist
// writes require an OAuth access token. Search results carry no durations, so
// candidates are hydrated through the videos endpoint before scoring.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"playlistporter/internal/gateway"
	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

// YouTubeVideo is the subset of a video resource the engine needs.
type YouTubeVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"` // ISO 8601, e.g. PT3M42S
	} `json:"contentDetails"`
}

type youtubeSearchPage struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubePlaylistItemsPage struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			ResourceID   struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type youtubePlaylistsPage struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		ContentDetails struct {
			ItemCount int `json:"itemCount"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// YouTubeOptions configures a [YouTubeService].
type YouTubeOptions struct {
	Credentials shared.YouTubeCredentials
	Destination shared.DestinationConfig
	RateLimit   float64
	Client      *http.Client
	Logger      *log.Logger
}

// YouTubeService implements [Provider] and [Source] against the YouTube Data
// API.
type YouTubeService struct {
	gw     *gateway.Gateway
	apiKey string
	token  string
	tol    time.Duration
	batch  int
	logger *log.Logger
}

// YouTubeClassifier maps YouTube error responses to typed errors. Quota
// exhaustion arrives as a 403 whose error body carries the reason
// "quotaExceeded"; it must not be confused with an authorization failure.
func YouTubeClassifier(status int, body []byte) error {
	if status == http.StatusForbidden {
		var payload struct {
			Error struct {
				Errors []struct {
					Reason string `json:"reason"`
				} `json:"errors"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			for _, e := range payload.Error.Errors {
				if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
					return shared.ErrQuotaExceeded
				}
			}
		}
	}
	return gateway.DefaultClassifier(status, body)
}

// NewYouTubeService creates a YouTube adapter. An API key alone supports
// search and export; playlist writes additionally need an access token, which
// is checked at write time rather than construction.
func NewYouTubeService(opts YouTubeOptions) (*YouTubeService, error) {
	if opts.Credentials.APIKey == "" && opts.Credentials.AccessToken == "" {
		return nil, fmt.Errorf("%w: youtube api_key or access_token", shared.ErrMissingCredentials)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	endpoints := opts.Destination.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{"https://www.googleapis.com/youtube/v3"}
	}

	gw, err := gateway.New(gateway.Options{
		Endpoints: endpoints,
		Client:    opts.Client,
		RateLimit: opts.RateLimit,
		Classify:  YouTubeClassifier,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	batch := opts.Destination.WriteBatchSize
	if batch <= 0 {
		batch = 1 // playlistItems.insert takes one video per call
	}
	tol := time.Duration(opts.Destination.SearchToleranceMS) * time.Millisecond
	if tol <= 0 {
		tol = 15 * time.Second
	}

	return &YouTubeService{
		gw:     gw,
		apiKey: opts.Credentials.APIKey,
		token:  opts.Credentials.AccessToken,
		tol:    tol,
		batch:  batch,
		logger: opts.Logger,
	}, nil
}

func (s *YouTubeService) Name() string { return "YouTube" }

func (s *YouTubeService) WriteBatchSize() int { return s.batch }

func (s *YouTubeService) SearchTolerance() time.Duration { return s.tol }

// PublicURL returns the watchable playlist link.
func (s *YouTubeService) PublicURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}

func (s *YouTubeService) authQuery(values url.Values) url.Values {
	if s.apiKey != "" {
		values.Set("key", s.apiKey)
	}
	return values
}

func (s *YouTubeService) authHeader() (http.Header, error) {
	if s.token == "" {
		return nil, fmt.Errorf("%w: youtube access_token required for playlist writes", shared.ErrAuthRequired)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)
	return header, nil
}

// Search looks up videos for a query and hydrates the hits with their
// durations so the resolver's duration window can apply.
func (s *YouTubeService) Search(ctx context.Context, query SearchQuery, limit int) ([]models.CandidateMatch, error) {
	values := url.Values{}
	values.Set("part", "snippet")
	values.Set("type", "video")
	values.Set("q", query.Text())
	values.Set("maxResults", strconv.Itoa(limit))

	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query:  s.authQuery(values),
	})
	if err != nil {
		return nil, err
	}

	var page youtubeSearchPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := s.fetchVideos(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(videos))
	for _, video := range videos {
		title, artist := ParseVideoTitle(video.Snippet.Title, video.Snippet.ChannelTitle)
		candidates = append(candidates, models.CandidateMatch{
			DestinationID: video.ID,
			Name:          title,
			Artist:        artist,
			DurationMS:    ParseISODuration(video.ContentDetails.Duration),
		})
	}
	return candidates, nil
}

func (s *YouTubeService) fetchVideos(ctx context.Context, ids []string) ([]YouTubeVideo, error) {
	values := url.Values{}
	values.Set("part", "snippet,contentDetails")
	values.Set("id", strings.Join(ids, ","))

	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/videos",
		Query:  s.authQuery(values),
	})
	if err != nil {
		return nil, err
	}

	var page struct {
		Items []YouTubeVideo `json:"items"`
	}
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateOrReusePlaylist probes the channel's own playlists for an exact title
// match before creating a new one.
func (s *YouTubeService) CreateOrReusePlaylist(ctx context.Context, name string) (string, error) {
	header, err := s.authHeader()
	if err != nil {
		return "", err
	}

	pageToken := ""
	for {
		values := url.Values{}
		values.Set("part", "snippet")
		values.Set("mine", "true")
		values.Set("maxResults", "50")
		if pageToken != "" {
			values.Set("pageToken", pageToken)
		}

		resp, err := s.gw.Do(ctx, gateway.Request{
			Method: http.MethodGet,
			Path:   "/playlists",
			Query:  s.authQuery(values),
			Header: header,
		})
		if err != nil {
			return "", err
		}

		var page youtubePlaylistsPage
		if err := resp.Decode(&page); err != nil {
			return "", err
		}
		for _, pl := range page.Items {
			if pl.Snippet.Title == name {
				s.logger.Info("reusing existing playlist", "name", name, "id", pl.ID)
				return pl.ID, nil
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	body, err := json.Marshal(map[string]any{
		"snippet": map[string]any{
			"title":       name,
			"description": "Transferred by porter",
		},
		"status": map[string]any{"privacyStatus": "private"},
	})
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("part", "snippet,status")
	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/playlists",
		Query:  s.authQuery(values),
		Header: header,
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := resp.Decode(&created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: empty playlist id in create response", shared.ErrAPIRequest)
	}
	return created.ID, nil
}

// AddItems inserts videos into a playlist. The API takes one video per call,
// so each id is its own request.
func (s *YouTubeService) AddItems(ctx context.Context, playlistID string, ids []string) error {
	header, err := s.authHeader()
	if err != nil {
		return err
	}

	values := url.Values{}
	values.Set("part", "snippet")
	for _, id := range ids {
		body, err := json.Marshal(map[string]any{
			"snippet": map[string]any{
				"playlistId": playlistID,
				"resourceId": map[string]any{
					"kind":    "youtube#video",
					"videoId": id,
				},
			},
		})
		if err != nil {
			return err
		}

		if _, err := s.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			Path:   "/playlistItems",
			Query:  s.authQuery(values),
			Header: header,
			Body:   body,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ExportPlaylist fetches a playlist's videos and derives track metadata from
// their titles and channels. Accepts a playlist id or a youtube.com URL with
// a list parameter.
func (s *YouTubeService) ExportPlaylist(ctx context.Context, idOrURL string) (*models.PlaylistExport, error) {
	playlistID := parseYouTubePlaylistID(idOrURL)

	values := url.Values{}
	values.Set("part", "snippet,contentDetails")
	values.Set("id", playlistID)
	resp, err := s.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/playlists",
		Query:  s.authQuery(values),
	})
	if err != nil {
		return nil, err
	}

	var meta youtubePlaylistsPage
	if err := resp.Decode(&meta); err != nil {
		return nil, err
	}
	if len(meta.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	export := &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          meta.Items[0].ID,
			Name:        meta.Items[0].Snippet.Title,
			Description: meta.Items[0].Snippet.Description,
			TrackCount:  meta.Items[0].ContentDetails.ItemCount,
		},
	}

	pageToken := ""
	for {
		values := url.Values{}
		values.Set("part", "snippet")
		values.Set("playlistId", playlistID)
		values.Set("maxResults", "50")
		if pageToken != "" {
			values.Set("pageToken", pageToken)
		}

		resp, err := s.gw.Do(ctx, gateway.Request{
			Method: http.MethodGet,
			Path:   "/playlistItems",
			Query:  s.authQuery(values),
		})
		if err != nil {
			return nil, err
		}

		var page youtubePlaylistItemsPage
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			if item.Snippet.ResourceID.VideoID != "" {
				ids = append(ids, item.Snippet.ResourceID.VideoID)
			}
		}

		durations := map[string]int{}
		if len(ids) > 0 {
			videos, err := s.fetchVideos(ctx, ids)
			if err != nil {
				return nil, err
			}
			for _, video := range videos {
				durations[video.ID] = ParseISODuration(video.ContentDetails.Duration)
			}
		}

		for _, item := range page.Items {
			if item.Snippet.Title == "Deleted video" || item.Snippet.Title == "Private video" {
				continue
			}
			title, artist := ParseVideoTitle(item.Snippet.Title, item.Snippet.ChannelTitle)
			export.Tracks = append(export.Tracks, models.Track{
				Title:      title,
				Artist:     artist,
				DurationMS: durations[item.Snippet.ResourceID.VideoID],
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return export, nil
}

var videoTitleSeparators = []string{" - ", " – ", " -- ", " by "}

// ParseVideoTitle splits a video title into track title and artist. Dashed
// titles follow "Artist - Title" while " by " inverts the order; when no
// separator is present the channel name stands in for the artist, minus the
// " - Topic" and "VEVO" suffixes auto-generated channels carry.
func ParseVideoTitle(videoTitle, channelTitle string) (title, artist string) {
	for _, sep := range videoTitleSeparators {
		if i := strings.Index(videoTitle, sep); i >= 0 {
			before := strings.TrimSpace(videoTitle[:i])
			after := strings.TrimSpace(videoTitle[i+len(sep):])
			if before == "" || after == "" {
				continue
			}
			if sep == " by " {
				return before, after
			}
			return after, before
		}
	}

	artist = strings.TrimSuffix(channelTitle, " - Topic")
	artist = strings.TrimSuffix(artist, "VEVO")
	return strings.TrimSpace(videoTitle), strings.TrimSpace(artist)
}

var isoDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts an ISO 8601 duration like PT1H2M3S to
// milliseconds. Malformed or empty input yields 0, which downstream treats as
// unknown.
func ParseISODuration(iso string) int {
	m := isoDurationRegex.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return ((hours*60+minutes)*60 + seconds) * 1000
}

// parseYouTubePlaylistID extracts the list parameter from a playlist URL, or
// returns the input unchanged when it is already an id.
func parseYouTubePlaylistID(idOrURL string) string {
	if !strings.Contains(idOrURL, "://") {
		return idOrURL
	}
	parsed, err := url.Parse(idOrURL)
	if err != nil {
		return idOrURL
	}
	if list := parsed.Query().Get("list"); list != "" {
		return list
	}
	return idOrURL
}
