package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"playlistporter/internal/shared"
)

func newTestSpotify(t *testing.T, baseURL string) *SpotifyService {
	t.Helper()
	srv, err := NewSpotifyService(SpotifyOptions{
		Credentials: shared.SpotifyCredentials{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
			AccessToken:  "test_access_token",
		},
		Destination: shared.DestinationConfig{
			Endpoints:         []string{baseURL},
			WriteBatchSize:    100,
			SearchToleranceMS: 7000,
		},
		RateLimit: 10000,
		Client:    http.DefaultClient,
	})
	if err != nil {
		t.Fatalf("NewSpotifyService: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Access Token", func(t *testing.T) {
			_, err := NewSpotifyService(SpotifyOptions{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("With Valid Credentials", func(t *testing.T) {
			srv := newTestSpotify(t, "http://unused")
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.WriteBatchSize() != 100 {
				t.Errorf("expected write batch size 100, got %d", srv.WriteBatchSize())
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		var gotQuery string
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			fmt.Fprint(w, `{"tracks":{"items":[
				{"uri":"spotify:track:1","name":"Blinding Lights","duration_ms":200040,
				 "artists":[{"name":"The Weeknd"}],"album":{"name":"After Hours"}}
			]}}`)
		}))
		defer backend.Close()

		srv := newTestSpotify(t, backend.URL)

		t.Run("Structured Query Uses Field Filters", func(t *testing.T) {
			candidates, err := srv.Search(context.Background(), SearchQuery{
				Title:  "Blinding Lights",
				Artist: "The Weeknd",
				Album:  "After Hours",
			}, 5)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}

			want := "track:Blinding Lights artist:The Weeknd album:After Hours"
			if gotQuery != want {
				t.Errorf("query = %q, want %q", gotQuery, want)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].DestinationID != "spotify:track:1" {
				t.Errorf("unexpected destination id %q", candidates[0].DestinationID)
			}
			if candidates[0].Artist != "The Weeknd" || candidates[0].DurationMS != 200040 {
				t.Errorf("unexpected candidate %+v", candidates[0])
			}
		})

		t.Run("Free Text Passes Through", func(t *testing.T) {
			if _, err := srv.Search(context.Background(), SearchQuery{FreeText: "blinding lights weeknd"}, 5); err != nil {
				t.Fatalf("Search: %v", err)
			}
			if gotQuery != "blinding lights weeknd" {
				t.Errorf("query = %q, want free text unchanged", gotQuery)
			}
		})
	})

	t.Run("CreateOrReusePlaylist", func(t *testing.T) {
		t.Run("Reuses Exact Name Match", func(t *testing.T) {
			var created bool
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/me/playlists":
					fmt.Fprint(w, `{"items":[{"id":"existing123","name":"Road Trip"}],"next":null}`)
				default:
					created = true
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			}))
			defer backend.Close()

			srv := newTestSpotify(t, backend.URL)
			id, err := srv.CreateOrReusePlaylist(context.Background(), "Road Trip")
			if err != nil {
				t.Fatalf("CreateOrReusePlaylist: %v", err)
			}
			if id != "existing123" {
				t.Errorf("expected existing id, got %q", id)
			}
			if created {
				t.Error("must not create when an exact name match exists")
			}
		})

		t.Run("Creates When No Match", func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/me/playlists":
					fmt.Fprint(w, `{"items":[{"id":"other","name":"Different"}],"next":null}`)
				case r.URL.Path == "/me":
					fmt.Fprint(w, `{"id":"user1"}`)
				case r.Method == http.MethodPost && r.URL.Path == "/users/user1/playlists":
					var body map[string]any
					if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
						t.Errorf("decode create body: %v", err)
					}
					if body["name"] != "Road Trip" {
						t.Errorf("create name = %v", body["name"])
					}
					if body["public"] != false {
						t.Error("new playlists should be private")
					}
					fmt.Fprint(w, `{"id":"new456","name":"Road Trip"}`)
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			}))
			defer backend.Close()

			srv := newTestSpotify(t, backend.URL)
			id, err := srv.CreateOrReusePlaylist(context.Background(), "Road Trip")
			if err != nil {
				t.Fatalf("CreateOrReusePlaylist: %v", err)
			}
			if id != "new456" {
				t.Errorf("expected created id, got %q", id)
			}
		})
	})

	t.Run("AddItems", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1/tracks" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if len(body.URIs) != 2 {
				t.Errorf("expected 2 uris, got %d", len(body.URIs))
			}
			fmt.Fprint(w, `{"snapshot_id":"abc"}`)
		}))
		defer backend.Close()

		srv := newTestSpotify(t, backend.URL)
		err := srv.AddItems(context.Background(), "pl1", []string{"spotify:track:1", "spotify:track:2"})
		if err != nil {
			t.Fatalf("AddItems: %v", err)
		}
	})

	t.Run("ExportPlaylist", func(t *testing.T) {
		var backend *httptest.Server
		backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/playlists/pl1" && r.URL.RawQuery == "":
				fmt.Fprint(w, `{"id":"pl1","name":"Mix","tracks":{"total":3}}`)
			case r.URL.Path == "/playlists/pl1/tracks" && r.URL.Query().Get("offset") == "":
				next := backend.URL + "/playlists/pl1/tracks?offset=2&limit=50"
				fmt.Fprintf(w, `{"items":[
					{"track":{"name":"One","duration_ms":1000,"artists":[{"name":"A"}],"album":{"name":"X"}}},
					{"track":{"name":"","duration_ms":0}}
				],"next":%q}`, next)
			case r.URL.Path == "/playlists/pl1/tracks":
				fmt.Fprint(w, `{"items":[
					{"track":{"name":"Two","duration_ms":2000,"artists":[{"name":"B"}]}}
				],"next":null}`)
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		}))
		defer backend.Close()

		srv := newTestSpotify(t, backend.URL)
		export, err := srv.ExportPlaylist(context.Background(), "https://open.spotify.com/playlist/pl1?si=xyz")
		if err != nil {
			t.Fatalf("ExportPlaylist: %v", err)
		}

		if export.Playlist.Name != "Mix" {
			t.Errorf("playlist name = %q", export.Playlist.Name)
		}
		// The empty entry on page one is dropped.
		if len(export.Tracks) != 2 {
			t.Fatalf("expected 2 tracks across pages, got %d", len(export.Tracks))
		}
		if export.Tracks[0].Title != "One" || export.Tracks[1].Title != "Two" {
			t.Errorf("unexpected track order: %+v", export.Tracks)
		}
	})
}

func TestParseSpotifyPlaylistID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "37i9dQZF1DX0XUsuxWHRQd", "37i9dQZF1DX0XUsuxWHRQd"},
		{"share url", "https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd", "37i9dQZF1DX0XUsuxWHRQd"},
		{"share url with query", "https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd?si=abc123", "37i9dQZF1DX0XUsuxWHRQd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSpotifyPlaylistID(tt.input); got != tt.want {
				t.Errorf("parseSpotifyPlaylistID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
