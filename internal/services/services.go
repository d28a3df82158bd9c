// package services defines the capability interfaces the transfer engine
// consumes and the per-service adapters implementing them.
//
// Spotify, YouTube, Apple Music
package services

import (
	"context"
	"strings"
	"time"

	"playlistporter/internal/models"
)

// SearchLimit is the number of candidates requested per catalog search.
const SearchLimit = 5

// SearchQuery describes one resolver tier's catalog search. Adapters format
// the fields into whatever query syntax their catalog understands; FreeText,
// when set, is passed through untouched.
type SearchQuery struct {
	Title    string
	Artist   string
	Album    string
	FreeText string
}

// Text renders the query for catalogs without structured search syntax.
func (q SearchQuery) Text() string {
	if q.FreeText != "" {
		return q.FreeText
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{q.Title, q.Artist, q.Album} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// Provider is a destination catalog the engine can resolve tracks against
// and commit a playlist to. Implementations route every network call through
// a [gateway.Gateway]; authorization state is handed in at construction and
// managed outside the engine.
type Provider interface {
	// Name returns the service name (e.g. "Spotify", "YouTube").
	Name() string

	// Search performs a free-text catalog search and returns up to limit
	// candidates in catalog rank order.
	Search(ctx context.Context, query SearchQuery, limit int) ([]models.CandidateMatch, error)

	// CreateOrReusePlaylist returns the id of an existing playlist with the
	// given name, creating one when none exists. Destinations do not
	// guarantee idempotency by name, so probing first avoids duplicates on
	// retry.
	CreateOrReusePlaylist(ctx context.Context, name string) (string, error)

	// AddItems bulk-adds destination ids to a playlist. Callers must respect
	// WriteBatchSize.
	AddItems(ctx context.Context, playlistID string, ids []string) error

	// PublicURL returns the shareable URL for a playlist id.
	PublicURL(playlistID string) string

	// WriteBatchSize is the maximum number of items one AddItems call accepts.
	WriteBatchSize() int

	// SearchTolerance is the duration window applied to title+artist tier
	// searches for this catalog.
	SearchTolerance() time.Duration
}

// Source is a service a playlist can be exported from.
type Source interface {
	// Name returns the service name.
	Name() string

	// ExportPlaylist fetches a playlist and all its tracks by id or URL.
	ExportPlaylist(ctx context.Context, idOrURL string) (*models.PlaylistExport, error)
}
