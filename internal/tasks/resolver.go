package tasks

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"playlistporter/internal/match"
	"playlistporter/internal/models"
	"playlistporter/internal/services"
	"playlistporter/internal/shared"
)

const (
	// tier1ToleranceMS is the duration window for the full-metadata query.
	tier1ToleranceMS = 5000

	// Tier-3 widens the window to a share of the track's own length, with a
	// floor so short tracks are not filtered into oblivion.
	tier3DurationRatio    = 0.15
	tier3ToleranceFloorMS = 10000
)

// Resolver finds the destination catalog item for a source track by issuing
// a sequence of progressively looser searches.
//
// Queries 1 (title+artist+album, when album metadata exists) and 2
// (title+artist) contribute to one merged candidate pool, each filtered by
// its own duration window, scored together. Query 3 falls back to normalized
// free text when the pool produced nothing.
type Resolver struct {
	provider services.Provider
	logger   *log.Logger
}

// NewResolver creates a Resolver against a destination catalog.
func NewResolver(provider services.Provider, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Resolver{provider: provider, logger: logger}
}

// Resolve returns the destination id for a track, or "" when no candidate
// survives any query. The only error it returns is quota exhaustion, which
// the orchestrator must treat as a halt signal; any other search failure is
// logged and treated as a miss for that query.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) (string, error) {
	pool := make([]models.CandidateMatch, 0, 2*services.SearchLimit)
	seen := make(map[string]bool)
	merge := func(candidates []models.CandidateMatch, toleranceMS int) {
		for _, c := range candidates {
			if seen[c.DestinationID] || !match.WithinTolerance(track, c, toleranceMS) {
				continue
			}
			seen[c.DestinationID] = true
			pool = append(pool, c)
		}
	}

	if track.Album != "" {
		candidates, err := r.search(ctx, track, services.SearchQuery{
			Title:  track.Title,
			Artist: track.Artist,
			Album:  track.Album,
		})
		if err != nil {
			return "", err
		}
		merge(candidates, tier1ToleranceMS)
	}

	candidates, err := r.search(ctx, track, services.SearchQuery{
		Title:  track.Title,
		Artist: track.Artist,
	})
	if err != nil {
		return "", err
	}
	merge(candidates, int(r.provider.SearchTolerance()/time.Millisecond))

	if i := match.BestCandidate(track, pool, match.ToleranceUnlimited); i >= 0 {
		return pool[i].DestinationID, nil
	}

	free := strings.TrimSpace(match.Normalize(track.Artist) + " " + match.Normalize(track.Title))
	if free == "" {
		return "", nil
	}
	candidates, err = r.search(ctx, track, services.SearchQuery{FreeText: free})
	if err != nil {
		return "", err
	}

	tolerance := match.ToleranceUnlimited
	if track.DurationMS > 0 {
		tolerance = int(tier3DurationRatio * float64(track.DurationMS))
		if tolerance < tier3ToleranceFloorMS {
			tolerance = tier3ToleranceFloorMS
		}
	}
	if i := match.BestCandidate(track, candidates, tolerance); i >= 0 {
		return candidates[i].DestinationID, nil
	}
	return "", nil
}

// search runs one query, swallowing everything except quota exhaustion. A
// failed query for one track must not abort the rest of the transfer.
func (r *Resolver) search(ctx context.Context, track models.Track, query services.SearchQuery) ([]models.CandidateMatch, error) {
	candidates, err := r.provider.Search(ctx, query, services.SearchLimit)
	if err != nil {
		if errors.Is(err, shared.ErrQuotaExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		r.logger.Warn("search failed, treating as miss",
			"title", track.Title, "artist", track.Artist, "err", err)
		return nil, nil
	}
	return candidates, nil
}
