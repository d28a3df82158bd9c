package models

// Track represents a music track exported from a source service.
//
// Album may be empty; DurationMS of 0 means the duration is unknown and
// disables duration filtering for that track.
type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int    `json:"duration_ms"`
}

// CandidateMatch is one search result from a destination catalog.
type CandidateMatch struct {
	DestinationID string // opaque catalog identifier (URI, video ID, store ID)
	Name          string
	Artist        string
	DurationMS    int
}

// ResolutionResult is the outcome of resolving a single source track against
// a destination catalog. DestinationID is empty when the track was not found.
type ResolutionResult struct {
	OriginalIndex int
	Track         Track
	DestinationID string
}

// Found reports whether the resolution produced a destination identifier.
func (r ResolutionResult) Found() bool {
	return r.DestinationID != ""
}

// TransferReport summarizes one completed transfer run.
//
// NotFound preserves the source ordering of unmatched tracks. FoundCount is
// the number of resolved ids actually submitted to the destination.
type TransferReport struct {
	SourceName   string  `json:"source_name"`
	DestName     string  `json:"dest_name"`
	PlaylistName string  `json:"playlist_name"`
	PlaylistURL  string  `json:"playlist_url"`
	TotalTracks  int     `json:"total_tracks"`
	FoundCount   int     `json:"found_count"`
	FailedWrites int     `json:"failed_writes"`
	QuotaHalted  bool    `json:"quota_halted"`
	NotFound     []Track `json:"not_found"`
}

// MatchPercentage returns the share of source tracks that were committed.
func (t TransferReport) MatchPercentage() float64 {
	if t.TotalTracks == 0 {
		return 0
	}
	return float64(t.FoundCount) / float64(t.TotalTracks) * 100
}

// Playlist represents playlist metadata from any service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// PlaylistExport represents a playlist with its full track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}
