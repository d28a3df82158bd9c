package tasks

import (
	"fmt"

	"playlistporter/internal/models"
)

// ProgressUpdate represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Track   *models.Track
}

// Operation phase enumeration
type Phase int

const (
	ExportSource Phase = iota
	ResolveTracks
	CreatePlaylist
	CommitTracks
	QuotaHalt
)

func (p Phase) String() string {
	switch p {
	case ExportSource:
		return "export_source"
	case ResolveTracks:
		return "resolve_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case CommitTracks:
		return "commit_tracks"
	case QuotaHalt:
		return "quota_halt"
	default:
		return ""
	}
}

func exportSourceUpdate(sourceName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exporting playlist from %s...", sourceName),
	}
}

func resolveBatchUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("Resolved %d/%d tracks", done, total),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating destination playlist %q...", name),
	}
}

func commitBatchUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CommitTracks,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("Committed %d/%d tracks", done, total),
	}
}

func quotaHaltUpdate(done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QuotaHalt,
		Step:    done,
		Total:   total,
		Message: "Destination quota exhausted, committing results gathered so far",
	}
}
