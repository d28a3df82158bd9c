package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"playlistporter/internal/shared"
)

func writeTrackFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write track file: %v", err)
	}
	return path
}

func TestTextSource(t *testing.T) {
	src := NewTextSource()

	t.Run("Parses Artist And Title Lines", func(t *testing.T) {
		path := writeTrackFile(t, "road trip.txt", `# summer mix
The Weeknd - Blinding Lights

Daft Punk - One More Time
Bohemian Rhapsody
`)

		export, err := src.ExportPlaylist(context.Background(), path)
		if err != nil {
			t.Fatalf("ExportPlaylist: %v", err)
		}

		if export.Playlist.Name != "road trip" {
			t.Errorf("playlist name = %q, want file stem", export.Playlist.Name)
		}
		if len(export.Tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(export.Tracks))
		}
		if export.Tracks[0].Artist != "The Weeknd" || export.Tracks[0].Title != "Blinding Lights" {
			t.Errorf("unexpected first track %+v", export.Tracks[0])
		}
		// A line without a separator becomes a bare title.
		if export.Tracks[2].Title != "Bohemian Rhapsody" || export.Tracks[2].Artist != "" {
			t.Errorf("unexpected bare title track %+v", export.Tracks[2])
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := src.ExportPlaylist(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		path := writeTrackFile(t, "empty.txt", "\n# only a comment\n")
		_, err := src.ExportPlaylist(context.Background(), path)
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
	})
}
