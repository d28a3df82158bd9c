package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

// TextSource implements [Source] over a plain text file with one
// "Artist - Title" entry per line. Lines without a separator are treated as
// bare titles; blank lines and #-prefixed comments are skipped.
type TextSource struct{}

// NewTextSource creates a text file source.
func NewTextSource() *TextSource {
	return &TextSource{}
}

func (s *TextSource) Name() string { return "Text" }

// ExportPlaylist reads tracks from the file at path. The playlist takes its
// name from the file name without its extension.
func (s *TextSource) ExportPlaylist(ctx context.Context, path string) (*models.PlaylistExport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}
	defer file.Close()

	base := filepath.Base(path)
	export := &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:   path,
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
		},
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		track := models.Track{Title: line}
		if artist, title, found := strings.Cut(line, " - "); found {
			artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
			if artist != "" && title != "" {
				track = models.Track{Title: title, Artist: artist}
			}
		}
		export.Tracks = append(export.Tracks, track)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(export.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, path)
	}
	export.Playlist.TrackCount = len(export.Tracks)
	return export, nil
}
