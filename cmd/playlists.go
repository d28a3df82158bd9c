package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"playlistporter/internal/formatter"
	"playlistporter/internal/shared"
)

// PlaylistExport exports a playlist's track listing in a chosen format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	source, err := r.buildSource(config, cmd.String("from"))
	if err != nil {
		return err
	}

	export, err := source.ExportPlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}
	r.logger.Info("exported playlist",
		"name", export.Playlist.Name, "tracks", len(export.Tracks))

	var data []byte
	switch cmd.String("format") {
	case "", "text":
		data = formatter.ExportToText(export)
	case "csv":
		if data, err = formatter.ExportToCSV(export); err != nil {
			return err
		}
	case "json":
		return r.writeExportJSON(export, cmd.String("output"))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}

	return r.writeExportData(data, cmd.String("output"))
}

func (r *Runner) writeExportJSON(export any, outputPath string) error {
	if outputPath == "" {
		return r.writeJSON(export, true)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	saved := *r
	saved.output = file
	return saved.writeJSON(export, true)
}

func (r *Runner) writeExportData(data []byte, outputPath string) error {
	if outputPath == "" {
		_, err := r.output.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	r.logger.Info("playlist written", "path", outputPath)
	return nil
}
