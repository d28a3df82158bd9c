package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"playlistporter/internal/formatter"
	"playlistporter/internal/models"
	"playlistporter/internal/shared"
	"playlistporter/internal/tasks"
)

// TransferRun runs a full playlist transfer between two services.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	source, err := r.buildSource(config, cmd.String("from"))
	if err != nil {
		return err
	}
	dest, err := r.buildProvider(config, cmd.String("to"))
	if err != nil {
		return err
	}

	r.logger.Info("starting transfer",
		"from", source.Name(), "to", dest.Name(), "playlist", cmd.String("playlist"))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ExportSource, tasks.CreatePlaylist:
				r.writePlain("%s\n", update.Message)
			case tasks.ResolveTracks, tasks.CommitTracks:
				r.writePlain("  %s\n", update.Message)
			case tasks.QuotaHalt:
				r.writePlain("! %s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewTransferEngine(source, dest, config.Transfer.ResolveBatchSize, r.logger)
	report, err := engine.Run(ctx, cmd.String("playlist"), progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	if err := r.writeReport(report, cmd.String("format")); err != nil {
		return err
	}

	if !cmd.Bool("no-save") {
		r.saveHistory(config, report)
	}
	return nil
}

func (r *Runner) writeReport(report *models.TransferReport, format string) error {
	switch format {
	case "", "text":
		_, err := r.output.Write(formatter.ReportToText(report))
		return err
	case "markdown", "md":
		_, err := r.output.Write(formatter.ReportToMarkdown(report))
		return err
	case "csv":
		data, err := formatter.ReportToCSV(report)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	case "json":
		data, err := formatter.ReportToJSON(report)
		if err != nil {
			return err
		}
		_, err = r.output.Write(append(data, '\n'))
		return err
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// saveHistory records the report; a history failure never fails a transfer
// that already happened.
func (r *Runner) saveHistory(config *shared.Config, report *models.TransferReport) {
	repo, closeDB, err := r.openHistory(config)
	if err != nil {
		r.logger.Warn("transfer not recorded in history", "error", err)
		return
	}
	defer closeDB()

	id, err := repo.Create(report)
	if err != nil {
		r.logger.Warn("transfer not recorded in history", "error", err)
		return
	}
	r.logger.Info("transfer recorded", "id", id)
}
