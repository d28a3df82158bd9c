package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"playlistporter/internal/formatter"
	"playlistporter/internal/shared"
)

// HistoryList lists recent transfer records.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openHistory(r.loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No transfers recorded yet.\n")
		return nil
	}
	for _, record := range records {
		r.writePlain("%s  %s  %s -> %s  %q  %d/%d",
			record.ID,
			record.CreatedAt.Format("2006-01-02 15:04"),
			record.Report.SourceName,
			record.Report.DestName,
			record.Report.PlaylistName,
			record.Report.FoundCount,
			record.Report.TotalTracks,
		)
		if record.Report.QuotaHalted {
			r.writePlain("  (quota halted)")
		}
		r.writePlain("\n")
	}
	return nil
}

// HistoryShow prints one transfer record in full.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: transfer id required", shared.ErrInvalidArgument)
	}

	repo, closeDB, err := r.openHistory(r.loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeDB()

	record, err := repo.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(record, true)
	}

	r.writePlain("Recorded: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	_, err = r.output.Write(formatter.ReportToText(&record.Report))
	return err
}

// HistoryDelete removes a transfer record.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: transfer id required", shared.ErrInvalidArgument)
	}

	repo, closeDB, err := r.openHistory(r.loadConfig(cmd))
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Delete(id); err != nil {
		return err
	}
	r.writePlain("Deleted transfer %s\n", id)
	return nil
}
