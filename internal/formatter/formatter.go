// package formatter renders transfer reports and playlist exports to various
// formats (plain text, Markdown, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

// ReportToText renders a transfer report as plain text for terminal output.
func ReportToText(report *models.TransferReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Transfer: %s -> %s\n", report.SourceName, report.DestName))
	buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.PlaylistName))
	if report.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", report.PlaylistURL))
	}
	buf.WriteString(fmt.Sprintf("Matched: %d/%d (%.1f%%)\n",
		report.FoundCount, report.TotalTracks, report.MatchPercentage()))
	if report.FailedWrites > 0 {
		buf.WriteString(fmt.Sprintf("Failed writes: %d\n", report.FailedWrites))
	}
	if report.QuotaHalted {
		buf.WriteString("Transfer halted early: destination quota exhausted\n")
	}

	if len(report.NotFound) > 0 {
		buf.WriteString("\nNot found:\n")
		for i, track := range report.NotFound {
			buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n",
				i+1, track.Artist, track.Title, shared.FormatDuration(track.DurationMS)))
		}
	}

	return buf.Bytes()
}

// ReportToMarkdown renders a transfer report as Markdown.
func ReportToMarkdown(report *models.TransferReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.PlaylistName))
	buf.WriteString(fmt.Sprintf("**Transfer**: %s -> %s\n", report.SourceName, report.DestName))
	if report.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: [%s](%s)\n", report.PlaylistName, report.PlaylistURL))
	}
	buf.WriteString(fmt.Sprintf("**Matched**: %d/%d (%.1f%%)\n",
		report.FoundCount, report.TotalTracks, report.MatchPercentage()))
	if report.FailedWrites > 0 {
		buf.WriteString(fmt.Sprintf("**Failed writes**: %d\n", report.FailedWrites))
	}
	if report.QuotaHalted {
		buf.WriteString("**Halted**: destination quota exhausted\n")
	}

	if len(report.NotFound) > 0 {
		buf.WriteString("\n## Not Found\n\n")
		for i, track := range report.NotFound {
			buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n",
				i+1, track.Artist, track.Title, shared.FormatDuration(track.DurationMS)))
		}
	}

	return buf.Bytes()
}

// ReportToCSV renders the unmatched tracks of a report as CSV with columns:
// Position, Title, Artist, Album, DurationMS.
func ReportToCSV(report *models.TransferReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "DurationMS"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range report.NotFound {
		record := []string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToJSON renders a transfer report as indented JSON.
func ReportToJSON(report *models.TransferReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// ExportToText renders a playlist export as plain text, one
// "Artist - Title" line per track. The output round-trips through the text
// source adapter.
func ExportToText(export *models.PlaylistExport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n", export.Playlist.Name))
	for _, track := range export.Tracks {
		if track.Artist == "" {
			buf.WriteString(track.Title + "\n")
			continue
		}
		buf.WriteString(fmt.Sprintf("%s - %s\n", track.Artist, track.Title))
	}

	return buf.Bytes()
}

// ExportToCSV renders a playlist export as CSV with columns: Title, Artist,
// Album, DurationMS.
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Album", "DurationMS"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
