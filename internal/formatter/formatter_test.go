package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"playlistporter/internal/models"
)

func sampleReport() *models.TransferReport {
	return &models.TransferReport{
		SourceName:   "Spotify",
		DestName:     "YouTube",
		PlaylistName: "Road Trip",
		PlaylistURL:  "https://www.youtube.com/playlist?list=abc",
		TotalTracks:  10,
		FoundCount:   9,
		QuotaHalted:  true,
		NotFound: []models.Track{
			{Title: "Obscure B-Side", Artist: "Nobody", Album: "Rarities", DurationMS: 123000},
		},
	}
}

func TestReportToText(t *testing.T) {
	out := string(ReportToText(sampleReport()))

	for _, want := range []string{
		"Spotify -> YouTube",
		"Road Trip",
		"9/10 (90.0%)",
		"quota exhausted",
		"Nobody - Obscure B-Side [2:03]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestReportToMarkdown(t *testing.T) {
	out := string(ReportToMarkdown(sampleReport()))

	if !strings.HasPrefix(out, "# Road Trip\n") {
		t.Errorf("expected playlist heading, got:\n%s", out)
	}
	if !strings.Contains(out, "[Road Trip](https://www.youtube.com/playlist?list=abc)") {
		t.Error("expected markdown playlist link")
	}
	if !strings.Contains(out, "## Not Found") {
		t.Error("expected Not Found section")
	}
}

func TestReportToCSV(t *testing.T) {
	data, err := ReportToCSV(sampleReport())
	if err != nil {
		t.Fatalf("ReportToCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[1][1] != "Obscure B-Side" || records[1][4] != "123000" {
		t.Errorf("unexpected row %v", records[1])
	}
}

func TestReportToJSON(t *testing.T) {
	data, err := ReportToJSON(sampleReport())
	if err != nil {
		t.Fatalf("ReportToJSON: %v", err)
	}

	var decoded models.TransferReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.FoundCount != 9 || !decoded.QuotaHalted {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}

func TestExportToText(t *testing.T) {
	export := &models.PlaylistExport{
		Playlist: models.Playlist{Name: "Mix"},
		Tracks: []models.Track{
			{Title: "One", Artist: "A"},
			{Title: "Bare Title"},
		},
	}

	out := string(ExportToText(export))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), out)
	}
	if lines[1] != "A - One" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "Bare Title" {
		t.Errorf("artist-less track must not emit a separator, got %q", lines[2])
	}
}

func TestExportToCSV(t *testing.T) {
	export := &models.PlaylistExport{
		Playlist: models.Playlist{Name: "Mix"},
		Tracks: []models.Track{
			{Title: "One", Artist: "A", Album: "X", DurationMS: 1000},
		},
	}

	data, err := ExportToCSV(export)
	if err != nil {
		t.Fatalf("ExportToCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(records) != 2 || records[1][0] != "One" {
		t.Errorf("unexpected records %v", records)
	}
}
