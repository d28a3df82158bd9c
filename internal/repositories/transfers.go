// package repositories provides the persistence layer for transfer history.
//
// Every completed transfer run is recorded so the CLI can list past runs and
// show which tracks went unmatched without re-running anything.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"playlistporter/internal/models"
	"playlistporter/internal/shared"
)

// TransferRecord is a persisted transfer report with its storage identity.
type TransferRecord struct {
	ID        string
	CreatedAt time.Time
	Report    models.TransferReport
}

// TransferRepository stores and retrieves transfer reports.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new TransferRepository with the given
// database connection.
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a transfer report and returns its generated id.
func (r *TransferRepository) Create(report *models.TransferReport) (string, error) {
	notFound, err := json.Marshal(report.NotFound)
	if err != nil {
		return "", fmt.Errorf("failed to encode unmatched tracks: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO transfers (id, source_service, dest_service, playlist_name, playlist_url, total_tracks, found_count, failed_writes, quota_halted, not_found_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		report.SourceName,
		report.DestName,
		report.PlaylistName,
		report.PlaylistURL,
		report.TotalTracks,
		report.FoundCount,
		report.FailedWrites,
		report.QuotaHalted,
		string(notFound),
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transfer: %w", err)
	}

	return id, nil
}

// Get retrieves a single transfer record by id.
func (r *TransferRepository) Get(id string) (*TransferRecord, error) {
	query := `
		SELECT id, source_service, dest_service, playlist_name, playlist_url, total_tracks, found_count, failed_writes, quota_halted, not_found_json, created_at
		FROM transfers
		WHERE id = ?
	`

	record, err := scanTransfer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// List returns the most recent transfer records, newest first. A limit of 0
// returns everything.
func (r *TransferRepository) List(limit int) ([]*TransferRecord, error) {
	query := `
		SELECT id, source_service, dest_service, playlist_name, playlist_url, total_tracks, found_count, failed_writes, quota_halted, not_found_json, created_at
		FROM transfers
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var records []*TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes a transfer record.
func (r *TransferRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM transfers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("transfer %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*TransferRecord, error) {
	var record TransferRecord
	var notFound string

	err := row.Scan(
		&record.ID,
		&record.Report.SourceName,
		&record.Report.DestName,
		&record.Report.PlaylistName,
		&record.Report.PlaylistURL,
		&record.Report.TotalTracks,
		&record.Report.FoundCount,
		&record.Report.FailedWrites,
		&record.Report.QuotaHalted,
		&notFound,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}

	if err := json.Unmarshal([]byte(notFound), &record.Report.NotFound); err != nil {
		return nil, fmt.Errorf("failed to decode unmatched tracks: %w", err)
	}
	return &record, nil
}
