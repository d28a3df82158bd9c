// package tasks implements playlist transfer operations between music
// services.
//
// The core abstraction is TransferEngine, which drives a transfer in two
// phases: concurrent batched resolution of source tracks against the
// destination catalog, then ordered batched commits into a destination
// playlist. Operations emit progress updates via channels for non-blocking
// status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"playlistporter/internal/models"
	"playlistporter/internal/services"
	"playlistporter/internal/shared"
)

// DefaultResolveBatchSize bounds how many tracks resolve concurrently.
const DefaultResolveBatchSize = 10

// TransferEngine orchestrates a playlist transfer from a source service to a
// destination catalog.
type TransferEngine struct {
	source    services.Source
	dest      services.Provider
	resolver  *Resolver
	batchSize int
	logger    *log.Logger
}

// NewTransferEngine creates a TransferEngine. A resolveBatchSize of 0 falls
// back to [DefaultResolveBatchSize].
func NewTransferEngine(source services.Source, dest services.Provider, resolveBatchSize int, logger *log.Logger) *TransferEngine {
	if resolveBatchSize <= 0 {
		resolveBatchSize = DefaultResolveBatchSize
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &TransferEngine{
		source:    source,
		dest:      dest,
		resolver:  NewResolver(dest, logger),
		batchSize: resolveBatchSize,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the transfer.
func (e *TransferEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full playlist transfer and returns the report.
//
// Quota exhaustion at the destination halts further work but is not an
// error: whatever resolved before the halt is still committed and the report
// is returned with QuotaHalted set.
func (e *TransferEngine) Run(ctx context.Context, srcIDOrURL string, progress chan<- ProgressUpdate) (*models.TransferReport, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, exportSourceUpdate(e.source.Name()))
	export, err := e.source.ExportPlaylist(ctx, srcIDOrURL)
	if err != nil {
		return nil, err
	}
	if len(export.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s has no tracks", shared.ErrEmptyPlaylist, export.Playlist.Name)
	}

	report := &models.TransferReport{
		SourceName:   e.source.Name(),
		DestName:     e.dest.Name(),
		PlaylistName: export.Playlist.Name,
		TotalTracks:  len(export.Tracks),
	}

	results, quotaHalted := e.resolveAll(ctx, export.Tracks, progress)
	report.QuotaHalted = quotaHalted
	if quotaHalted {
		resolved := 0
		for _, result := range results {
			if result.Found() {
				resolved++
			}
		}
		e.sendProgress(progress, quotaHaltUpdate(resolved, len(export.Tracks)))
	}

	if err := e.commit(ctx, export.Playlist.Name, results, report, progress); err != nil {
		return nil, err
	}

	for _, result := range results {
		if !result.Found() {
			report.NotFound = append(report.NotFound, result.Track)
		}
	}

	e.logger.Info("transfer complete",
		"playlist", report.PlaylistName,
		"found", report.FoundCount,
		"total", report.TotalTracks,
		"quota_halted", report.QuotaHalted)
	return report, nil
}

// resolveAll runs Phase 1: fixed-size batches processed sequentially, tracks
// within a batch resolved concurrently. Results land in original-index order
// regardless of completion order. A quota signal stops future batches but
// lets the current batch's in-flight resolutions finish.
func (e *TransferEngine) resolveAll(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) ([]models.ResolutionResult, bool) {
	results := make([]models.ResolutionResult, len(tracks))
	for i, track := range tracks {
		results[i] = models.ResolutionResult{OriginalIndex: i, Track: track}
	}

	var quota bool
	for start := 0; start < len(tracks) && !quota; start += e.batchSize {
		end := start + e.batchSize
		if end > len(tracks) {
			end = len(tracks)
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := e.resolver.Resolve(ctx, tracks[i])
				if err != nil {
					if errors.Is(err, shared.ErrQuotaExceeded) {
						mu.Lock()
						quota = true
						mu.Unlock()
					}
					return
				}
				results[i].DestinationID = id
			}(i)
		}
		wg.Wait()

		e.sendProgress(progress, resolveBatchUpdate(end, len(tracks)))
	}

	return results, quota
}

// commit runs Phase 2: creates (or reuses) the destination playlist and
// submits found ids in ascending original-index order, in destination-sized
// write batches. A failed write batch is logged and counted, not fatal.
func (e *TransferEngine) commit(ctx context.Context, name string, results []models.ResolutionResult, report *models.TransferReport, progress chan<- ProgressUpdate) error {
	ids := make([]string, 0, len(results))
	for _, result := range results {
		if result.Found() {
			ids = append(ids, result.DestinationID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	e.sendProgress(progress, createPlaylistUpdate(name))
	playlistID, err := e.dest.CreateOrReusePlaylist(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create destination playlist: %w", err)
	}
	report.PlaylistURL = e.dest.PublicURL(playlistID)

	writeBatch := e.dest.WriteBatchSize()
	if writeBatch <= 0 {
		writeBatch = 1
	}
	for start := 0; start < len(ids); start += writeBatch {
		end := start + writeBatch
		if end > len(ids) {
			end = len(ids)
		}

		batch := ids[start:end]
		if err := e.dest.AddItems(ctx, playlistID, batch); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, shared.ErrQuotaExceeded) {
				report.QuotaHalted = true
				report.FailedWrites += len(ids) - start
				e.logger.Error("quota exhausted during commit", "committed", report.FoundCount, "remaining", len(ids)-start)
				break
			}
			report.FailedWrites += len(batch)
			e.logger.Error("write batch failed", "offset", start, "size", len(batch), "err", err)
			continue
		}
		report.FoundCount += len(batch)
		e.sendProgress(progress, commitBatchUpdate(end, len(ids)))
	}

	return nil
}
