package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

// Ingestor turns files on disk into pending extraction jobs owned by one
// owner and, when an Enqueuer is set, queues them for processing.
// Identical content seen twice in the same process is skipped.
type Ingestor struct {
	jobs    JobCreator
	queue   Enqueuer
	ownerID string
	logger  *slog.Logger

	mu   sync.Mutex
	seen map[string]string // content hash -> job id
}

func NewIngestor(jobs JobCreator, queue Enqueuer, ownerID string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		jobs:    jobs,
		queue:   queue,
		ownerID: ownerID,
		logger:  logger,
		seen:    map[string]string{},
	}
}

func (i *Ingestor) IngestPath(ctx context.Context, path string) (Result, error) {
	out := Result{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs
	if !AllowedExt(filepath.Ext(abs)) {
		return out, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(abs))
	}

	sum, err := hashFile(abs)
	if err != nil {
		i.logger.Warn("ingest.hash.failed", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = sum

	i.mu.Lock()
	if id, ok := i.seen[sum]; ok {
		i.mu.Unlock()
		out.JobID, out.Deduplicated = id, true
		i.logger.Info("ingest.dedup", "path", abs, "job_id", id)
		return out, nil
	}
	i.mu.Unlock()

	course := CourseFromPath(abs)
	if course == "" {
		course = "untitled"
	}
	job := entity.NewExtractionJob(course, abs, i.ownerID)
	if err := i.jobs.Create(ctx, job); err != nil {
		i.logger.Error("ingest.create.failed", "path", abs, "error", err)
		return out, err
	}
	out.JobID, out.CourseName = job.ID.String(), course

	i.mu.Lock()
	i.seen[sum] = out.JobID
	i.mu.Unlock()
	i.logger.Info("ingest.job.created", "path", abs, "job_id", job.ID, "course", course)

	if i.queue != nil {
		if err := i.queue.Enqueue(ctx, async.Job{JobID: job.ID}); err != nil {
			// the job stays pending and can be processed explicitly
			i.logger.Warn("ingest.enqueue.failed", "job_id", job.ID, "error", err)
		}
	}
	return out, nil
}

// IngestDirectory walks root and ingests every allowed file. Per-file
// failures are recorded in the results and do not stop the walk.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []Result
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			stats.Failed++
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		res, err := i.IngestPath(ctx, path)
		switch {
		case err != nil:
			stats.Failed++
			res.Err = err.Error()
		case res.Deduplicated:
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
		results = append(results, res)
		return nil
	})
	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
