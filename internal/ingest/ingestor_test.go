package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

type memJobs struct {
	mu   sync.Mutex
	jobs []*entity.ExtractionJob
}

func (m *memJobs) Create(_ context.Context, j *entity.ExtractionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, j)
	return nil
}

func (m *memJobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

type memQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *memQueue) Enqueue(_ context.Context, j async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, j)
	return nil
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCourseFromPath(t *testing.T) {
	assert.Equal(t, "first aid 2024", CourseFromPath("/x/first_aid-2024.pdf"))
	assert.Equal(t, "Leadership Basics", CourseFromPath("Leadership Basics.png"))
	assert.Equal(t, "", CourseFromPath(".pdf"))
}

func TestIngestPath_CreatesAndEnqueues(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "safety_training.pdf", "%PDF-1.4 a")
	jobs, q := &memJobs{}, &memQueue{}
	in := NewIngestor(jobs, q, "owner-7", nil)

	res, err := in.IngestPath(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, "safety training", res.CourseName)
	require.Len(t, jobs.jobs, 1)

	j := jobs.jobs[0]
	assert.Equal(t, constants.JobStatusPending, j.Status)
	assert.Equal(t, "owner-7", j.CreatedBy)
	assert.Equal(t, p, j.FileRef)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, j.ID, q.jobs[0].JobID)

	again, err := in.IngestPath(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, res.JobID, again.JobID)
	assert.Equal(t, 1, jobs.count())
}

func TestIngestPath_RejectsExtension(t *testing.T) {
	p := write(t, t.TempDir(), "notes.txt", "hi")
	_, err := NewIngestor(&memJobs{}, nil, "o", nil).IngestPath(context.Background(), p)
	require.Error(t, err)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.pdf", "%PDF-1.4 a")
	write(t, dir, "sub/b.png", "png-b")
	write(t, dir, "sub/c.pdf", "%PDF-1.4 a") // same content as a.pdf
	write(t, dir, "readme.md", "skip")
	write(t, dir, ".hidden/d.pdf", "%PDF-1.4 d")

	jobs := &memJobs{}
	results, stats, err := NewIngestor(jobs, nil, "o", nil).IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.EqualValues(t, 4, stats.Scanned)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 2, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Deduplicated)
	assert.EqualValues(t, 0, stats.Failed)
	assert.Equal(t, 2, jobs.count())
}

func TestWatch_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "existing.pdf", "%PDF-1.4 old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := &memJobs{}
	in := NewIngestor(jobs, nil, "o", nil)

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, in, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond})
	}()

	require.Eventually(t, func() bool { return jobs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	write(t, dir, "new_course.pdf", "%PDF-1.4 new")
	write(t, dir, "ignored.txt", "x")
	require.Eventually(t, func() bool { return jobs.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	require.Error(t, err)
}
