package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

const jobsTable = "extraction_jobs"

var jobColumns = []string{
	"id", "course_name", "file_ref", "created_by", "status",
	"total_forms", "processed_forms", "method", "error_message",
	"started_at", "finished_at", "created_at", "updated_at",
}

type ExtractionJobRepository interface {
	Create(ctx context.Context, job *entity.ExtractionJob) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
	// MarkProcessing moves the job to processing if its current status is
	// one of from (any status that may enter processing when from is empty)
	// and clears the previous outcome.
	MarkProcessing(ctx context.Context, id uuid.UUID, from ...constants.JobStatus) (*entity.ExtractionJob, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, totalForms, processedForms int, method constants.Method) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	ListByStatus(ctx context.Context, status constants.JobStatus, limit int) ([]entity.ExtractionJob, error)
}

type extractionJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionJobRepository(db *DB, log *slog.Logger) ExtractionJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionJobRepo{db: db, log: log}
}

func (r *extractionJobRepo) Create(ctx context.Context, job *entity.ExtractionJob) error {
	if err := job.Validate(); err != nil {
		return common.NewAppError(common.CodeInvalidJob, "invalid job", errors.Join(common.ErrValidation, err))
	}
	q, args := r.db.builder().Insert(jobsTable).
		Columns(jobColumns...).
		Values(
			job.ID.String(), job.CourseName, job.FileRef, job.CreatedBy, string(job.Status),
			job.TotalForms, job.ProcessedForms, job.Method, job.ErrorMessage,
			job.StartedAt, job.FinishedAt, job.CreatedAt, job.UpdatedAt,
		).Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extraction_job create failed", "job_id", job.ID, "err", err)
		return common.NewAppError(common.CodePersist, "create job", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("extraction_job created", "job_id", job.ID, "course", job.CourseName, "file_ref", job.FileRef)
	return nil
}

func (r *extractionJobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	b := r.db.builder()
	q, args := b.Select(jobColumns...).
		From(b.Table(jobsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.NewAppError(common.CodeInvalidJob, "job "+id.String(), common.ErrNotFound)
	}
	return &jobs[0], nil
}

func (r *extractionJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID, from ...constants.JobStatus) (*entity.ExtractionJob, error) {
	if len(from) == 0 {
		from = []constants.JobStatus{constants.JobStatusPending, constants.JobStatusCompleted, constants.JobStatusFailed}
	}
	now := time.Now().UTC()
	q, args := r.db.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusProcessing)).
		Set("started_at", now).
		Set("updated_at", now).
		SetNull("finished_at").
		SetNull("error_message").
		SetNull("method").
		Where(entsql.And(entsql.EQ("id", id.String()), entsql.In("status", statusArgs(from)...))).
		Query()
	if err := r.transition(ctx, id, q, args, constants.JobStatusProcessing); err != nil {
		return nil, err
	}
	r.log.Info("extraction_job processing", "job_id", id)
	return r.Get(ctx, id)
}

func (r *extractionJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, totalForms, processedForms int, method constants.Method) error {
	now := time.Now().UTC()
	q, args := r.db.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusCompleted)).
		Set("total_forms", totalForms).
		Set("processed_forms", processedForms).
		Set("method", string(method)).
		Set("finished_at", now).
		Set("updated_at", now).
		Where(entsql.And(entsql.EQ("id", id.String()), entsql.EQ("status", string(constants.JobStatusProcessing)))).
		Query()
	if err := r.transition(ctx, id, q, args, constants.JobStatusCompleted); err != nil {
		return err
	}
	r.log.Info("extraction_job completed", "job_id", id, "forms", processedForms, "method", method)
	return nil
}

func (r *extractionJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	now := time.Now().UTC()
	q, args := r.db.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", now).
		Set("updated_at", now).
		Where(entsql.And(entsql.EQ("id", id.String()), entsql.EQ("status", string(constants.JobStatusProcessing)))).
		Query()
	if err := r.transition(ctx, id, q, args, constants.JobStatusFailed); err != nil {
		return err
	}
	r.log.Warn("extraction_job failed", "job_id", id, "error", message)
	return nil
}

func (r *extractionJobRepo) ListByStatus(ctx context.Context, status constants.JobStatus, limit int) ([]entity.ExtractionJob, error) {
	b := r.db.builder()
	sel := b.Select(jobColumns...).
		From(b.Table(jobsTable)).
		Where(entsql.EQ("status", string(status))).
		OrderBy("created_at", "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	return r.query(ctx, q, args)
}

// transition runs a guarded update. Zero affected rows means the job is
// missing or not in an allowed source status.
func (r *extractionJobRepo) transition(ctx context.Context, id uuid.UUID, q string, args []any, to constants.JobStatus) error {
	var res sql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		r.log.Error("extraction_job update failed", "job_id", id, "to", to, "err", err)
		return common.NewAppError(common.CodePersist, "update job", errors.Join(common.ErrDatabase, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewAppError(common.CodePersist, "update job", errors.Join(common.ErrDatabase, err))
	}
	if n > 0 {
		return nil
	}
	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return common.NewAppError(common.CodeInvalidJob,
		"job "+id.String()+" is "+string(cur.Status)+", cannot become "+string(to),
		common.ErrInvalidTransition)
}

func (r *extractionJobRepo) query(ctx context.Context, q string, args []any) ([]entity.ExtractionJob, error) {
	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, common.NewAppError(common.CodePersist, "query jobs", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()
	var jobs []entity.ExtractionJob
	if err := entsql.ScanSlice(rows, &jobs); err != nil {
		return nil, common.NewAppError(common.CodePersist, "scan jobs", errors.Join(common.ErrDatabase, err))
	}
	return jobs, nil
}

func statusArgs(ss []constants.JobStatus) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
