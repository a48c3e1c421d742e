package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

const responsesTable = "survey_responses"

var responseColumns = []string{
	"id", "job_id", "course_name", "response_date",
	"rating_content_relevance", "rating_content_organization", "rating_materials_quality",
	"rating_instructor_knowledge", "rating_instructor_clarity", "rating_engagement",
	"rating_pace", "rating_facilities", "rating_overall_satisfaction", "recommendation_score",
	"overall_rating", "overall_rating_comment", "learned_1", "learned_2", "learned_3",
	"suggestions", "comments", "future_interest",
	"participant_name", "company", "email", "phone",
	"method", "source", "created_at",
}

type SurveyResponseRepository interface {
	// ReplaceForJob deletes the job's previous responses and inserts these,
	// in one transaction. IDs and timestamps are assigned when missing.
	ReplaceForJob(ctx context.Context, jobID uuid.UUID, responses []entity.SurveyResponse) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.SurveyResponse, error)
}

type surveyResponseRepo struct {
	db  *DB
	log *slog.Logger
}

func NewSurveyResponseRepository(db *DB, log *slog.Logger) SurveyResponseRepository {
	if log == nil {
		log = slog.Default()
	}
	return &surveyResponseRepo{db: db, log: log}
}

func (r *surveyResponseRepo) ReplaceForJob(ctx context.Context, jobID uuid.UUID, responses []entity.SurveyResponse) error {
	b := r.db.builder()
	now := time.Now().UTC()

	err := r.db.inTx(ctx, func(tx dialect.Tx) error {
		q, args := b.Delete(responsesTable).Where(entsql.EQ("job_id", jobID.String())).Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return err
		}
		if len(responses) == 0 {
			return nil
		}
		ins := b.Insert(responsesTable).Columns(append([]string{"position"}, responseColumns...)...)
		for i := range responses {
			resp := &responses[i]
			resp.JobID = jobID
			if resp.ID == uuid.Nil {
				resp.ID = uuid.New()
			}
			if resp.CreatedAt.IsZero() {
				resp.CreatedAt = now
			}
			ins.Values(append([]any{i}, responseValues(resp)...)...)
		}
		q, args = ins.Query()
		return tx.Exec(ctx, q, args, nil)
	})
	if err != nil {
		r.log.Error("survey_responses replace failed", "job_id", jobID, "err", err)
		return common.NewAppError(common.CodePersist, "persist responses", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("survey_responses stored", "job_id", jobID, "count", len(responses))
	return nil
}

func (r *surveyResponseRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.SurveyResponse, error) {
	b := r.db.builder()
	q, args := b.Select(responseColumns...).
		From(b.Table(responsesTable)).
		Where(entsql.EQ("job_id", jobID.String())).
		OrderBy("position").
		Query()

	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, common.NewAppError(common.CodePersist, "query responses", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()
	var out []entity.SurveyResponse
	if err := entsql.ScanSlice(rows, &out); err != nil {
		return nil, common.NewAppError(common.CodePersist, "scan responses", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

// responseValues follows responseColumns.
func responseValues(r *entity.SurveyResponse) []any {
	vals := []any{r.ID.String(), r.JobID.String(), r.CourseName, r.ResponseDate}
	for _, v := range r.Ratings() {
		vals = append(vals, v)
	}
	vals = append(vals, r.RecommendationScore)
	for _, v := range r.TextAnswers() {
		vals = append(vals, v)
	}
	for _, v := range r.Contact() {
		vals = append(vals, v)
	}
	return append(vals, string(r.Method), string(r.Source), r.CreatedAt)
}
