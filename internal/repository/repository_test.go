package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(t.Context()))
	require.NoError(t, db.HealthCheck(t.Context(), time.Second))
}

func TestOpen_RejectsUnknownDSN(t *testing.T) {
	_, err := Open(t.Context(), Config{DSN: "mysql://root@localhost/db"}, nil)
	assert.Error(t, err)
}

func TestExtractionJob_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	jobs := NewExtractionJobRepository(db, nil)
	ctx := t.Context()

	job := entity.NewExtractionJob("Working at Height", "/data/forms.pdf", "owner-1")
	require.NoError(t, jobs.Create(ctx, job))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, got.Status)
	assert.Equal(t, "Working at Height", got.CourseName)
	assert.Nil(t, got.StartedAt)

	// completing a pending job is not allowed
	err = jobs.MarkCompleted(ctx, job.ID, 1, 1, constants.MethodLLM)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	got, err = jobs.MarkProcessing(ctx, job.ID, constants.JobStatusPending)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusProcessing, got.Status)
	require.NotNil(t, got.StartedAt)

	// a second start loses
	_, err = jobs.MarkProcessing(ctx, job.ID, constants.JobStatusPending)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	require.NoError(t, jobs.MarkCompleted(ctx, job.ID, 3, 2, constants.MethodHeuristic))
	got, err = jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	assert.Equal(t, 3, got.TotalForms)
	assert.Equal(t, 2, got.ProcessedForms)
	require.NotNil(t, got.Method)
	assert.Equal(t, "heuristic", *got.Method)
	assert.NotNil(t, got.FinishedAt)

	// retry from a terminal state clears the previous outcome
	got, err = jobs.MarkProcessing(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FinishedAt)
	assert.Nil(t, got.Method)

	require.NoError(t, jobs.MarkFailed(ctx, job.ID, "download failed"))
	got, err = jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "download failed", *got.ErrorMessage)

	failed, err := jobs.ListByStatus(ctx, constants.JobStatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, job.ID, failed[0].ID)
}

func TestExtractionJob_Errors(t *testing.T) {
	db := openTestDB(t)
	jobs := NewExtractionJobRepository(db, nil)

	_, err := jobs.Get(t.Context(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = jobs.MarkProcessing(t.Context(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	bad := entity.NewExtractionJob("", "", "owner")
	assert.ErrorIs(t, jobs.Create(t.Context(), bad), common.ErrValidation)
}

func TestSurveyResponses_ReplaceForJob(t *testing.T) {
	db := openTestDB(t)
	jobs := NewExtractionJobRepository(db, nil)
	responses := NewSurveyResponseRepository(db, nil)
	ctx := t.Context()

	job := entity.NewExtractionJob("First Aid", "forms.pdf", "owner-1")
	require.NoError(t, jobs.Create(ctx, job))

	date := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	first := []entity.SurveyResponse{
		{
			CourseName:             "First Aid",
			ResponseDate:           &date,
			RatingContentRelevance: intPtr(5),
			RecommendationScore:    intPtr(0),
			Email:                  strPtr("jane@x.com"),
			Method:                 constants.MethodLLM,
			Source:                 constants.SourceText,
		},
		{
			CourseName: "First Aid",
			Comments:   strPtr("Great trainer, very clear"),
			Method:     constants.MethodLLM,
			Source:     constants.SourceText,
		},
	}
	require.NoError(t, responses.ReplaceForJob(ctx, job.ID, first))

	got, err := responses.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, job.ID, got[0].JobID)
	require.NotNil(t, got[0].RatingContentRelevance)
	assert.Equal(t, 5, *got[0].RatingContentRelevance)
	require.NotNil(t, got[0].RecommendationScore)
	assert.Equal(t, 0, *got[0].RecommendationScore)
	require.NotNil(t, got[0].ResponseDate)
	assert.Equal(t, "2024-03-14", got[0].ResponseDate.UTC().Format(entity.DateLayout))
	assert.Nil(t, got[0].RatingPace)
	assert.Equal(t, constants.MethodLLM, got[0].Method)
	require.NotNil(t, got[1].Comments)
	assert.Equal(t, "Great trainer, very clear", *got[1].Comments)

	// a retry replaces, never appends
	second := []entity.SurveyResponse{{CourseName: "First Aid", Method: constants.MethodPlaceholder, Source: constants.SourceHeuristic}}
	require.NoError(t, responses.ReplaceForJob(ctx, job.ID, second))
	got, err = responses.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, constants.MethodPlaceholder, got[0].Method)
}

func TestSurveyResponses_RequiresJob(t *testing.T) {
	db := openTestDB(t)
	responses := NewSurveyResponseRepository(db, nil)
	err := responses.ReplaceForJob(t.Context(), uuid.New(), []entity.SurveyResponse{{CourseName: "x", Method: constants.MethodLLM, Source: constants.SourceText}})
	assert.ErrorIs(t, err, common.ErrDatabase)
}

func TestExtractionSettings_Upsert(t *testing.T) {
	db := openTestDB(t)
	settings := NewExtractionSettingsRepository(db, nil)
	ctx := t.Context()

	got, err := settings.GetByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, settings.Upsert(ctx, &entity.ExtractionSettings{OwnerID: "owner-1", APIKey: "sk-1", ModelName: "gpt-4o", Enabled: true}))
	require.NoError(t, settings.Upsert(ctx, &entity.ExtractionSettings{OwnerID: "owner-1", APIKey: "sk-2", ModelName: "gpt-4o-mini", Enabled: false}))

	got, err = settings.GetByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sk-2", got.APIKey)
	assert.Equal(t, "gpt-4o-mini", got.ModelName)
	assert.False(t, got.Enabled)

	assert.ErrorIs(t, settings.Upsert(ctx, &entity.ExtractionSettings{}), common.ErrValidation)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/app", redact("postgres://user:secret@db:5432/app"))
	assert.Equal(t, "sqlite:survey.db", redact("sqlite:survey.db"))
}
