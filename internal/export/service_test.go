package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

type stubJobs map[uuid.UUID]*entity.ExtractionJob

func (s stubJobs) Get(_ context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	if j, ok := s[id]; ok {
		return j, nil
	}
	return nil, common.ErrNotFound
}

type stubResponses []entity.SurveyResponse

func (s stubResponses) ListByJob(context.Context, uuid.UUID) ([]entity.SurveyResponse, error) {
	return s, nil
}

func ptr[T any](v T) *T { return &v }

func TestExportJobXLSX(t *testing.T) {
	job := entity.NewExtractionJob("First Aid", "/tmp/a.pdf", "o")
	job.Status = constants.JobStatusCompleted
	rs := stubResponses{
		{ParticipantName: ptr("Jane Doe"), Email: ptr("jane@x.com"), RatingContentRelevance: ptr(3), RecommendationScore: ptr(9), Method: constants.MethodLLM},
		{ParticipantName: ptr("John Smith"), RatingContentRelevance: ptr(5), Method: constants.MethodLLM},
	}
	svc := NewService(stubJobs{job.ID: job}, rs, nil)

	b, err := svc.ExportJobXLSX(context.Background(), job.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetResponses)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Participant", rows[0][0])
	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, "jane@x.com", rows[1][2])
	assert.Equal(t, "3", rows[1][5])
	assert.Equal(t, "John Smith", rows[2][0])

	course, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "First Aid", course)
	avg, err := f.GetCellValue(SheetSummary, "C7")
	require.NoError(t, err)
	assert.Equal(t, "4", avg)
}

func TestExportJobXLSX_UnknownJob(t *testing.T) {
	_, err := NewService(stubJobs{}, nil, nil).ExportJobXLSX(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAverages(t *testing.T) {
	avgs := Averages([]entity.SurveyResponse{
		{RatingPace: ptr(2), RecommendationScore: ptr(10)},
		{RatingPace: ptr(5)},
		{},
	})
	require.Len(t, avgs, 10)
	assert.Equal(t, Average{Count: 2, Mean: 3.5}, avgs[6])
	assert.Equal(t, Average{Count: 1, Mean: 10}, avgs[9])
	assert.Equal(t, Average{}, avgs[0])
}
