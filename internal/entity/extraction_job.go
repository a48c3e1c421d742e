package entity

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
)

// ExtractionJob is one request to turn a survey document into responses.
type ExtractionJob struct {
	ID             uuid.UUID           `json:"id" validate:"required"`
	CourseName     string              `json:"course_name" validate:"required,max=500"`
	FileRef        string              `json:"file_ref" validate:"required"`
	CreatedBy      string              `json:"created_by" validate:"required,max=200"`
	Status         constants.JobStatus `json:"status" validate:"required,oneof=pending processing completed failed"`
	TotalForms     int                 `json:"total_forms" validate:"gte=0"`
	ProcessedForms int                 `json:"processed_forms" validate:"gte=0"`
	Method         *string             `json:"method,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the job record before it is persisted.
func (j *ExtractionJob) Validate() error {
	return validatorInstance().Struct(j)
}

// NewExtractionJob builds a pending job.
func NewExtractionJob(courseName, fileRef, createdBy string) *ExtractionJob {
	now := time.Now().UTC()
	return &ExtractionJob{
		ID:         uuid.New(),
		CourseName: courseName,
		FileRef:    fileRef,
		CreatedBy:  createdBy,
		Status:     constants.JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
