package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/survey-extractor/internal/entity"
)

const (
	SheetResponses = "Responses"
	SheetSummary   = "Summary"
)

type JobReader interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
}

type ResponseLister interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.SurveyResponse, error)
}

// Service produces XLSX workbooks of a job's responses.
type Service struct {
	jobs      JobReader
	responses ResponseLister
	logger    *slog.Logger
}

func NewService(jobs JobReader, responses ResponseLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, responses: responses, logger: logger}
}

type column struct {
	header string
	width  float64
	value  func(r *entity.SurveyResponse) any
}

var questionHeaders = []string{
	"Q1 Content relevance",
	"Q2 Content organization",
	"Q3 Materials quality",
	"Q4 Instructor knowledge",
	"Q5 Instructor clarity",
	"Q6 Engagement",
	"Q7 Pace",
	"Q8 Facilities",
	"Q9 Overall satisfaction",
}

func responseColumns() []column {
	cols := []column{
		{"Participant", 24, func(r *entity.SurveyResponse) any { return str(r.ParticipantName) }},
		{"Company", 22, func(r *entity.SurveyResponse) any { return str(r.Company) }},
		{"Email", 28, func(r *entity.SurveyResponse) any { return str(r.Email) }},
		{"Phone", 18, func(r *entity.SurveyResponse) any { return str(r.Phone) }},
		{"Date", 12, func(r *entity.SurveyResponse) any {
			if r.ResponseDate == nil {
				return ""
			}
			return r.ResponseDate.Format(entity.DateLayout)
		}},
	}
	for i, h := range questionHeaders {
		cols = append(cols, column{h, 10, func(r *entity.SurveyResponse) any { return num(r.Ratings()[i]) }})
	}
	cols = append(cols,
		column{"Recommend (0-10)", 10, func(r *entity.SurveyResponse) any { return num(r.RecommendationScore) }},
		column{"Overall rating", 16, func(r *entity.SurveyResponse) any { return str(r.OverallRating) }},
		column{"Overall comment", 40, func(r *entity.SurveyResponse) any { return str(r.OverallRatingComment) }},
		column{"Learned 1", 32, func(r *entity.SurveyResponse) any { return str(r.Learned1) }},
		column{"Learned 2", 32, func(r *entity.SurveyResponse) any { return str(r.Learned2) }},
		column{"Learned 3", 32, func(r *entity.SurveyResponse) any { return str(r.Learned3) }},
		column{"Suggestions", 40, func(r *entity.SurveyResponse) any { return str(r.Suggestions) }},
		column{"Comments", 40, func(r *entity.SurveyResponse) any { return str(r.Comments) }},
		column{"Future interest", 32, func(r *entity.SurveyResponse) any { return str(r.FutureInterest) }},
		column{"Method", 12, func(r *entity.SurveyResponse) any { return string(r.Method) }},
		column{"Source", 10, func(r *entity.SurveyResponse) any { return string(r.Source) }},
	)
	return cols
}

// ExportJobXLSX returns a workbook with one row per response and a summary
// sheet of per-question averages.
func (s *Service) ExportJobXLSX(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	start := time.Now()

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rs, err := s.responses.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetResponses); err != nil {
		return nil, err
	}

	cols := responseColumns()
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetResponses, cell, c.header)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetResponses, name, name, c.width)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		_ = f.SetCellStyle(SheetResponses, "A1", last, style)
	}
	_ = f.SetPanes(SheetResponses, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for ri := range rs {
		r := &rs[ri]
		for ci, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			_ = f.SetCellValue(SheetResponses, cell, c.value(r))
		}
	}

	if err := writeSummary(f, job, rs); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"job_id", jobID.String(),
		"rows", len(rs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, job *entity.ExtractionJob, rs []entity.SurveyResponse) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	set := func(cell string, v any) { _ = f.SetCellValue(SheetSummary, cell, v) }

	set("A1", "Course")
	set("B1", job.CourseName)
	set("A2", "Status")
	set("B2", string(job.Status))
	set("A3", "Responses")
	set("B3", len(rs))
	set("A4", "Method")
	set("B4", str(job.Method))

	set("A6", "Question")
	set("B6", "Answers")
	set("C6", "Average")
	avgs := Averages(rs)
	for i, h := range append(questionHeaders, "Recommend (0-10)") {
		row := 7 + i
		set(fmt.Sprintf("A%d", row), h)
		set(fmt.Sprintf("B%d", row), avgs[i].Count)
		if avgs[i].Count > 0 {
			set(fmt.Sprintf("C%d", row), avgs[i].Mean)
		}
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 26)
	return nil
}

// Average is the mean of the non-empty answers to one question.
type Average struct {
	Count int
	Mean  float64
}

// Averages returns Q1..Q9 followed by the recommendation score.
func Averages(rs []entity.SurveyResponse) []Average {
	out := make([]Average, len(questionHeaders)+1)
	sums := make([]int, len(out))
	for i := range rs {
		vals := append(rs[i].Ratings(), rs[i].RecommendationScore)
		for q, v := range vals {
			if v == nil {
				continue
			}
			out[q].Count++
			sums[q] += *v
		}
	}
	for q := range out {
		if out[q].Count > 0 {
			out[q].Mean = float64(sums[q]) / float64(out[q].Count)
		}
	}
	return out
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}
