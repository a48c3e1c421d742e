package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

type CreateJobRequest struct {
	CourseName string `json:"course_name"`
	FileRef    string `json:"file_ref"`
	CreatedBy  string `json:"created_by"`
	Enqueue    bool   `json:"enqueue"`
}

func (req *CreateJobRequest) Bind(_ *http.Request) error {
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.FileRef = strings.TrimSpace(req.FileRef)
	req.CreatedBy = strings.TrimSpace(req.CreatedBy)
	return common.NewValidator().
		Field("course_name", req.CourseName, common.Required, common.MaxLength(500)).
		Field("file_ref", req.FileRef, common.Required).
		Field("created_by", req.CreatedBy, common.Required, common.MaxLength(200)).
		Err()
}

type JobResponse struct {
	*entity.ExtractionJob
	Queued bool `json:"queued,omitempty"`
}

func (JobResponse) Render(http.ResponseWriter, *http.Request) error { return nil }

type ResponsesReply struct {
	JobID     string                  `json:"job_id"`
	Count     int                     `json:"count"`
	Responses []entity.SurveyResponse `json:"responses"`
}

type RunReply struct {
	pipeline.Result
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued,omitempty"`
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	log := common.LoggerFromContext(r.Context(), s.logger)

	req := &CreateJobRequest{}
	if err := render.Bind(r, req); err != nil {
		log.Warn("create job rejected", "error", err)
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}

	job := entity.NewExtractionJob(req.CourseName, req.FileRef, req.CreatedBy)
	if err := s.deps.Jobs.Create(r.Context(), job); err != nil {
		log.Error("create job failed", "error", err)
		_ = render.Render(w, r, errResponse(err))
		return
	}
	log.Info("job created", "job_id", job.ID, "course", job.CourseName)

	resp := JobResponse{ExtractionJob: job}
	if req.Enqueue && s.deps.Runs != nil {
		if err := s.deps.Runs.Enqueue(r.Context(), s.asyncJob(r, job.ID, false)); err != nil {
			log.Warn("enqueue after create failed", "job_id", job.ID, "error", err)
		} else {
			resp.Queued = true
		}
	}
	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, resp)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	job, err := s.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		_ = render.Render(w, r, errResponse(err))
		return
	}
	_ = render.Render(w, r, JobResponse{ExtractionJob: job})
}

// runJob serves process and retry. With ?async=true the run is queued and
// the reply is 202; otherwise the run happens within the request and the
// reply carries its summary. A run that started and failed is still a 200
// with success=false; the job records the failure.
func (s *Server) runJob(retry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.jobID(w, r)
		if !ok {
			return
		}
		log := common.LoggerFromContext(r.Context(), s.logger).With("job_id", id, "retry", retry)
		if s.deps.Runs == nil {
			_ = render.Render(w, r, &ErrResponse{HTTPStatusCode: http.StatusServiceUnavailable, Error: "runs are disabled"})
			return
		}
		if _, err := s.deps.Jobs.Get(r.Context(), id); err != nil {
			_ = render.Render(w, r, errResponse(err))
			return
		}

		job := s.asyncJob(r, id, retry)
		if queued, _ := strconv.ParseBool(r.URL.Query().Get("async")); queued {
			if err := s.deps.Runs.Enqueue(r.Context(), job); err != nil {
				log.Warn("enqueue rejected", "error", err)
				_ = render.Render(w, r, errResponse(err))
				return
			}
			render.Status(r, http.StatusAccepted)
			render.JSON(w, r, RunReply{JobID: id.String(), Queued: true})
			return
		}

		res, err := s.deps.Runs.Do(r.Context(), job)
		if err != nil && rejected(err) {
			log.Warn("run rejected", "error", err)
			_ = render.Render(w, r, errResponse(err))
			return
		}
		render.JSON(w, r, RunReply{Result: res, JobID: id.String()})
	}
}

// rejected reports whether err kept the run from starting at all.
func rejected(err error) bool {
	return errors.Is(err, common.ErrInvalidTransition) ||
		errors.Is(err, async.ErrInFlight) ||
		errors.Is(err, async.ErrQueueClosed) ||
		(errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrFetch))
}

func (s *Server) listResponses(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	if _, err := s.deps.Jobs.Get(r.Context(), id); err != nil {
		_ = render.Render(w, r, errResponse(err))
		return
	}
	rs, err := s.deps.Responses.ListByJob(r.Context(), id)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("list responses failed", "job_id", id, "error", err)
		_ = render.Render(w, r, errResponse(err))
		return
	}
	if rs == nil {
		rs = []entity.SurveyResponse{}
	}
	render.JSON(w, r, ResponsesReply{JobID: id.String(), Count: len(rs), Responses: rs})
}

func (s *Server) exportJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	b, err := s.deps.Exporter.ExportJobXLSX(r.Context(), id)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("export failed", "job_id", id, "error", err)
		_ = render.Render(w, r, errResponse(err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="survey-`+id.String()+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func (s *Server) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if v := common.NewValidator().Field("id", raw, common.UUID); v.HasErrors() {
		_ = render.Render(w, r, errBadRequest(v.ErrorMessage()))
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

func (s *Server) asyncJob(r *http.Request, id uuid.UUID, retry bool) async.Job {
	return async.Job{JobID: id, Retry: retry, RequestID: common.RequestIDFromContext(r.Context())}
}
