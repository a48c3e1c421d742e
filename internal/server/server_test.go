package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

type memStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*entity.ExtractionJob
	responses map[uuid.UUID][]entity.SurveyResponse
	settings  map[string]*entity.ExtractionSettings
}

func newMemStore() *memStore {
	return &memStore{
		jobs:      map[uuid.UUID]*entity.ExtractionJob{},
		responses: map[uuid.UUID][]entity.SurveyResponse{},
		settings:  map[string]*entity.ExtractionSettings{},
	}
}

func (m *memStore) Create(_ context.Context, j *entity.ExtractionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, common.ErrNotFound
}

func (m *memStore) ListByJob(_ context.Context, id uuid.UUID) ([]entity.SurveyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[id], nil
}

type memSettings struct{ *memStore }

func (m memSettings) GetByOwner(_ context.Context, owner string) (*entity.ExtractionSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[owner], nil
}

func (m memSettings) Upsert(_ context.Context, s *entity.ExtractionSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.settings[s.OwnerID] = &cp
	return nil
}

type fakeRuns struct {
	mu       sync.Mutex
	result   pipeline.Result
	err      error
	enqErr   error
	done     []async.Job
	enqueued []async.Job
}

func (f *fakeRuns) Do(_ context.Context, j async.Job) (pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, j)
	return f.result, f.err
}

func (f *fakeRuns) Enqueue(_ context.Context, j async.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqErr != nil {
		return f.enqErr
	}
	f.enqueued = append(f.enqueued, j)
	return nil
}

type fakeExporter struct{ err error }

func (f fakeExporter) ExportJobXLSX(context.Context, uuid.UUID) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PK\x03\x04xlsx"), nil
}

type testAPI struct {
	store *memStore
	runs  *fakeRuns
	reg   *prometheus.Registry
	srv   *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{store: newMemStore(), runs: &fakeRuns{}, reg: prometheus.NewRegistry()}
	s := New(Deps{
		Jobs:      a.store,
		Responses: a.store,
		Settings:  memSettings{a.store},
		Runs:      a.runs,
		Exporter:  fakeExporter{},
		Health:    func(context.Context) error { return nil },
		Registry:  a.reg,
		Gatherer:  a.reg,
	})
	a.srv = httptest.NewServer(s.Router())
	t.Cleanup(a.srv.Close)
	return a
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (a *testAPI) seedJob() *entity.ExtractionJob {
	j := entity.NewExtractionJob("First Aid", "/tmp/a.pdf", "owner-1")
	_ = a.store.Create(context.Background(), j)
	return j
}

func TestCreateJob(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(t, http.MethodPost, "/v1/jobs", `{"course_name":" First Aid ","file_ref":"s3://forms/a.pdf","created_by":"owner-1","enqueue":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "First Aid", got["course_name"])
	assert.Equal(t, "pending", got["status"])
	assert.Equal(t, true, got["queued"])
	require.Len(t, a.runs.enqueued, 1)
	assert.Equal(t, got["id"], a.runs.enqueued[0].JobID.String())
	assert.NotEmpty(t, a.runs.enqueued[0].RequestID)
}

func TestCreateJob_Validation(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(t, http.MethodPost, "/v1/jobs", `{"course_name":"","file_ref":"x.pdf"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "course_name is required")
	assert.Contains(t, string(body), "created_by is required")
	assert.Empty(t, a.store.jobs)
}

func TestGetJob(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()

	resp, body := a.do(t, http.MethodGet, "/v1/jobs/"+j.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), j.ID.String())

	resp, _ = a.do(t, http.MethodGet, "/v1/jobs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(t, http.MethodGet, "/v1/jobs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "must be a valid UUID")
}

func TestProcessJob_Sync(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()
	a.runs.result = pipeline.Result{Success: true, FormsProcessed: 3, Method: "heuristic"}

	resp, body := a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/process", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["success"])
	assert.EqualValues(t, 3, got["formsProcessed"])
	assert.Equal(t, "heuristic", got["method"])
	require.Len(t, a.runs.done, 1)
	assert.False(t, a.runs.done[0].Retry)
}

func TestProcessJob_FailedRunIsStillASummary(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()
	cause := common.NewAppError(common.CodeFetch, "fetch /tmp/a.pdf", errors.Join(common.ErrFetch, common.ErrNotFound))
	a.runs.result = pipeline.Result{Error: cause.Error()}
	a.runs.err = fmt.Errorf("process job: %w", cause)

	resp, body := a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/process", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"success":false`)
	assert.Contains(t, string(body), "FETCH_ERROR")
}

func TestProcessJob_Rejections(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()

	a.runs.err = common.NewAppError(common.CodeInvalidJob, "job is completed", common.ErrInvalidTransition)
	resp, body := a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/process", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_JOB")

	a.runs.err = async.ErrInFlight
	resp, _ = a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/retry", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/v1/jobs/"+uuid.NewString()+"/process", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRetryJob_Async(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()

	resp, body := a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/retry?async=true", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, string(body), `"queued":true`)
	require.Len(t, a.runs.enqueued, 1)
	assert.True(t, a.runs.enqueued[0].Retry)
	assert.Empty(t, a.runs.done)

	a.runs.enqErr = async.ErrQueueFull
	resp, _ = a.do(t, http.MethodPost, "/v1/jobs/"+j.ID.String()+"/retry?async=1", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListResponses(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()
	name := "Jane Doe"
	a.store.responses[j.ID] = []entity.SurveyResponse{{ID: uuid.New(), JobID: j.ID, ParticipantName: &name, Method: constants.MethodLLM}}

	resp, body := a.do(t, http.MethodGet, "/v1/jobs/"+j.ID.String()+"/responses", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ResponsesReply
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "Jane Doe", *got.Responses[0].ParticipantName)

	other := a.seedJob()
	_, body = a.do(t, http.MethodGet, "/v1/jobs/"+other.ID.String()+"/responses", "")
	assert.Contains(t, string(body), `"responses":[]`)
}

func TestExportJob(t *testing.T) {
	a := newTestAPI(t)
	j := a.seedJob()

	resp, body := a.do(t, http.MethodGet, "/v1/jobs/"+j.ID.String()+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestSettings(t *testing.T) {
	a := newTestAPI(t)

	resp, _ := a.do(t, http.MethodGet, "/v1/settings/owner-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := a.do(t, http.MethodPut, "/v1/settings/owner-1", `{"api_key":"sk-1","model_name":"gpt-4o","enabled":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "sk-1")
	assert.Contains(t, string(body), `"api_key_present":true`)

	// omitting the key keeps the stored one
	resp, _ = a.do(t, http.MethodPut, "/v1/settings/owner-1", `{"model_name":"gpt-4o-mini","enabled":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := a.store.settings["owner-1"]
	assert.Equal(t, "sk-1", s.APIKey)
	assert.Equal(t, "gpt-4o-mini", s.ModelName)
	assert.False(t, s.Enabled)

	resp, body = a.do(t, http.MethodGet, "/v1/settings/owner-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"model_name":"gpt-4o-mini"`)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)
	a.seedJob()

	resp, body := a.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, body = a.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "survey_extractor_http_requests_total")
}

func TestHealthz_Unhealthy(t *testing.T) {
	s := New(Deps{Health: func(context.Context) error { return errors.New("db down") }})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
