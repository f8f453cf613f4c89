package content_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleeqtechnologies/rechef/cmd/api/handlers/common"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/pipeline"
)

type fakeJobs struct {
	mu        sync.Mutex
	submitted []pipeline.SubmitRequest
	submitErr error
	// views is consumed one entry per GetJobStatus call; the last one repeats.
	views     []*pipeline.JobView
	statusErr error
	listed    []db.JobStatus
}

func (f *fakeJobs) Submit(ctx context.Context, req pipeline.SubmitRequest, ownerID uuid.UUID) (*pipeline.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &pipeline.SubmitResult{JobID: uuid.New(), SavedContentID: uuid.New()}, nil
}

func (f *fakeJobs) GetJobStatus(ctx context.Context, jobID, ownerID uuid.UUID) (*pipeline.JobView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	v := f.views[0]
	if len(f.views) > 1 {
		f.views = f.views[1:]
	}
	return v, nil
}

func (f *fakeJobs) ListJobs(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*pipeline.JobView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = statuses
	return f.views, nil
}

func jobView(status db.JobStatus, progress int) *pipeline.JobView {
	return &pipeline.JobView{ContentJob: db.ContentJob{ID: uuid.New(), Status: status, Progress: progress}}
}

func serve(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(common.OwnerHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	err := h(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandleParse_Accepted(t *testing.T) {
	jobs := &fakeJobs{}
	rec := serve(t, HandleParse(jobs), http.MethodPost, "/api/content/parse", `{"url":"https://youtu.be/abc123"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res["jobId"])
	assert.NotEmpty(t, res["savedContentId"])
	require.Len(t, jobs.submitted, 1)
	assert.Equal(t, "https://youtu.be/abc123", jobs.submitted[0].URL)
}

func TestHandleParse_ValidationError(t *testing.T) {
	jobs := &fakeJobs{submitErr: &pipeline.ValidationError{Message: "Either url or imageBase64 is required"}}
	rec := serve(t, HandleParse(jobs), http.MethodPost, "/api/content/parse", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Either url or imageBase64 is required"}`, rec.Body.String())
}

func TestHandleParse_StoreFailure(t *testing.T) {
	jobs := &fakeJobs{submitErr: errors.New("connection refused")}
	rec := serve(t, HandleParse(jobs), http.MethodPost, "/api/content/parse", `{"url":"https://example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleParse_RequiresOwner(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/content/parse", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := HandleParse(&fakeJobs{})(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestHandleStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"found", nil, http.StatusOK},
		{"missing", pipeline.ErrNotFound, http.StatusNotFound},
		{"other owner", pipeline.ErrForbidden, http.StatusForbidden},
		{"store down", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := &fakeJobs{views: []*pipeline.JobView{jobView(db.JobStatusProcessing, 30)}, statusErr: tt.err}
			rec := serve(t, HandleStatus(jobs), http.MethodGet, "/", "", "id", uuid.NewString())
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := serve(t, HandleStatus(&fakeJobs{}), http.MethodGet, "/", "", "id", "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus_Body(t *testing.T) {
	v := jobView(db.JobStatusProcessing, 60)
	v.SavedContent = &pipeline.ContentSummary{SourceURL: "https://youtu.be/abc123"}
	rec := serve(t, HandleStatus(&fakeJobs{views: []*pipeline.JobView{v}}), http.MethodGet, "/", "", "id", v.ID.String())

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "processing", body["status"])
	assert.EqualValues(t, 60, body["progress"])
	assert.Equal(t, v.ID.String(), body["id"])
	assert.Equal(t, "https://youtu.be/abc123", body["savedContent"].(map[string]any)["sourceUrl"])
	assert.NotContains(t, body, "recipe")
}

func TestHandleList_StatusFilter(t *testing.T) {
	jobs := &fakeJobs{views: []*pipeline.JobView{jobView(db.JobStatusFailed, 30)}}
	rec := serve(t, HandleList(jobs), http.MethodGet, "/api/content/jobs?status=failed,%20completed", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []db.JobStatus{db.JobStatusFailed, db.JobStatusCompleted}, jobs.listed)
	var body struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Jobs, 1)

	rec = serve(t, HandleList(jobs), http.MethodGet, "/api/content/jobs?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvents_StreamsUntilTerminal(t *testing.T) {
	done := jobView(db.JobStatusCompleted, 100)
	recipeID := uuid.New()
	done.ResultReference = &recipeID

	jobs := &fakeJobs{views: []*pipeline.JobView{
		jobView(db.JobStatusProcessing, 10),
		jobView(db.JobStatusProcessing, 10),
		jobView(db.JobStatusProcessing, 60),
		done,
	}}
	h := HandleEvents(jobs, EventsOptions{PollInterval: 5 * time.Millisecond, Timeout: 5 * time.Second})
	rec := serve(t, h, http.MethodGet, "/", "", "id", uuid.NewString())

	body := rec.Body.String()
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.Equal(t, 1, strings.Count(body, `"jobProgress":10`), "unchanged polls are not re-sent")
	assert.Contains(t, body, `"jobProgress":60`)
	assert.Contains(t, body, `"jobStatus":"completed"`)
	assert.Contains(t, body, recipeID.String())
}

func TestHandleEvents_NotFoundBeforeStreaming(t *testing.T) {
	jobs := &fakeJobs{statusErr: pipeline.ErrNotFound}
	rec := serve(t, HandleEvents(jobs, EventsOptions{}), http.MethodGet, "/", "", "id", uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
