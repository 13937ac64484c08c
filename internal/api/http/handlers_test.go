package http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/m-zajac/contribcount/internal/api/http/mock"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStarted = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestHandlers(t *testing.T) {
	t.Parallel()

	processing := app.JobSnapshot{
		ID:       "job1",
		Status:   app.StatusProcessing,
		Org:      "acme",
		Platform: app.PlatformGithub,
		Started:  testStarted,
		Progress: &app.Progress{Platform: app.PlatformGithub, Containers: 1, Total: 2, Current: "a", Contributors: 1},
	}
	complete := app.JobSnapshot{
		ID:       "job1",
		Status:   app.StatusComplete,
		Org:      "acme",
		Platform: app.PlatformGithub,
		Started:  testStarted,
		Result: &app.Result{
			Contributors: []app.Contributor{{Username: "alice", Name: "Alice", Contributions: 2, AvatarURL: "https://a"}},
			Org:          "acme",
			Platform:     app.PlatformGithub,
		},
	}
	failed := app.JobSnapshot{
		ID:       "job1",
		Status:   app.StatusError,
		Org:      "group",
		Platform: app.PlatformGitlab,
		Started:  testStarted,
		Error:    "Group not found. Please check the group name and ensure it exists.",
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMock  func(*mock.MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "start job",
			method: http.MethodPost,
			path:   "/api/start",
			body:   `{"org":"acme","platform":"github","token":"secret"}`,
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Create(app.JobRequest{Org: "acme", Platform: app.PlatformGithub, Token: "secret"}).
					Return("job1", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"jobId":"job1"}`,
		},
		{
			name:   "start gitlab job",
			method: http.MethodPost,
			path:   "/api/start",
			body:   `{"org":"group/sub","platform":"gitlab","token":"glpat","url":"https://gitlab.example.com"}`,
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Create(app.JobRequest{Org: "group/sub", Platform: app.PlatformGitlab, Token: "glpat", URL: "https://gitlab.example.com"}).
					Return("job2", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"jobId":"job2"}`,
		},
		{
			name:       "start with invalid body",
			method:     http.MethodPost,
			path:       "/api/start",
			body:       `{"org":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request body"}`,
		},
		{
			name:   "start failure",
			method: http.MethodPost,
			path:   "/api/start",
			body:   `{"org":"acme","platform":"github"}`,
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Create(gomock.Any()).Return("", errors.New("job manager is closed"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"job manager is closed"}`,
		},
		{
			name:   "status of processing job",
			method: http.MethodGet,
			path:   "/api/status/job1",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(processing, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"processing","error":null,"progress":{"repos":1,"totalRepos":2,"currentRepo":"a","contributors":1},"started":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:   "status of failed job",
			method: http.MethodGet,
			path:   "/api/status/job1",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(failed, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"error","error":"Group not found. Please check the group name and ensure it exists.","progress":null,"started":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:   "status of unknown job",
			method: http.MethodGet,
			path:   "/api/status/nope",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("nope").Return(app.JobSnapshot{}, app.NotFoundError("Job not found"))
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Job not found"}`,
		},
		{
			name:   "result of processing job",
			method: http.MethodGet,
			path:   "/api/result/job1",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(processing, nil)
			},
			wantStatus: http.StatusAccepted,
			wantBody:   `{"status":"processing","error":null,"progress":{"repos":1,"totalRepos":2,"currentRepo":"a","contributors":1},"started":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:   "result of failed job",
			method: http.MethodGet,
			path:   "/api/result/job1",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(failed, nil)
			},
			wantStatus: http.StatusAccepted,
			wantBody:   `{"status":"error","error":"Group not found. Please check the group name and ensure it exists.","progress":null,"started":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:   "result of complete job",
			method: http.MethodGet,
			path:   "/api/result/job1",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(complete, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"result":{"contributors":[{"username":"alice","name":"Alice","email":"","contributions":2,"avatar_url":"https://a"}],"org":"acme","platform":"github"}}`,
		},
		{
			name:   "result of unknown job",
			method: http.MethodGet,
			path:   "/api/result/nope",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("nope").Return(app.JobSnapshot{}, app.NotFoundError("Job not found"))
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Job not found"}`,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "probe without token",
			method:     http.MethodGet,
			path:       "/api/debug/github/acme",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Token required"}`,
		},
		{
			name:   "probe",
			method: http.MethodGet,
			path:   "/api/debug/github/acme?token=secret&count=2",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Probe(gomock.Any(), app.JobRequest{Org: "acme", Platform: app.PlatformGithub, Token: "secret"}, 2).
					Return(&app.ProbeResult{
						Platform:   app.PlatformGithub,
						Org:        "acme",
						Containers: []app.Container{{ID: "acme/a", Name: "a"}},
						RateLimit:  app.RateLimit{Remaining: "4999", Reset: "1700000000"},
					}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"platform":"github","org":"acme","containers":[{"id":"acme/a","name":"a"}],"rateLimit":{"remaining":"4999","reset":"1700000000"}}`,
		},
		{
			name:   "probe with invalid count uses default",
			method: http.MethodGet,
			path:   "/api/debug/gitlab/group?token=secret&url=https://gitlab.com&count=1000",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Probe(gomock.Any(), app.JobRequest{Org: "group", Platform: app.PlatformGitlab, Token: "secret", URL: "https://gitlab.com"}, defaultProbeCount).
					Return(nil, app.InvalidRequestError("GitLab instance URL is required"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"GitLab instance URL is required"}`,
		},
		{
			name:   "probe failure",
			method: http.MethodGet,
			path:   "/api/debug/github/acme?token=secret",
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Probe(gomock.Any(), gomock.Any(), defaultProbeCount).
					Return(nil, errors.New("GitHub API request failed: 401 Unauthorized"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"GitHub API request failed: 401 Unauthorized"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := mock.NewMockService(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(s)
			}

			l := logrus.New()
			l.SetOutput(io.Discard)
			mux := NewMux(s, time.Second, l)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-type"))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestStatusResponseDoesNotShareError(t *testing.T) {
	t.Parallel()

	s := app.JobSnapshot{Status: app.StatusError, Error: "boom"}
	resp := newStatusResponse(s)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
	assert.Nil(t, newStatusResponse(app.JobSnapshot{Status: app.StatusPending}).Error)
}
