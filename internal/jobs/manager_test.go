package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/m-zajac/contribcount/internal/jobs/mock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, crawler Crawler) *Manager {
	t.Helper()

	store, err := NewMemoryStore(10, 0)
	require.NoError(t, err)

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	m := NewManager(store, crawler, l)
	t.Cleanup(m.Close)
	return m
}

func waitForStatus(t *testing.T, m *Manager, id string, status app.JobStatus) app.JobSnapshot {
	t.Helper()

	var s app.JobSnapshot
	require.Eventually(t, func() bool {
		var err error
		s, err = m.Get(id)
		return err == nil && s.Status == status
	}, time.Second, time.Millisecond)

	return s
}

func TestManagerJobLifecycle(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := app.JobRequest{Org: "acme", Platform: app.PlatformGithub, Token: "secret"}
	progressReported := make(chan struct{})
	release := make(chan struct{})
	contributors := []app.Contributor{{Username: "alice", Name: "alice", Contributions: 2}}

	crawler := mock.NewMockCrawler(ctrl)
	crawler.EXPECT().Crawl(gomock.Any(), req, gomock.Any()).DoAndReturn(
		func(ctx context.Context, req app.JobRequest, report func(app.Progress)) ([]app.Contributor, error) {
			report(app.Progress{Platform: app.PlatformGithub, Containers: 1, Total: 2, Current: "a", Contributors: 1})
			close(progressReported)
			<-release
			return contributors, nil
		},
	)

	m := newTestManager(t, crawler)
	id, err := m.Create(req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	<-progressReported
	s, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, app.StatusProcessing, s.Status)
	assert.Equal(t, "acme", s.Org)
	assert.Nil(t, s.Result)
	require.NotNil(t, s.Progress)
	assert.Equal(t, 2, s.Progress.Total)
	assert.Equal(t, "a", s.Progress.Current)
	assert.False(t, s.Started.IsZero())
	assert.True(t, s.Finished.IsZero())

	close(release)
	s = waitForStatus(t, m, id, app.StatusComplete)
	assert.Nil(t, s.Progress)
	assert.Empty(t, s.Error)
	assert.False(t, s.Finished.IsZero())
	require.NotNil(t, s.Result)
	assert.Equal(t, app.Result{Contributors: contributors, Org: "acme", Platform: app.PlatformGithub}, *s.Result)
}

func TestManagerInvalidRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     app.JobRequest
		wantErr string
	}{
		{
			name:    "empty org",
			req:     app.JobRequest{Platform: app.PlatformGithub},
			wantErr: "Organization or group name is required",
		},
		{
			name:    "unknown platform",
			req:     app.JobRequest{Org: "acme", Platform: "bitbucket"},
			wantErr: "Unknown platform",
		},
		{
			name:    "empty platform",
			req:     app.JobRequest{Org: "acme"},
			wantErr: "Unknown platform",
		},
		{
			name:    "gitlab without url",
			req:     app.JobRequest{Org: "acme", Platform: app.PlatformGitlab},
			wantErr: "GitLab instance URL is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := newTestManager(t, mock.NewMockCrawler(ctrl))
			id, err := m.Create(tt.req)
			require.NoError(t, err)

			s := waitForStatus(t, m, id, app.StatusError)
			assert.Equal(t, tt.wantErr, s.Error)
			assert.Nil(t, s.Progress)
			assert.Nil(t, s.Result)

			_, err = m.Probe(context.Background(), tt.req, 5)
			assert.True(t, app.IsInvalidRequestError(err))
		})
	}
}

func TestManagerCrawlError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := app.JobRequest{Org: "group", Platform: app.PlatformGitlab, URL: "https://gitlab.com"}
	crawler := mock.NewMockCrawler(ctrl)
	crawler.EXPECT().Crawl(gomock.Any(), req, gomock.Any()).
		Return(nil, app.NoResultsError("No projects found for this group. Please check the group name, URL, and your token permissions."))

	m := newTestManager(t, crawler)
	id, err := m.Create(req)
	require.NoError(t, err)

	s := waitForStatus(t, m, id, app.StatusError)
	assert.Equal(t, "No projects found for this group. Please check the group name, URL, and your token permissions.", s.Error)
	assert.Equal(t, "https://gitlab.com", s.URL)
	assert.Nil(t, s.Progress)
}

func TestManagerGetUnknown(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newTestManager(t, mock.NewMockCrawler(ctrl))
	_, err := m.Get("missing")
	require.Error(t, err)
	assert.True(t, app.IsNotFoundError(err))
	assert.Equal(t, "Job not found", err.Error())
}

func TestManagerClose(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	crawler := mock.NewMockCrawler(ctrl)
	crawler.EXPECT().Crawl(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req app.JobRequest, report func(app.Progress)) ([]app.Contributor, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)

	m := newTestManager(t, crawler)
	id, err := m.Create(app.JobRequest{Org: "acme", Platform: app.PlatformGithub})
	require.NoError(t, err)

	<-started
	m.Close()

	s, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, app.StatusError, s.Status)
	assert.Equal(t, context.Canceled.Error(), s.Error)

	_, err = m.Create(app.JobRequest{Org: "acme", Platform: app.PlatformGithub})
	assert.Error(t, err)
}

func TestManagerProbe(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := app.JobRequest{Org: "acme", Platform: app.PlatformGithub, Token: "secret"}
	want := &app.ProbeResult{Platform: app.PlatformGithub, Org: "acme"}
	crawler := mock.NewMockCrawler(ctrl)
	crawler.EXPECT().Probe(gomock.Any(), req, 5).Return(want, nil)
	crawler.EXPECT().Probe(gomock.Any(), req, 1).Return(nil, errors.New("boom"))

	m := newTestManager(t, crawler)
	got, err := m.Probe(context.Background(), req, 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = m.Probe(context.Background(), req, 1)
	assert.EqualError(t, err, "boom")
}
