// Package jobs tracks asynchronous contributor count jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
)

// Crawler runs contributor crawls.
//go:generate mockgen -destination mock/crawler.go -package mock github.com/m-zajac/contribcount/internal/jobs Crawler
type Crawler interface {
	Crawl(ctx context.Context, req app.JobRequest, report func(app.Progress)) ([]app.Contributor, error)
	Probe(ctx context.Context, req app.JobRequest, count int) (*app.ProbeResult, error)
}

// Manager creates jobs and runs them in background.
type Manager struct {
	store    Store
	crawler  Crawler
	validate *validator.Validate
	l        logrus.FieldLogger
	now      func() time.Time

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	m      sync.Mutex
	closed bool
}

// NewManager creates new Manager instance.
func NewManager(store Store, crawler Crawler, l logrus.FieldLogger) *Manager {
	ctx, stop := context.WithCancel(context.Background())

	return &Manager{
		store:    store,
		crawler:  crawler,
		validate: validator.New(),
		l:        l,
		now:      time.Now,
		ctx:      ctx,
		stop:     stop,
	}
}

// Create registers new pending job and starts it in background.
// Returns job id immediately. Invalid request params don't fail here, they fail the job.
func (m *Manager) Create(req app.JobRequest) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.closed {
		return "", errors.New("job manager is closed")
	}

	id := uuid.NewString()
	job := newJob(id, req, m.now())
	ctx, cancel := context.WithCancel(m.ctx)
	job.cancel = cancel
	m.store.Add(job)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer job.cancel()
		m.run(ctx, job)
	}()

	return id, nil
}

// Get returns snapshot of job with given id.
func (m *Manager) Get(id string) (app.JobSnapshot, error) {
	job, ok := m.store.Get(id)
	if !ok {
		return app.JobSnapshot{}, app.NotFoundError("Job not found")
	}

	return job.Snapshot(), nil
}

// Probe checks provider connectivity for given request.
func (m *Manager) Probe(ctx context.Context, req app.JobRequest, count int) (*app.ProbeResult, error) {
	if err := m.validateRequest(req); err != nil {
		return nil, err
	}

	return m.crawler.Probe(ctx, req, count)
}

// Close cancels all running jobs and waits for them to finish.
func (m *Manager) Close() {
	m.m.Lock()
	m.closed = true
	m.m.Unlock()

	m.stop()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, job *Job) {
	l := m.l.WithFields(logrus.Fields{
		"job":      job.ID(),
		"platform": job.req.Platform,
		"org":      job.req.Org,
	})

	defer func() {
		if r := recover(); r != nil {
			l.Errorf("job panicked: %v", r)
			job.fail(fmt.Sprintf("internal error: %v", r), m.now())
		}
	}()

	if err := m.validateRequest(job.req); err != nil {
		l.Errorf("job failed: %v", err)
		job.fail(err.Error(), m.now())
		return
	}

	job.setProcessing()
	l.Info("job started")

	contributors, err := m.crawler.Crawl(ctx, job.req, job.setProgress)
	if err != nil {
		l.Errorf("job failed: %v", err)
		job.fail(err.Error(), m.now())
		return
	}

	job.complete(contributors, m.now())
	l.Infof("job complete, %d contributors", len(contributors))
}

func (m *Manager) validateRequest(req app.JobRequest) error {
	err := m.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return app.InvalidRequestError(err.Error())
	}

	switch verrs[0].Field() {
	case "Org":
		return app.InvalidRequestError("Organization or group name is required")
	case "Platform":
		return app.InvalidRequestError("Unknown platform")
	case "URL":
		return app.InvalidRequestError("GitLab instance URL is required")
	default:
		return app.InvalidRequestError(verrs[0].Error())
	}
}
