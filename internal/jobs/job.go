package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/m-zajac/contribcount/internal/app"
)

// Job is a single aggregation run.
//
// Request params are immutable. Mutable fields are written only by the job's run goroutine,
// readers get consistent copies through Snapshot.
type Job struct {
	id      string
	req     app.JobRequest
	started time.Time
	cancel  context.CancelFunc

	m        sync.RWMutex
	status   app.JobStatus
	progress *app.Progress
	result   *app.Result
	err      string
	finished time.Time
}

func newJob(id string, req app.JobRequest, now time.Time) *Job {
	return &Job{
		id:       id,
		req:      req,
		started:  now,
		status:   app.StatusPending,
		progress: &app.Progress{Platform: req.Platform},
	}
}

// ID returns job identifier.
func (j *Job) ID() string {
	return j.id
}

// Snapshot returns a copy of job's current state.
func (j *Job) Snapshot() app.JobSnapshot {
	j.m.RLock()
	defer j.m.RUnlock()

	s := app.JobSnapshot{
		ID:       j.id,
		Status:   j.status,
		Org:      j.req.Org,
		Platform: j.req.Platform,
		URL:      j.req.URL,
		Started:  j.started,
		Finished: j.finished,
		Result:   j.result,
		Error:    j.err,
	}
	if j.progress != nil {
		p := *j.progress
		s.Progress = &p
	}

	return s
}

func (j *Job) setProcessing() {
	j.m.Lock()
	defer j.m.Unlock()

	if j.status == app.StatusPending {
		j.status = app.StatusProcessing
	}
}

func (j *Job) setProgress(p app.Progress) {
	j.m.Lock()
	defer j.m.Unlock()

	if j.status.Terminal() {
		return
	}
	j.progress = &p
}

func (j *Job) complete(contributors []app.Contributor, now time.Time) {
	j.m.Lock()
	defer j.m.Unlock()

	if j.status.Terminal() {
		return
	}
	j.status = app.StatusComplete
	j.result = &app.Result{
		Contributors: contributors,
		Org:          j.req.Org,
		Platform:     j.req.Platform,
	}
	j.progress = nil
	j.finished = now
}

func (j *Job) fail(msg string, now time.Time) {
	j.m.Lock()
	defer j.m.Unlock()

	if j.status.Terminal() {
		return
	}
	if msg == "" {
		msg = "Unknown error"
	}
	j.status = app.StatusError
	j.err = msg
	j.progress = nil
	j.finished = now
}

// expired tells if terminal job is older than ttl. Running jobs never expire.
func (j *Job) expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}

	j.m.RLock()
	defer j.m.RUnlock()

	return j.status.Terminal() && j.finished.Add(ttl).Before(now)
}
