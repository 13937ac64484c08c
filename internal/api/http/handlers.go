package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
)

const (
	defaultProbeCount = 5
	maxProbeCount     = 100
)

type errorResponse struct {
	Error string `json:"error"`
}

type startResponse struct {
	JobID string `json:"jobId"`
}

type statusResponse struct {
	Status   app.JobStatus `json:"status"`
	Error    *string       `json:"error"`
	Progress *app.Progress `json:"progress"`
	Started  time.Time     `json:"started"`
}

func newStatusResponse(s app.JobSnapshot) statusResponse {
	resp := statusResponse{
		Status:   s.Status,
		Progress: s.Progress,
		Started:  s.Started,
	}
	if s.Error != "" {
		msg := s.Error
		resp.Error = &msg
	}

	return resp
}

type resultResponse struct {
	Result *app.Result `json:"result"`
}

// NewStartHandler creates handlerfunc registering a new job.
func NewStartHandler(service Service, l logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req app.JobRequest
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		id, err := service.Create(req)
		if err != nil {
			l.Errorf("creating job: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, startResponse{JobID: id})
	}
}

// NewStatusHandler creates handlerfunc returning job status.
func NewStatusHandler(service Service, l logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := getJob(w, r, service, l)
		if !ok {
			return
		}

		writeJSON(w, http.StatusOK, newStatusResponse(job))
	}
}

// NewResultHandler creates handlerfunc returning job result.
// Jobs that aren't complete yet get 202 with the status body.
func NewResultHandler(service Service, l logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := getJob(w, r, service, l)
		if !ok {
			return
		}

		if job.Status != app.StatusComplete {
			writeJSON(w, http.StatusAccepted, newStatusResponse(job))
			return
		}

		writeJSON(w, http.StatusOK, resultResponse{Result: job.Result})
	}
}

// NewHealthHandler creates handlerfunc for liveness checks.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewProbeHandler creates handlerfunc checking provider connectivity for given org.
func NewProbeHandler(service Service, l logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		token := q.Get("token")
		if token == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Token required"})
			return
		}

		req := app.JobRequest{
			Org:      chi.URLParam(r, "org"),
			Platform: app.Platform(chi.URLParam(r, "platform")),
			Token:    token,
			URL:      q.Get("url"),
		}
		result, err := service.Probe(r.Context(), req, getIntParam(r, "count", defaultProbeCount))
		if err != nil {
			if app.IsInvalidRequestError(err) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}

			l.Errorf("probing %s/%s: %v", req.Platform, req.Org, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func getJob(w http.ResponseWriter, r *http.Request, service Service, l logrus.FieldLogger) (app.JobSnapshot, bool) {
	job, err := service.Get(chi.URLParam(r, "jobId"))
	if err != nil {
		if app.IsNotFoundError(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return job, false
		}

		l.Errorf("reading job: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return job, false
	}

	return job, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(v)
}

func getIntParam(r *http.Request, name string, defaultValue int) int {
	value := defaultValue
	if vs := r.URL.Query().Get(name); vs != "" {
		if v, err := strconv.Atoi(vs); err == nil && v > 0 && v <= maxProbeCount {
			value = v
		}
	}

	return value
}
