// Package grpc exposes the job api over gRPC.
package grpc

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/contribcount/internal/app"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AppService manages contributor count jobs.
type AppService interface {
	Create(req app.JobRequest) (string, error)
	Get(id string) (app.JobSnapshot, error)
}

// Service implements JobServiceServer, acting as a direct proxy to AppService.
type Service struct {
	appService AppService
}

// NewService returns new Service instance
func NewService(appService AppService) *Service {
	return &Service{
		appService: appService,
	}
}

// StartReply is the Start response body.
type StartReply struct {
	JobID string `json:"jobId"`
}

// StatusReply is the Status response body, also returned by Result for jobs that aren't complete.
type StatusReply struct {
	Status   app.JobStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
	Progress *app.Progress `json:"progress,omitempty"`
	Started  time.Time     `json:"started"`
}

// ResultReply is the Result response body.
type ResultReply struct {
	Status app.JobStatus `json:"status"`
	Result *app.Result   `json:"result"`
}

type jobRef struct {
	JobID string `json:"jobId"`
}

// Start registers new job.
func (s *Service) Start(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	var req app.JobRequest
	if err := FromStruct(r, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	id, err := s.appService.Create(req)
	if err != nil {
		return nil, toStatus(fmt.Errorf("creating job: %w", err))
	}

	return toReply(StartReply{JobID: id})
}

// Status returns job status.
func (s *Service) Status(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	job, err := s.get(r)
	if err != nil {
		return nil, err
	}

	return toReply(newStatusReply(job))
}

// Result returns job result if it's complete, or its status otherwise.
func (s *Service) Result(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	job, err := s.get(r)
	if err != nil {
		return nil, err
	}
	if job.Status != app.StatusComplete {
		return toReply(newStatusReply(job))
	}

	return toReply(ResultReply{Status: job.Status, Result: job.Result})
}

func (s *Service) get(r *structpb.Struct) (app.JobSnapshot, error) {
	var ref jobRef
	if err := FromStruct(r, &ref); err != nil || ref.JobID == "" {
		return app.JobSnapshot{}, status.Error(codes.InvalidArgument, "jobId is required")
	}

	job, err := s.appService.Get(ref.JobID)
	if err != nil {
		return job, toStatus(err)
	}

	return job, nil
}

func newStatusReply(job app.JobSnapshot) StatusReply {
	return StatusReply{
		Status:   job.Status,
		Error:    job.Error,
		Progress: job.Progress,
		Started:  job.Started,
	}
}

func toStatus(err error) error {
	switch {
	case app.IsNotFoundError(err):
		return status.Error(codes.NotFound, err.Error())
	case app.IsInvalidRequestError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func toReply(v interface{}) (*structpb.Struct, error) {
	s, err := ToStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding reply: %v", err)
	}
	return s, nil
}

// ToStruct converts json-serializable value to a Struct message.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling json: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshalling json: %w", err)
	}

	return structpb.NewStruct(m)
}

// FromStruct decodes Struct message into v, following v's json tags.
func FromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshalling json: %w", err)
	}

	return nil
}
