package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	appGrpc "github.com/m-zajac/contribcount/internal/api/grpc"
	"github.com/m-zajac/contribcount/internal/app"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jobClient talks to the contribcount job api.
type jobClient interface {
	Start(ctx context.Context, req app.JobRequest) (string, error)
	Status(ctx context.Context, id string) (*jobStatus, error)
	// Result returns nil result with job status if the job isn't complete yet.
	Result(ctx context.Context, id string) (*app.Result, *jobStatus, error)
}

type jobStatus struct {
	Status   app.JobStatus `json:"status"`
	Error    *string       `json:"error"`
	Progress *progress     `json:"progress"`
}

// progress accepts both github and gitlab shapes.
type progress struct {
	Repos          int    `json:"repos"`
	TotalRepos     int    `json:"totalRepos"`
	CurrentRepo    string `json:"currentRepo"`
	Projects       int    `json:"projects"`
	TotalProjects  int    `json:"totalProjects"`
	CurrentProject string `json:"currentProject"`
	Contributors   int    `json:"contributors"`

	gitlab bool
}

func (p *progress) UnmarshalJSON(data []byte) error {
	type plain progress
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var keys map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, v.gitlab = keys["projects"]
	*p = progress(v)

	return nil
}

func (p progress) String() string {
	if p.gitlab {
		return fmt.Sprintf("projects %d/%d, contributors %d, current %q", p.Projects, p.TotalProjects, p.Contributors, p.CurrentProject)
	}
	return fmt.Sprintf("repos %d/%d, contributors %d, current %q", p.Repos, p.TotalRepos, p.Contributors, p.CurrentRepo)
}

type httpJobClient struct {
	client  *http.Client
	address string
}

func newHTTPJobClient(client *http.Client, address string) *httpJobClient {
	return &httpJobClient{
		client:  client,
		address: strings.TrimRight(address, "/"),
	}
}

func (c *httpJobClient) Start(ctx context.Context, req app.JobRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	var resp struct {
		JobID string `json:"jobId"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/start", body, &resp); err != nil {
		return "", err
	}

	return resp.JobID, nil
}

func (c *httpJobClient) Status(ctx context.Context, id string) (*jobStatus, error) {
	var s jobStatus
	if _, err := c.do(ctx, http.MethodGet, "/api/status/"+id, nil, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

func (c *httpJobClient) Result(ctx context.Context, id string) (*app.Result, *jobStatus, error) {
	var resp struct {
		jobStatus
		Result *app.Result `json:"result"`
	}
	code, err := c.do(ctx, http.MethodGet, "/api/result/"+id, nil, &resp)
	if err != nil {
		return nil, nil, err
	}
	if code == http.StatusAccepted {
		return nil, &resp.jobStatus, nil
	}

	return resp.Result, &jobStatus{Status: app.StatusComplete}, nil
}

func (c *httpJobClient) do(ctx context.Context, method string, path string, body []byte, v interface{}) (int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.address+path, r)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}

	return resp.StatusCode, nil
}

type grpcJobClient struct {
	client *appGrpc.JobServiceClient
}

func newGRPCJobClient(conn grpc.ClientConnInterface) *grpcJobClient {
	return &grpcJobClient{
		client: appGrpc.NewJobServiceClient(conn),
	}
}

func (c *grpcJobClient) Start(ctx context.Context, req app.JobRequest) (string, error) {
	in, err := appGrpc.ToStruct(req)
	if err != nil {
		return "", err
	}
	out, err := c.client.Start(ctx, in)
	if err != nil {
		return "", err
	}

	var resp appGrpc.StartReply
	if err := appGrpc.FromStruct(out, &resp); err != nil {
		return "", err
	}

	return resp.JobID, nil
}

func (c *grpcJobClient) Status(ctx context.Context, id string) (*jobStatus, error) {
	out, err := c.client.Status(ctx, jobRef(id))
	if err != nil {
		return nil, err
	}

	var s jobStatus
	if err := appGrpc.FromStruct(out, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

func (c *grpcJobClient) Result(ctx context.Context, id string) (*app.Result, *jobStatus, error) {
	out, err := c.client.Result(ctx, jobRef(id))
	if err != nil {
		return nil, nil, err
	}

	var resp struct {
		jobStatus
		Result *app.Result `json:"result"`
	}
	if err := appGrpc.FromStruct(out, &resp); err != nil {
		return nil, nil, err
	}

	return resp.Result, &resp.jobStatus, nil
}

func jobRef(id string) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"jobId": structpb.NewStringValue(id),
		},
	}
}
