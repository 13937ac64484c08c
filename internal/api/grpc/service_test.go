package grpc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/m-zajac/contribcount/internal/api/http/mock"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()

	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestServiceStart(t *testing.T) {
	tests := []struct {
		name      string
		req       map[string]interface{}
		setupMock func(*mock.MockService)
		want      map[string]interface{}
		wantCode  codes.Code
	}{
		{
			name: "job created",
			req:  map[string]interface{}{"org": "acme", "platform": "github", "token": "secret"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().
					Create(app.JobRequest{Org: "acme", Platform: app.PlatformGithub, Token: "secret"}).
					Return("job1", nil)
			},
			want:     map[string]interface{}{"jobId": "job1"},
			wantCode: codes.OK,
		},
		{
			name:     "invalid field type",
			req:      map[string]interface{}{"org": 5.0},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "app service error",
			req:  map[string]interface{}{"org": "acme", "platform": "github"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Create(gomock.Any()).Return("", errors.New("job manager is closed"))
			},
			wantCode: codes.Internal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			appService := mock.NewMockService(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(appService)
			}
			s := NewService(appService)

			got, err := s.Start(context.Background(), mustStruct(t, tt.req))
			require.Equal(t, tt.wantCode, status.Code(err))
			if tt.want != nil {
				assert.Equal(t, tt.want, got.AsMap())
			}
		})
	}
}

func TestServiceStatusAndResult(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	processing := app.JobSnapshot{
		ID:       "job1",
		Status:   app.StatusProcessing,
		Platform: app.PlatformGitlab,
		Started:  started,
		Progress: &app.Progress{Platform: app.PlatformGitlab, Containers: 20, Total: 45, Current: "p", Contributors: 7},
	}
	complete := app.JobSnapshot{
		ID:      "job1",
		Status:  app.StatusComplete,
		Started: started,
		Result: &app.Result{
			Contributors: []app.Contributor{{Username: "Bob", Name: "Bob", Email: "bob@example.com", Contributions: 3}},
			Org:          "group",
			Platform:     app.PlatformGitlab,
		},
	}

	processingReply := map[string]interface{}{
		"status":  "processing",
		"started": "2024-05-01T12:00:00Z",
		"progress": map[string]interface{}{
			"projects":       20.0,
			"totalProjects":  45.0,
			"currentProject": "p",
			"contributors":   7.0,
		},
	}

	tests := []struct {
		name      string
		call      func(*Service, context.Context, *structpb.Struct) (*structpb.Struct, error)
		req       map[string]interface{}
		setupMock func(*mock.MockService)
		want      map[string]interface{}
		wantCode  codes.Code
	}{
		{
			name: "status",
			call: (*Service).Status,
			req:  map[string]interface{}{"jobId": "job1"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(processing, nil)
			},
			want:     processingReply,
			wantCode: codes.OK,
		},
		{
			name:     "status without job id",
			call:     (*Service).Status,
			req:      map[string]interface{}{},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "status of unknown job",
			call: (*Service).Status,
			req:  map[string]interface{}{"jobId": "nope"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("nope").Return(app.JobSnapshot{}, app.NotFoundError("Job not found"))
			},
			wantCode: codes.NotFound,
		},
		{
			name: "result of processing job",
			call: (*Service).Result,
			req:  map[string]interface{}{"jobId": "job1"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(processing, nil)
			},
			want:     processingReply,
			wantCode: codes.OK,
		},
		{
			name: "result of complete job",
			call: (*Service).Result,
			req:  map[string]interface{}{"jobId": "job1"},
			setupMock: func(m *mock.MockService) {
				m.EXPECT().Get("job1").Return(complete, nil)
			},
			want: map[string]interface{}{
				"status": "complete",
				"result": map[string]interface{}{
					"org":      "group",
					"platform": "gitlab",
					"contributors": []interface{}{
						map[string]interface{}{
							"username":      "Bob",
							"name":          "Bob",
							"email":         "bob@example.com",
							"contributions": 3.0,
						},
					},
				},
			},
			wantCode: codes.OK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			appService := mock.NewMockService(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(appService)
			}
			s := NewService(appService)

			got, err := tt.call(s, context.Background(), mustStruct(t, tt.req))
			require.Equal(t, tt.wantCode, status.Code(err))
			if tt.want != nil {
				assert.Equal(t, tt.want, got.AsMap())
			}
		})
	}
}

func TestServerOverBufconn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	appService := mock.NewMockService(ctrl)
	appService.EXPECT().Create(app.JobRequest{Org: "acme", Platform: app.PlatformGithub}).Return("job1", nil)
	appService.EXPECT().Get("missing").Return(app.JobSnapshot{}, app.NotFoundError("Job not found"))

	l := logrus.New()
	l.SetOutput(io.Discard)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- NewServer(NewService(appService), "", l).Serve(ctx, lis)
	}()

	conn, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := NewJobServiceClient(conn)
	reply, err := client.Start(context.Background(), mustStruct(t, map[string]interface{}{"org": "acme", "platform": "github"}))
	require.NoError(t, err)
	assert.Equal(t, "job1", reply.AsMap()["jobId"])

	_, err = client.Status(context.Background(), mustStruct(t, map[string]interface{}{"jobId": "missing"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	cancel()
	require.NoError(t, <-serveErr)
}

func TestStructRoundTrip(t *testing.T) {
	s, err := ToStruct(app.JobRequest{Org: "group/sub", Platform: app.PlatformGitlab, URL: "https://gitlab.com"})
	require.NoError(t, err)

	var req app.JobRequest
	require.NoError(t, FromStruct(s, &req))
	assert.Equal(t, app.JobRequest{Org: "group/sub", Platform: app.PlatformGitlab, URL: "https://gitlab.com"}, req)
}
