package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// Server runs grpc server handling job requests.
type Server struct {
	service JobServiceServer
	address string
	l       logrus.FieldLogger
}

// NewServer creates new Server instance.
func NewServer(service JobServiceServer, address string, l logrus.FieldLogger) *Server {
	return &Server{
		service: service,
		address: address,
		l:       l,
	}
}

// Run runs the grpc server until ctx is done, then stops it gracefully.
// Returns error when failing to open tcp connection.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("starting tcp listener: %w", err)
	}

	return s.Serve(ctx, lis)
}

// Serve handles connections from lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	RegisterJobServiceServer(srv, s.service)

	errs := make(chan error, 1)
	go func() {
		s.l.Infof("starting grpc server, listening on %s", lis.Addr())
		errs <- srv.Serve(lis)
	}()

	select {
	case err := <-errs:
		if err != nil && err != grpc.ErrServerStopped {
			return fmt.Errorf("serving grpc: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	srv.GracefulStop()
	s.l.Info("grpc server shut down")

	return nil
}
