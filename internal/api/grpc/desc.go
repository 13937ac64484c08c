package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "contribcount.JobService"

// JobServiceServer is the server API for JobService.
// Messages are google.protobuf.Struct values shaped like the http api bodies.
type JobServiceServer interface {
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Result(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterJobServiceServer registers srv on s.
func RegisterJobServiceServer(s grpc.ServiceRegistrar, srv JobServiceServer) {
	s.RegisterService(&jobServiceDesc, srv)
}

var jobServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JobServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: unaryHandler("Start", JobServiceServer.Start)},
		{MethodName: "Status", Handler: unaryHandler("Status", JobServiceServer.Status)},
		{MethodName: "Result", Handler: unaryHandler("Result", JobServiceServer.Result)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contribcount/job_service.proto",
}

type unaryMethod func(JobServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(JobServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + name,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(JobServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// JobServiceClient is the client API for JobService.
type JobServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewJobServiceClient creates new JobServiceClient instance.
func NewJobServiceClient(cc grpc.ClientConnInterface) *JobServiceClient {
	return &JobServiceClient{cc: cc}
}

// Start calls JobService.Start.
func (c *JobServiceClient) Start(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Start", in, opts...)
}

// Status calls JobService.Status.
func (c *JobServiceClient) Status(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Status", in, opts...)
}

// Result calls JobService.Result.
func (c *JobServiceClient) Result(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Result", in, opts...)
}

func (c *JobServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
