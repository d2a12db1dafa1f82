package admin

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "subscription.v1.AdminService"

// Full method names.
const (
	ExecuteMethod                    = "/" + ServiceName + "/Execute"
	ListSubscriptionOptionsMethod    = "/" + ServiceName + "/ListSubscriptionOptions"
	ListSettlementInstructionsMethod = "/" + ServiceName + "/ListSettlementInstructions"
)

// AdminServiceServer is the server API for subscription.v1.AdminService.
// Messages are google.protobuf.Struct documents.
type AdminServiceServer interface {
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSubscriptionOptions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSettlementInstructions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAdminServiceServer registers srv on s.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes subscription.v1.AdminService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: unaryHandler(ExecuteMethod, AdminServiceServer.Execute)},
		{MethodName: "ListSubscriptionOptions", Handler: unaryHandler(ListSubscriptionOptionsMethod, AdminServiceServer.ListSubscriptionOptions)},
		{MethodName: "ListSettlementInstructions", Handler: unaryHandler(ListSettlementInstructionsMethod, AdminServiceServer.ListSettlementInstructions)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "subscription/v1/admin.proto",
}

type structMethod func(AdminServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(AdminServiceServer)
		if interceptor == nil {
			return method(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls subscription.v1.AdminService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client bound to cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs one admin command.
func (c *Client) Execute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ExecuteMethod, in, opts...)
}

// ListSubscriptionOptions lists offered payment options.
func (c *Client) ListSubscriptionOptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListSubscriptionOptionsMethod, in, opts...)
}

// ListSettlementInstructions lists the settlement outbox.
func (c *Client) ListSettlementInstructions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListSettlementInstructionsMethod, in, opts...)
}
