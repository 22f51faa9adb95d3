package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName      = "ripplecalc.v1.Settlement"
	settleFullMethod = "/" + serviceName + "/Settle"
)

// SettlementServer is the server API of ripplecalc.v1.Settlement. Messages
// are google.protobuf.Struct values whose fields mirror the payment
// fixture.
type SettlementServer interface {
	Settle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func settleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServer).Settle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: settleFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServer).Settle(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SettlementServiceDesc describes ripplecalc.v1.Settlement for
// grpc.Server.RegisterService.
var SettlementServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SettlementServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Settle", Handler: settleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ripplecalc/v1/settlement.proto",
}

// Client calls a remote settlement service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Settle(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, settleFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
