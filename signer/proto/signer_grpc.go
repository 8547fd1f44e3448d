package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ThresholdSigner_Ping_FullMethodName        = "/proto.ThresholdSigner/Ping"
	ThresholdSigner_PublicKey_FullMethodName   = "/proto.ThresholdSigner/PublicKey"
	ThresholdSigner_SignPrehash_FullMethodName = "/proto.ThresholdSigner/SignPrehash"
)

// ThresholdSignerClient is the client API for the ThresholdSigner service.
type ThresholdSignerClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	PublicKey(ctx context.Context, in *PublicKeyRequest, opts ...grpc.CallOption) (*PublicKeyResponse, error)
	SignPrehash(ctx context.Context, in *SignPrehashRequest, opts ...grpc.CallOption) (*SignPrehashResponse, error)
}

type thresholdSignerClient struct {
	cc grpc.ClientConnInterface
}

func NewThresholdSignerClient(cc grpc.ClientConnInterface) ThresholdSignerClient {
	return &thresholdSignerClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
}

func (c *thresholdSignerClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, ThresholdSigner_Ping_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *thresholdSignerClient) PublicKey(ctx context.Context, in *PublicKeyRequest, opts ...grpc.CallOption) (*PublicKeyResponse, error) {
	out := new(PublicKeyResponse)
	if err := c.cc.Invoke(ctx, ThresholdSigner_PublicKey_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *thresholdSignerClient) SignPrehash(ctx context.Context, in *SignPrehashRequest, opts ...grpc.CallOption) (*SignPrehashResponse, error) {
	out := new(SignPrehashResponse)
	if err := c.cc.Invoke(ctx, ThresholdSigner_SignPrehash_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// ThresholdSignerServer is the server API for the ThresholdSigner service.
type ThresholdSignerServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	PublicKey(context.Context, *PublicKeyRequest) (*PublicKeyResponse, error)
	SignPrehash(context.Context, *SignPrehashRequest) (*SignPrehashResponse, error)
}

// UnimplementedThresholdSignerServer can be embedded to have forward
// compatible implementations.
type UnimplementedThresholdSignerServer struct{}

func (UnimplementedThresholdSignerServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}

func (UnimplementedThresholdSignerServer) PublicKey(context.Context, *PublicKeyRequest) (*PublicKeyResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PublicKey not implemented")
}

func (UnimplementedThresholdSignerServer) SignPrehash(context.Context, *SignPrehashRequest) (*SignPrehashResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SignPrehash not implemented")
}

func RegisterThresholdSignerServer(s grpc.ServiceRegistrar, srv ThresholdSignerServer) {
	s.RegisterService(&ThresholdSigner_ServiceDesc, srv)
}

func _ThresholdSigner_Ping_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ThresholdSignerServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ThresholdSigner_Ping_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ThresholdSignerServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ThresholdSigner_PublicKey_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PublicKeyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ThresholdSignerServer).PublicKey(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ThresholdSigner_PublicKey_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ThresholdSignerServer).PublicKey(ctx, req.(*PublicKeyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ThresholdSigner_SignPrehash_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SignPrehashRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ThresholdSignerServer).SignPrehash(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ThresholdSigner_SignPrehash_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ThresholdSignerServer).SignPrehash(ctx, req.(*SignPrehashRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ThresholdSigner_ServiceDesc is the grpc.ServiceDesc for the ThresholdSigner
// service.
var ThresholdSigner_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "proto.ThresholdSigner",
	HandlerType: (*ThresholdSignerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler:    _ThresholdSigner_Ping_Handler,
		},
		{
			MethodName: "PublicKey",
			Handler:    _ThresholdSigner_PublicKey_Handler,
		},
		{
			MethodName: "SignPrehash",
			Handler:    _ThresholdSigner_SignPrehash_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "signer.proto",
}
