package service

import (
	"context"
	"crypto/hmac"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/talos-labs/staking-wallet/signer/client"
	"github.com/talos-labs/staking-wallet/signer/proto"
)

// HMACUnaryServerInterceptor creates a gRPC server interceptor that verifies HMAC
// on incoming requests. It bypasses authentication for the Ping method.
func HMACUnaryServerInterceptor(hmacKey string, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		// NOTE: pings stay unauthenticated to allow for health checks
		if info.FullMethod == proto.ThresholdSigner_Ping_FullMethodName || hmacKey == "" {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Errorf(codes.Unauthenticated, "metadata is not provided")
		}

		values := md.Get(client.HMACHeaderKey)
		if len(values) == 0 {
			return nil, status.Errorf(codes.Unauthenticated, "HMAC not provided")
		}
		receivedHMAC := values[0]

		expectedHMAC, err := client.GenerateHMAC(hmacKey, req)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to compute HMAC: %v", err)
		}

		// constant-time comparison
		if !hmac.Equal([]byte(receivedHMAC), []byte(expectedHMAC)) {
			logger.Warn("HMAC authentication failed", zap.String("method", info.FullMethod))
			return nil, status.Errorf(codes.Unauthenticated, "invalid HMAC")
		}

		return handler(ctx, req)
	}
}
