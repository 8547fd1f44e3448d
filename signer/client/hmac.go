package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/talos-labs/staking-wallet/signer/proto"
)

const (
	// HMACHeaderKey is the metadata key for the HMAC
	HMACHeaderKey = "X-TSS-HMAC"
)

// GenerateHMAC returns the base64 HMAC-SHA256 of the wire encoding of req.
func GenerateHMAC(hmacKey string, req interface{}) (string, error) {
	data, err := proto.Marshal(req)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(hmacKey))
	h.Write(data)

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// HMACUnaryClientInterceptor creates a gRPC client interceptor that adds HMAC
// to outgoing requests. It skips adding HMAC for the Ping method.
func HMACUnaryClientInterceptor(hmacKey string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		// NOTE: pings stay unauthenticated to allow for health checks
		if method == proto.ThresholdSigner_Ping_FullMethodName || hmacKey == "" {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		hmacValue, err := GenerateHMAC(hmacKey, req)
		if err != nil {
			return fmt.Errorf("HMAC generation failed: %w", err)
		}

		md, ok := metadata.FromOutgoingContext(ctx)
		if !ok {
			md = metadata.New(nil)
		} else {
			md = md.Copy()
		}
		md.Set(HMACHeaderKey, hmacValue)

		return invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, opts...)
	}
}
