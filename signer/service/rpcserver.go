package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/proto"
	"github.com/talos-labs/staking-wallet/signer/store"
)

// rpcServer is the main RPC server for the signing daemon that handles
// gRPC incoming requests.
type rpcServer struct {
	proto.UnimplementedThresholdSignerServer

	signer  signer.ThresholdSigner
	store   *store.SignStore
	metrics *metrics.TssMetrics
	logger  *zap.Logger
}

func newRPCServer(
	s signer.ThresholdSigner,
	ss *store.SignStore,
	m *metrics.TssMetrics,
	logger *zap.Logger,
) *rpcServer {
	return &rpcServer{
		signer:  s,
		store:   ss,
		metrics: m,
		logger:  logger,
	}
}

// RegisterWithGrpcServer registers the rpcServer with the passed root gRPC
// server.
func (r *rpcServer) RegisterWithGrpcServer(grpcServer *grpc.Server) error {
	proto.RegisterThresholdSignerServer(grpcServer, r)

	return nil
}

func (r *rpcServer) Ping(_ context.Context, _ *proto.PingRequest) (*proto.PingResponse, error) {
	return &proto.PingResponse{}, nil
}

// PublicKey returns the compressed public key of the derivation path
func (r *rpcServer) PublicKey(ctx context.Context, req *proto.PublicKeyRequest) (*proto.PublicKeyResponse, error) {
	scheme, keyID, err := parseKeySelector(req.Scheme, req.KeyId)
	if err != nil {
		return nil, err
	}

	pk, err := r.signer.PublicKey(ctx, scheme, keyID, req.DerivationPath)
	if err != nil {
		return nil, toStatus(err)
	}

	return &proto.PublicKeyResponse{PublicKey: pk}, nil
}

// SignPrehash signs the digest with the key of the derivation path and
// appends the signature to the audit log
func (r *rpcServer) SignPrehash(ctx context.Context, req *proto.SignPrehashRequest) (*proto.SignPrehashResponse, error) {
	scheme, keyID, err := parseKeySelector(req.Scheme, req.KeyId)
	if err != nil {
		return nil, err
	}

	sig, err := r.signer.SignPrehash(ctx, scheme, keyID, req.DerivationPath, req.MessageHash)
	if err != nil {
		return nil, toStatus(err)
	}

	pk, err := r.signer.PublicKey(ctx, scheme, keyID, req.DerivationPath)
	if err != nil {
		return nil, toStatus(err)
	}

	err = r.store.SaveSignRecord(req.Scheme, req.KeyId, req.DerivationPath, req.MessageHash, pk, sig)
	switch {
	case errors.Is(err, store.ErrDuplicateSignRecord):
		r.logger.Debug("digest signed again",
			zap.String("key_id", req.KeyId),
			zap.String("scheme", req.Scheme),
		)
	case err != nil:
		return nil, status.Errorf(codes.Internal, "failed to save sign record: %v", err)
	}

	r.metrics.IncSignRequest(req.Scheme, req.KeyId)

	return &proto.SignPrehashResponse{Signature: sig}, nil
}

func parseKeySelector(schemeStr, keyIDStr string) (signer.Scheme, signer.KeyID, error) {
	scheme, err := signer.ParseScheme(schemeStr)
	if err != nil {
		return "", 0, status.Error(codes.InvalidArgument, err.Error())
	}

	keyID, err := signer.ParseKeyID(keyIDStr)
	if err != nil {
		return "", 0, status.Error(codes.InvalidArgument, err.Error())
	}

	return scheme, keyID, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, signer.ErrInvalidDerivationPath),
		errors.Is(err, signer.ErrInvalidMessageHash),
		errors.Is(err, signer.ErrUnknownKeyID),
		errors.Is(err, signer.ErrUnknownScheme):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
