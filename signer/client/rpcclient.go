package client

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/btcsuite/btcd/btcec/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/proto"
	"github.com/talos-labs/staking-wallet/version"
)

const userAgentName = "signer-client"

var _ signer.ThresholdSigner = &SignerGRpcClient{}

// SignerGRpcClient talks to a remote tssd. Derived public keys are cached
// since they never change for a given path.
type SignerGRpcClient struct {
	client proto.ThresholdSignerClient
	conn   *grpc.ClientConn
	cfg    *Config
	cache  *lru.Cache
	logger *zap.Logger
}

// NewSignerGRpcClient creates a new threshold signer gRPC client and checks
// that the signer is reachable.
func NewSignerGRpcClient(cfg *Config, logger *zap.Logger) (*SignerGRpcClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hmacKey, err := ProcessHMACKey(cfg.HMACKey)
	if err != nil {
		return nil, fmt.Errorf("failed to process HMAC key: %w", err)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent(userAgentName)),
	}

	if hmacKey != "" {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(HMACUnaryClientInterceptor(hmacKey)))
	} else {
		logger.Warn("HMAC key not configured, signer requests will not be authenticated")
	}

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build gRPC connection to %s: %w", cfg.Address, err)
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create public key cache: %w", err)
	}

	c := &SignerGRpcClient{
		client: proto.NewThresholdSignerClient(conn),
		conn:   conn,
		cfg:    cfg,
		cache:  cache,
		logger: logger,
	}

	if err := c.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("the threshold signer is not responding: %w", err)
	}

	return c, nil
}

func (c *SignerGRpcClient) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", func(ctx context.Context) error {
		_, err := c.client.Ping(ctx, &proto.PingRequest{})
		return err
	})
}

func (c *SignerGRpcClient) PublicKey(
	ctx context.Context,
	scheme signer.Scheme,
	keyID signer.KeyID,
	derivationPath []byte,
) ([]byte, error) {
	if err := signer.ValidateDerivationPath(derivationPath); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s/%s/%x", scheme, keyID, derivationPath)
	if pk, ok := c.cache.Get(cacheKey); ok {
		return append([]byte(nil), pk.([]byte)...), nil
	}

	req := &proto.PublicKeyRequest{
		KeyId:          keyID.String(),
		DerivationPath: derivationPath,
		Scheme:         string(scheme),
	}

	var res *proto.PublicKeyResponse
	err := c.call(ctx, "public_key", func(ctx context.Context) error {
		var err error
		res, err = c.client.PublicKey(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(res.PublicKey) != btcec.PubKeyBytesLenCompressed {
		return nil, fmt.Errorf("%w: public key %s is not compressed",
			signer.ErrMalformedResponse, hex.EncodeToString(res.PublicKey))
	}

	c.cache.Add(cacheKey, append([]byte(nil), res.PublicKey...))

	return res.PublicKey, nil
}

func (c *SignerGRpcClient) SignPrehash(
	ctx context.Context,
	scheme signer.Scheme,
	keyID signer.KeyID,
	derivationPath []byte,
	messageHash []byte,
) ([]byte, error) {
	if err := signer.ValidateDerivationPath(derivationPath); err != nil {
		return nil, err
	}
	if err := signer.ValidateMessageHash(messageHash); err != nil {
		return nil, err
	}

	req := &proto.SignPrehashRequest{
		KeyId:          keyID.String(),
		DerivationPath: derivationPath,
		MessageHash:    messageHash,
		Scheme:         string(scheme),
	}

	var res *proto.SignPrehashResponse
	err := c.call(ctx, "sign_prehash", func(ctx context.Context) error {
		var err error
		res, err = c.client.SignPrehash(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(res.Signature) != signer.SignatureLen {
		return nil, fmt.Errorf("%w: signature of %d bytes", signer.ErrMalformedResponse, len(res.Signature))
	}

	return res.Signature, nil
}

// call runs fn with the per call timeout and retries it while the signer
// is unavailable.
func (c *SignerGRpcClient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
			return fn(callCtx)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxRetries),
		retry.Delay(c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isUnavailable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying signer call",
				zap.String("op", op),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", signer.ErrRemoteSigner, op, err)
	}

	return nil
}

func isUnavailable(err error) bool {
	s, ok := status.FromError(err)
	return ok && s.Code() == codes.Unavailable
}

func (c *SignerGRpcClient) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close signer client connection: %w", err)
	}

	return nil
}
