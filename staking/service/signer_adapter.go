package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/signer"
)

const (
	opPublicKey   = "public_key"
	opSignPrehash = "sign_prehash"
)

// instrumentedSigner records every call to the threshold signer.
type instrumentedSigner struct {
	signer.ThresholdSigner

	metrics *metrics.StakingMetrics
	logger  *zap.Logger
}

func newInstrumentedSigner(s signer.ThresholdSigner, m *metrics.StakingMetrics, logger *zap.Logger) *instrumentedSigner {
	return &instrumentedSigner{
		ThresholdSigner: s,
		metrics:         m,
		logger:          logger,
	}
}

func (s *instrumentedSigner) PublicKey(ctx context.Context, scheme signer.Scheme, keyID signer.KeyID, path []byte) ([]byte, error) {
	started := time.Now()
	pk, err := s.ThresholdSigner.PublicKey(ctx, scheme, keyID, path)
	s.metrics.RecordSignerRequest(opPublicKey, started, err)
	if err != nil {
		s.logger.Warn("failed to get public key from the signer",
			zap.String("scheme", string(scheme)),
			zap.Stringer("key_id", keyID),
			zap.Error(err),
		)
	}

	return pk, err
}

func (s *instrumentedSigner) SignPrehash(ctx context.Context, scheme signer.Scheme, keyID signer.KeyID, path []byte, messageHash []byte) ([]byte, error) {
	started := time.Now()
	sig, err := s.ThresholdSigner.SignPrehash(ctx, scheme, keyID, path, messageHash)
	s.metrics.RecordSignerRequest(opSignPrehash, started, err)
	if err != nil {
		s.logger.Warn("failed to sign with the signer",
			zap.String("scheme", string(scheme)),
			zap.Stringer("key_id", keyID),
			zap.Error(err),
		)
	}

	return sig, err
}
