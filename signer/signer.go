package signer

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	// DerivationPathLen is the length of the per order derivation path
	DerivationPathLen = 32
	// MessageHashLen is the length of a pre-hashed message
	MessageHashLen = 32
	// SignatureLen is the length of a compact ECDSA (r || s) or BIP340 signature
	SignatureLen = 64
)

type Scheme string

const (
	SchemeECDSA   Scheme = "ecdsa"
	SchemeSchnorr Scheme = "schnorr"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeECDSA, SchemeSchnorr:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// ThresholdSigner derives public keys and signs digests for a derivation
// path without exposing private key material.
type ThresholdSigner interface {
	// PublicKey returns the 33 byte compressed public key for the path.
	// For SchemeSchnorr the first byte is stripped to obtain the x-only key.
	PublicKey(ctx context.Context, scheme Scheme, keyID KeyID, derivationPath []byte) ([]byte, error)

	// SignPrehash signs the 32 byte digest with the key of the path.
	// ECDSA signatures are 64 byte compact r || s with low S, Schnorr
	// signatures are BIP340.
	// It does not hash the message, the caller must provide the correct sighash.
	SignPrehash(ctx context.Context, scheme Scheme, keyID KeyID, derivationPath []byte, messageHash []byte) ([]byte, error)

	Close() error
}

func ValidateDerivationPath(path []byte) error {
	if len(path) != DerivationPathLen {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDerivationPath, DerivationPathLen, len(path))
	}
	return nil
}

func ValidateMessageHash(hash []byte) error {
	if len(hash) != MessageHashLen {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidMessageHash, MessageHashLen, len(hash))
	}
	return nil
}

// DeriveECDSAPublicKey fetches and parses the ECDSA public key of the path.
func DeriveECDSAPublicKey(ctx context.Context, s ThresholdSigner, keyID KeyID, path []byte) (*btcec.PublicKey, error) {
	raw, err := s.PublicKey(ctx, SchemeECDSA, keyID, path)
	if err != nil {
		return nil, err
	}

	pk, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: public key %s: %v", ErrMalformedResponse, hex.EncodeToString(raw), err)
	}
	return pk, nil
}

// DeriveSchnorrPublicKey fetches the Schnorr public key of the path and
// returns it as an x-only key.
func DeriveSchnorrPublicKey(ctx context.Context, s ThresholdSigner, keyID KeyID, path []byte) (*btcec.PublicKey, error) {
	raw, err := s.PublicKey(ctx, SchemeSchnorr, keyID, path)
	if err != nil {
		return nil, err
	}

	if len(raw) != btcec.PubKeyBytesLenCompressed {
		return nil, fmt.Errorf("%w: schnorr public key of %d bytes", ErrMalformedResponse, len(raw))
	}

	pk, err := schnorr.ParsePubKey(raw[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: public key %s: %v", ErrMalformedResponse, hex.EncodeToString(raw), err)
	}
	return pk, nil
}
