package psbtsigner

import "errors"

var (
	ErrMissingWitnessUtxo = errors.New("input has no witness utxo")

	ErrMissingWitnessScript = errors.New("p2wsh input has no witness script")

	// ErrMalformedScript the witness script does not match the spent output
	ErrMalformedScript = errors.New("malformed input script")

	ErrUnsupportedScript = errors.New("unsupported input script")

	// ErrPubKeyMismatch the signing key does not control the spent output
	ErrPubKeyMismatch = errors.New("public key does not match input")

	// ErrInvalidSignature the signer returned a signature that does not verify
	ErrInvalidSignature = errors.New("invalid signature")
)
