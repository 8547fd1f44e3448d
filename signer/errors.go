package signer

import "errors"

var (
	// ErrUnknownKeyID the key name is not one of the configured threshold keys
	ErrUnknownKeyID = errors.New("unknown key id")

	ErrUnknownScheme = errors.New("unknown signature scheme")

	ErrInvalidDerivationPath = errors.New("invalid derivation path")

	ErrInvalidMessageHash = errors.New("invalid message hash")

	// ErrRemoteSigner the remote signer rejected or failed the call
	ErrRemoteSigner = errors.New("remote signer failure")

	// ErrMalformedResponse the signer returned data of unexpected shape
	ErrMalformedResponse = errors.New("malformed signer response")
)
