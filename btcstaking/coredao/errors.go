package coredao

import "errors"

var (
	ErrInvalidPubKey    = errors.New("invalid custody public key")
	ErrInvalidTxID      = errors.New("invalid txid")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNoPayload        = errors.New("no payload found")
	ErrInvalidProtocol  = errors.New("invalid protocol")
	ErrPayloadTooShort  = errors.New("payload too short")
	ErrMalformedScript  = errors.New("malformed redeem script")
	ErrNoLockTime       = errors.New("no lock time found")
	ErrNoStaker         = errors.New("no staker found")
	ErrInvalidHexLength = errors.New("invalid hex field length")
	ErrInvalidLockTime  = errors.New("invalid lock time")
)
