package coredao

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

const (
	// DefaultVersion is the staking protocol version written to the payload
	DefaultVersion uint8 = 1
	// DefaultFee is the relayer fee written to the payload
	DefaultFee uint8 = 1

	AddressLen = 20

	// lock time bounds of a redeem script, see BuildRedeemScript
	MinLockTime uint32 = 17
	MaxLockTime uint32 = 1<<31 - 1

	// payload offsets
	versionOffset   = len(ProtocolMagic)
	chainIDOffset   = versionOffset + 1
	delegatorOffset = chainIDOffset + 2
	validatorOffset = delegatorOffset + AddressLen
	feeOffset       = validatorOffset + AddressLen
	scriptOffset    = feeOffset + 1
)

// ProtocolMagic prefixes every CoreDAO staking payload.
const ProtocolMagic = "SAT+"

// PayloadHeaderLen is the length of the payload preceding the redeem script.
const PayloadHeaderLen = scriptOffset

// CoreOption parameterizes a CoreDAO staking lock.
type CoreOption struct {
	Version   uint8
	ChainID   uint16
	Delegator [AddressLen]byte
	Validator [AddressLen]byte
	Fee       uint8
	// PubKey is the hex encoded compressed public key of the custody wallet.
	PubKey string
	// LockTime is the absolute CLTV height or timestamp.
	LockTime uint32
	Network  *chaincfg.Params
}

// ParseAddressHex decodes a 20 byte hex encoded EVM address, with or
// without 0x prefix.
func ParseAddressHex(s string) ([AddressLen]byte, error) {
	var addr [AddressLen]byte

	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return addr, fmt.Errorf("failed to decode address hex %s: %w", s, err)
	}
	if len(b) != AddressLen {
		return addr, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHexLength, AddressLen, len(b))
	}

	copy(addr[:], b)
	return addr, nil
}
