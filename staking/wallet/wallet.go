package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/talos-labs/staking-wallet/signer"
)

const (
	OrderIDLen = 4
	BytesLen   = 32
)

var (
	ErrUnknownStakeTarget = errors.New("unknown stake target")
	ErrInvalidWalletID    = errors.New("invalid wallet id")
)

// StakeTarget is the staking protocol a wallet locks funds for.
type StakeTarget uint8

const (
	StakeTargetBabylon StakeTarget = 0x00
	StakeTargetCoreDao StakeTarget = 0x01
)

func (t StakeTarget) String() string {
	switch t {
	case StakeTargetBabylon:
		return "babylon"
	case StakeTargetCoreDao:
		return "coredao"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func ParseStakeTarget(s string) (StakeTarget, error) {
	switch strings.ToLower(s) {
	case "babylon":
		return StakeTargetBabylon, nil
	case "coredao", "core_dao":
		return StakeTargetCoreDao, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStakeTarget, s)
	}
}

type OrderID [OrderIDLen]byte

func OrderIDFromUint32(v uint32) OrderID {
	var id OrderID
	binary.BigEndian.PutUint32(id[:], v)
	return id
}

func (id OrderID) Uint32() uint32 {
	return binary.BigEndian.Uint32(id[:])
}

// StakingWallet is the custody wallet of one staking order.
type StakingWallet struct {
	OrderID        OrderID
	UserPrincipal  []byte
	UserBTCAddress string
	StakeTarget    StakeTarget
	StakeAddress   string
	Bytes          [BytesLen]byte
	// PubKeyHex is the x-only key for Babylon and the compressed key for CoreDAO
	PubKeyHex string
}

// ID is the hex of the derivation bytes, the primary key of the wallet.
func (w *StakingWallet) ID() string {
	return hex.EncodeToString(w.Bytes[:])
}

// ParseWalletID decodes a wallet id into derivation bytes.
func ParseWalletID(id string) ([BytesLen]byte, error) {
	var b [BytesLen]byte
	raw, err := hex.DecodeString(id)
	if err != nil {
		return b, fmt.Errorf("%w: %v", ErrInvalidWalletID, err)
	}
	if len(raw) != BytesLen {
		return b, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidWalletID, BytesLen, len(raw))
	}
	copy(b[:], raw)
	return b, nil
}

// DeriveBytes computes sha256(order_id || target || principal), the
// derivation path of the wallet.
func DeriveBytes(orderID OrderID, target StakeTarget, principal []byte) [BytesLen]byte {
	h := sha256.New()
	h.Write(orderID[:])
	h.Write([]byte{byte(target)})
	h.Write(principal)

	var b [BytesLen]byte
	copy(b[:], h.Sum(nil))
	return b
}

// DeriveStakeAddress asks the signer for the key of the derivation path and
// returns the custody address with the hex of the key: a key path only
// P2TR address for Babylon, a P2WPKH address for CoreDAO.
func DeriveStakeAddress(
	ctx context.Context,
	ts signer.ThresholdSigner,
	keyID signer.KeyID,
	target StakeTarget,
	path []byte,
	net *chaincfg.Params,
) (string, string, error) {
	switch target {
	case StakeTargetBabylon:
		internalKey, err := signer.DeriveSchnorrPublicKey(ctx, ts, keyID, path)
		if err != nil {
			return "", "", err
		}
		outputKey := txscript.ComputeTaprootKeyNoScript(internalKey)
		addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
		if err != nil {
			return "", "", fmt.Errorf("failed to build taproot address: %w", err)
		}
		return addr.EncodeAddress(), hex.EncodeToString(schnorr.SerializePubKey(internalKey)), nil

	case StakeTargetCoreDao:
		pk, err := signer.DeriveECDSAPublicKey(ctx, ts, keyID, path)
		if err != nil {
			return "", "", err
		}
		pkBytes := pk.SerializeCompressed()
		addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pkBytes), net)
		if err != nil {
			return "", "", fmt.Errorf("failed to build p2wpkh address: %w", err)
		}
		return addr.EncodeAddress(), hex.EncodeToString(pkBytes), nil

	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownStakeTarget, target)
	}
}
