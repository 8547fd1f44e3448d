package coredao

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// StakeScript is the result of constructing a CoreDAO lock for an option.
// It is immutable once returned.
type StakeScript struct {
	Option CoreOption
	// RedeemScript is the CLTV locked P2WPKH style witness script.
	RedeemScript []byte
	// PkScript is the P2WSH output script committing to RedeemScript.
	PkScript []byte
	Address  *btcutil.AddressWitnessScriptHash
	// OpReturn carries the staking payload, value 0.
	OpReturn   *wire.TxOut
	StakerHash []byte
}

// Construct builds the redeem script, the custody output script and the
// OP_RETURN payload output for the option. It is deterministic.
func Construct(opt CoreOption) (*StakeScript, error) {
	if opt.Network == nil {
		return nil, fmt.Errorf("network of the option must be set")
	}

	pkBytes, err := hex.DecodeString(opt.PubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	pk, err := btcec.ParsePubKey(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}

	stakerHash := btcutil.Hash160(pk.SerializeCompressed())

	redeemScript, err := BuildRedeemScript(opt.LockTime, stakerHash)
	if err != nil {
		return nil, err
	}

	witnessProg := sha256.Sum256(redeemScript)
	addr, err := btcutil.NewAddressWitnessScriptHash(witnessProg[:], opt.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to build p2wsh address: %w", err)
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to build p2wsh script: %w", err)
	}

	opReturnScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(EncodePayload(&opt, redeemScript)).
		Script()
	if err != nil {
		return nil, fmt.Errorf("failed to build op_return script: %w", err)
	}

	return &StakeScript{
		Option:       opt,
		RedeemScript: redeemScript,
		PkScript:     pkScript,
		Address:      addr,
		OpReturn:     wire.NewTxOut(0, opReturnScript),
		StakerHash:   stakerHash,
	}, nil
}

// BuildRedeemScript creates the custody witness script.
// Returns script of form:
// <lockTime> OP_CHECKLOCKTIMEVERIFY OP_DROP OP_DUP OP_HASH160 <pubKeyHash> OP_EQUALVERIFY OP_CHECKSIG
//
// The lock time must be pushed as 1 to 4 data bytes, so values encoded as
// small int opcodes (0 to 16) or as 5 byte numbers (2^31 and above) are
// rejected.
func BuildRedeemScript(lockTime uint32, pubKeyHash []byte) ([]byte, error) {
	if lockTime < MinLockTime || lockTime > MaxLockTime {
		return nil, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidLockTime, lockTime, MinLockTime, MaxLockTime)
	}
	if len(pubKeyHash) != 20 {
		return nil, fmt.Errorf("%w: pubkey hash of %d bytes", ErrInvalidPubKey, len(pubKeyHash))
	}

	return txscript.NewScriptBuilder().
		AddInt64(int64(lockTime)).
		AddOp(txscript.OP_CHECKLOCKTIMEVERIFY).
		AddOp(txscript.OP_DROP).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// EncodePayload serializes the staking payload:
// "SAT+" || version || chain_id (BE) || delegator || validator || fee || redeem script
func EncodePayload(opt *CoreOption, redeemScript []byte) []byte {
	payload := make([]byte, 0, PayloadHeaderLen+len(redeemScript))
	payload = append(payload, ProtocolMagic...)
	payload = append(payload, opt.Version)
	payload = binary.BigEndian.AppendUint16(payload, opt.ChainID)
	payload = append(payload, opt.Delegator[:]...)
	payload = append(payload, opt.Validator[:]...)
	payload = append(payload, opt.Fee)
	payload = append(payload, redeemScript...)
	return payload
}
