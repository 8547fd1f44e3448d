package coredao

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// DecodeLockTx recovers the staking option and the staker pubkey hash from
// the first OP_RETURN output of the transaction. PubKey and Network of the
// returned option are not recoverable and left empty.
func DecodeLockTx(tx *wire.MsgTx) (*CoreOption, []byte, error) {
	payload, ok := findPayload(tx)
	if !ok {
		return nil, nil, ErrNoPayload
	}

	return DecodePayload(payload)
}

// DecodePayload parses a serialized staking payload.
func DecodePayload(payload []byte) (*CoreOption, []byte, error) {
	if len(payload) < len(ProtocolMagic) || !bytes.Equal(payload[:len(ProtocolMagic)], []byte(ProtocolMagic)) {
		return nil, nil, ErrInvalidProtocol
	}

	if len(payload) < PayloadHeaderLen {
		return nil, nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrPayloadTooShort, len(payload), PayloadHeaderLen)
	}

	opt := &CoreOption{
		Version: payload[versionOffset],
		ChainID: binary.BigEndian.Uint16(payload[chainIDOffset:delegatorOffset]),
		Fee:     payload[feeOffset],
	}
	copy(opt.Delegator[:], payload[delegatorOffset:validatorOffset])
	copy(opt.Validator[:], payload[validatorOffset:feeOffset])

	lockTime, staker, err := decodeRedeemScript(payload[scriptOffset:])
	if err != nil {
		return nil, nil, err
	}
	opt.LockTime = lockTime

	return opt, staker, nil
}

// findPayload concatenates the data pushes following OP_RETURN in the first
// output carrying one. Any non push opcode invalidates the payload.
func findPayload(tx *wire.MsgTx) ([]byte, bool) {
	for _, out := range tx.TxOut {
		if len(out.PkScript) == 0 || out.PkScript[0] != txscript.OP_RETURN {
			continue
		}

		var payload []byte
		tokenizer := txscript.MakeScriptTokenizer(0, out.PkScript[1:])
		for tokenizer.Next() {
			if tokenizer.Opcode() > txscript.OP_PUSHDATA4 {
				return nil, false
			}
			payload = append(payload, tokenizer.Data()...)
		}
		if tokenizer.Err() != nil {
			return nil, false
		}

		return payload, true
	}

	return nil, false
}

// decodeRedeemScript extracts the CLTV lock time and the 20 byte hash
// preceding OP_EQUALVERIFY.
func decodeRedeemScript(script []byte) (uint32, []byte, error) {
	var (
		lockTime    uint32
		hasLockTime bool
		staker      []byte
		prevData    []byte
		prevIsPush  bool
	)

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case op == txscript.OP_EQUALVERIFY && prevIsPush && len(prevData) == 20:
			staker = append([]byte(nil), prevData...)
		case op == txscript.OP_CHECKLOCKTIMEVERIFY && prevIsPush && len(prevData) > 0 && len(prevData) <= 4:
			lockTime = leUint32(prevData)
			hasLockTime = true
		}

		prevIsPush = op <= txscript.OP_PUSHDATA4
		prevData = tokenizer.Data()
	}
	if err := tokenizer.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedScript, err)
	}

	if !hasLockTime {
		return 0, nil, ErrNoLockTime
	}
	if staker == nil {
		return 0, nil, ErrNoStaker
	}

	return lockTime, staker, nil
}

// leUint32 reads a minimally pushed little endian number of up to 4 bytes.
func leUint32(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}
