package coredao

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/talos-labs/staking-wallet/address"
)

const (
	lockTxVersion   = 1
	unlockTxVersion = 2
	// UnlockSequence keeps the input non-final so nLockTime is enforced
	UnlockSequence = wire.MaxTxInSequenceNum - 1
)

// CreateLockTx builds the unsigned lock transaction spending the funding
// UTXO (txid, vout) into the custody output carrying stakeAmount followed by
// the OP_RETURN payload output. It returns the PSBT and the txid of the
// transaction.
func (s *StakeScript) CreateLockTx(
	stakeAmount int64,
	fundingScript []byte,
	txid string,
	vout uint32,
	value int64,
) (*psbt.Packet, string, error) {
	prevHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrInvalidTxID, txid, err)
	}

	if stakeAmount <= 0 || stakeAmount > value {
		return nil, "", fmt.Errorf("%w: stake amount %d with funding value %d", ErrInvalidAmount, stakeAmount, value)
	}

	tx := wire.NewMsgTx(lockTxVersion)
	txIn := wire.NewTxIn(wire.NewOutPoint(prevHash, vout), nil, nil)
	txIn.Sequence = wire.MaxTxInSequenceNum
	tx.AddTxIn(txIn)
	tx.AddTxOut(wire.NewTxOut(stakeAmount, s.PkScript))
	tx.AddTxOut(wire.NewTxOut(s.OpReturn.Value, s.OpReturn.PkScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create lock psbt: %w", err)
	}

	packet.Inputs[0].WitnessUtxo = wire.NewTxOut(value, fundingScript)
	packet.Inputs[0].SighashType = txscript.SigHashAll

	return packet, tx.TxHash().String(), nil
}

// CreateUnlockTx builds the unsigned transaction spending the custody output
// (txid, vout) after stakeLockTime, paying outputValue to outputAddress.
// The difference to lockedAmount is left as fee.
func (s *StakeScript) CreateUnlockTx(
	txid string,
	vout uint32,
	stakeLockTime uint32,
	lockedAmount int64,
	outputValue int64,
	outputAddress string,
) (*psbt.Packet, error) {
	prevHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidTxID, txid, err)
	}

	if outputValue <= 0 || outputValue > lockedAmount {
		return nil, fmt.Errorf("%w: output value %d with locked amount %d", ErrInvalidAmount, outputValue, lockedAmount)
	}

	outputScript, err := address.ScriptForAddress(outputAddress, s.Option.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output address: %w", err)
	}

	tx := wire.NewMsgTx(unlockTxVersion)
	tx.LockTime = stakeLockTime
	txIn := wire.NewTxIn(wire.NewOutPoint(prevHash, vout), nil, nil)
	txIn.Sequence = UnlockSequence
	tx.AddTxIn(txIn)
	tx.AddTxOut(wire.NewTxOut(outputValue, outputScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create unlock psbt: %w", err)
	}

	packet.Inputs[0].WitnessUtxo = wire.NewTxOut(lockedAmount, s.PkScript)
	packet.Inputs[0].WitnessScript = s.RedeemScript
	packet.Inputs[0].SighashType = txscript.SigHashAll

	return packet, nil
}
