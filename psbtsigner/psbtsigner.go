package psbtsigner

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/signer"
)

// SignedTx is the result of signing all inputs of a PSBT.
type SignedTx struct {
	TxHex string `json:"tx_hex"`
	// PsbtB64 is only set when the PSBT was requested for export
	PsbtB64 string `json:"psbt_b64,omitempty"`
	TxID    string `json:"txid"`
}

// PsbtSigner signs segwit v0 PSBT inputs with keys held by a threshold
// signer.
type PsbtSigner struct {
	signer signer.ThresholdSigner
	logger *zap.Logger
}

func NewPsbtSigner(s signer.ThresholdSigner, logger *zap.Logger) *PsbtSigner {
	return &PsbtSigner{
		signer: s,
		logger: logger,
	}
}

// SignSegwitV0 signs every input of the packet with the key of the
// derivation path and extracts the final transaction. Inputs must spend
// either a p2wpkh output of pubKeyHex or a p2wsh output whose witness script
// is attached to the input. The first failing input aborts the call.
//
// Unless exportPsbt is set, signing metadata is cleared from the inputs
// once their witness is final.
func (ps *PsbtSigner) SignSegwitV0(
	ctx context.Context,
	packet *psbt.Packet,
	pubKeyHex string,
	keyID signer.KeyID,
	derivationPath []byte,
	exportPsbt bool,
) (*SignedTx, error) {
	pkBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	pubKey, err := btcec.ParsePubKey(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	pkBytes = pubKey.SerializeCompressed()

	tx := packet.UnsignedTx
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			return nil, fmt.Errorf("input %d: %w", i, ErrMissingWitnessUtxo)
		}
		fetcher.AddPrevOut(tx.TxIn[i].PreviousOutPoint, in.WitnessUtxo)
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i := range packet.Inputs {
		if err := ps.signInput(ctx, packet, i, sigHashes, pubKey, pkBytes, keyID, derivationPath, exportPsbt); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	signedTx, err := psbt.Extract(packet)
	if err != nil {
		return nil, fmt.Errorf("failed to extract signed transaction: %w", err)
	}

	var buf bytes.Buffer
	if err := signedTx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	res := &SignedTx{
		TxHex: hex.EncodeToString(buf.Bytes()),
		TxID:  signedTx.TxHash().String(),
	}

	if exportPsbt {
		res.PsbtB64, err = packet.B64Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode psbt: %w", err)
		}
	}

	ps.logger.Debug("signed transaction",
		zap.String("txid", res.TxID),
		zap.Int("inputs", len(packet.Inputs)),
	)

	return res, nil
}

func (ps *PsbtSigner) signInput(
	ctx context.Context,
	packet *psbt.Packet,
	idx int,
	sigHashes *txscript.TxSigHashes,
	pubKey *btcec.PublicKey,
	pkBytes []byte,
	keyID signer.KeyID,
	derivationPath []byte,
	exportPsbt bool,
) error {
	in := &packet.Inputs[idx]
	pkScript := in.WitnessUtxo.PkScript

	var scriptCode []byte
	switch {
	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		if !bytes.Equal(pkScript[2:], btcutil.Hash160(pkBytes)) {
			return ErrPubKeyMismatch
		}
		// the p2wpkh script code is implied by the output script
		scriptCode = pkScript
	case txscript.IsPayToWitnessScriptHash(pkScript):
		if len(in.WitnessScript) == 0 {
			return ErrMissingWitnessScript
		}
		scriptHash := sha256.Sum256(in.WitnessScript)
		if !bytes.Equal(pkScript[2:], scriptHash[:]) {
			return fmt.Errorf("%w: witness script does not hash to output", ErrMalformedScript)
		}
		scriptCode = in.WitnessScript
	default:
		return fmt.Errorf("%w: %x", ErrUnsupportedScript, pkScript)
	}

	sigHash, err := txscript.CalcWitnessSigHash(
		scriptCode, sigHashes, txscript.SigHashAll,
		packet.UnsignedTx, idx, in.WitnessUtxo.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to compute sighash: %w", err)
	}

	compact, err := ps.signer.SignPrehash(ctx, signer.SchemeECDSA, keyID, derivationPath, sigHash)
	if err != nil {
		return err
	}

	sig, err := parseCompactSignature(compact)
	if err != nil {
		return err
	}
	if !sig.Verify(sigHash, pubKey) {
		return ErrInvalidSignature
	}

	sigBytes := append(sig.Serialize(), byte(txscript.SigHashAll))

	witness := wire.TxWitness{sigBytes, pkBytes}
	if len(in.WitnessScript) > 0 {
		witness = append(witness, in.WitnessScript)
	}

	finalWitness, err := serializeWitness(witness)
	if err != nil {
		return err
	}

	in.PartialSigs = append(in.PartialSigs, &psbt.PartialSig{
		PubKey:    pkBytes,
		Signature: sigBytes,
	})
	in.SighashType = txscript.SigHashAll
	in.FinalScriptWitness = finalWitness

	if !exportPsbt {
		in.PartialSigs = nil
		in.SighashType = 0
		in.RedeemScript = nil
		in.WitnessScript = nil
		in.Bip32Derivation = nil
	}

	return nil
}

// parseCompactSignature parses a 64 byte r || s signature.
func parseCompactSignature(compact []byte) (*ecdsa.Signature, error) {
	if len(compact) != signer.SignatureLen {
		return nil, fmt.Errorf("%w: signature of %d bytes", signer.ErrMalformedResponse, len(compact))
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(compact[:32]); overflow || r.IsZero() {
		return nil, fmt.Errorf("%w: invalid signature r", signer.ErrMalformedResponse)
	}
	if overflow := s.SetByteSlice(compact[32:]); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: invalid signature s", signer.ErrMalformedResponse)
	}

	return ecdsa.NewSignature(&r, &s), nil
}

// serializeWitness encodes the witness stack as stored in the
// final script witness field.
func serializeWitness(witness wire.TxWitness) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, 0, uint64(len(witness))); err != nil {
		return nil, err
	}
	for _, item := range witness {
		if err := wire.WriteVarBytes(&buf, 0, item); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
