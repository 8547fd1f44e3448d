package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/address"
	"github.com/talos-labs/staking-wallet/btcstaking/coredao"
	"github.com/talos-labs/staking-wallet/psbtsigner"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/staking/store"
	"github.com/talos-labs/staking-wallet/staking/wallet"
)

// lockOutputIndex is the position of the custody output in lock txs
const lockOutputIndex = 0

type CreateCoreDaoTxReq struct {
	WalletID    string `json:"wallet_id"`
	StakeAmount int64  `json:"stake_amount"`
	// RevealFee is left to miners by the unlock tx
	RevealFee int64  `json:"reveal_fee"`
	TxID      string `json:"txid"`
	Vout      uint32 `json:"vout"`
	// Value of the spent utxo, only used by lock txs
	Value         int64  `json:"value"`
	ChainID       uint16 `json:"chain_id"`
	Delegator     string `json:"delegator"`
	Validator     string `json:"validator"`
	StakeLockTime uint32 `json:"stake_lock_time"`
	KeyID         string `json:"key_id,omitempty"`
	ExportPsbt    bool   `json:"export_psbt"`
	IncludeUnlock bool   `json:"include_unlock"`
}

type CreateCoreDaoTxRes struct {
	SignedTxCommit *psbtsigner.SignedTx `json:"signed_tx_commit"`
	RedeemScript   hexutil.Bytes        `json:"redeem_script"`
	SignedTxUnlock *psbtsigner.SignedTx `json:"signed_tx_unlock,omitempty"`
}

type DecodedLockTx struct {
	Version    uint8         `json:"version"`
	ChainID    uint16        `json:"chain_id"`
	Delegator  hexutil.Bytes `json:"delegator"`
	Validator  hexutil.Bytes `json:"validator"`
	Fee        uint8         `json:"fee"`
	LockTime   uint32        `json:"lock_time"`
	StakerHash hexutil.Bytes `json:"staker_hash"`
}

type coreDaoJob struct {
	wallet *wallet.StakingWallet
	keyID  signer.KeyID
	script *coredao.StakeScript
}

// BuildAndSignLockTx signs the lock tx funding the custody output from the
// P2WPKH stake address of the wallet, and the tx unlocking it when
// requested. Nothing is recorded unless every tx was signed.
func (app *StakingApp) BuildAndSignLockTx(ctx context.Context, req *CreateCoreDaoTxReq) (*CreateCoreDaoTxRes, error) {
	job, err := app.prepareCoreDao(req)
	if err != nil {
		return nil, err
	}
	if req.IncludeUnlock {
		if err := checkRevealFee(req); err != nil {
			return nil, err
		}
	}

	fundingScript, err := address.ScriptForAddress(job.wallet.StakeAddress, app.net)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stake address: %w", err)
	}

	lockPacket, _, err := job.script.CreateLockTx(req.StakeAmount, fundingScript, req.TxID, req.Vout, req.Value)
	if err != nil {
		return nil, err
	}

	signedLock, err := app.signPacket(ctx, job, lockPacket, req.ExportPsbt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign lock tx: %w", err)
	}

	res := &CreateCoreDaoTxRes{
		SignedTxCommit: signedLock,
		RedeemScript:   job.script.RedeemScript,
	}

	if req.IncludeUnlock {
		unlockPacket, err := job.script.CreateUnlockTx(
			signedLock.TxID,
			lockOutputIndex,
			req.StakeLockTime,
			req.StakeAmount,
			req.StakeAmount-req.RevealFee,
			job.wallet.UserBTCAddress,
		)
		if err != nil {
			return nil, err
		}

		res.SignedTxUnlock, err = app.signPacket(ctx, job, unlockPacket, req.ExportPsbt)
		if err != nil {
			return nil, fmt.Errorf("failed to sign unlock tx: %w", err)
		}
	}

	records := []recordedTx{{store.TxTypeLock, signedLock}}
	if res.SignedTxUnlock != nil {
		records = append(records, recordedTx{store.TxTypeWithdraw, res.SignedTxUnlock})
	}
	if err := app.recordTxs(job, records...); err != nil {
		return nil, err
	}

	return res, nil
}

// BuildAndSignUnlockTx signs the tx spending the custody output (txid, vout)
// of a lock tx back to the user BTC address of the wallet.
func (app *StakingApp) BuildAndSignUnlockTx(ctx context.Context, req *CreateCoreDaoTxReq) (*CreateCoreDaoTxRes, error) {
	job, err := app.prepareCoreDao(req)
	if err != nil {
		return nil, err
	}
	if err := checkRevealFee(req); err != nil {
		return nil, err
	}

	packet, err := job.script.CreateUnlockTx(
		req.TxID,
		req.Vout,
		req.StakeLockTime,
		req.StakeAmount,
		req.StakeAmount-req.RevealFee,
		job.wallet.UserBTCAddress,
	)
	if err != nil {
		return nil, err
	}

	signed, err := app.signPacket(ctx, job, packet, req.ExportPsbt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign unlock tx: %w", err)
	}

	if err := app.recordTxs(job, recordedTx{store.TxTypeWithdraw, signed}); err != nil {
		return nil, err
	}

	return &CreateCoreDaoTxRes{
		SignedTxCommit: signed,
		RedeemScript:   job.script.RedeemScript,
	}, nil
}

// DecodeLockTx recovers the staking option of a raw CoreDAO lock tx.
func (app *StakingApp) DecodeLockTx(rawTxHex string) (*DecodedLockTx, error) {
	return DecodeLockTx(rawTxHex)
}

func DecodeLockTx(rawTxHex string) (*DecodedLockTx, error) {
	raw, err := hex.DecodeString(rawTxHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx hex: %v", ErrInvalidRequest, err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: invalid tx: %v", ErrInvalidRequest, err)
	}

	opt, stakerHash, err := coredao.DecodeLockTx(&tx)
	if err != nil {
		return nil, err
	}

	return &DecodedLockTx{
		Version:    opt.Version,
		ChainID:    opt.ChainID,
		Delegator:  opt.Delegator[:],
		Validator:  opt.Validator[:],
		Fee:        opt.Fee,
		LockTime:   opt.LockTime,
		StakerHash: stakerHash,
	}, nil
}

func (app *StakingApp) prepareCoreDao(req *CreateCoreDaoTxReq) (*coreDaoJob, error) {
	keyID, err := app.keyID(req.KeyID)
	if err != nil {
		return nil, err
	}

	w, err := app.GetStakingWallet(req.WalletID)
	if err != nil {
		return nil, err
	}
	if w.StakeTarget != wallet.StakeTargetCoreDao {
		return nil, fmt.Errorf("%w: wallet %s stakes for %s", ErrUnsupportedTarget, w.ID(), w.StakeTarget)
	}

	delegator, err := coredao.ParseAddressHex(req.Delegator)
	if err != nil {
		return nil, fmt.Errorf("%w: delegator: %v", ErrInvalidRequest, err)
	}
	validator, err := coredao.ParseAddressHex(req.Validator)
	if err != nil {
		return nil, fmt.Errorf("%w: validator: %v", ErrInvalidRequest, err)
	}

	script, err := coredao.Construct(coredao.CoreOption{
		Version:   coredao.DefaultVersion,
		ChainID:   req.ChainID,
		Delegator: delegator,
		Validator: validator,
		Fee:       coredao.DefaultFee,
		PubKey:    w.PubKeyHex,
		LockTime:  req.StakeLockTime,
		Network:   app.net,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct stake script: %w", err)
	}

	return &coreDaoJob{
		wallet: w,
		keyID:  keyID,
		script: script,
	}, nil
}

func (app *StakingApp) signPacket(ctx context.Context, job *coreDaoJob, packet *psbt.Packet, exportPsbt bool) (*psbtsigner.SignedTx, error) {
	return app.psbtSigner.SignSegwitV0(ctx, packet, job.wallet.PubKeyHex, job.keyID, job.wallet.Bytes[:], exportPsbt)
}

type recordedTx struct {
	txType store.TxType
	signed *psbtsigner.SignedTx
}

// recordTxs saves the signed txs of a job in one db transaction. The txid
// excludes the witness, so a retried request spends the same outpoints into
// the same outputs and finds its txs already recorded.
func (app *StakingApp) recordTxs(job *coreDaoJob, txs ...recordedTx) error {
	details := make([]*store.TxDetail, 0, len(txs))
	for _, t := range txs {
		txBytes, err := hex.DecodeString(t.signed.TxHex)
		if err != nil {
			return fmt.Errorf("failed to decode signed tx: %w", err)
		}

		details = append(details, &store.TxDetail{
			TxType:   t.txType,
			TxID:     t.signed.TxID,
			TxBytes:  txBytes,
			State:    store.StashedState(),
			WalletID: job.wallet.Bytes,
			LockTime: job.script.Option.LockTime,
		})
	}

	saved, err := app.txs.SaveTxs(details...)
	if err != nil {
		return err
	}
	if len(saved) < len(details) {
		app.logger.Debug("txs already recorded",
			zap.Int("requested", len(details)),
			zap.Int("saved", len(saved)),
		)
	}

	for _, d := range saved {
		app.metrics.RecordSignedTx(d.TxType.String())
		app.logger.Info("signed coredao tx",
			zap.String("wallet_id", job.wallet.ID()),
			zap.String("txid", d.TxID),
			zap.Stringer("type", d.TxType),
		)
	}

	return nil
}

func checkRevealFee(req *CreateCoreDaoTxReq) error {
	if req.RevealFee < 0 || req.RevealFee >= req.StakeAmount {
		return fmt.Errorf("%w: reveal fee %d with stake amount %d", coredao.ErrInvalidAmount, req.RevealFee, req.StakeAmount)
	}

	return nil
}
