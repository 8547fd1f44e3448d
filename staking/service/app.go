package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lightningnetwork/lnd/kvdb"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/address"
	"github.com/talos-labs/staking-wallet/metrics"
	"github.com/talos-labs/staking-wallet/psbtsigner"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/client"
	"github.com/talos-labs/staking-wallet/staking/config"
	"github.com/talos-labs/staking-wallet/staking/store"
	"github.com/talos-labs/staking-wallet/staking/wallet"
)

type StakingApp struct {
	stopOnce sync.Once

	config     *config.Config
	net        *chaincfg.Params
	signer     signer.ThresholdSigner
	psbtSigner *psbtsigner.PsbtSigner
	wallets    *store.WalletStore
	txs        *store.TxStore
	metrics    *metrics.StakingMetrics
	logger     *zap.Logger
}

// NewStakingAppFromConfig creates the app connected to the remote signer
// of the configuration.
func NewStakingAppFromConfig(
	cfg *config.Config,
	db kvdb.Backend,
	logger *zap.Logger,
) (*StakingApp, error) {
	ts, err := client.NewSignerGRpcClient(cfg.Signer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create threshold signer client: %w", err)
	}

	logger.Info("successfully connected to the threshold signer", zap.String("address", cfg.Signer.Address))

	return NewStakingApp(cfg, ts, metrics.NewStakingMetrics(), db, logger)
}

func NewStakingApp(
	cfg *config.Config,
	ts signer.ThresholdSigner,
	sm *metrics.StakingMetrics,
	db kvdb.Backend,
	logger *zap.Logger,
) (*StakingApp, error) {
	net, err := config.NetParams(cfg.Network)
	if err != nil {
		return nil, err
	}

	walletStore, err := store.NewWalletStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate wallet store: %w", err)
	}
	txStore, err := store.NewTxStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate tx store: %w", err)
	}

	instrumented := newInstrumentedSigner(ts, sm, logger)

	return &StakingApp{
		config:     cfg,
		net:        net,
		signer:     instrumented,
		psbtSigner: psbtsigner.NewPsbtSigner(instrumented, logger),
		wallets:    walletStore,
		txs:        txStore,
		metrics:    sm,
		logger:     logger,
	}, nil
}

func (app *StakingApp) GetConfig() *config.Config {
	return app.config
}

// Stop releases the connection to the signer.
func (app *StakingApp) Stop() error {
	var stopErr error
	app.stopOnce.Do(func() {
		app.logger.Info("stopping staking app")
		stopErr = app.signer.Close()
	})

	return stopErr
}

type CreateStakingWalletRequest struct {
	OrderID        uint32        `json:"order_id"`
	UserPrincipal  hexutil.Bytes `json:"user_principal"`
	UserBTCAddress string        `json:"user_btc_address"`
	StakeTarget    string        `json:"stake_target"`
	// KeyID defaults to the configured key when empty
	KeyID string `json:"key_id,omitempty"`
}

// CreateStakingWallet derives the custody wallet of an order. Calling it
// again for the same order, target and principal returns the stored wallet.
func (app *StakingApp) CreateStakingWallet(ctx context.Context, req *CreateStakingWalletRequest) (*wallet.StakingWallet, error) {
	target, err := wallet.ParseStakeTarget(req.StakeTarget)
	if err != nil {
		return nil, err
	}
	keyID, err := app.keyID(req.KeyID)
	if err != nil {
		return nil, err
	}
	if len(req.UserPrincipal) == 0 {
		return nil, fmt.Errorf("%w: empty user principal", ErrInvalidRequest)
	}
	userAddr, err := address.ParseForNetwork(req.UserBTCAddress, app.net)
	if err != nil {
		return nil, err
	}

	orderID := wallet.OrderIDFromUint32(req.OrderID)
	b := wallet.DeriveBytes(orderID, target, req.UserPrincipal)

	existing, err := app.wallets.GetWallet(b)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrWalletNotFound) {
		return nil, err
	}

	stakeAddress, pkHex, err := wallet.DeriveStakeAddress(ctx, app.signer, keyID, target, b[:], app.net)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stake address: %w", err)
	}

	w := &wallet.StakingWallet{
		OrderID:        orderID,
		UserPrincipal:  req.UserPrincipal,
		UserBTCAddress: userAddr.String(),
		StakeTarget:    target,
		StakeAddress:   stakeAddress,
		Bytes:          b,
		PubKeyHex:      pkHex,
	}

	if err := app.wallets.CreateWallet(w); err != nil {
		if errors.Is(err, store.ErrDuplicateWallet) {
			return app.wallets.GetWallet(b)
		}
		return nil, err
	}

	app.metrics.RecordWalletCreated(target.String())
	app.logger.Info("created staking wallet",
		zap.String("wallet_id", w.ID()),
		zap.Uint32("order_id", req.OrderID),
		zap.Stringer("target", target),
		zap.String("stake_address", stakeAddress),
	)

	return w, nil
}

func (app *StakingApp) GetStakingWallet(id string) (*wallet.StakingWallet, error) {
	b, err := wallet.ParseWalletID(id)
	if err != nil {
		return nil, err
	}

	return app.wallets.GetWallet(b)
}

func (app *StakingApp) GetStakingWalletsByPrincipal(principal []byte) ([]*wallet.StakingWallet, error) {
	return app.wallets.GetWalletsByPrincipal(principal)
}

func (app *StakingApp) GetStakingWalletsByBTCAddress(btcAddress string) ([]*wallet.StakingWallet, error) {
	return app.wallets.GetWalletsByBTCAddress(btcAddress)
}

func (app *StakingApp) RemoveStakingWallet(id string) (*wallet.StakingWallet, error) {
	b, err := wallet.ParseWalletID(id)
	if err != nil {
		return nil, err
	}

	w, err := app.wallets.RemoveWallet(b)
	if err != nil {
		return nil, err
	}

	app.logger.Info("removed staking wallet", zap.String("wallet_id", w.ID()))

	return w, nil
}

// UpdateStakingWallet overwrites a stored wallet. It never creates one.
func (app *StakingApp) UpdateStakingWallet(w *wallet.StakingWallet) error {
	if _, err := address.ParseForNetwork(w.UserBTCAddress, app.net); err != nil {
		return err
	}
	if _, err := wallet.ParseStakeTarget(w.StakeTarget.String()); err != nil {
		return err
	}
	// the wallet id commits to the order id, stake target and principal
	if wallet.DeriveBytes(w.OrderID, w.StakeTarget, w.UserPrincipal) != w.Bytes {
		return fmt.Errorf("%w: wallet %s does not derive from its order id, stake target and principal",
			ErrInvalidRequest, w.ID())
	}

	if err := app.wallets.UpdateWallet(w); err != nil {
		return err
	}

	app.logger.Info("updated staking wallet", zap.String("wallet_id", w.ID()))

	return nil
}

func (app *StakingApp) GetTx(txid string) (*store.TxDetail, error) {
	return app.txs.GetTx(txid)
}

func (app *StakingApp) GetTxsByWalletID(id string) ([]*store.TxDetail, error) {
	b, err := wallet.ParseWalletID(id)
	if err != nil {
		return nil, err
	}

	return app.txs.GetTxsByWalletID(b)
}

func (app *StakingApp) SetTxState(txid string, state store.TxState) error {
	return app.txs.SetTxState(txid, state)
}

func (app *StakingApp) keyID(name string) (signer.KeyID, error) {
	if name == "" {
		return app.config.DefaultKeyID(), nil
	}

	return signer.ParseKeyID(name)
}
