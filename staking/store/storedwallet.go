package store

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/talos-labs/staking-wallet/staking/wallet"
)

// walletRecord is the on-disk form of a staking wallet.
type walletRecord struct {
	OrderID        [wallet.OrderIDLen]byte
	UserPrincipal  []byte
	UserBTCAddress string
	StakeTarget    uint8
	StakeAddress   string
	Bytes          [wallet.BytesLen]byte
	PubKeyHex      string
}

func encodeWallet(w *wallet.StakingWallet) ([]byte, error) {
	return rlp.EncodeToBytes(&walletRecord{
		OrderID:        w.OrderID,
		UserPrincipal:  w.UserPrincipal,
		UserBTCAddress: w.UserBTCAddress,
		StakeTarget:    uint8(w.StakeTarget),
		StakeAddress:   w.StakeAddress,
		Bytes:          w.Bytes,
		PubKeyHex:      w.PubKeyHex,
	})
}

func decodeWallet(b []byte) (*wallet.StakingWallet, error) {
	var rec walletRecord
	if err := rlp.DecodeBytes(b, &rec); err != nil {
		return nil, ErrCorruptedStakingDB
	}

	return &wallet.StakingWallet{
		OrderID:        rec.OrderID,
		UserPrincipal:  rec.UserPrincipal,
		UserBTCAddress: rec.UserBTCAddress,
		StakeTarget:    wallet.StakeTarget(rec.StakeTarget),
		StakeAddress:   rec.StakeAddress,
		Bytes:          rec.Bytes,
		PubKeyHex:      rec.PubKeyHex,
	}, nil
}
