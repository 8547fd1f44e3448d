package store

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/talos-labs/staking-wallet/staking/wallet"
)

var (
	// mapping bytes -> wallet record
	walletBucketName = []byte("stakingWallets")
	// mapping principal -> {bytes}
	principalIndexBucketName = []byte("walletsByPrincipal")
	// mapping user btc address -> {bytes}
	btcAddressIndexBucketName = []byte("walletsByBTCAddress")
)

type WalletStore struct {
	db kvdb.Backend
}

// NewWalletStore returns a new store backed by db
func NewWalletStore(db kvdb.Backend) (*WalletStore, error) {
	s := &WalletStore{db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *WalletStore) initBuckets() error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		for _, name := range [][]byte{walletBucketName, principalIndexBucketName, btcAddressIndexBucketName} {
			if _, err := tx.CreateTopLevelBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failed to initialize wallet buckets: %w", err)
	}

	return nil
}

// CreateWallet stores a new wallet, failing if its bytes are already taken.
func (s *WalletStore) CreateWallet(w *wallet.StakingWallet) error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		walletBucket := tx.ReadWriteBucket(walletBucketName)
		if walletBucket == nil {
			return ErrCorruptedStakingDB
		}

		if walletBucket.Get(w.Bytes[:]) != nil {
			return ErrDuplicateWallet
		}

		return saveWallet(tx, w)
	}); err != nil {
		return fmt.Errorf("failed to create staking wallet: %w", err)
	}

	return nil
}

// UpdateWallet replaces an existing wallet, keeping the indexes in sync.
func (s *WalletStore) UpdateWallet(w *wallet.StakingWallet) error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		walletBucket := tx.ReadWriteBucket(walletBucketName)
		if walletBucket == nil {
			return ErrCorruptedStakingDB
		}

		existingBytes := walletBucket.Get(w.Bytes[:])
		if existingBytes == nil {
			return ErrWalletNotFound
		}
		existing, err := decodeWallet(existingBytes)
		if err != nil {
			return err
		}

		if err := unindexWallet(tx, existing); err != nil {
			return err
		}

		return saveWallet(tx, w)
	}); err != nil {
		return fmt.Errorf("failed to update staking wallet: %w", err)
	}

	return nil
}

// RemoveWallet deletes the wallet and returns it.
func (s *WalletStore) RemoveWallet(b [wallet.BytesLen]byte) (*wallet.StakingWallet, error) {
	var removed *wallet.StakingWallet
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		removed = nil

		walletBucket := tx.ReadWriteBucket(walletBucketName)
		if walletBucket == nil {
			return ErrCorruptedStakingDB
		}

		v := walletBucket.Get(b[:])
		if v == nil {
			return ErrWalletNotFound
		}
		w, err := decodeWallet(v)
		if err != nil {
			return err
		}

		if err := unindexWallet(tx, w); err != nil {
			return err
		}
		if err := walletBucket.Delete(b[:]); err != nil {
			return err
		}

		removed = w

		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to remove staking wallet: %w", err)
	}

	return removed, nil
}

func (s *WalletStore) GetWallet(b [wallet.BytesLen]byte) (*wallet.StakingWallet, error) {
	var w *wallet.StakingWallet
	if err := s.db.View(func(tx kvdb.RTx) error {
		walletBucket := tx.ReadBucket(walletBucketName)
		if walletBucket == nil {
			return ErrCorruptedStakingDB
		}

		v := walletBucket.Get(b[:])
		if v == nil {
			return ErrWalletNotFound
		}

		var err error
		w, err = decodeWallet(v)

		return err
	}, func() { w = nil }); err != nil {
		return nil, fmt.Errorf("failed to get staking wallet: %w", err)
	}

	return w, nil
}

// GetWalletsByPrincipal returns the wallets owned by principal, ordered by
// wallet bytes.
func (s *WalletStore) GetWalletsByPrincipal(principal []byte) ([]*wallet.StakingWallet, error) {
	return s.getIndexed(principalIndexBucketName, principal)
}

// GetWalletsByBTCAddress returns the wallets of a user BTC address, ordered
// by wallet bytes.
func (s *WalletStore) GetWalletsByBTCAddress(btcAddress string) ([]*wallet.StakingWallet, error) {
	return s.getIndexed(btcAddressIndexBucketName, []byte(btcAddress))
}

func (s *WalletStore) getIndexed(indexName, indexKey []byte) ([]*wallet.StakingWallet, error) {
	var wallets []*wallet.StakingWallet
	if err := s.db.View(func(tx kvdb.RTx) error {
		walletBucket := tx.ReadBucket(walletBucketName)
		indexBucket := tx.ReadBucket(indexName)
		if walletBucket == nil || indexBucket == nil {
			return ErrCorruptedStakingDB
		}

		if len(indexKey) == 0 {
			return nil
		}

		entries := indexBucket.NestedReadBucket(indexKey)
		if entries == nil {
			return nil
		}

		return entries.ForEach(func(k, _ []byte) error {
			v := walletBucket.Get(k)
			if v == nil {
				return ErrCorruptedStakingDB
			}
			w, err := decodeWallet(v)
			if err != nil {
				return err
			}
			wallets = append(wallets, w)

			return nil
		})
	}, func() { wallets = nil }); err != nil {
		return nil, fmt.Errorf("failed to query staking wallets: %w", err)
	}

	return wallets, nil
}

func saveWallet(tx kvdb.RwTx, w *wallet.StakingWallet) error {
	encoded, err := encodeWallet(w)
	if err != nil {
		return fmt.Errorf("failed to encode staking wallet: %w", err)
	}

	if err := tx.ReadWriteBucket(walletBucketName).Put(w.Bytes[:], encoded); err != nil {
		return fmt.Errorf("failed to store staking wallet: %w", err)
	}

	if err := addIndex(tx.ReadWriteBucket(principalIndexBucketName), w.UserPrincipal, w.Bytes[:]); err != nil {
		return err
	}

	return addIndex(tx.ReadWriteBucket(btcAddressIndexBucketName), []byte(w.UserBTCAddress), w.Bytes[:])
}

func unindexWallet(tx kvdb.RwTx, w *wallet.StakingWallet) error {
	if err := removeIndex(tx.ReadWriteBucket(principalIndexBucketName), w.UserPrincipal, w.Bytes[:]); err != nil {
		return err
	}

	return removeIndex(tx.ReadWriteBucket(btcAddressIndexBucketName), []byte(w.UserBTCAddress), w.Bytes[:])
}

func addIndex(indexBucket walletdb.ReadWriteBucket, indexKey, walletKey []byte) error {
	if indexBucket == nil {
		return ErrCorruptedStakingDB
	}
	if len(indexKey) == 0 {
		return nil
	}

	entries, err := indexBucket.CreateBucketIfNotExists(indexKey)
	if err != nil {
		return fmt.Errorf("failed to create index bucket: %w", err)
	}

	return entries.Put(walletKey, []byte{})
}

func removeIndex(indexBucket walletdb.ReadWriteBucket, indexKey, walletKey []byte) error {
	if indexBucket == nil {
		return ErrCorruptedStakingDB
	}
	if len(indexKey) == 0 {
		return nil
	}

	entries := indexBucket.NestedReadWriteBucket(indexKey)
	if entries == nil {
		return nil
	}
	if err := entries.Delete(walletKey); err != nil {
		return err
	}

	// drop the index entry once it is empty
	var empty = true
	if err := entries.ForEach(func(_, _ []byte) error {
		empty = false
		return errStopIteration
	}); err != nil && !errors.Is(err, errStopIteration) {
		return err
	}
	if empty {
		return indexBucket.DeleteNestedBucket(indexKey)
	}

	return nil
}

var errStopIteration = errors.New("stop iteration")
