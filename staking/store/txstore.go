package store

import (
	"fmt"

	"github.com/lightningnetwork/lnd/kvdb"
)

var (
	// mapping txid -> tx detail
	txBucketName = []byte("txDetails")
	// mapping wallet bytes -> {txid}
	walletTxIndexBucketName = []byte("txsByWallet")
)

type TxStore struct {
	db kvdb.Backend
}

// NewTxStore returns a new tx ledger backed by db
func NewTxStore(db kvdb.Backend) (*TxStore, error) {
	s := &TxStore{db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *TxStore) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		if _, err := tx.CreateTopLevelBucket(txBucketName); err != nil {
			return err
		}

		_, err := tx.CreateTopLevelBucket(walletTxIndexBucketName)

		return err
	})
}

// SaveTx records a new tx, rejecting txids that are already present.
func (s *TxStore) SaveTx(d *TxDetail) error {
	saved, err := s.SaveTxs(d)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return fmt.Errorf("failed to save tx %s: %w", d.TxID, ErrDuplicateTx)
	}

	return nil
}

// SaveTxs records the txs in a single db transaction. Txids that are already
// present are left untouched. It returns the txs that were written.
func (s *TxStore) SaveTxs(ds ...*TxDetail) ([]*TxDetail, error) {
	for _, d := range ds {
		if d.TxID == "" {
			return nil, fmt.Errorf("failed to save tx: empty txid")
		}
	}

	var saved []*TxDetail
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		saved = nil

		txBucket := tx.ReadWriteBucket(txBucketName)
		indexBucket := tx.ReadWriteBucket(walletTxIndexBucketName)
		if txBucket == nil || indexBucket == nil {
			return ErrCorruptedStakingDB
		}

		for _, d := range ds {
			key := []byte(d.TxID)
			if txBucket.Get(key) != nil {
				continue
			}

			encoded, err := encodeTx(d)
			if err != nil {
				return fmt.Errorf("tx %s: %w", d.TxID, err)
			}
			if err := txBucket.Put(key, encoded); err != nil {
				return err
			}
			if err := addIndex(indexBucket, d.WalletID[:], key); err != nil {
				return err
			}
			saved = append(saved, d)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to save txs: %w", err)
	}

	return saved, nil
}

func (s *TxStore) GetTx(txid string) (*TxDetail, error) {
	var d *TxDetail
	if err := s.db.View(func(tx kvdb.RTx) error {
		txBucket := tx.ReadBucket(txBucketName)
		if txBucket == nil {
			return ErrCorruptedStakingDB
		}

		v := txBucket.Get([]byte(txid))
		if v == nil {
			return ErrTxNotFound
		}

		var err error
		d, err = decodeTx(v)

		return err
	}, func() { d = nil }); err != nil {
		return nil, fmt.Errorf("failed to get tx %s: %w", txid, err)
	}

	return d, nil
}

// GetTxsByWalletID returns the txs of a wallet ordered by txid.
func (s *TxStore) GetTxsByWalletID(walletID [32]byte) ([]*TxDetail, error) {
	var txs []*TxDetail
	if err := s.db.View(func(tx kvdb.RTx) error {
		txBucket := tx.ReadBucket(txBucketName)
		indexBucket := tx.ReadBucket(walletTxIndexBucketName)
		if txBucket == nil || indexBucket == nil {
			return ErrCorruptedStakingDB
		}

		entries := indexBucket.NestedReadBucket(walletID[:])
		if entries == nil {
			return nil
		}

		return entries.ForEach(func(k, _ []byte) error {
			v := txBucket.Get(k)
			if v == nil {
				return ErrCorruptedStakingDB
			}
			d, err := decodeTx(v)
			if err != nil {
				return err
			}
			txs = append(txs, d)

			return nil
		})
	}, func() { txs = nil }); err != nil {
		return nil, fmt.Errorf("failed to get txs of wallet: %w", err)
	}

	return txs, nil
}

// SetTxState moves a recorded tx to a new state.
func (s *TxStore) SetTxState(txid string, state TxState) error {
	return s.setTxState(txid, func(d *TxDetail) error {
		d.State = state
		return nil
	})
}

func (s *TxStore) setTxState(txid string, transition func(d *TxDetail) error) error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		txBucket := tx.ReadWriteBucket(txBucketName)
		if txBucket == nil {
			return ErrCorruptedStakingDB
		}

		key := []byte(txid)
		v := txBucket.Get(key)
		if v == nil {
			return ErrTxNotFound
		}

		d, err := decodeTx(v)
		if err != nil {
			return err
		}
		if err := transition(d); err != nil {
			return err
		}

		encoded, err := encodeTx(d)
		if err != nil {
			return err
		}

		return txBucket.Put(key, encoded)
	}); err != nil {
		return fmt.Errorf("failed to set state of tx %s: %w", txid, err)
	}

	return nil
}
