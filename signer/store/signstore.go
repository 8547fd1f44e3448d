package store

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/lightningnetwork/lnd/kvdb"
)

var signRecordBucketName = []byte("signRecord")

// SigningRecord is the audit entry of one signature produced by tssd.
type SigningRecord struct {
	Scheme         string
	KeyID          string
	DerivationPath []byte
	MessageHash    []byte
	PublicKey      []byte
	Signature      []byte
	Timestamp      uint64
}

type SignStore struct {
	db kvdb.Backend
}

func NewSignStore(db kvdb.Backend) (*SignStore, error) {
	s := &SignStore{db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SignStore) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(signRecordBucketName)
		return err
	})
}

// RecordKey is sha256(scheme || key_id || path || digest).
func RecordKey(scheme, keyID string, path, messageHash []byte) []byte {
	h := sha256.New()
	h.Write([]byte(scheme))
	h.Write([]byte(keyID))
	h.Write(path)
	h.Write(messageHash)
	return h.Sum(nil)
}

func (s *SignStore) SaveSignRecord(
	scheme, keyID string,
	path, messageHash, publicKey, signature []byte,
) error {
	key := RecordKey(scheme, keyID, path, messageHash)

	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(signRecordBucketName)
		if bucket == nil {
			return ErrCorruptedSignerDb
		}

		if bucket.Get(key) != nil {
			return ErrDuplicateSignRecord
		}

		record := &SigningRecord{
			Scheme:         scheme,
			KeyID:          keyID,
			DerivationPath: path,
			MessageHash:    messageHash,
			PublicKey:      publicKey,
			Signature:      signature,
			Timestamp:      uint64(time.Now().UnixMilli()),
		}

		encoded, err := rlp.EncodeToBytes(record)
		if err != nil {
			return fmt.Errorf("failed to encode sign record: %w", err)
		}

		return bucket.Put(key, encoded)
	})
}

// GetSignRecord returns the record and whether it exists.
func (s *SignStore) GetSignRecord(scheme, keyID string, path, messageHash []byte) (*SigningRecord, bool, error) {
	key := RecordKey(scheme, keyID, path, messageHash)
	res := &SigningRecord{}

	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(signRecordBucketName)
		if bucket == nil {
			return ErrCorruptedSignerDb
		}

		recordBytes := bucket.Get(key)
		if recordBytes == nil {
			return ErrSignRecordNotFound
		}

		return rlp.DecodeBytes(recordBytes, res)
	}, func() {})

	if err != nil {
		if errors.Is(err, ErrSignRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return res, true, nil
}

// CountSignRecords returns the number of signatures produced so far.
func (s *SignStore) CountSignRecords() (int, error) {
	var n int
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(signRecordBucketName)
		if bucket == nil {
			return ErrCorruptedSignerDb
		}

		return bucket.ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	}, func() { n = 0 })

	return n, err
}
