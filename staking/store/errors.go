package store

import "errors"

var (
	// ErrCorruptedStakingDB For some reason, db on disk representation have changed
	ErrCorruptedStakingDB = errors.New("staking db is corrupted")

	// ErrWalletNotFound The wallet we try to fetch or update is not found in db
	ErrWalletNotFound = errors.New("staking wallet not found")

	// ErrDuplicateWallet The wallet we try to add already exists in db
	ErrDuplicateWallet = errors.New("staking wallet already exists")

	// ErrTxNotFound The transaction we try to fetch is not found in db
	ErrTxNotFound = errors.New("transaction not found")

	// ErrDuplicateTx a transaction with the same txid is already recorded
	ErrDuplicateTx = errors.New("transaction already exists")
)
