package store

import "errors"

var (
	// ErrCorruptedSignerDb For some reason, db on disk representation have changed
	ErrCorruptedSignerDb = errors.New("signer db is corrupted")

	// ErrSignRecordNotFound sign record not found for the given path and digest
	ErrSignRecordNotFound = errors.New("sign record not found")

	// ErrDuplicateSignRecord the digest was already signed with the path
	ErrDuplicateSignRecord = errors.New("sign record already exists")
)
