package babylon

import "errors"

var (
	ErrInvalidKeyLength        = errors.New("invalid key length")
	ErrNoKeys                  = errors.New("no keys provided")
	ErrDuplicateKeys           = errors.New("duplicate keys provided")
	ErrInvalidThreshold        = errors.New("invalid covenant threshold")
	ErrInvalidTimeLock         = errors.New("invalid time lock")
	ErrInvalidMagicBytes       = errors.New("invalid magic bytes length")
	ErrInvalidFinalityProvider = errors.New("only a single finality provider key is supported")
)
