package babylon

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/txscript"

	"github.com/talos-labs/staking-wallet/util"
)

const (
	// PubKeyLen is the length of an x-only public key
	PubKeyLen = 32
	// MagicBytesLen is the length of the protocol magic prefix
	MagicBytesLen = 4
	// MaxTimeLock is the largest relative time lock in blocks
	MaxTimeLock = 65535
	// DataEmbedVersion is the version of the data embed payload
	DataEmbedVersion = 0
	// DataEmbedPayloadLen is the length of the payload pushed after OP_RETURN
	DataEmbedPayloadLen = MagicBytesLen + 1 + PubKeyLen + PubKeyLen + 2
)

// sortKeys sorts a copy of keys in ascending lexicographic order
func sortKeys(keys [][]byte) [][]byte {
	sortedKeys := make([][]byte, len(keys))
	copy(sortedKeys, keys)
	sort.SliceStable(sortedKeys, func(i, j int) bool {
		return bytes.Compare(sortedKeys[i], sortedKeys[j]) < 0
	})
	return sortedKeys
}

// BuildSingleKeyScript creates a single key lock script.
// Returns script of form:
// <pubKey> OP_CHECKSIG
// or, if withVerify is true:
// <pubKey> OP_CHECKSIGVERIFY
func BuildSingleKeyScript(pubKey []byte, withVerify bool) ([]byte, error) {
	if len(pubKey) != PubKeyLen {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeyLength, PubKeyLen, len(pubKey))
	}

	builder := txscript.NewScriptBuilder()
	builder.AddData(pubKey)
	if withVerify {
		builder.AddOp(txscript.OP_CHECKSIGVERIFY)
	} else {
		builder.AddOp(txscript.OP_CHECKSIG)
	}
	return builder.Script()
}

// BuildMultiKeyScript creates a threshold multisig script. Keys are sorted
// before assembly, so the result does not depend on the input order.
// Returns script of form:
// <pubKey1> OP_CHECKSIG <pubKey2> OP_CHECKSIGADD <pubKey3> OP_CHECKSIGADD ... <threshold> OP_NUMEQUAL[VERIFY]
func BuildMultiKeyScript(pubKeys [][]byte, threshold uint32, withVerify bool) ([]byte, error) {
	if len(pubKeys) == 0 {
		return nil, ErrNoKeys
	}

	for _, pk := range pubKeys {
		if len(pk) != PubKeyLen {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeyLength, PubKeyLen, len(pk))
		}
	}

	if threshold == 0 || int(threshold) > len(pubKeys) {
		return nil, fmt.Errorf("%w: required number of valid signers %d, provided keys %d",
			ErrInvalidThreshold, threshold, len(pubKeys))
	}

	sortedKeys := sortKeys(pubKeys)
	if err := util.ValidateNoDuplicateKeys(sortedKeys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateKeys, err)
	}

	builder := txscript.NewScriptBuilder()
	for i, key := range sortedKeys {
		builder.AddData(key)
		if i == 0 {
			builder.AddOp(txscript.OP_CHECKSIG)
		} else {
			builder.AddOp(txscript.OP_CHECKSIGADD)
		}
	}

	builder.AddInt64(int64(threshold))
	if withVerify {
		builder.AddOp(txscript.OP_NUMEQUALVERIFY)
	} else {
		builder.AddOp(txscript.OP_NUMEQUAL)
	}

	return builder.Script()
}

// BuildTimeLockScript creates a relative time lock script.
// Returns script of form:
// <pubKey> OP_CHECKSIGVERIFY <timeLock> OP_CHECKSEQUENCEVERIFY
func BuildTimeLockScript(pubKey []byte, timeLock uint32) ([]byte, error) {
	if len(pubKey) != PubKeyLen {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeyLength, PubKeyLen, len(pubKey))
	}
	if timeLock == 0 || timeLock > MaxTimeLock {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeLock, timeLock)
	}

	builder := txscript.NewScriptBuilder()
	builder.AddData(pubKey)
	builder.AddOp(txscript.OP_CHECKSIGVERIFY)
	builder.AddInt64(int64(timeLock))
	builder.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	return builder.Script()
}

// aggregateScripts concatenates scripts, the result requires all of them
// to be satisfied.
func aggregateScripts(scripts ...[]byte) []byte {
	if len(scripts) == 0 {
		return []byte{}
	}

	var finalScript []byte
	for _, script := range scripts {
		finalScript = append(finalScript, script...)
	}
	return finalScript
}
