//nolint:revive
package util

import (
	"encoding/hex"
	"fmt"
)

// HasDuplicateKeys checks if the provided byte keys contain any duplicates.
// Returns (true, duplicateKey) if a duplicate is found, (false, nil) otherwise.
func HasDuplicateKeys(keys [][]byte) (bool, []byte) {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, exists := seen[string(k)]; exists {
			return true, k
		}
		seen[string(k)] = struct{}{}
	}

	return false, nil
}

// ValidateNoDuplicateKeys returns an error if duplicate keys are found in the slice.
func ValidateNoDuplicateKeys(keys [][]byte) error {
	if hasDup, dup := HasDuplicateKeys(keys); hasDup {
		return fmt.Errorf("duplicate key detected: %s", hex.EncodeToString(dup))
	}

	return nil
}
