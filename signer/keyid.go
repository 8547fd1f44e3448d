package signer

import (
	"fmt"
)

// KeyID selects the named master key of the threshold signing service.
type KeyID int

const (
	KeyIDTestKeyLocalDevelopment KeyID = iota + 1
	KeyIDTestKey1
	KeyIDProductionKey1
)

var keyIDNames = map[KeyID]string{
	KeyIDTestKeyLocalDevelopment: "dfx_test_key",
	KeyIDTestKey1:                "test_key_1",
	KeyIDProductionKey1:          "key_1",
}

func (k KeyID) String() string {
	if name, ok := keyIDNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

func (k KeyID) Valid() bool {
	_, ok := keyIDNames[k]
	return ok
}

// ParseKeyID maps the literal key name to its KeyID. No default is applied
// to unknown names.
func ParseKeyID(name string) (KeyID, error) {
	for id, n := range keyIDNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKeyID, name)
}

// MustParseKeyID panics on unknown key names. It is meant for key names
// coming from validated configuration.
func MustParseKeyID(name string) KeyID {
	id, err := ParseKeyID(name)
	if err != nil {
		panic(err)
	}
	return id
}
