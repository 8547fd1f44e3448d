package address

import "errors"

var (
	// ErrAddressParse the address string is not a valid Bitcoin address
	ErrAddressParse = errors.New("failed to parse address")

	// ErrNetworkMismatch the address does not belong to the expected network
	ErrNetworkMismatch = errors.New("address network mismatch")
)
