package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

type AddressType string

const (
	P2PKH  AddressType = "p2pkh"
	P2SH   AddressType = "p2sh"
	P2WPKH AddressType = "p2wpkh"
	P2WSH  AddressType = "p2wsh"
	P2TR   AddressType = "p2tr"
)

// AddressInfo is the result of parsing an address string.
type AddressInfo struct {
	Address btcutil.Address
	// Script is the output script paying to Address.
	Script  []byte
	Network *chaincfg.Params
	Type    AddressType
}

// String returns the canonical encoding of the address.
func (ai *AddressInfo) String() string {
	return ai.Address.EncodeAddress()
}

type prefixRule struct {
	prefix string
	net    *chaincfg.Params
	typ    AddressType
}

// prefixRules is checked in order, the first match wins.
var prefixRules = []prefixRule{
	{"bc1q", &chaincfg.MainNetParams, P2WPKH},
	{"bc1p", &chaincfg.MainNetParams, P2TR},
	{"1", &chaincfg.MainNetParams, P2PKH},
	{"3", &chaincfg.MainNetParams, P2SH},
	{"tb1q", &chaincfg.TestNet3Params, P2WPKH},
	{"m", &chaincfg.TestNet3Params, P2PKH},
	{"n", &chaincfg.TestNet3Params, P2PKH},
	{"2", &chaincfg.TestNet3Params, P2SH},
	{"tb1p", &chaincfg.TestNet3Params, P2TR},
	{"bcrt1q", &chaincfg.RegressionNetParams, P2WPKH},
	{"bcrt1p", &chaincfg.RegressionNetParams, P2TR},
}

var knownNets = []*chaincfg.Params{
	&chaincfg.MainNetParams,
	&chaincfg.TestNet3Params,
	&chaincfg.RegressionNetParams,
}

// Classify guesses the network and address type from the literal prefix of
// the address. Unknown prefixes are classified as mainnet taproot.
func Classify(addr string) (*chaincfg.Params, AddressType) {
	lower := strings.ToLower(addr)
	for _, rule := range prefixRules {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.net, rule.typ
		}
	}

	return &chaincfg.MainNetParams, P2TR
}

// Parse classifies the address by its prefix and validates that it decodes
// for the classified network.
func Parse(addr string) (*AddressInfo, error) {
	net, _ := Classify(addr)

	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		for _, other := range knownNets {
			if other.Net == net.Net {
				continue
			}
			if _, otherErr := btcutil.DecodeAddress(addr, other); otherErr == nil {
				return nil, fmt.Errorf("%w: %s is a %s address, expected %s",
					ErrNetworkMismatch, addr, other.Name, net.Name)
			}
		}
		return nil, fmt.Errorf("%w %s: %v", ErrAddressParse, addr, err)
	}

	if !decoded.IsForNet(net) {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrNetworkMismatch, addr, net.Name)
	}

	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrAddressParse, addr, err)
	}

	return &AddressInfo{
		Address: decoded,
		Script:  script,
		Network: net,
		Type:    typeOf(decoded),
	}, nil
}

// ParseForNetwork parses the address and requires it to belong to the given
// network. Signet shares the testnet address encoding and is accepted for
// testnet addresses.
func ParseForNetwork(addr string, net *chaincfg.Params) (*AddressInfo, error) {
	info, err := Parse(addr)
	if err != nil {
		return nil, err
	}

	if !SameAddressSpace(info.Network, net) {
		return nil, fmt.Errorf("%w: %s is a %s address, expected %s",
			ErrNetworkMismatch, addr, info.Network.Name, net.Name)
	}

	return info, nil
}

// ScriptForAddress resolves the output script of the address on the given network.
func ScriptForAddress(addr string, net *chaincfg.Params) ([]byte, error) {
	info, err := ParseForNetwork(addr, net)
	if err != nil {
		return nil, err
	}

	return info.Script, nil
}

// SameAddressSpace reports whether addresses of a and b share one encoding.
func SameAddressSpace(a, b *chaincfg.Params) bool {
	return a.Bech32HRPSegwit == b.Bech32HRPSegwit && a.PubKeyHashAddrID == b.PubKeyHashAddrID
}

func typeOf(addr btcutil.Address) AddressType {
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressPubKey:
		return P2PKH
	case *btcutil.AddressScriptHash:
		return P2SH
	case *btcutil.AddressWitnessPubKeyHash:
		return P2WPKH
	case *btcutil.AddressWitnessScriptHash:
		return P2WSH
	default:
		return P2TR
	}
}
