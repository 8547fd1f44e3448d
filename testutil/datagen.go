package testutil

import (
	"encoding/hex"
	"math/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/util"
)

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)

	return newHeaderBytes
}

func GenRandomHexStr(r *rand.Rand, length uint64) string {
	randBytes := GenRandomByteArray(r, length)

	return hex.EncodeToString(randBytes)
}

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

// GenRandomBTCKeyPair generates a secp256k1 key pair from the given source.
func GenRandomBTCKeyPair(t *testing.T, r *rand.Rand) (*btcec.PrivateKey, *btcec.PublicKey) {
	for {
		keyBytes := GenRandomByteArray(r, 32)
		if err := util.ValidatePrivKeyBytes(keyBytes); err != nil {
			continue
		}
		privKey, pubKey := btcec.PrivKeyFromBytes(keyBytes)
		require.NotNil(t, privKey)

		return privKey, pubKey
	}
}

func GenRandomOrderID(r *rand.Rand) [4]byte {
	var orderID [4]byte
	copy(orderID[:], GenRandomByteArray(r, 4))

	return orderID
}

// GenRandomPrincipal returns an opaque principal identifier of 10 to 29 bytes.
func GenRandomPrincipal(r *rand.Rand) []byte {
	return GenRandomByteArray(r, uint64(10+r.Intn(20)))
}

func GenRandomTxID(r *rand.Rand) string {
	return GenRandomHexStr(r, 32)
}
