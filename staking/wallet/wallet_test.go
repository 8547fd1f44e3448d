package wallet_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/address"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/staking/wallet"
	"github.com/talos-labs/staking-wallet/testutil"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDeriveBytes(t *testing.T) {
	t.Parallel()

	orderID := wallet.OrderIDFromUint32(7)
	principal := []byte{0xaa, 0xbb}

	expected := sha256.Sum256([]byte{0x00, 0x00, 0x00, 0x07, 0x01, 0xaa, 0xbb})
	require.Equal(t, expected, wallet.DeriveBytes(orderID, wallet.StakeTargetCoreDao, principal))

	// the target is part of the path
	require.NotEqual(t,
		wallet.DeriveBytes(orderID, wallet.StakeTargetBabylon, principal),
		wallet.DeriveBytes(orderID, wallet.StakeTargetCoreDao, principal),
	)
	require.Equal(t, uint32(7), orderID.Uint32())
}

func TestParseStakeTarget(t *testing.T) {
	t.Parallel()

	for name, expected := range map[string]wallet.StakeTarget{
		"babylon": wallet.StakeTargetBabylon,
		"Babylon": wallet.StakeTargetBabylon,
		"coredao": wallet.StakeTargetCoreDao,
	} {
		target, err := wallet.ParseStakeTarget(name)
		require.NoError(t, err)
		require.Equal(t, expected, target)
	}

	_, err := wallet.ParseStakeTarget("ethereum")
	require.ErrorIs(t, err, wallet.ErrUnknownStakeTarget)
}

func TestParseWalletID(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(1))

	w := &wallet.StakingWallet{}
	copy(w.Bytes[:], testutil.GenRandomByteArray(r, wallet.BytesLen))
	b, err := wallet.ParseWalletID(w.ID())
	require.NoError(t, err)
	require.Equal(t, w.Bytes, b)

	_, err = wallet.ParseWalletID("zz")
	require.ErrorIs(t, err, wallet.ErrInvalidWalletID)
	_, err = wallet.ParseWalletID(hex.EncodeToString([]byte{1, 2, 3}))
	require.ErrorIs(t, err, wallet.ErrInvalidWalletID)
}

// FuzzDeriveStakeAddress tests custody address derivation for both targets
func FuzzDeriveStakeAddress(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))
		ctx := context.Background()

		ls, err := signer.NewLocalSigner(testMnemonic, "", testutil.GetTestLogger(t))
		require.NoError(t, err)

		path := wallet.DeriveBytes(
			wallet.OrderIDFromUint32(r.Uint32()),
			wallet.StakeTargetBabylon,
			testutil.GenRandomPrincipal(r),
		)

		addr, pkHex, err := wallet.DeriveStakeAddress(ctx, ls, signer.KeyIDTestKey1, wallet.StakeTargetBabylon, path[:], &chaincfg.TestNet3Params)
		require.NoError(t, err)
		info, err := address.Parse(addr)
		require.NoError(t, err)
		require.Equal(t, address.P2TR, info.Type)
		require.Len(t, pkHex, 64)

		// derivation is deterministic
		again, _, err := wallet.DeriveStakeAddress(ctx, ls, signer.KeyIDTestKey1, wallet.StakeTargetBabylon, path[:], &chaincfg.TestNet3Params)
		require.NoError(t, err)
		require.Equal(t, addr, again)

		addr, pkHex, err = wallet.DeriveStakeAddress(ctx, ls, signer.KeyIDTestKey1, wallet.StakeTargetCoreDao, path[:], &chaincfg.MainNetParams)
		require.NoError(t, err)
		info, err = address.Parse(addr)
		require.NoError(t, err)
		require.Equal(t, address.P2WPKH, info.Type)

		pk, err := hex.DecodeString(pkHex)
		require.NoError(t, err)
		require.Equal(t, btcutil.Hash160(pk), info.Address.ScriptAddress())
	})
}
