package signer_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/testutil"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestSigner(t *testing.T) *signer.LocalSigner {
	ls, err := signer.NewLocalSigner(testMnemonic, "", testutil.GetTestLogger(t))
	require.NoError(t, err)
	return ls
}

func TestNewLocalSigner(t *testing.T) {
	t.Parallel()

	mnemonic, err := signer.NewMnemonic()
	require.NoError(t, err)
	_, err = signer.NewLocalSigner(mnemonic, "pass", testutil.GetTestLogger(t))
	require.NoError(t, err)

	_, err = signer.NewLocalSigner("not a valid mnemonic", "", testutil.GetTestLogger(t))
	require.Error(t, err)
}

// FuzzLocalSignerECDSA tests deterministic derivation and compact ECDSA signing
func FuzzLocalSignerECDSA(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))
		ctx := context.Background()
		ls := newTestSigner(t)

		path := testutil.GenRandomByteArray(r, signer.DerivationPathLen)
		pk1, err := ls.PublicKey(ctx, signer.SchemeECDSA, signer.KeyIDTestKey1, path)
		require.NoError(t, err)
		require.Len(t, pk1, btcec.PubKeyBytesLenCompressed)

		// deterministic across instances
		pk2, err := newTestSigner(t).PublicKey(ctx, signer.SchemeECDSA, signer.KeyIDTestKey1, path)
		require.NoError(t, err)
		require.Equal(t, pk1, pk2)

		// distinct per key id and per scheme
		pkProd, err := ls.PublicKey(ctx, signer.SchemeECDSA, signer.KeyIDProductionKey1, path)
		require.NoError(t, err)
		require.NotEqual(t, pk1, pkProd)
		pkSchnorr, err := ls.PublicKey(ctx, signer.SchemeSchnorr, signer.KeyIDTestKey1, path)
		require.NoError(t, err)
		require.NotEqual(t, pk1, pkSchnorr)

		hash := testutil.GenRandomByteArray(r, signer.MessageHashLen)
		sig, err := ls.SignPrehash(ctx, signer.SchemeECDSA, signer.KeyIDTestKey1, path, hash)
		require.NoError(t, err)
		require.Len(t, sig, signer.SignatureLen)

		var rs, ss btcec.ModNScalar
		require.False(t, rs.SetByteSlice(sig[:32]))
		require.False(t, ss.SetByteSlice(sig[32:]))
		require.False(t, ss.IsOverHalfOrder())

		pubKey, err := btcec.ParsePubKey(pk1)
		require.NoError(t, err)
		require.True(t, ecdsa.NewSignature(&rs, &ss).Verify(hash, pubKey))
	})
}

// FuzzLocalSignerSchnorr tests BIP340 signing against the x-only public key
func FuzzLocalSignerSchnorr(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))
		ctx := context.Background()
		ls := newTestSigner(t)

		path := testutil.GenRandomByteArray(r, signer.DerivationPathLen)
		xOnly, err := signer.DeriveSchnorrPublicKey(ctx, ls, signer.KeyIDTestKeyLocalDevelopment, path)
		require.NoError(t, err)

		hash := testutil.GenRandomByteArray(r, signer.MessageHashLen)
		sigBytes, err := ls.SignPrehash(ctx, signer.SchemeSchnorr, signer.KeyIDTestKeyLocalDevelopment, path, hash)
		require.NoError(t, err)

		sig, err := schnorr.ParseSignature(sigBytes)
		require.NoError(t, err)
		require.True(t, sig.Verify(hash, xOnly))
	})
}

func TestLocalSignerErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ls := newTestSigner(t)
	path := make([]byte, signer.DerivationPathLen)

	_, err := ls.PublicKey(ctx, signer.SchemeECDSA, signer.KeyID(42), path)
	require.ErrorIs(t, err, signer.ErrUnknownKeyID)

	_, err = ls.PublicKey(ctx, signer.Scheme("ed25519"), signer.KeyIDTestKey1, path)
	require.ErrorIs(t, err, signer.ErrUnknownScheme)

	_, err = ls.PublicKey(ctx, signer.SchemeECDSA, signer.KeyIDTestKey1, path[:31])
	require.ErrorIs(t, err, signer.ErrInvalidDerivationPath)

	_, err = ls.SignPrehash(ctx, signer.SchemeECDSA, signer.KeyIDTestKey1, path, []byte{0x01})
	require.ErrorIs(t, err, signer.ErrInvalidMessageHash)
}

func TestParseKeyID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   signer.KeyID
	}{
		{"dfx_test_key", signer.KeyIDTestKeyLocalDevelopment},
		{"test_key_1", signer.KeyIDTestKey1},
		{"key_1", signer.KeyIDProductionKey1},
	}
	for _, tc := range tests {
		id, err := signer.ParseKeyID(tc.name)
		require.NoError(t, err)
		require.Equal(t, tc.id, id)
		require.Equal(t, tc.name, id.String())
	}

	for _, name := range []string{"", "KEY_1", "key_2", "test_key_1 "} {
		_, err := signer.ParseKeyID(name)
		require.ErrorIs(t, err, signer.ErrUnknownKeyID)
	}

	require.Panics(t, func() { signer.MustParseKeyID("dfx_prod_key") })
	require.False(t, signer.KeyID(0).Valid())
}
