package store_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/staking/store"
	"github.com/talos-labs/staking-wallet/testutil"
)

// FuzzTxStore tests saving txs and moving them through their states
func FuzzTxStore(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))
		_, ts := openStores(t)

		var walletID, otherWalletID [32]byte
		copy(walletID[:], testutil.GenRandomByteArray(r, 32))
		copy(otherWalletID[:], testutil.GenRandomByteArray(r, 32))

		numTxs := r.Intn(5) + 1
		txs := make([]*store.TxDetail, 0, numTxs)
		for i := 0; i < numTxs; i++ {
			d := &store.TxDetail{
				TxType:   store.TxType(r.Intn(4)),
				TxID:     testutil.GenRandomTxID(r),
				TxBytes:  testutil.GenRandomByteArray(r, 100),
				State:    store.StashedState(),
				WalletID: walletID,
				LockTime: r.Uint32(),
			}
			require.NoError(t, ts.SaveTx(d))
			txs = append(txs, d)
		}

		other := &store.TxDetail{
			TxType:   store.TxTypeLock,
			TxID:     testutil.GenRandomTxID(r),
			TxBytes:  testutil.GenRandomByteArray(r, 50),
			WalletID: otherWalletID,
		}
		require.NoError(t, ts.SaveTx(other))

		err := ts.SaveTx(txs[0])
		require.ErrorIs(t, err, store.ErrDuplicateTx)

		got, err := ts.GetTx(txs[0].TxID)
		require.NoError(t, err)
		require.Equal(t, txs[0], got)

		sort.Slice(txs, func(i, j int) bool { return txs[i].TxID < txs[j].TxID })
		byWallet, err := ts.GetTxsByWalletID(walletID)
		require.NoError(t, err)
		require.Equal(t, txs, byWallet)

		ts1 := r.Uint64()
		require.NoError(t, ts.SetTxState(txs[0].TxID, store.PendingState(ts1)))
		got, err = ts.GetTx(txs[0].TxID)
		require.NoError(t, err)
		require.Equal(t, store.TxPending, got.State.Status)
		require.Equal(t, ts1, got.State.Timestamp)

		require.NoError(t, ts.SetTxState(txs[0].TxID, store.ConfirmedState(ts1+1)))
		got, err = ts.GetTx(txs[0].TxID)
		require.NoError(t, err)
		require.Equal(t, store.ConfirmedState(ts1+1), got.State)
		require.Equal(t, txs[0].TxBytes, got.TxBytes)

		unknown := testutil.GenRandomTxID(r)
		_, err = ts.GetTx(unknown)
		require.ErrorIs(t, err, store.ErrTxNotFound)
		err = ts.SetTxState(unknown, store.StashedState())
		require.ErrorIs(t, err, store.ErrTxNotFound)
	})
}

func TestSaveTxsInOneBatch(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(7))
	_, ts := openStores(t)

	var walletID [32]byte
	copy(walletID[:], testutil.GenRandomByteArray(r, 32))

	lock := &store.TxDetail{
		TxType:   store.TxTypeLock,
		TxID:     testutil.GenRandomTxID(r),
		TxBytes:  testutil.GenRandomByteArray(r, 100),
		State:    store.StashedState(),
		WalletID: walletID,
		LockTime: 1_700_000_000,
	}
	unlock := &store.TxDetail{
		TxType:   store.TxTypeWithdraw,
		TxID:     testutil.GenRandomTxID(r),
		TxBytes:  testutil.GenRandomByteArray(r, 80),
		State:    store.StashedState(),
		WalletID: walletID,
		LockTime: 1_700_000_000,
	}

	// nothing is written when any tx of the batch is invalid
	_, err := ts.SaveTxs(lock, &store.TxDetail{WalletID: walletID})
	require.Error(t, err)
	_, err = ts.GetTx(lock.TxID)
	require.ErrorIs(t, err, store.ErrTxNotFound)

	saved, err := ts.SaveTxs(lock, unlock)
	require.NoError(t, err)
	require.Equal(t, []*store.TxDetail{lock, unlock}, saved)

	require.NoError(t, ts.SetTxState(lock.TxID, store.ConfirmedState(42)))

	// a retry finds both recorded and leaves them untouched
	saved, err = ts.SaveTxs(lock, unlock)
	require.NoError(t, err)
	require.Empty(t, saved)

	got, err := ts.GetTx(lock.TxID)
	require.NoError(t, err)
	require.Equal(t, store.ConfirmedState(42), got.State)

	byWallet, err := ts.GetTxsByWalletID(walletID)
	require.NoError(t, err)
	require.Len(t, byWallet, 2)

	// only the missing tx of a partially recorded batch is written
	extra := &store.TxDetail{
		TxType:   store.TxTypeWithdraw,
		TxID:     testutil.GenRandomTxID(r),
		TxBytes:  testutil.GenRandomByteArray(r, 80),
		WalletID: walletID,
	}
	saved, err = ts.SaveTxs(lock, extra)
	require.NoError(t, err)
	require.Equal(t, []*store.TxDetail{extra}, saved)
}

func TestTxTypeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lock", store.TxTypeLock.String())
	require.Equal(t, "withdraw", store.TxTypeWithdraw.String())
	require.Equal(t, "confirmed", store.TxConfirmed.String())
	require.Equal(t, "unknown(9)", store.TxType(9).String())
}
