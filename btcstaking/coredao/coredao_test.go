package coredao_test

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/btcstaking/coredao"
	"github.com/talos-labs/staking-wallet/testutil"
)

const testPubKey = "02afee55a2cdcb6c47a593d629b04e13399354d348a3d84ad19310e2b6396e7237"

func testOption() coredao.CoreOption {
	return coredao.CoreOption{
		Version:  coredao.DefaultVersion,
		ChainID:  1,
		Fee:      coredao.DefaultFee,
		PubKey:   testPubKey,
		LockTime: 848484,
		Network:  &chaincfg.TestNet3Params,
	}
}

func TestConstruct(t *testing.T) {
	t.Parallel()
	opt := testOption()

	s, err := coredao.Construct(opt)
	require.NoError(t, err)

	pkBytes, err := hex.DecodeString(testPubKey)
	require.NoError(t, err)
	expectedHash := btcutil.Hash160(pkBytes)
	require.Equal(t, expectedHash, s.StakerHash)

	// 848484 = 0x0cf264, pushed little endian
	require.Equal(t,
		"0364f20cb17576a914"+hex.EncodeToString(expectedHash)+"88ac",
		hex.EncodeToString(s.RedeemScript))

	require.True(t, txscript.IsPayToWitnessScriptHash(s.PkScript))
	require.Equal(t, int64(0), s.OpReturn.Value)
	require.Equal(t, byte(txscript.OP_RETURN), s.OpReturn.PkScript[0])

	payload := coredao.EncodePayload(&opt, s.RedeemScript)
	require.Len(t, payload, 4+1+2+20+20+1+len(s.RedeemScript))
	require.Equal(t, "SAT+", string(payload[:4]))
	require.Equal(t, []byte{0x00, 0x01}, payload[5:7])

	again, err := coredao.Construct(opt)
	require.NoError(t, err)
	require.Equal(t, s, again)
}

func TestConstructErrors(t *testing.T) {
	t.Parallel()

	opt := testOption()
	opt.PubKey = "zz"
	_, err := coredao.Construct(opt)
	require.ErrorIs(t, err, coredao.ErrInvalidPubKey)

	opt = testOption()
	opt.PubKey = testPubKey[:64]
	_, err = coredao.Construct(opt)
	require.ErrorIs(t, err, coredao.ErrInvalidPubKey)

	opt = testOption()
	opt.Network = nil
	_, err = coredao.Construct(opt)
	require.Error(t, err)
}

func TestLockTimeBounds(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(5))

	tcs := []struct {
		lockTime uint32
		valid    bool
	}{
		{0, false},
		{16, false},
		{17, true},
		{1<<31 - 1, true},
		{1 << 31, false},
		{1<<32 - 1, false},
	}

	for _, tc := range tcs {
		opt := testOption()
		opt.LockTime = tc.lockTime

		s, err := coredao.Construct(opt)
		if !tc.valid {
			require.ErrorIs(t, err, coredao.ErrInvalidLockTime, "lock time %d", tc.lockTime)
			_, err = coredao.BuildRedeemScript(tc.lockTime, make([]byte, 20))
			require.ErrorIs(t, err, coredao.ErrInvalidLockTime, "lock time %d", tc.lockTime)
			continue
		}
		require.NoError(t, err, "lock time %d", tc.lockTime)

		packet, _, err := s.CreateLockTx(1000, s.PkScript, testutil.GenRandomTxID(r), 0, 2000)
		require.NoError(t, err)

		decoded, staker, err := coredao.DecodeLockTx(packet.UnsignedTx)
		require.NoError(t, err)
		require.Equal(t, tc.lockTime, decoded.LockTime)
		require.Equal(t, s.StakerHash, staker)
	}
}

func TestCreateLockTx(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(1))

	s, err := coredao.Construct(testOption())
	require.NoError(t, err)

	fundingScript := append([]byte{txscript.OP_0, 0x14}, s.StakerHash...)
	fundingTxID := testutil.GenRandomTxID(r)

	packet, txid, err := s.CreateLockTx(90000, fundingScript, fundingTxID, 1, 100000)
	require.NoError(t, err)

	tx := packet.UnsignedTx
	require.Equal(t, tx.TxHash().String(), txid)
	require.Len(t, tx.TxIn, 1)
	require.Equal(t, fundingTxID, tx.TxIn[0].PreviousOutPoint.Hash.String())
	require.Equal(t, uint32(1), tx.TxIn[0].PreviousOutPoint.Index)
	require.Equal(t, uint32(wire.MaxTxInSequenceNum), tx.TxIn[0].Sequence)

	require.Len(t, tx.TxOut, 2)
	require.Equal(t, int64(90000), tx.TxOut[0].Value)
	require.Equal(t, s.PkScript, tx.TxOut[0].PkScript)
	require.Equal(t, int64(0), tx.TxOut[1].Value)
	require.Equal(t, s.OpReturn.PkScript, tx.TxOut[1].PkScript)

	require.Equal(t, int64(100000), packet.Inputs[0].WitnessUtxo.Value)
	require.Equal(t, fundingScript, packet.Inputs[0].WitnessUtxo.PkScript)
	require.Equal(t, txscript.SigHashAll, packet.Inputs[0].SighashType)

	_, _, err = s.CreateLockTx(90000, fundingScript, "not-a-txid", 1, 100000)
	require.ErrorIs(t, err, coredao.ErrInvalidTxID)

	_, _, err = s.CreateLockTx(100001, fundingScript, fundingTxID, 1, 100000)
	require.ErrorIs(t, err, coredao.ErrInvalidAmount)
}

func TestCreateUnlockTx(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(2))

	s, err := coredao.Construct(testOption())
	require.NoError(t, err)

	outAddr, err := btcutil.NewAddressWitnessPubKeyHash(s.StakerHash, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	lockTxID := testutil.GenRandomTxID(r)

	packet, err := s.CreateUnlockTx(lockTxID, 0, 848484, 90000, 89500, outAddr.EncodeAddress())
	require.NoError(t, err)

	tx := packet.UnsignedTx
	require.Equal(t, int32(2), tx.Version)
	require.Equal(t, uint32(848484), tx.LockTime)
	require.Equal(t, uint32(0xfffffffe), tx.TxIn[0].Sequence)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, int64(89500), tx.TxOut[0].Value)

	expectedScript, err := txscript.PayToAddrScript(outAddr)
	require.NoError(t, err)
	require.Equal(t, expectedScript, tx.TxOut[0].PkScript)

	require.Equal(t, int64(90000), packet.Inputs[0].WitnessUtxo.Value)
	require.Equal(t, s.PkScript, packet.Inputs[0].WitnessUtxo.PkScript)
	require.Equal(t, s.RedeemScript, packet.Inputs[0].WitnessScript)

	// mainnet address for a testnet lock
	mainAddr, err := btcutil.NewAddressWitnessPubKeyHash(s.StakerHash, &chaincfg.MainNetParams)
	require.NoError(t, err)
	_, err = s.CreateUnlockTx(lockTxID, 0, 848484, 90000, 89500, mainAddr.EncodeAddress())
	require.Error(t, err)

	_, err = s.CreateUnlockTx(lockTxID, 0, 848484, 90000, 90001, outAddr.EncodeAddress())
	require.ErrorIs(t, err, coredao.ErrInvalidAmount)
}

// FuzzLockTxRoundTrip checks the payload embedded by a lock tx decodes back
// to the option it was built from
func FuzzLockTxRoundTrip(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))
		_, pk := testutil.GenRandomBTCKeyPair(t, r)

		opt := coredao.CoreOption{
			Version:  uint8(r.Intn(256)),
			ChainID:  uint16(r.Intn(65536)),
			Fee:      uint8(r.Intn(256)),
			PubKey:   hex.EncodeToString(pk.SerializeCompressed()),
			LockTime: coredao.MinLockTime + uint32(r.Int63n(int64(coredao.MaxLockTime-coredao.MinLockTime)+1)),
			Network:  &chaincfg.SigNetParams,
		}
		copy(opt.Delegator[:], testutil.GenRandomByteArray(r, 20))
		copy(opt.Validator[:], testutil.GenRandomByteArray(r, 20))

		s, err := coredao.Construct(opt)
		require.NoError(t, err)

		packet, _, err := s.CreateLockTx(1000, s.PkScript, testutil.GenRandomTxID(r), 0, 2000)
		require.NoError(t, err)

		decoded, staker, err := coredao.DecodeLockTx(packet.UnsignedTx)
		require.NoError(t, err)
		require.Equal(t, opt.Version, decoded.Version)
		require.Equal(t, opt.ChainID, decoded.ChainID)
		require.Equal(t, opt.Delegator, decoded.Delegator)
		require.Equal(t, opt.Validator, decoded.Validator)
		require.Equal(t, opt.Fee, decoded.Fee)
		require.Equal(t, opt.LockTime, decoded.LockTime)
		require.Equal(t, btcutil.Hash160(pk.SerializeCompressed()), staker)
	})
}

func opReturnTx(t *testing.T, pushes ...[]byte) *wire.MsgTx {
	b := txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN)
	for _, p := range pushes {
		b.AddData(p)
	}
	script, err := b.Script()
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(1000, []byte{txscript.OP_0, 0x14}))
	tx.AddTxOut(wire.NewTxOut(0, script))
	return tx
}

func TestDecodeLockTxErrors(t *testing.T) {
	t.Parallel()

	s, err := coredao.Construct(testOption())
	require.NoError(t, err)
	opt := testOption()
	payload := coredao.EncodePayload(&opt, s.RedeemScript)

	// no op_return output
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(1000, s.PkScript))
	_, _, err = coredao.DecodeLockTx(tx)
	require.ErrorIs(t, err, coredao.ErrNoPayload)

	// non push opcode after op_return
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).AddData(payload).AddOp(txscript.OP_DROP).Script()
	require.NoError(t, err)
	tx = wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(0, script))
	_, _, err = coredao.DecodeLockTx(tx)
	require.ErrorIs(t, err, coredao.ErrNoPayload)

	// payload split across pushes is concatenated
	decoded, staker, err := coredao.DecodeLockTx(opReturnTx(t, payload[:10], payload[10:]))
	require.NoError(t, err)
	require.Equal(t, opt.LockTime, decoded.LockTime)
	require.Equal(t, s.StakerHash, staker)

	_, _, err = coredao.DecodeLockTx(opReturnTx(t, append([]byte("SAT-"), payload[4:]...)))
	require.ErrorIs(t, err, coredao.ErrInvalidProtocol)

	_, _, err = coredao.DecodeLockTx(opReturnTx(t, payload[:20]))
	require.ErrorIs(t, err, coredao.ErrPayloadTooShort)

	// redeem script without the cltv lock
	noLock := append([]byte{}, payload[:coredao.PayloadHeaderLen]...)
	noLock = append(noLock, s.RedeemScript[4:]...)
	_, _, err = coredao.DecodeLockTx(opReturnTx(t, noLock))
	require.ErrorIs(t, err, coredao.ErrNoLockTime)

	// redeem script without the staker hash
	noStaker := append([]byte{}, payload[:coredao.PayloadHeaderLen]...)
	noStaker = append(noStaker, s.RedeemScript[:6]...)
	_, _, err = coredao.DecodeLockTx(opReturnTx(t, noStaker))
	require.ErrorIs(t, err, coredao.ErrNoStaker)
}

func TestParseAddressHex(t *testing.T) {
	t.Parallel()

	addr, err := coredao.ParseAddressHex("0x3aE030Dc3717C66f63D6e8f1d1508a5C941ff46D")
	require.NoError(t, err)
	require.Equal(t, byte(0x3a), addr[0])
	require.Equal(t, byte(0x6d), addr[19])

	_, err = coredao.ParseAddressHex("3aE030Dc3717C66f63D6e8f1d1508a5C941ff4")
	require.ErrorIs(t, err, coredao.ErrInvalidHexLength)

	_, err = coredao.ParseAddressHex("xyz")
	require.Error(t, err)
}
