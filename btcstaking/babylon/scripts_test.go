package babylon_test

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/btcstaking/babylon"
	"github.com/talos-labs/staking-wallet/testutil"
)

const (
	pk1 = "6f13a6d104446520d1757caec13eaf6fbcf29f488c31e0107e7351d4994cd068"
	pk2 = "f5199efae3f28bb82476163a7e458c7ad445d9bffb0682d10d3bdb2cb41f8e8e"
	pk3 = "17921cf156ccb4e73d428f996ed11b245313e37e27c978ac4d2cc21eca4672e4"
	pk4 = "76d1ae01f8fb6bf30108731c884cddcf57ef6eef2d9d9559e130894e0e40c62c"
	pk5 = "49766ccd9e3cd94343e2040474a77fb37cdfd30530d05f9f1e96ae1e2102c86e"
	pk6 = "063deb187a4bf11c114cf825a4726e4c2c35fea5c4c44a20ff08a30a752ec7e0"

	invalidPk = "6f13a6d104446520d1757caec13eaf6fbcf29f488c31e0107e7351d4994cd0"
	magic     = "62626234"
)

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func validParams(t *testing.T) *babylon.StakingScriptParams {
	return &babylon.StakingScriptParams{
		StakerKey:            mustHex(t, pk1),
		FinalityProviderKeys: [][]byte{mustHex(t, pk2)},
		CovenantKeys:         [][]byte{mustHex(t, pk3), mustHex(t, pk4), mustHex(t, pk5)},
		CovenantThreshold:    2,
		StakingTimeLock:      65535,
		UnbondingTimeLock:    1000,
		MagicBytes:           mustHex(t, magic),
	}
}

func TestScriptVectors(t *testing.T) {
	t.Parallel()
	p := validParams(t)
	require.True(t, p.Validate())

	stakingScript, err := p.BuildStakingTimeLockScript()
	require.NoError(t, err)
	require.Equal(t,
		"206f13a6d104446520d1757caec13eaf6fbcf29f488c31e0107e7351d4994cd068ad03ffff00b2",
		hex.EncodeToString(stakingScript))

	unbondingTimeLock, err := p.BuildUnbondingTimeLockScript()
	require.NoError(t, err)
	require.Equal(t,
		"206f13a6d104446520d1757caec13eaf6fbcf29f488c31e0107e7351d4994cd068ad02e803b2",
		hex.EncodeToString(unbondingTimeLock))

	unbondingScript, err := p.BuildUnbondingScript()
	require.NoError(t, err)
	require.Equal(t,
		"206f13a6d104446520d1757caec13eaf6fbcf29f488c31e0107e7351d4994cd068ad"+
			"2017921cf156ccb4e73d428f996ed11b245313e37e27c978ac4d2cc21eca4672e4ac"+
			"2049766ccd9e3cd94343e2040474a77fb37cdfd30530d05f9f1e96ae1e2102c86eba"+
			"2076d1ae01f8fb6bf30108731c884cddcf57ef6eef2d9d9559e130894e0e40c62cba"+
			"529c",
		hex.EncodeToString(unbondingScript))
}

func TestValidateSingleViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *babylon.StakingScriptParams)
		err    error
	}{
		{"short staker key", func(p *babylon.StakingScriptParams) { p.StakerKey = mustHex(t, invalidPk) }, babylon.ErrInvalidKeyLength},
		{"short finality provider key", func(p *babylon.StakingScriptParams) {
			p.FinalityProviderKeys = [][]byte{mustHex(t, invalidPk)}
		}, babylon.ErrInvalidKeyLength},
		{"short covenant key", func(p *babylon.StakingScriptParams) {
			p.CovenantKeys = append(p.CovenantKeys, mustHex(t, invalidPk))
		}, babylon.ErrInvalidKeyLength},
		{"staker key reused as covenant", func(p *babylon.StakingScriptParams) {
			p.CovenantKeys = append(p.CovenantKeys, mustHex(t, pk1))
		}, babylon.ErrDuplicateKeys},
		{"duplicate covenant key", func(p *babylon.StakingScriptParams) {
			p.CovenantKeys = append(p.CovenantKeys, mustHex(t, pk3))
		}, babylon.ErrDuplicateKeys},
		{"zero threshold", func(p *babylon.StakingScriptParams) { p.CovenantThreshold = 0 }, babylon.ErrInvalidThreshold},
		{"oversized threshold", func(p *babylon.StakingScriptParams) { p.CovenantThreshold = 4 }, babylon.ErrInvalidThreshold},
		{"zero staking time lock", func(p *babylon.StakingScriptParams) { p.StakingTimeLock = 0 }, babylon.ErrInvalidTimeLock},
		{"staking time lock over max", func(p *babylon.StakingScriptParams) { p.StakingTimeLock = 65536 }, babylon.ErrInvalidTimeLock},
		{"zero unbonding time lock", func(p *babylon.StakingScriptParams) { p.UnbondingTimeLock = 0 }, babylon.ErrInvalidTimeLock},
		{"unbonding time lock over max", func(p *babylon.StakingScriptParams) { p.UnbondingTimeLock = 70000 }, babylon.ErrInvalidTimeLock},
		{"short magic", func(p *babylon.StakingScriptParams) { p.MagicBytes = mustHex(t, "626262") }, babylon.ErrInvalidMagicBytes},
		{"long magic", func(p *babylon.StakingScriptParams) { p.MagicBytes = mustHex(t, "6262623435") }, babylon.ErrInvalidMagicBytes},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := validParams(t)
			tc.mutate(p)
			require.False(t, p.Validate())
			require.ErrorIs(t, p.CheckParams(), tc.err)
		})
	}
}

func TestBuildSingleKeyScript(t *testing.T) {
	t.Parallel()

	script, err := babylon.BuildSingleKeyScript(mustHex(t, pk1), false)
	require.NoError(t, err)
	require.Equal(t, "20"+pk1+"ac", hex.EncodeToString(script))

	script, err = babylon.BuildSingleKeyScript(mustHex(t, pk1), true)
	require.NoError(t, err)
	require.Equal(t, "20"+pk1+"ad", hex.EncodeToString(script))

	_, err = babylon.BuildSingleKeyScript(mustHex(t, invalidPk), true)
	require.ErrorIs(t, err, babylon.ErrInvalidKeyLength)
}

func TestBuildMultiKeyScriptErrors(t *testing.T) {
	t.Parallel()

	_, err := babylon.BuildMultiKeyScript(nil, 1, false)
	require.ErrorIs(t, err, babylon.ErrNoKeys)

	_, err = babylon.BuildMultiKeyScript([][]byte{mustHex(t, pk1), mustHex(t, invalidPk)}, 1, false)
	require.ErrorIs(t, err, babylon.ErrInvalidKeyLength)

	_, err = babylon.BuildMultiKeyScript([][]byte{mustHex(t, pk1), mustHex(t, pk2)}, 3, false)
	require.ErrorIs(t, err, babylon.ErrInvalidThreshold)

	_, err = babylon.BuildMultiKeyScript([][]byte{mustHex(t, pk1), mustHex(t, pk1)}, 1, true)
	require.ErrorIs(t, err, babylon.ErrDuplicateKeys)

	script, err := babylon.BuildMultiKeyScript([][]byte{mustHex(t, pk6), mustHex(t, pk1)}, 1, true)
	require.NoError(t, err)
	require.Equal(t, "20"+pk6+"ac20"+pk1+"ba519d", hex.EncodeToString(script))
}

// FuzzMultiKeyScriptOrderIndependence checks the multisig script does not
// depend on the order of the provided keys
func FuzzMultiKeyScriptOrderIndependence(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		t.Parallel()
		r := rand.New(rand.NewSource(seed))

		numKeys := 1 + r.Intn(10)
		keys := make([][]byte, numKeys)
		for i := range keys {
			keys[i] = testutil.GenRandomByteArray(r, babylon.PubKeyLen)
		}
		threshold := uint32(1 + r.Intn(numKeys))
		withVerify := r.Intn(2) == 0

		expected, err := babylon.BuildMultiKeyScript(keys, threshold, withVerify)
		require.NoError(t, err)

		shuffled := make([][]byte, numKeys)
		copy(shuffled, keys)
		r.Shuffle(numKeys, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		actual, err := babylon.BuildMultiKeyScript(shuffled, threshold, withVerify)
		require.NoError(t, err)
		require.Equal(t, expected, actual)

		tokenizer := txscript.MakeScriptTokenizer(0, actual)
		pushes := 0
		for tokenizer.Next() {
			if len(tokenizer.Data()) == babylon.PubKeyLen {
				pushes++
			}
		}
		require.NoError(t, tokenizer.Err())
		require.Equal(t, numKeys, pushes)
	})
}

func TestBuildDataEmbedScript(t *testing.T) {
	t.Parallel()
	p := validParams(t)

	script, err := p.BuildDataEmbedScript()
	require.NoError(t, err)
	require.Len(t, script, 2+babylon.DataEmbedPayloadLen)
	require.Equal(t, byte(txscript.OP_RETURN), script[0])
	require.Equal(t, "6a47"+magic+"00"+pk1+pk2+"ffff", hex.EncodeToString(script))

	p.FinalityProviderKeys = append(p.FinalityProviderKeys, mustHex(t, pk6))
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidFinalityProvider)

	p.FinalityProviderKeys = nil
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidFinalityProvider)

	// the payload has a fixed layout, so no field may change length
	p = validParams(t)
	p.MagicBytes = append(p.MagicBytes, 0x00)
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidMagicBytes)

	p = validParams(t)
	p.MagicBytes = p.MagicBytes[:babylon.MagicBytesLen-1]
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidMagicBytes)

	p = validParams(t)
	p.StakerKey = p.StakerKey[:babylon.PubKeyLen-1]
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidKeyLength)

	p = validParams(t)
	p.FinalityProviderKeys = [][]byte{append(mustHex(t, pk2), 0x00)}
	_, err = p.BuildDataEmbedScript()
	require.ErrorIs(t, err, babylon.ErrInvalidKeyLength)
}

func TestBuildStakingOutput(t *testing.T) {
	t.Parallel()
	p := validParams(t)

	out, err := p.BuildStakingOutput(&chaincfg.SigNetParams, 100000)
	require.NoError(t, err)
	require.Equal(t, int64(100000), out.Output.Value)
	require.Equal(t, int64(0), out.DataEmbed.Value)
	require.True(t, txscript.IsPayToTaproot(out.Output.PkScript))

	again, err := p.BuildStakingOutput(&chaincfg.SigNetParams, 100000)
	require.NoError(t, err)
	require.Equal(t, out.Address.EncodeAddress(), again.Address.EncodeAddress())

	p.CovenantThreshold = 0
	_, err = p.BuildStakingOutput(&chaincfg.SigNetParams, 100000)
	require.ErrorIs(t, err, babylon.ErrInvalidThreshold)
}
