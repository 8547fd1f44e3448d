package babylon

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	// Point with unknown discrete logarithm defined in: https://github.com/bitcoin/bips/blob/master/bip-0341.mediawiki#constructing-and-spending-taproot-outputs
	// using it as internal public key effectively disables taproot key spends
	unspendableKeyPath = "0250929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0"
)

var unspendableKeyPathKey = mustParsePubKeyHex(unspendableKeyPath)

func mustParsePubKeyHex(keyHex string) *btcec.PublicKey {
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %v", err))
	}

	pubKey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %v", err))
	}
	return pubKey
}

// StakingOutput is the taproot output committing to the staking time lock
// and unbonding leaves.
type StakingOutput struct {
	Address       *btcutil.AddressTaproot
	Output        *wire.TxOut
	DataEmbed     *wire.TxOut
	TimeLockLeaf  []byte
	UnbondingLeaf []byte
}

// BuildStakingOutput assembles the staking output and its data embed output.
func (p *StakingScriptParams) BuildStakingOutput(net *chaincfg.Params, amount int64) (*StakingOutput, error) {
	if err := p.CheckParams(); err != nil {
		return nil, fmt.Errorf("invalid staking script params: %w", err)
	}

	timeLockLeaf, err := p.BuildStakingTimeLockScript()
	if err != nil {
		return nil, fmt.Errorf("failed to build time lock script: %w", err)
	}

	unbondingLeaf, err := p.BuildUnbondingScript()
	if err != nil {
		return nil, fmt.Errorf("failed to build unbonding script: %w", err)
	}

	dataEmbed, err := p.BuildDataEmbedScript()
	if err != nil {
		return nil, fmt.Errorf("failed to build data embed script: %w", err)
	}

	tree := txscript.AssembleTaprootScriptTree(
		txscript.NewBaseTapLeaf(timeLockLeaf),
		txscript.NewBaseTapLeaf(unbondingLeaf),
	)
	rootHash := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(unspendableKeyPathKey, rootHash[:])

	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	if err != nil {
		return nil, fmt.Errorf("error encoding Taproot address: %w", err)
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	return &StakingOutput{
		Address:       addr,
		Output:        wire.NewTxOut(amount, pkScript),
		DataEmbed:     wire.NewTxOut(0, dataEmbed),
		TimeLockLeaf:  timeLockLeaf,
		UnbondingLeaf: unbondingLeaf,
	}, nil
}
