package babylon

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"

	"github.com/talos-labs/staking-wallet/util"
)

// StakingScriptParams holds everything needed to build the Babylon staking
// script family. All keys are x-only.
type StakingScriptParams struct {
	StakerKey []byte
	// Babylon does not support restaking, so this holds exactly one key.
	FinalityProviderKeys [][]byte
	CovenantKeys         [][]byte
	CovenantThreshold    uint32
	// StakingTimeLock is the staking period in BTC blocks.
	StakingTimeLock uint32
	// UnbondingTimeLock is the unbonding period in BTC blocks.
	UnbondingTimeLock uint32
	MagicBytes        []byte
}

// Validate reports whether the params satisfy all key, threshold, time lock
// and magic bytes constraints. Use CheckParams to learn which one failed.
func (p *StakingScriptParams) Validate() bool {
	return p.CheckParams() == nil
}

// CheckParams returns the first violated constraint of the params.
func (p *StakingScriptParams) CheckParams() error {
	if len(p.StakerKey) != PubKeyLen {
		return fmt.Errorf("%w: staker key", ErrInvalidKeyLength)
	}

	for _, k := range p.FinalityProviderKeys {
		if len(k) != PubKeyLen {
			return fmt.Errorf("%w: finality provider key", ErrInvalidKeyLength)
		}
	}

	for _, k := range p.CovenantKeys {
		if len(k) != PubKeyLen {
			return fmt.Errorf("%w: covenant key", ErrInvalidKeyLength)
		}
	}

	if err := util.ValidateNoDuplicateKeys(p.allKeys()); err != nil {
		return fmt.Errorf("%w: %v", ErrDuplicateKeys, err)
	}

	if p.CovenantThreshold == 0 || int(p.CovenantThreshold) > len(p.CovenantKeys) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidThreshold, p.CovenantThreshold, len(p.CovenantKeys))
	}

	if p.StakingTimeLock == 0 || p.StakingTimeLock > MaxTimeLock {
		return fmt.Errorf("%w: staking time lock %d", ErrInvalidTimeLock, p.StakingTimeLock)
	}

	if p.UnbondingTimeLock == 0 || p.UnbondingTimeLock > MaxTimeLock {
		return fmt.Errorf("%w: unbonding time lock %d", ErrInvalidTimeLock, p.UnbondingTimeLock)
	}

	if len(p.MagicBytes) != MagicBytesLen {
		return fmt.Errorf("%w: %d", ErrInvalidMagicBytes, len(p.MagicBytes))
	}

	return nil
}

func (p *StakingScriptParams) allKeys() [][]byte {
	keys := make([][]byte, 0, 1+len(p.FinalityProviderKeys)+len(p.CovenantKeys))
	keys = append(keys, p.StakerKey)
	keys = append(keys, p.FinalityProviderKeys...)
	keys = append(keys, p.CovenantKeys...)
	return keys
}

func (p *StakingScriptParams) BuildStakingTimeLockScript() ([]byte, error) {
	return BuildTimeLockScript(p.StakerKey, p.StakingTimeLock)
}

func (p *StakingScriptParams) BuildUnbondingTimeLockScript() ([]byte, error) {
	return BuildTimeLockScript(p.StakerKey, p.UnbondingTimeLock)
}

// BuildUnbondingScript requires both the staker signature and the covenant
// quorum.
// Returns script of form:
// <stakerKey> OP_CHECKSIGVERIFY <covenantKey1> OP_CHECKSIG ... <threshold> OP_NUMEQUAL
func (p *StakingScriptParams) BuildUnbondingScript() ([]byte, error) {
	stakerScript, err := BuildSingleKeyScript(p.StakerKey, true)
	if err != nil {
		return nil, fmt.Errorf("failed to build staker script: %w", err)
	}

	covenantScript, err := BuildMultiKeyScript(p.CovenantKeys, p.CovenantThreshold, false)
	if err != nil {
		return nil, fmt.Errorf("failed to build covenant script: %w", err)
	}

	return aggregateScripts(stakerScript, covenantScript), nil
}

// BuildDataEmbedScript creates the identifiable staking OP_RETURN script.
// Returns script of form:
// OP_RETURN <magic || version || stakerKey || finalityProviderKey || stakingTimeLock>
func (p *StakingScriptParams) BuildDataEmbedScript() ([]byte, error) {
	if len(p.FinalityProviderKeys) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFinalityProvider, len(p.FinalityProviderKeys))
	}
	if len(p.MagicBytes) != MagicBytesLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMagicBytes, len(p.MagicBytes))
	}
	if len(p.StakerKey) != PubKeyLen {
		return nil, fmt.Errorf("%w: staker key of %d bytes", ErrInvalidKeyLength, len(p.StakerKey))
	}
	if len(p.FinalityProviderKeys[0]) != PubKeyLen {
		return nil, fmt.Errorf("%w: finality provider key of %d bytes", ErrInvalidKeyLength, len(p.FinalityProviderKeys[0]))
	}

	data := make([]byte, 0, DataEmbedPayloadLen)
	data = append(data, p.MagicBytes...)
	data = append(data, DataEmbedVersion)
	data = append(data, p.StakerKey...)
	data = append(data, p.FinalityProviderKeys[0]...)
	data = append(data, uint16ToBytes(uint16(p.StakingTimeLock))...)

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(data).
		Script()
}

func uint16ToBytes(v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return buf[:]
}
