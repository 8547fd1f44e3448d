package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/cosmos/go-bip39"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"go.uber.org/zap"
)

const MnemonicEntropySize = 256

var _ ThresholdSigner = &LocalSigner{}

// LocalSigner holds the master seed in process and derives per path keys
// from it. It serves development setups and tests in place of a threshold
// network.
type LocalSigner struct {
	mu     sync.Mutex
	seed   []byte
	roots  map[string]*secp256k1.ModNScalar
	logger *zap.Logger
}

// NewMnemonic generates a new master mnemonic.
func NewMnemonic() (string, error) {
	entropySeed, err := bip39.NewEntropy(MnemonicEntropySize)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropySeed)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	return mnemonic, nil
}

func NewLocalSigner(mnemonic, passphrase string, logger *zap.Logger) (*LocalSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}

	return &LocalSigner{
		seed:   seed,
		roots:  make(map[string]*secp256k1.ModNScalar),
		logger: logger,
	}, nil
}

func (ls *LocalSigner) PublicKey(_ context.Context, scheme Scheme, keyID KeyID, derivationPath []byte) ([]byte, error) {
	privKey, err := ls.derivePrivKey(scheme, keyID, derivationPath)
	if err != nil {
		return nil, err
	}

	return privKey.PubKey().SerializeCompressed(), nil
}

func (ls *LocalSigner) SignPrehash(_ context.Context, scheme Scheme, keyID KeyID, derivationPath []byte, messageHash []byte) ([]byte, error) {
	if err := ValidateMessageHash(messageHash); err != nil {
		return nil, err
	}

	privKey, err := ls.derivePrivKey(scheme, keyID, derivationPath)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeECDSA:
		compact := ecdsa.SignCompact(privKey, messageHash, true)
		// drop the recovery code
		return compact[1:], nil
	case SchemeSchnorr:
		sig, err := schnorr.Sign(privKey, messageHash)
		if err != nil {
			return nil, fmt.Errorf("failed to sign schnorr: %w", err)
		}
		return sig.Serialize(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

func (ls *LocalSigner) Close() error {
	return nil
}

// derivePrivKey computes root(scheme, keyID) + sha256(path) mod n.
func (ls *LocalSigner) derivePrivKey(scheme Scheme, keyID KeyID, derivationPath []byte) (*btcec.PrivateKey, error) {
	if !keyID.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, keyID)
	}
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if err := ValidateDerivationPath(derivationPath); err != nil {
		return nil, err
	}

	root, err := ls.rootKey(scheme, keyID)
	if err != nil {
		return nil, err
	}

	var tweak secp256k1.ModNScalar
	pathHash := sha256.Sum256(derivationPath)
	tweak.SetBytes(&pathHash)

	child := new(secp256k1.ModNScalar).Set(root).Add(&tweak)
	if child.IsZero() {
		return nil, fmt.Errorf("derived a zero key for path %x", derivationPath)
	}

	return secp256k1.NewPrivateKey(child), nil
}

func (ls *LocalSigner) rootKey(scheme Scheme, keyID KeyID) (*secp256k1.ModNScalar, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	name := string(scheme) + "/" + keyID.String()
	if root, ok := ls.roots[name]; ok {
		return root, nil
	}

	mac := hmac.New(sha512.New, []byte(name))
	mac.Write(ls.seed)
	sum := mac.Sum(nil)

	root := new(secp256k1.ModNScalar)
	overflow := root.SetByteSlice(sum[:32])
	if overflow || root.IsZero() {
		return nil, fmt.Errorf("invalid root key for %s", name)
	}

	ls.roots[name] = root
	ls.logger.Debug("derived signer root key", zap.String("key", name))

	return root, nil
}
