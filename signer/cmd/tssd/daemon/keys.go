package daemon

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/log"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/signer/config"
)

func NewShowKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show-key",
		Short:   "Print the public key derived for a derivation path.",
		Example: fmt.Sprintf("%s show-key --key-id test_key_1 --scheme schnorr --path <hex>", BinaryName),
		RunE:    showKey,
	}

	cmd.Flags().String(keyIDFlag, signer.KeyIDTestKeyLocalDevelopment.String(), "The master key name")
	cmd.Flags().String(schemeFlag, string(signer.SchemeECDSA), "The signature scheme (ecdsa or schnorr)")
	cmd.Flags().String(pathFlag, "", "The 32 byte derivation path as hex")

	return cmd
}

func showKey(cmd *cobra.Command, _ []string) error {
	homePath, err := getHomePath(cmd)
	if err != nil {
		return fmt.Errorf("failed to load home flag: %w", err)
	}

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load config at %s: %w", homePath, err)
	}

	keyIDStr, _ := cmd.Flags().GetString(keyIDFlag)
	keyID, err := signer.ParseKeyID(keyIDStr)
	if err != nil {
		return err
	}
	schemeStr, _ := cmd.Flags().GetString(schemeFlag)
	scheme, err := signer.ParseScheme(schemeStr)
	if err != nil {
		return err
	}
	pathHex, _ := cmd.Flags().GetString(pathFlag)
	path, err := hex.DecodeString(pathHex)
	if err != nil {
		return fmt.Errorf("invalid derivation path hex: %w", err)
	}

	logger, err := log.NewRootLogger(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	localSigner, err := newLocalSigner(cfg, homePath, logger)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	pk, err := localSigner.PublicKey(cmd.Context(), scheme, keyID, path)
	if err != nil {
		return err
	}

	if scheme == signer.SchemeSchnorr {
		cmd.Println(hex.EncodeToString(pk[1:]))
	} else {
		cmd.Println(hex.EncodeToString(pk))
	}

	return nil
}
