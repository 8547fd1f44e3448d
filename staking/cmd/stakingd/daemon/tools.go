package daemon

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/talos-labs/staking-wallet/staking/service"
	"github.com/talos-labs/staking-wallet/staking/wallet"
)

func NewDecodeLockTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "decode-lock-tx [raw-tx-hex]",
		Short:   "Decode the staking option of a raw CoreDAO lock transaction.",
		Example: BinaryName + " decode-lock-tx 0100000001...",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := service.DecodeLockTx(args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(decoded, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return nil
		},
	}
}

func NewDeriveBytesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive-bytes",
		Short: "Print the derivation bytes, the wallet id, of a staking order.",
		RunE:  deriveBytes,
	}

	cmd.Flags().Uint32(orderIDFlag, 0, "The order id")
	cmd.Flags().String(targetFlag, wallet.StakeTargetCoreDao.String(), "The stake target (babylon|coredao)")
	cmd.Flags().String(principalFlag, "", "The 0x prefixed hex of the user principal")

	if err := cmd.MarkFlagRequired(principalFlag); err != nil {
		panic(err)
	}

	return cmd
}

func deriveBytes(cmd *cobra.Command, _ []string) error {
	orderID, err := cmd.Flags().GetUint32(orderIDFlag)
	if err != nil {
		return err
	}
	rawTarget, err := cmd.Flags().GetString(targetFlag)
	if err != nil {
		return err
	}
	rawPrincipal, err := cmd.Flags().GetString(principalFlag)
	if err != nil {
		return err
	}

	target, err := wallet.ParseStakeTarget(rawTarget)
	if err != nil {
		return err
	}
	principal, err := hexutil.Decode(rawPrincipal)
	if err != nil {
		return fmt.Errorf("invalid principal: %w", err)
	}

	b := wallet.DeriveBytes(wallet.OrderIDFromUint32(orderID), target, principal)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b[:]))

	return nil
}
