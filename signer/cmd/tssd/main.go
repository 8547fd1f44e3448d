package main

import (
	"fmt"
	"os"

	"github.com/talos-labs/staking-wallet/signer/cmd/tssd/daemon"
)

func main() {
	if err := daemon.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error while executing tssd CLI: %s", err.Error())
		os.Exit(1)
	}
}
