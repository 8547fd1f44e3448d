package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/talos-labs/staking-wallet/staking/cmd/stakingd/daemon"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := daemon.NewRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error while executing stakingd CLI: %s", err.Error())
		os.Exit(1) //nolint:gocritic
	}
}
