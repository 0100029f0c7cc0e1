package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/halo/internal/predictcli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := predictcli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
