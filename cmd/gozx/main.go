package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/plan-systems/klog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
