package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newCommand().Run(ctx, os.Args)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "recipemap:", err)
		os.Exit(1)
	}
}
