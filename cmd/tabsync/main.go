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

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	err := newApp(wiring).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabsync: %v\n", err)
		os.Exit(1)
	}
}
