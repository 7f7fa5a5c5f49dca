// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/uiprov/cmd"
	"github.com/xkilldash9x/uiprov/internal/observability"
)

// main is the entry point for the uiprov CLI.
func main() {
	// Listen for interrupt signals so a half-finished run can still flush
	// its logs and diagnostic artifacts before the process dies.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}
