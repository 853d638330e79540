// Command auditrag audits project reports with retrieval-augmented generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/auditrag/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env file in the working directory supplies provider API keys.
	_ = godotenv.Load() //nolint:errcheck // the file is optional

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx, bootstrap); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
