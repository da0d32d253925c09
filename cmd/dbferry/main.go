// Command dbferry migrates an H2 schema and its data into a new MySQL
// database.
//
// Usage:
//
//	dbferry migrate --config dbferry.yaml
//	dbferry inspect --config dbferry.yaml
//	dbferry reset   --config dbferry.yaml
//	dbferry report list
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
	defer stop()

	if err := newApp().rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
