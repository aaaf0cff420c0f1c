// Command filebox runs the file manager operations from the shell.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nuln/filebox/cmd/filebox/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
