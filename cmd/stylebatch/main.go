// Command stylebatch applies a neural style-transfer tool to images with
// color-managed input and output.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/davesmith10/stylebatch/internal/logging"
)

// rootContext is cancelled by SIGTERM. SIGINT is only handled around the
// stylize call and otherwise keeps its default behavior.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM)
}

func main() {
	ctx, stop := rootContext()
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
