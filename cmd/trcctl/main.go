// Command trcctl administers a thematic research collection: it creates the
// database schema, inspects and deletes entries, resolves entry tokens and URIs,
// and rebuilds or queries the search cores.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/trc-platform/trc/cmd/trcctl/cli"
	"github.com/trc-platform/trc/platform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd(platform.Open).ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
