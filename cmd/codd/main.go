// Command codd evaluates relational algebra queries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/codd/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "codd: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
