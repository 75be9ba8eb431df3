// newsdedup flags exact and near-duplicate news articles in a CSV or JSONL
// batch and writes the annotated table back out as CSV.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration mistakes to 2 and everything else to 1.
func exitCode(err error) int {
	if errors.Is(err, internalerr.ErrInvalidConfig) {
		return 2
	}
	return 1
}
