// Command resumeflow drafts a resume against a job posting, reviews it in a
// bounded revise loop, and writes interview questions alongside the result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rferrors "github.com/randalmurphal/resumeflow/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(newApp())
	if err := cmd.ExecuteContext(ctx); err != nil {
		err = rferrors.Wrap(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(rferrors.ExitCode(err))
	}
}
