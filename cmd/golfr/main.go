package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golfr/internal/convert"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	cancel()
	os.Exit(exitCode(err))
}

// exitCode maps a command error onto the process exit status. A batch in
// which some recordings converted exits with exitPartial.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var partial *convert.PartialError
	if errors.As(err, &partial) {
		return exitPartial
	}
	return exitFailure
}
