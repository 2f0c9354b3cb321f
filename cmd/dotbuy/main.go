package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/benithors/dotbuy/client"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := newRootCmd(version, os.Getenv)
	return exitCode(os.Stderr, root.ExecuteContext(ctx))
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		if ce.Err != nil && ce.Err.Error() != "" {
			printErr(stderr, ce.Err)
			fmt.Fprintln(stderr)
		}
		if ce.ShowUsage && ce.Cmd != nil {
			_ = ce.Cmd.Usage()
		}
		return ce.Code
	}
	printErr(stderr, err)
	return exitFailure
}

func printErr(w io.Writer, err error) {
	fmt.Fprintln(w, err.Error())
	if ae, ok := client.AsError(err); ok && ae.RetryAfter > 0 {
		fmt.Fprintf(w, "retry after %s\n", ae.RetryAfter.Round(time.Second))
	}
}
