package main

import (
	"github.com/benithors/dotbuy/client"
	"github.com/spf13/cobra"
)

// Exit codes are part of the CLI contract for scripts and agents.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitPayment = 3
)

type cliError struct {
	Code      int
	Err       error
	ShowUsage bool
	Cmd       *cobra.Command
}

func (e *cliError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *cliError) Unwrap() error { return e.Err }

var errExit0 = &cliError{Code: exitOK}

func usageErr(cmd *cobra.Command, err error) error {
	return &cliError{Code: exitUsage, Err: err, ShowUsage: true, Cmd: cmd}
}

// apiErr maps a client failure to an exit code. Payment failures exit 3.
func apiErr(cmd *cobra.Command, err error) error {
	code := exitFailure
	if ce, ok := client.AsError(err); ok && ce.Code == client.CodePaymentError {
		code = exitPayment
	}
	return &cliError{Code: code, Err: err, Cmd: cmd}
}
