package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // All gates passed
	ExitGateFailed = 1 // An acceptance gate, audit or guardrail failed
	ExitError      = 2 // Configuration or runtime error
)

// GateFailureError indicates that the command ran to completion but its
// result did not meet an acceptance criterion.
type GateFailureError struct {
	Message string
}

func (e *GateFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var gateErr *GateFailureError
		if errors.As(err, &gateErr) {
			os.Exit(ExitGateFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
