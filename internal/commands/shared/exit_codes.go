// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package shared

import (
	"errors"
	"fmt"
	"io"

	"github.com/tombee/nodecfg/internal/dispatch"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// Exit codes for nodecfg
const (
	ExitSuccess        = 0
	ExitMissingCommand = 1  // no command, or a command without its target
	ExitUnknownCommand = 2  // neither help, run nor history; also bad flags
	ExitDispatchError  = 3  // resolution, binding, operation or setup failure
	ExitStepsFailed    = 4  // the transaction ran but one or more steps failed
	ExitInternal       = 70 // a section broke its contract (EX_SOFTWARE from sysexits.h)
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewMissingCommandError creates an error for an incomplete invocation
func NewMissingCommandError(msg string) *ExitError {
	return &ExitError{Code: ExitMissingCommand, Message: msg}
}

// NewUnknownCommandError creates an error for an unrecognized command word
func NewUnknownCommandError(msg string) *ExitError {
	return &ExitError{Code: ExitUnknownCommand, Message: msg}
}

// NewStepsFailedError creates an error for a transaction with failed steps
func NewStepsFailedError(msg string) *ExitError {
	return &ExitError{Code: ExitStepsFailed, Message: msg}
}

// NewDispatchError wraps a dispatch failure. Contract violations by a
// section map to ExitInternal, everything else to ExitDispatchError.
func NewDispatchError(msg string, cause error) *ExitError {
	code := ExitDispatchError
	if dispatch.IsInternal(cause) {
		code = ExitInternal
	}
	return &ExitError{Code: code, Message: msg, Cause: cause}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if dispatch.IsInternal(err) {
		return ExitInternal
	}
	return ExitDispatchError
}

// HandleExitError prints err to w and returns the exit code for it.
// A step failure has already been reported line by line, so only its
// summary message is printed.
func HandleExitError(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, "Error:", msg)
	}
	printUserVisibleSuggestion(w, err)

	return ExitCode(err)
}

// printUserVisibleSuggestion prints the hint of the first user-visible
// error in the chain, if it has one.
func printUserVisibleSuggestion(w io.Writer, err error) {
	if suggestion := nodeerrors.Suggestion(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}
