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

package section

import (
	"fmt"

	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// ErrorKind classifies dispatch failures.
type ErrorKind string

const (
	// KindNamespaceNotFound: no sections are registered under the namespace.
	KindNamespaceNotFound ErrorKind = "namespace_not_found"

	// KindUnknownSection: the namespace has no section with that name.
	KindUnknownSection ErrorKind = "unknown_section"

	// KindUnknownOperation: the section has no configurable operation with that name.
	KindUnknownOperation ErrorKind = "unknown_operation"

	// KindMalformedTarget: the target is not "Section.operation".
	KindMalformedTarget ErrorKind = "malformed_target"

	// KindArgumentMismatch: too many or too few positional arguments.
	KindArgumentMismatch ErrorKind = "argument_mismatch"

	// KindOperationFailed: the operation itself rejected its arguments.
	KindOperationFailed ErrorKind = "operation_failed"

	// KindNilTransaction: an instance returned no transaction.
	KindNilTransaction ErrorKind = "nil_transaction"

	// KindInvalidSection: a section declares its operations incorrectly.
	KindInvalidSection ErrorKind = "invalid_section"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNamespaceNotFound = &Error{Kind: KindNamespaceNotFound}
	ErrUnknownSection    = &Error{Kind: KindUnknownSection}
	ErrUnknownOperation  = &Error{Kind: KindUnknownOperation}
	ErrMalformedTarget   = &Error{Kind: KindMalformedTarget}
	ErrArgumentMismatch  = &Error{Kind: KindArgumentMismatch}
	ErrOperationFailed   = &Error{Kind: KindOperationFailed}
	ErrNilTransaction    = &Error{Kind: KindNilTransaction}
	ErrInvalidSection    = &Error{Kind: KindInvalidSection}
)

// Error is a resolution, binding or contract failure.
type Error struct {
	Kind ErrorKind

	// Message is the human-readable error description
	Message string

	// SuggestText provides guidance on how to resolve the error
	SuggestText string

	// Cause is the underlying error
	Cause error
}

// Error returns the message followed by the cause. Without a message the
// cause speaks for itself.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrorType implements errors.ErrorClassifier.
func (e *Error) ErrorType() string {
	return string(e.Kind)
}

// IsRetryable implements errors.ErrorClassifier. Nothing here is transient.
func (e *Error) IsRetryable() bool {
	return false
}

// Internal reports whether the error is a contract violation by a section
// rather than bad user input.
func (e *Error) Internal() bool {
	return e.Kind == KindNilTransaction || e.Kind == KindInvalidSection
}

// IsUserVisible implements errors.UserVisibleError.
func (e *Error) IsUserVisible() bool {
	return !e.Internal()
}

// UserMessage implements errors.UserVisibleError.
func (e *Error) UserMessage() string {
	return e.Error()
}

// Suggestion implements errors.UserVisibleError. It falls back to the
// suggestion of the cause.
func (e *Error) Suggestion() string {
	if e.SuggestText != "" {
		return e.SuggestText
	}
	return nodeerrors.Suggestion(e.Cause)
}
