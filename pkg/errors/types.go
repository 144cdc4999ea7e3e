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

package errors

import (
	"fmt"
	"strings"
)

// ValidationError represents a value that failed validation.
// Sections return it from their operations when an argument cannot be
// coerced or is out of range.
type ValidationError struct {
	// Field identifies the parameter or setting that failed validation
	Field string

	// Value is the rejected raw value
	Value string

	// Message is the human-readable error description
	Message string

	// Hint provides actionable guidance for fixing the error
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsUserVisible implements UserVisibleError.
func (e *ValidationError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ValidationError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ValidationError) Suggestion() string { return e.Hint }

// NotFoundError represents a lookup that found nothing.
type NotFoundError struct {
	// Resource is the kind of thing looked up (e.g., "section", "namespace")
	Resource string

	// ID is the identifier that was not found
	ID string

	// Available lists the identifiers that do exist, if known
	Available []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// IsUserVisible implements UserVisibleError.
func (e *NotFoundError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *NotFoundError) UserMessage() string { return e.Error() }

// Suggestion lists the available identifiers.
func (e *NotFoundError) Suggestion() string {
	if len(e.Available) == 0 {
		return ""
	}
	return fmt.Sprintf("available %ss: %s", e.Resource, strings.Join(e.Available, ", "))
}

// ConfigError represents a problem with the tool settings.
type ConfigError struct {
	// Key is the settings key that has the problem (e.g., "log.level")
	Key string

	// Reason explains what's wrong with the setting
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config error: %s", e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
