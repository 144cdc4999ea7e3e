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
	"encoding/json"
	"errors"
	"io"

	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// JSONVersion is the envelope version of every JSON document.
const JSONVersion = "1.0"

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// RunResponse is the document emitted for a completed run.
type RunResponse struct {
	JSONResponse
	Target  string               `json:"target"`
	Section string               `json:"section"`
	Dry     bool                 `json:"dry"`
	Steps   []transaction.Result `json:"steps"`
	Summary transaction.Summary  `json:"summary"`
}

// EmitJSON marshals v as indented JSON to w.
func EmitJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// EmitJSONError emits a failed envelope carrying err.
func EmitJSONError(w io.Writer, command string, err error) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}

	return EmitJSON(w, errorResponse{
		JSONResponse: JSONResponse{Version: JSONVersion, Command: command, Success: false},
		Errors:       []JSONError{NewJSONError(err)},
	})
}

// NewJSONError classifies err for JSON output.
func NewJSONError(err error) JSONError {
	code := "error"
	var classified nodeerrors.ErrorClassifier
	if errors.As(err, &classified) {
		code = classified.ErrorType()
	}
	return JSONError{
		Code:       code,
		Message:    err.Error(),
		Suggestion: nodeerrors.Suggestion(err),
	}
}

// JSONReporter emits one RunResponse when the run finishes. It implements
// transaction.Reporter.
type JSONReporter struct {
	w      io.Writer
	target string
	err    error
}

// NewJSONReporter creates a reporter for target writing to w.
func NewJSONReporter(w io.Writer, target string) *JSONReporter {
	return &JSONReporter{w: w, target: target}
}

// Start implements transaction.Reporter.
func (r *JSONReporter) Start(title string, total int, dry bool) {}

// StepStarted implements transaction.Reporter.
func (r *JSONReporter) StepStarted(index, total int, description string) {}

// StepCompleted implements transaction.Reporter.
func (r *JSONReporter) StepCompleted(result transaction.Result) {}

// Finish writes the document.
func (r *JSONReporter) Finish(report *transaction.Report) {
	r.err = EmitJSON(r.w, RunResponse{
		JSONResponse: JSONResponse{Version: JSONVersion, Command: "run", Success: !report.Failed()},
		Target:       r.target,
		Section:      report.Title,
		Dry:          report.Dry,
		Steps:        report.Results,
		Summary:      report.Summary,
	})
}

// Err returns the write error of Finish, if any.
func (r *JSONReporter) Err() error {
	return r.err
}
