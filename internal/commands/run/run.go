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

// Package run implements the run command: dispatch one target and turn
// its outcome into an exit status.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/tombee/nodecfg/internal/commands/shared"
	"github.com/tombee/nodecfg/internal/transaction"
)

// Dispatcher runs one target.
type Dispatcher interface {
	Dispatch(ctx context.Context, target string, args []string) (*transaction.Report, error)
}

// Execute dispatches target with args. Progress is printed by the
// dispatcher's reporters; Execute only reports errors. In JSON mode a
// dispatch error is also emitted as a JSON document on w.
func Execute(ctx context.Context, d Dispatcher, w io.Writer, jsonOut bool, target string, args []string) error {
	report, err := d.Dispatch(ctx, target, args)
	if err != nil {
		if jsonOut {
			_ = shared.EmitJSONError(w, "run", err)
		}
		return shared.NewDispatchError("cannot run "+target, err)
	}

	if report.Failed() {
		return shared.NewStepsFailedError(fmt.Sprintf("%d of %d steps failed", report.Summary.Failed, report.Summary.Total))
	}
	return nil
}
