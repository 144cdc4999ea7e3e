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
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tombee/nodecfg/internal/dispatch"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"missing command", NewMissingCommandError("missing command"), ExitMissingCommand},
		{"unknown command", NewUnknownCommandError("unrecognized command"), ExitUnknownCommand},
		{"steps failed", NewStepsFailedError("1 of 3 steps failed"), ExitStepsFailed},
		{"user dispatch error", NewDispatchError("run failed", &dispatch.Error{Kind: dispatch.ErrUnknownSection.Kind}), ExitDispatchError},
		{"internal dispatch error", NewDispatchError("run failed", &dispatch.Error{Kind: dispatch.ErrNilTransaction.Kind}), ExitInternal},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewStepsFailedError("x")), ExitStepsFailed},
		{"plain error", errors.New("boom"), ExitDispatchError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestHandleExitError_PrintsSuggestion(t *testing.T) {
	var buf bytes.Buffer
	err := NewDispatchError("run failed", &dispatch.Error{
		Kind:        dispatch.ErrUnknownSection.Kind,
		Message:     `unknown section "Bogus"`,
		SuggestText: "available sections: Network, SSH",
	})

	code := HandleExitError(&buf, err)

	assert.Equal(t, ExitDispatchError, code)
	assert.Equal(t, "Error: run failed: unknown section \"Bogus\"\n\nSuggestion: available sections: Network, SSH\n", buf.String())
}

func TestHandleExitError_Nil(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ExitSuccess, HandleExitError(&buf, nil))
	assert.Empty(t, buf.String())
}
