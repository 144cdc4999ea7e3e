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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *nodeerrors.ValidationError
		wantMsg string
	}{
		{
			name:    "field and value",
			err:     &nodeerrors.ValidationError{Field: "port", Value: "abc", Message: "must be an integer"},
			wantMsg: `invalid port "abc": must be an integer`,
		},
		{
			name:    "field only",
			err:     &nodeerrors.ValidationError{Field: "servers", Message: "at least one server is required"},
			wantMsg: "invalid servers: at least one server is required",
		},
		{
			name:    "no field",
			err:     &nodeerrors.ValidationError{Message: "bad input"},
			wantMsg: "validation failed: bad input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestNotFoundError_Suggestion(t *testing.T) {
	err := &nodeerrors.NotFoundError{Resource: "section", ID: "Bogus", Available: []string{"Logging", "Network"}}

	assert.Equal(t, `section "Bogus" not found`, err.Error())
	assert.Equal(t, "available sections: Logging, Network", err.Suggestion())

	empty := &nodeerrors.NotFoundError{Resource: "namespace", ID: "x"}
	assert.Empty(t, empty.Suggestion())
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := &nodeerrors.ConfigError{Key: "log.level", Reason: "unreadable", Cause: cause}

	assert.Equal(t, "config error at log.level: unreadable: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, nodeerrors.Wrap(nil, "ignored"))
	assert.Nil(t, nodeerrors.Wrapf(nil, "ignored %d", 1))

	base := errors.New("boom")
	wrapped := nodeerrors.Wrapf(base, "loading %s", "defaults")
	assert.Equal(t, "loading defaults: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
}

func TestNew(t *testing.T) {
	err := nodeerrors.New("journal path is required")
	assert.EqualError(t, nodeerrors.Wrap(err, "cannot open"), "cannot open: journal path is required")
}

func TestSuggestion(t *testing.T) {
	inner := &nodeerrors.ValidationError{Field: "port", Message: "out of range", Hint: "use 1-65535"}
	err := fmt.Errorf("invoking configure_port: %w", inner)

	assert.Equal(t, "use 1-65535", nodeerrors.Suggestion(err))
	assert.Empty(t, nodeerrors.Suggestion(errors.New("plain")))

	var target *nodeerrors.ValidationError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "port", target.Field)
}
