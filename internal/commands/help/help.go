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

// Package help implements the help command: list the operations of one or
// more sections with their usage.
package help

import (
	"fmt"
	"io"
	"strings"

	"github.com/tombee/nodecfg/internal/commands/shared"
	"github.com/tombee/nodecfg/internal/dispatch"
)

// Describer lists sections and describes their operations.
type Describer interface {
	Sections(pattern string) ([]string, error)
	Help(target string) (*dispatch.Help, error)
}

// Response is the JSON document for help output.
type Response struct {
	shared.JSONResponse
	Sections []*dispatch.Help `json:"sections"`
}

// Execute describes every target. A target is "Section",
// "Section.operation" or a glob over section names such as "N*".
func Execute(w io.Writer, d Describer, targets []string, jsonOut bool) error {
	var helps []*dispatch.Help
	for _, target := range targets {
		found, err := collect(d, target)
		if err != nil {
			if jsonOut {
				_ = shared.EmitJSONError(w, "help", err)
			}
			return shared.NewDispatchError("cannot describe "+target, err)
		}
		helps = append(helps, found...)
	}

	if jsonOut {
		return shared.EmitJSON(w, Response{
			JSONResponse: shared.JSONResponse{Version: shared.JSONVersion, Command: "help", Success: true},
			Sections:     helps,
		})
	}

	for i, h := range helps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := h.Render(w); err != nil {
			return err
		}
	}
	return nil
}

func collect(d Describer, target string) ([]*dispatch.Help, error) {
	if strings.Contains(target, ".") || !isPattern(target) {
		h, err := d.Help(target)
		if err != nil {
			return nil, err
		}
		return []*dispatch.Help{h}, nil
	}

	names, err := d.Sections(target)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &dispatch.Error{
			Kind:    dispatch.ErrUnknownSection.Kind,
			Message: fmt.Sprintf("no section matches %q", target),
		}
	}

	helps := make([]*dispatch.Help, 0, len(names))
	for _, name := range names {
		h, err := d.Help(name)
		if err != nil {
			return nil, err
		}
		helps = append(helps, h)
	}
	return helps, nil
}

func isPattern(target string) bool {
	return strings.ContainsAny(target, "*?[{")
}
