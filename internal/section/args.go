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
	"strconv"
	"strings"

	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// Args holds the raw string arguments bound to an operation's parameters.
// Lookups fall back to the declared default for parameters that were not
// supplied.
type Args struct {
	params []Param
	values map[string]string
}

// NewArgs wraps supplied values for the given parameter list.
func NewArgs(params []Param, values map[string]string) Args {
	owned := make(map[string]string, len(values))
	for k, v := range values {
		owned[k] = v
	}
	return Args{params: params, values: owned}
}

// Get returns the supplied value for name, or its default.
func (a Args) Get(name string) string {
	if v, ok := a.values[name]; ok {
		return v
	}
	for _, p := range a.params {
		if p.Name == name {
			return p.Default
		}
	}
	return ""
}

// Supplied reports whether name was given on the command line.
func (a Args) Supplied(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Values returns a copy of the explicitly supplied bindings.
func (a Args) Values() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Resolved returns every parameter that has a value, supplied or default.
func (a Args) Resolved() map[string]string {
	out := make(map[string]string, len(a.params))
	for _, p := range a.params {
		if v, ok := a.values[p.Name]; ok {
			out[p.Name] = v
		} else if p.HasDefault {
			out[p.Name] = p.Default
		}
	}
	return out
}

// Int parses the value of name as a base-10 integer.
func (a Args) Int(name string) (int, error) {
	raw := a.Get(name)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &nodeerrors.ValidationError{
			Field:   name,
			Value:   raw,
			Message: "must be an integer",
		}
	}
	return n, nil
}

// Bool parses yes/no, true/false, on/off and 1/0.
func (a Args) Bool(name string) (bool, error) {
	raw := a.Get(name)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "on", "1":
		return true, nil
	case "no", "n", "false", "off", "0":
		return false, nil
	}
	return false, &nodeerrors.ValidationError{
		Field:   name,
		Value:   raw,
		Message: "must be a boolean",
		Hint:    "use yes or no",
	}
}

// List splits the value of name on commas and whitespace, dropping empties.
func (a Args) List(name string) []string {
	fields := strings.FieldsFunc(a.Get(name), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
