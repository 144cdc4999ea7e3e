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

// Package section defines the contract between the dispatcher and the
// configuration sections it drives.
//
// A section type is registered once at startup under a name. Each dispatch
// constructs one instance, invokes zero or more of its operations with bound
// arguments, then extracts exactly one transaction holding the pending
// changes those calls accumulated.
package section

import (
	"fmt"
	"strings"

	"github.com/tombee/nodecfg/internal/transaction"
)

// OperationPrefix marks operations that can be invoked from the command
// line. Operations without it are helpers and are never listed.
const OperationPrefix = "configure_"

// Kind documents the type an operation expects for a parameter. Binding
// never coerces; operations use the Args helpers for that.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
)

// Param describes one positional parameter of an operation.
type Param struct {
	Name       string
	Kind       Kind
	Default    string
	HasDefault bool
}

// Required declares a parameter that must be supplied.
func Required(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind}
}

// Optional declares a parameter that falls back to def when omitted.
func Optional(name string, kind Kind, def string) Param {
	return Param{Name: name, Kind: kind, Default: def, HasDefault: true}
}

// InvokeFunc is the body of an operation. It runs against the instance that
// declared it and queues pending changes there.
type InvokeFunc func(args Args) error

// Operation is one configurable action of a section instance.
type Operation struct {
	Name   string
	Params []Param
	Doc    string
	Invoke InvokeFunc
}

// Configurable reports whether the operation carries OperationPrefix.
func (o Operation) Configurable() bool {
	return strings.HasPrefix(o.Name, OperationPrefix)
}

// RequiredCount returns how many leading parameters have no default.
func (o Operation) RequiredCount() int {
	n := 0
	for _, p := range o.Params {
		if p.HasDefault {
			break
		}
		n++
	}
	return n
}

// Validate checks the declaration: a body is present, parameter names are
// unique and non-empty, and no required parameter follows a defaulted one.
func (o Operation) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("operation has no name")
	}
	if o.Invoke == nil {
		return fmt.Errorf("operation %s has no body", o.Name)
	}

	seen := make(map[string]bool, len(o.Params))
	defaulted := false
	for _, p := range o.Params {
		if p.Name == "" {
			return fmt.Errorf("operation %s has an unnamed parameter", o.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("operation %s declares parameter %q twice", o.Name, p.Name)
		}
		seen[p.Name] = true

		if p.HasDefault {
			defaulted = true
		} else if defaulted {
			return fmt.Errorf("operation %s: required parameter %q follows a parameter with a default", o.Name, p.Name)
		}
	}
	return nil
}

// Instance is one live section, constructed per dispatch.
type Instance interface {
	// Operations returns every operation bound to this instance.
	Operations() []Operation

	// Transaction returns the pending changes accumulated so far, in the
	// order the operations queued them.
	Transaction() *transaction.Transaction
}

// Factory constructs an instance against an optional configuration file.
// An empty cfgPath means the section's default file.
type Factory func(cfgPath string) (Instance, error)

// Type is a registered section type.
type Type struct {
	Name string
	Doc  string
	New  Factory
}
