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

// Package binding maps positional command-line arguments onto an
// operation's declared parameters.
//
// Binding is strict and positional:
//
//  1. The i-th argument binds to the i-th parameter
//  2. Parameters without an argument use their declared default
//  3. Too few arguments for the required parameters is an error
//  4. More arguments than parameters is an error
//
// Values are kept as raw strings. Defaults are applied at call time through
// section.Args, so an operation can tell supplied values from defaulted ones.
package binding

import (
	"fmt"
	"strings"

	"github.com/tombee/nodecfg/internal/section"
)

// Bind maps args onto op's parameters in declaration order.
func Bind(op section.Operation, args []string) (section.Args, error) {
	required := op.RequiredCount()
	if len(args) < required || len(args) > len(op.Params) {
		return section.Args{}, mismatch(op, len(args), required)
	}

	values := make(map[string]string, len(args))
	for i, arg := range args {
		values[op.Params[i].Name] = arg
	}
	return section.NewArgs(op.Params, values), nil
}

// DescribeUsage renders the parameter list of op, one token per parameter:
// <NAME> when required, [<NAME=default>] when optional. The operation's
// documentation follows on its own line when present.
func DescribeUsage(op section.Operation) string {
	var b strings.Builder
	b.WriteString(Signature(op))

	if doc := strings.TrimSpace(op.Doc); doc != "" {
		b.WriteString("\n")
		b.WriteString(doc)
	}
	return b.String()
}

// Signature renders just the parameter tokens of op.
func Signature(op section.Operation) string {
	tokens := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		name := strings.ToUpper(p.Name)
		if p.HasDefault {
			tokens = append(tokens, fmt.Sprintf("[<%s=%s>]", name, p.Default))
		} else {
			tokens = append(tokens, fmt.Sprintf("<%s>", name))
		}
	}
	return strings.Join(tokens, " ")
}

func mismatch(op section.Operation, got, required int) error {
	var want string
	switch {
	case required == len(op.Params):
		want = fmt.Sprintf("%d", required)
	default:
		want = fmt.Sprintf("%d to %d", required, len(op.Params))
	}

	usage := Signature(op)
	if usage == "" {
		usage = "(no arguments)"
	}
	return &section.Error{
		Kind:        section.KindArgumentMismatch,
		Message:     fmt.Sprintf("%s takes %s argument(s), got %d", op.Name, want, got),
		SuggestText: fmt.Sprintf("usage: %s %s", op.Name, usage),
	}
}
