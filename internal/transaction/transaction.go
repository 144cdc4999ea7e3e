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

package transaction

import "context"

// Step is one atomic unit of configuration change.
//
// Apply must have no persistent effect when dry is true, but should still run
// any checks it would run otherwise so that a dry run reports the same
// outcome a real run would.
type Step interface {
	// Description identifies the step in progress output.
	Description() string

	// Apply performs the change. A nil error is a successful outcome.
	Apply(ctx context.Context, dry bool) error
}

// ApplyFunc is the signature of a step body.
type ApplyFunc func(ctx context.Context, dry bool) error

type funcStep struct {
	description string
	apply       ApplyFunc
}

func (s *funcStep) Description() string { return s.description }

func (s *funcStep) Apply(ctx context.Context, dry bool) error { return s.apply(ctx, dry) }

// NewStep adapts a description and function into a Step.
func NewStep(description string, apply ApplyFunc) Step {
	return &funcStep{description: description, apply: apply}
}

// Transaction is an ordered sequence of steps, applied as a unit.
// It is read-only once built.
type Transaction struct {
	title string
	steps []Step
}

// New builds a transaction from steps in the given order.
func New(title string, steps ...Step) *Transaction {
	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &Transaction{title: title, steps: owned}
}

// Title names the transaction, usually after the section that produced it.
func (t *Transaction) Title() string {
	return t.title
}

// Steps returns the steps in order. The returned slice is a copy.
func (t *Transaction) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len returns the number of steps.
func (t *Transaction) Len() int {
	return len(t.steps)
}

// Descriptions returns the step descriptions in order.
func (t *Transaction) Descriptions() []string {
	out := make([]string, len(t.steps))
	for i, s := range t.steps {
		out[i] = s.Description()
	}
	return out
}
