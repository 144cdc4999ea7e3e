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

import "time"

// Status is the result class of one applied step.
type Status string

const (
	// StatusSuccess means Apply returned nil.
	StatusSuccess Status = "success"
	// StatusFailed means Apply returned an error or panicked.
	StatusFailed Status = "failed"
	// StatusSkipped means the step was never applied because an earlier
	// step failed and the runner was told to stop on failure.
	StatusSkipped Status = "skipped"
)

// Outcome is the result of applying one step.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Success returns a successful outcome.
func Success() Outcome {
	return Outcome{Status: StatusSuccess}
}

// Failure returns a failed outcome carrying err's message.
func Failure(err error) Outcome {
	return Outcome{Status: StatusFailed, Message: err.Error()}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Result pairs a step with its outcome.
type Result struct {
	Index       int           `json:"index"`
	Description string        `json:"description"`
	Outcome     Outcome       `json:"outcome"`
	Duration    time.Duration `json:"duration_ns"`
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}
}

// Report is everything a runner pass produced.
type Report struct {
	Title   string   `json:"title"`
	Dry     bool     `json:"dry"`
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	return r.Summary.Failed > 0
}

// Descriptions returns the reported step descriptions in run order.
func (r *Report) Descriptions() []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Description
	}
	return out
}
