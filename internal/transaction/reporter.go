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

// Reporter receives progress events from a Runner, in order:
// Start, then StepStarted/StepCompleted per step, then Finish.
// Skipped steps get StepCompleted without a StepStarted.
type Reporter interface {
	Start(title string, total int, dry bool)
	StepStarted(index, total int, description string)
	StepCompleted(result Result)
	Finish(report *Report)
}

type multiReporter []Reporter

// MultiReporter fans events out to every non-nil reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiReporter) Start(title string, total int, dry bool) {
	for _, r := range m {
		r.Start(title, total, dry)
	}
}

func (m multiReporter) StepStarted(index, total int, description string) {
	for _, r := range m {
		r.StepStarted(index, total, description)
	}
}

func (m multiReporter) StepCompleted(result Result) {
	for _, r := range m {
		r.StepCompleted(result)
	}
}

func (m multiReporter) Finish(report *Report) {
	for _, r := range m {
		r.Finish(report)
	}
}

// Event is one reporter callback captured by a Recorder.
type Event struct {
	Kind        string
	Index       int
	Description string
	Status      Status
}

// Recorder is a Reporter that keeps every event. Tests use it to assert
// ordering without parsing console output.
type Recorder struct {
	Events []Event
	Report *Report
}

// Start implements Reporter.
func (r *Recorder) Start(title string, total int, dry bool) {
	r.Events = append(r.Events, Event{Kind: "start", Index: total, Description: title})
}

// StepStarted implements Reporter.
func (r *Recorder) StepStarted(index, total int, description string) {
	r.Events = append(r.Events, Event{Kind: "started", Index: index, Description: description})
}

// StepCompleted implements Reporter.
func (r *Recorder) StepCompleted(result Result) {
	r.Events = append(r.Events, Event{
		Kind:        "completed",
		Index:       result.Index,
		Description: result.Description,
		Status:      result.Outcome.Status,
	})
}

// Finish implements Reporter.
func (r *Recorder) Finish(report *Report) {
	r.Events = append(r.Events, Event{Kind: "finish"})
	r.Report = report
}

// Started reports whether Start was ever called.
func (r *Recorder) Started() bool {
	for _, e := range r.Events {
		if e.Kind == "start" {
			return true
		}
	}
	return false
}
