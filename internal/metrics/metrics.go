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

// Package metrics counts dispatches and step outcomes in a private
// prometheus registry. A one-shot CLI has no scrape endpoint, so the
// registry is written out for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tombee/nodecfg/internal/transaction"
)

// Dispatch results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
	ResultError  = "error"
)

// Recorder holds the nodecfg collectors. It is a transaction.Reporter.
type Recorder struct {
	registry *prometheus.Registry

	dispatches   *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepDuration prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodecfg_dispatch_total",
				Help: "Dispatches by section, operation and result",
			},
			[]string{"section", "operation", "result"},
		),
		steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodecfg_steps_total",
				Help: "Transaction steps by outcome",
			},
			[]string{"status"},
		),
		stepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nodecfg_step_duration_seconds",
			Help:    "Time spent applying one transaction step",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveDispatch counts one dispatch.
func (r *Recorder) ObserveDispatch(section, operation, result string) {
	r.dispatches.WithLabelValues(section, operation, result).Inc()
}

// Start implements transaction.Reporter.
func (r *Recorder) Start(title string, total int, dry bool) {}

// StepStarted implements transaction.Reporter.
func (r *Recorder) StepStarted(index, total int, description string) {}

// StepCompleted implements transaction.Reporter.
func (r *Recorder) StepCompleted(result transaction.Result) {
	r.steps.WithLabelValues(string(result.Outcome.Status)).Inc()
	if result.Outcome.Status != transaction.StatusSkipped {
		r.stepDuration.Observe(result.Duration.Seconds())
	}
}

// Finish implements transaction.Reporter.
func (r *Recorder) Finish(report *transaction.Report) {}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
