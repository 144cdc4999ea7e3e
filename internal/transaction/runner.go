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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tombee/nodecfg/internal/log"
)

// ErrNilTransaction is returned by Run when it is handed no transaction.
var ErrNilTransaction = errors.New("transaction: nil transaction")

// Options configures a Runner.
type Options struct {
	// StopOnFailure skips every step after the first failed one.
	// Default: false, all steps are applied and reported.
	StopOnFailure bool

	// Logger receives one record per step. Defaults to a discarding logger.
	Logger *slog.Logger

	// Tracer opens one span per step. Defaults to a no-op tracer.
	Tracer trace.Tracer
}

// Runner applies the steps of a transaction in order and reports each
// outcome. It never reorders, parallelizes or retries steps.
type Runner struct {
	opts     Options
	reporter Reporter
}

// NewRunner creates a runner that reports to every given reporter.
func NewRunner(opts Options, reporters ...Reporter) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Runner{opts: opts, reporter: MultiReporter(reporters...)}
}

// Run applies tx. A failing step is recorded in the report and does not
// make Run return an error; the only error is ErrNilTransaction.
func (r *Runner) Run(ctx context.Context, tx *Transaction, dry bool) (*Report, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}

	total := len(tx.steps)
	report := &Report{
		Title:   tx.title,
		Dry:     dry,
		Results: make([]Result, 0, total),
	}

	r.reporter.Start(tx.title, total, dry)

	stopped := false
	for i, step := range tx.steps {
		var res Result
		if stopped {
			res = Result{
				Index:       i,
				Description: describe(step),
				Outcome:     Outcome{Status: StatusSkipped, Message: "an earlier step failed"},
			}
		} else {
			r.reporter.StepStarted(i, total, describe(step))
			res = r.apply(ctx, i, step, dry)
		}

		report.Results = append(report.Results, res)
		report.Summary.add(res.Outcome)
		r.logResult(res, dry)
		r.reporter.StepCompleted(res)

		if res.Outcome.Status == StatusFailed && r.opts.StopOnFailure {
			stopped = true
		}
	}

	r.reporter.Finish(report)
	return report, nil
}

func (r *Runner) apply(ctx context.Context, index int, step Step, dry bool) Result {
	desc := describe(step)
	ctx, span := r.opts.Tracer.Start(ctx, "transaction.step", trace.WithAttributes(
		attribute.Int("step.index", index),
		attribute.String("step.description", desc),
		attribute.Bool("dry", dry),
	))
	defer span.End()

	start := time.Now()
	err := safeApply(ctx, step, dry)
	res := Result{
		Index:       index,
		Description: desc,
		Outcome:     Success(),
		Duration:    time.Since(start),
	}

	if err != nil {
		res.Outcome = Failure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return res
}

func (r *Runner) logResult(res Result, dry bool) {
	logger := log.WithStepContext(r.opts.Logger, res.Index, res.Description)
	switch res.Outcome.Status {
	case StatusFailed:
		logger.Warn("step failed", "message", res.Outcome.Message, "dry", dry, log.Duration(res.Duration.Milliseconds()))
	case StatusSkipped:
		logger.Info("step skipped")
	default:
		logger.Info("step applied", "dry", dry, log.Duration(res.Duration.Milliseconds()))
	}
}

// safeApply turns a nil step or a panicking step into a failed outcome.
func safeApply(ctx context.Context, step Step, dry bool) (err error) {
	if step == nil {
		return errors.New("invalid step: nil")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step panicked: %v", p)
		}
	}()
	return step.Apply(ctx, dry)
}

func describe(step Step) string {
	if step == nil {
		return "(invalid step)"
	}
	return step.Description()
}
