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

// Package dispatch turns a "Section.operation" target and its positional
// arguments into one transaction and runs it.
//
// A dispatch resolves the section type, constructs one instance against the
// configured defaults file, resolves and binds the operation, invokes it,
// extracts the instance's transaction and hands it to a runner. Resolution
// and binding failures return before any transaction exists.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tombee/nodecfg/internal/binding"
	"github.com/tombee/nodecfg/internal/history"
	"github.com/tombee/nodecfg/internal/log"
	"github.com/tombee/nodecfg/internal/registry"
	"github.com/tombee/nodecfg/internal/section"
	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// Journal records non-dry runs.
type Journal interface {
	Record(ctx context.Context, run *history.Run) error
}

// Observer counts dispatch results.
type Observer interface {
	ObserveDispatch(section, operation, result string)
}

// Config is built once per process and passed to New.
type Config struct {
	Registry  *registry.Registry
	Namespace string

	// ConfigPath is handed to every section constructor. Empty means the
	// section's default file.
	ConfigPath string

	DryRun        bool
	StopOnFailure bool

	// Reporters receive runner progress events.
	Reporters []transaction.Reporter

	Logger   *slog.Logger
	Tracer   trace.Tracer
	Journal  Journal
	Observer Observer
}

// Dispatcher resolves targets against one namespace.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

// New validates cfg and returns a Dispatcher. The namespace must exist.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("dispatch: registry is required")
	}
	if _, err := cfg.Registry.ListSectionTypes(cfg.Namespace); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Dispatcher{
		cfg:    cfg,
		logger: log.WithComponent(logger, "dispatch"),
		tracer: tracer,
	}, nil
}

// Namespace returns the namespace targets are resolved in.
func (d *Dispatcher) Namespace() string {
	return d.cfg.Namespace
}

// Sections returns the sorted section names of the namespace. A non-empty
// pattern filters them with doublestar glob syntax.
func (d *Dispatcher) Sections(pattern string) ([]string, error) {
	types, err := d.cfg.Registry.ListSectionTypes(d.cfg.Namespace)
	if err != nil {
		return nil, err
	}
	names := registry.SectionNames(types)
	if pattern == "" {
		return names, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, &section.Error{
			Kind:    section.KindMalformedTarget,
			Message: fmt.Sprintf("invalid section pattern %q", pattern),
		}
	}
	var matched []string
	for _, name := range names {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// Dispatch runs target with args. A non-nil report is returned whenever the
// transaction ran, even if some of its steps failed.
func (d *Dispatcher) Dispatch(ctx context.Context, target string, args []string) (report *transaction.Report, err error) {
	run := history.NewRun(d.cfg.Namespace, target, args)
	sectionName, opName, _ := strings.Cut(target, ".")

	ctx, span := d.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("section", sectionName),
		attribute.String("operation", opName),
		attribute.Bool("dry", d.cfg.DryRun),
	))
	defer span.End()

	logger := log.WithRunContext(d.logger, run.ID, sectionName, opName)

	defer func() {
		run.Complete(report, err)
		d.finish(ctx, logger, span, run, sectionName, opName)
	}()

	report, err = d.dispatch(ctx, logger, target, args)
	return report, err
}

func (d *Dispatcher) dispatch(ctx context.Context, logger *slog.Logger, target string, args []string) (*transaction.Report, error) {
	sectionName, opName, err := SplitTarget(target)
	if err != nil {
		return nil, err
	}

	inst, op, err := d.resolve(sectionName, opName)
	if err != nil {
		return nil, err
	}

	bound, err := binding.Bind(op, args)
	if err != nil {
		return nil, err
	}

	logger.Debug("invoking operation", slog.Any("args", bound.Values()))
	if err := op.Invoke(bound); err != nil {
		return nil, &section.Error{
			Kind:        section.KindOperationFailed,
			Message:     fmt.Sprintf("%s.%s rejected its arguments", sectionName, opName),
			SuggestText: nodeerrors.Suggestion(err),
			Cause:       err,
		}
	}

	tx := inst.Transaction()
	if tx == nil {
		return nil, &section.Error{
			Kind:    section.KindNilTransaction,
			Message: fmt.Sprintf("section %s returned no transaction", sectionName),
		}
	}

	runner := transaction.NewRunner(transaction.Options{
		StopOnFailure: d.cfg.StopOnFailure,
		Logger:        logger,
		Tracer:        d.tracer,
	}, d.cfg.Reporters...)

	report, err := runner.Run(ctx, tx, d.cfg.DryRun)
	if err != nil {
		return nil, &section.Error{Kind: section.KindNilTransaction, Message: "runner rejected transaction", Cause: err}
	}
	return report, nil
}

// resolve constructs the section instance and finds the operation on it.
func (d *Dispatcher) resolve(sectionName, opName string) (section.Instance, section.Operation, error) {
	typ, err := d.cfg.Registry.SectionType(d.cfg.Namespace, sectionName)
	if err != nil {
		return nil, section.Operation{}, err
	}

	inst, err := typ.New(d.cfg.ConfigPath)
	if err != nil {
		return nil, section.Operation{}, &section.Error{
			Kind:    section.KindOperationFailed,
			Message: fmt.Sprintf("failed to initialize section %s", sectionName),
			Cause:   err,
		}
	}

	ops, err := registry.ListOperations(inst)
	if err != nil {
		return nil, section.Operation{}, err
	}

	op, ok := ops[opName]
	if !ok {
		return nil, section.Operation{}, unknownOperation(sectionName, opName, ops)
	}
	return inst, op, nil
}

func (d *Dispatcher) finish(ctx context.Context, logger *slog.Logger, span trace.Span, run *history.Run, sectionName, opName string) {
	result := run.Result()

	switch result {
	case history.ResultError:
		span.SetStatus(codes.Error, run.Error)
		logger.Warn("dispatch failed", slog.String("error", run.Error))
	case history.ResultFailed:
		span.SetStatus(codes.Error, "one or more steps failed")
		logger.Warn("transaction finished with failures")
	default:
		span.SetStatus(codes.Ok, "")
		logger.Info("transaction finished", slog.Int("steps", len(run.Steps)))
	}

	if d.cfg.Observer != nil {
		d.cfg.Observer.ObserveDispatch(sectionName, opName, result)
	}

	if d.cfg.DryRun || d.cfg.Journal == nil {
		return
	}
	if err := d.cfg.Journal.Record(ctx, run); err != nil {
		logger.Warn("failed to record run in journal", log.Error(err))
	}
}

// unknownOperation reports opName missing from ops, listing the
// operations the section does have.
func unknownOperation(sectionName, opName string, ops map[string]section.Operation) error {
	err := &section.Error{
		Kind: section.KindUnknownOperation,
		Cause: &nodeerrors.NotFoundError{
			Resource:  "operation",
			ID:        sectionName + "." + opName,
			Available: registry.OperationNames(ops),
		},
	}
	if len(ops) == 0 {
		err.SuggestText = fmt.Sprintf("section %s has no operations", sectionName)
	}
	return err
}

// IsInternal reports whether err is a contract violation by a section
// rather than a user error.
func IsInternal(err error) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Internal()
}
