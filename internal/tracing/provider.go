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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName is the tracer scope used by nodecfg.
const InstrumentationName = "github.com/tombee/nodecfg"

// Config controls span export.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Output is the file spans are written to as JSON. Empty disables
	// tracing; "-" writes to stderr.
	Output string

	// PrettyPrint indents each exported span.
	PrettyPrint bool
}

// Provider owns the tracer provider for one process run.
type Provider struct {
	tp     trace.TracerProvider
	sdk    *sdktrace.TracerProvider
	closer io.Closer
}

// New builds a Provider. With no Output it hands out no-op tracers.
func New(cfg Config) (*Provider, error) {
	if cfg.Output == "" {
		return &Provider{tp: noop.NewTracerProvider()}, nil
	}

	var (
		w      io.Writer
		closer io.Closer
	)
	if cfg.Output == "-" {
		w = os.Stderr
	} else {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w, closer = f, f
	}

	exporter, err := NewConsoleExporter(ConsoleConfig{Writer: w, PrettyPrint: cfg.PrettyPrint})
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = "nodecfg"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(name),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// A syncer exports each span as it ends, so nothing is lost if the
	// process exits without a clean shutdown.
	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(sdk)

	return &Provider{tp: sdk, sdk: sdk, closer: closer}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Tracer returns the nodecfg tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(InstrumentationName)
}

// Shutdown flushes spans and closes the output file.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.sdk != nil {
		if err := p.sdk.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer provider: %w", err))
		}
	}
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close trace output: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConsoleConfig holds configuration for the console exporter.
type ConsoleConfig struct {
	// Writer is the output destination (default: os.Stdout).
	Writer io.Writer

	// PrettyPrint enables human-readable formatted output.
	PrettyPrint bool
}

// NewConsoleExporter creates a stdouttrace exporter writing to cfg.Writer.
func NewConsoleExporter(cfg ConsoleConfig) (sdktrace.SpanExporter, error) {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(writer)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console exporter: %w", err)
	}
	return exporter, nil
}
