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

// Package cli wires the nodecfg command line: global flags, settings,
// logging, tracing, metrics and the run journal around one dispatcher.
//
// The root command takes a command word and its operands positionally:
//
//	nodecfg [options] help|run <Section>[.<operation> [<ARG> ...]]
//	nodecfg [options] history [--limit N] [--failed] [--steps]
//
// Any word starting with "help" or "run" selects that command. Flags must
// precede the command word so operands that look like flags reach the
// operation untouched.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/nodecfg/internal/commands/help"
	historycmd "github.com/tombee/nodecfg/internal/commands/history"
	"github.com/tombee/nodecfg/internal/commands/run"
	"github.com/tombee/nodecfg/internal/commands/shared"
	"github.com/tombee/nodecfg/internal/config"
	"github.com/tombee/nodecfg/internal/dispatch"
	"github.com/tombee/nodecfg/internal/history"
	"github.com/tombee/nodecfg/internal/log"
	"github.com/tombee/nodecfg/internal/metrics"
	"github.com/tombee/nodecfg/internal/registry"
	"github.com/tombee/nodecfg/internal/sections"
	"github.com/tombee/nodecfg/internal/tracing"
	"github.com/tombee/nodecfg/internal/transaction"
)

const usageLine = "Usage: nodecfg [options] help|run <Section>[.<operation> [<ARG> ...]]"

var version = "dev"

// SetVersion sets the version reported by --version and in trace
// resources (called from main).
func SetVersion(v string) {
	version = v
}

// Execute runs nodecfg with the built-in sections and returns the process
// exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := registry.New()
	sections.Register(r)
	return ExecuteWith(ctx, r, args, stdout, stderr)
}

// ExecuteWith runs nodecfg against r.
func ExecuteWith(ctx context.Context, r *registry.Registry, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := NewRootCommand(r)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	return shared.HandleExitError(stderr, err)
}

// NewRootCommand creates the root command dispatching against r.
func NewRootCommand(r *registry.Registry) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "nodecfg [options] help|run <Section>[.<operation> [<ARG> ...]]",
		Short: "nodecfg - node configuration sections",
		Long: `nodecfg applies configuration operations to the node defaults file.

Each section groups configure_ operations. Running one builds a
transaction of steps which are applied in order and reported as they
complete. With --dry every step is reported but nothing is written.

Examples:
  nodecfg help Network
  nodecfg run Network.configure_hostname node1 example.com
  nodecfg --dry run SSH.configure_port 2222
  nodecfg history --failed`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // usage is printed per exit path
		SilenceErrors: true, // errors are printed by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			return route(cmd, r, opts, args)
		},
	}

	opts.AddFlags(cmd.Flags())
	cmd.Flags().SetInterspersed(false)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return shared.NewUnknownCommandError(err.Error())
	})

	return cmd
}

func route(cmd *cobra.Command, r *registry.Registry, opts *Options, args []string) error {
	settings, err := config.Load(opts.SettingsFile)
	if err != nil {
		return shared.NewDispatchError("cannot load settings", err)
	}
	opts.Apply(cmd.Flags(), settings)

	logCfg := settings.LoggerConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logger := log.New(logCfg)
	for _, warning := range settings.Warnings {
		logger.Warn(warning)
	}

	if len(args) == 0 {
		printUsage(cmd.ErrOrStderr(), r, settings.Module)
		return shared.NewMissingCommandError("missing command")
	}

	verb := args[0]
	switch {
	case verb == "history":
		hist := historycmd.NewCommand(settings.History, opts.JSON)
		hist.SetArgs(args[1:])
		hist.SetOut(cmd.OutOrStdout())
		hist.SetErr(cmd.ErrOrStderr())
		if err := hist.ExecuteContext(cmd.Context()); err != nil {
			return shared.NewDispatchError("cannot list history", err)
		}
		return nil
	case strings.HasPrefix(verb, "help"), strings.HasPrefix(verb, "run"):
		if len(args) < 2 {
			printUsage(cmd.ErrOrStderr(), r, settings.Module)
			return shared.NewMissingCommandError(fmt.Sprintf("%s requires a target", verb))
		}
	default:
		printUsage(cmd.ErrOrStderr(), r, settings.Module)
		return shared.NewUnknownCommandError(fmt.Sprintf("unknown command %q", verb))
	}

	if strings.HasPrefix(verb, "help") {
		d, err := dispatch.New(dispatch.Config{
			Registry:  r,
			Namespace: settings.Module,
			Logger:    logger,
		})
		if err != nil {
			return shared.NewDispatchError("cannot use module "+settings.Module, err)
		}
		return help.Execute(cmd.OutOrStdout(), d, args[1:], opts.JSON)
	}

	return runTarget(cmd, r, opts, settings, logger, args[1], args[2:])
}

func runTarget(cmd *cobra.Command, r *registry.Registry, opts *Options, settings *config.Config, logger *slog.Logger, target string, args []string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	provider, err := tracing.New(tracing.Config{
		ServiceName:    "nodecfg",
		ServiceVersion: version,
		Output:         settings.Trace.Output,
		PrettyPrint:    settings.Trace.PrettyPrint,
	})
	if err != nil {
		return shared.NewDispatchError("cannot start tracing", err)
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to shut down tracing", log.Error(err))
		}
	}()

	recorder := metrics.New()
	reporters := []transaction.Reporter{recorder}
	var jsonReporter *shared.JSONReporter
	if opts.JSON {
		jsonReporter = shared.NewJSONReporter(stdout, target)
		reporters = append(reporters, jsonReporter)
	} else {
		reporters = append(reporters, shared.NewProgressDisplay(stdout, opts.Quiet, opts.Verbose))
	}

	cfg := dispatch.Config{
		Registry:      r,
		Namespace:     settings.Module,
		ConfigPath:    settings.ConfigFile,
		DryRun:        opts.DryRun,
		StopOnFailure: settings.StopOnFailure,
		Reporters:     reporters,
		Logger:        logger,
		Tracer:        provider.Tracer(),
		Observer:      recorder,
	}

	if settings.History.Enabled && !opts.DryRun {
		journal, err := history.Open(ctx, settings.History.Path)
		if err != nil {
			logger.Warn("run journal unavailable, continuing without it", log.Error(err))
		} else {
			defer journal.Close()
			cfg.Journal = journal
		}
	}

	d, err := dispatch.New(cfg)
	if err != nil {
		return shared.NewDispatchError("cannot use module "+settings.Module, err)
	}

	runErr := run.Execute(ctx, d, stdout, opts.JSON, target, args)

	if jsonReporter != nil && jsonReporter.Err() != nil {
		logger.Warn("failed to write JSON output", log.Error(jsonReporter.Err()))
	}
	if path := settings.Metrics.Textfile; path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			logger.Warn("failed to write metrics", log.Error(err))
		}
	}
	return runErr
}

// printUsage prints the usage line and the sections of namespace, when it
// exists.
func printUsage(w io.Writer, r *registry.Registry, namespace string) {
	fmt.Fprintln(w, usageLine)

	types, err := r.ListSectionTypes(namespace)
	if err != nil || len(types) == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "\nSections in %s:\n", namespace)
	for _, name := range registry.SectionNames(types) {
		if doc := types[name].Doc; doc != "" {
			fmt.Fprintf(w, "  %-10s %s\n", name, shared.Muted.Render(doc))
		} else {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	fmt.Fprintln(w)
}
