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

package cli

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/tombee/nodecfg/internal/config"
	"github.com/tombee/nodecfg/internal/log"
)

// Options holds the global flags. Flags override the settings file.
type Options struct {
	Module          string
	ConfigFile      string
	SettingsFile    string
	DryRun          bool
	JSON            bool
	Verbose         bool
	Quiet           bool
	StopOnFailure   bool
	MetricsTextfile string
	TraceOutput     string
}

// AddFlags registers the global flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Module, "module", "m", config.DefaultModule, "Section namespace targets are resolved in")
	fs.BoolVar(&o.DryRun, "dry", false, "Report every step without persisting anything")
	fs.StringVar(&o.ConfigFile, "config", "", "Defaults file handed to sections (default: /etc/default/nodecfg.yaml)")
	fs.StringVar(&o.SettingsFile, "settings", "", "Path to settings file (default: ~/.config/nodecfg/config.yaml)")
	fs.BoolVar(&o.JSON, "json", false, "Output in JSON format")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Enable verbose output")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "Suppress non-error output")
	fs.BoolVar(&o.StopOnFailure, "stop-on-failure", false, "Skip the remaining steps once one fails")
	fs.StringVar(&o.MetricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file after a run")
	fs.StringVar(&o.TraceOutput, "trace-output", "", "Append spans as JSON to this file, or - for stderr")
}

// Apply copies every flag set on the command line into cfg.
func (o *Options) Apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("module") {
		cfg.Module = o.Module
	}
	if fs.Changed("config") {
		cfg.ConfigFile = o.ConfigFile
	}
	if fs.Changed("stop-on-failure") {
		cfg.StopOnFailure = o.StopOnFailure
	}
	if fs.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = o.MetricsTextfile
	}
	if fs.Changed("trace-output") {
		cfg.Trace.Output = o.TraceOutput
	}
	if o.Verbose && log.ParseLevel(cfg.Log.Level) > slog.LevelInfo {
		cfg.Log.Level = "info"
	}
}
