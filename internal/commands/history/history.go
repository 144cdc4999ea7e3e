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

// Package history implements the history command: list the runs recorded
// in the journal.
package history

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/nodecfg/internal/commands/shared"
	"github.com/tombee/nodecfg/internal/config"
	journal "github.com/tombee/nodecfg/internal/history"
	"github.com/tombee/nodecfg/internal/transaction"
)

// Response is the JSON document for history output.
type Response struct {
	shared.JSONResponse
	Runs []*journal.Run `json:"runs"`
}

// NewCommand creates the history command over the journal configured in
// settings.
func NewCommand(settings config.HistoryConfig, jsonOut bool) *cobra.Command {
	var (
		limit      int
		failedOnly bool
		steps      bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in the journal",
		Long: `History lists non-dry runs, newest first, with their result.

Results:
  ok      every step succeeded
  failed  the transaction ran and one or more steps failed
  error   the run stopped before its transaction ran`,
		Example: `  # Last 20 runs
  nodecfg history

  # Failed runs with their steps
  nodecfg history --failed --steps`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd.Context(), cmd.OutOrStdout(), settings, jsonOut, limit, failedOnly, steps)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show only runs that failed or errored")
	cmd.Flags().BoolVar(&steps, "steps", false, "Show the steps of each run")

	return cmd
}

func list(ctx context.Context, w io.Writer, settings config.HistoryConfig, jsonOut bool, limit int, failedOnly, steps bool) error {
	if !settings.Enabled {
		fmt.Fprintln(w, "Run history is disabled (history.enabled is false).")
		return nil
	}

	j, err := journal.Open(ctx, settings.Path)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer j.Close()

	runs, err := j.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read run journal: %w", err)
	}
	if failedOnly {
		kept := runs[:0]
		for _, r := range runs {
			if r.Result() != journal.ResultOK {
				kept = append(kept, r)
			}
		}
		runs = kept
	}

	if jsonOut {
		if runs == nil {
			runs = []*journal.Run{}
		}
		return shared.EmitJSON(w, Response{
			JSONResponse: shared.JSONResponse{Version: shared.JSONVersion, Command: "history", Success: true},
			Runs:         runs,
		})
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintln(w, formatRun(r))
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", shared.Muted.Render(r.Error))
		}
		if steps {
			for _, s := range r.Steps {
				fmt.Fprintf(w, "    %s\n", formatStep(s))
			}
		}
	}
	return nil
}

func formatRun(r *journal.Run) string {
	line := strings.Join(append([]string{r.Target}, r.Args...), " ")
	short := r.ID
	if len(short) > 8 {
		short = short[:8]
	}
	prefix := fmt.Sprintf("%s  %s  %-6s ", r.StartedAt.Local().Format("2006-01-02 15:04:05"), short, r.Result())

	switch r.Result() {
	case journal.ResultOK:
		return prefix + shared.RenderOK(line)
	case journal.ResultFailed:
		return prefix + shared.RenderError(line)
	default:
		return prefix + shared.RenderWarn(line)
	}
}

func formatStep(s journal.Step) string {
	switch s.Status {
	case transaction.StatusSuccess:
		return shared.RenderOK(s.Description)
	case transaction.StatusSkipped:
		return shared.RenderSkipped(s.Description)
	default:
		return shared.RenderError(s.Description + ": " + s.Message)
	}
}
