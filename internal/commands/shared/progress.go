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
package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tombee/nodecfg/internal/transaction"
)

// ProgressDisplay prints transaction progress to a terminal. On a TTY the
// pending line of a step is replaced in place by its outcome; otherwise
// both lines are printed. It implements transaction.Reporter.
type ProgressDisplay struct {
	w       io.Writer
	isTTY   bool
	quiet   bool
	verbose bool

	// pending is true while a step line awaits its outcome
	pending bool
}

// NewProgressDisplay creates a display writing to w. Quiet suppresses
// everything except failures and the summary; verbose adds durations.
func NewProgressDisplay(w io.Writer, quiet, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		w:       w,
		isTTY:   isTerminal(w),
		quiet:   quiet,
		verbose: verbose,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start prints the header.
func (p *ProgressDisplay) Start(title string, total int, dry bool) {
	if p.quiet {
		return
	}
	verb := "Applying"
	if dry {
		verb = "Dry run of"
	}
	fmt.Fprintf(p.w, "%s %s %s\n\n", verb, Header.Render(title), Muted.Render(fmt.Sprintf("(%d %s)", total, plural(total, "step"))))
}

// StepStarted prints the pending line of a step.
func (p *ProgressDisplay) StepStarted(index, total int, description string) {
	if p.quiet {
		return
	}
	if p.isTTY {
		fmt.Fprint(p.w, "  "+RenderPending(description))
		p.pending = true
		return
	}
	fmt.Fprintln(p.w, "  "+RenderPending(description))
}

// StepCompleted prints the outcome line of a step.
func (p *ProgressDisplay) StepCompleted(result transaction.Result) {
	if p.pending {
		fmt.Fprint(p.w, "\r\033[K")
		p.pending = false
	}

	var line string
	switch result.Outcome.Status {
	case transaction.StatusSuccess:
		if p.quiet {
			return
		}
		line = RenderOK(result.Description)
	case transaction.StatusSkipped:
		if p.quiet {
			return
		}
		line = RenderSkipped(result.Description)
	default:
		line = RenderError(result.Description + ": " + result.Outcome.Message)
	}

	if p.verbose && result.Outcome.Status != transaction.StatusSkipped {
		line += " " + Muted.Render("("+result.Duration.Round(time.Millisecond).String()+")")
	}
	fmt.Fprintln(p.w, "  "+line)
}

// Finish prints the summary line.
func (p *ProgressDisplay) Finish(report *transaction.Report) {
	s := report.Summary
	summary := fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
	if s.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	if report.Dry {
		summary += " (dry run, nothing persisted)"
	}

	if !p.quiet {
		fmt.Fprintln(p.w)
	}
	if report.Failed() {
		fmt.Fprintln(p.w, RenderError(summary))
		return
	}
	fmt.Fprintln(p.w, RenderOK(summary))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
