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

// Package history records non-dry runs in a local SQLite journal so an
// operator can see what was applied to a node, when and with what outcome.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Result values stored for a run.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
	ResultError  = "error"
)

// Run is one journaled dispatch.
type Run struct {
	ID         string    `json:"id"`
	Namespace  string    `json:"namespace"`
	Target     string    `json:"target"`
	Args       []string  `json:"args"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Error holds the dispatch error when the run never reached the runner.
	Error string `json:"error,omitempty"`

	Steps []Step `json:"steps"`
}

// Step is the outcome of one applied step.
type Step struct {
	Index       int                `json:"index"`
	Description string             `json:"description"`
	Status      transaction.Status `json:"status"`
	Message     string             `json:"message,omitempty"`
}

// NewRun starts a journal entry with a fresh id.
func NewRun(namespace, target string, args []string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Namespace: namespace,
		Target:    target,
		Args:      append([]string(nil), args...),
		StartedAt: time.Now().UTC(),
	}
}

// Complete fills in the finish time, the steps of report and err.
// Either may be nil.
func (r *Run) Complete(report *transaction.Report, err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
	if report == nil {
		return
	}
	r.Steps = make([]Step, 0, len(report.Results))
	for _, res := range report.Results {
		r.Steps = append(r.Steps, Step{
			Index:       res.Index,
			Description: res.Description,
			Status:      res.Outcome.Status,
			Message:     res.Outcome.Message,
		})
	}
}

// Result summarizes the run: error, failed or ok.
func (r *Run) Result() string {
	if r.Error != "" {
		return ResultError
	}
	for _, s := range r.Steps {
		if s.Status == transaction.StatusFailed {
			return ResultFailed
		}
	}
	return ResultOK
}

// Journal is the SQLite-backed run history.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, nodeerrors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nodeerrors.Wrap(err, "failed to create journal directory")
	}

	connStr := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, nodeerrors.Wrap(err, "failed to open journal")
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nodeerrors.Wrap(err, "failed to connect to journal")
	}

	j := &Journal{db: db}
	if err := j.migrate(ctx); err != nil {
		db.Close()
		return nil, nodeerrors.Wrap(err, "failed to run migrations")
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			target TEXT NOT NULL,
			args_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			result TEXT NOT NULL,
			error TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			step_index INTEGER NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT,
			PRIMARY KEY (run_id, step_index)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
	}

	for _, m := range migrations {
		if _, err := j.db.ExecContext(ctx, m); err != nil {
			return nodeerrors.Wrap(err, "migration failed")
		}
	}
	return nil
}

// Record stores run and its steps in one transaction.
func (j *Journal) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	argsJSON, err := json.Marshal(run.Args)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to marshal args")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, namespace, target, args_json, started_at, finished_at, result, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Namespace, run.Target, string(argsJSON),
		run.StartedAt.UTC().Format(timeFormat), run.FinishedAt.UTC().Format(timeFormat),
		run.Result(), nullString(run.Error),
	)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to insert run")
	}

	for _, s := range run.Steps {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_steps (run_id, step_index, description, status, message)
			 VALUES (?, ?, ?, ?, ?)`,
			run.ID, s.Index, s.Description, string(s.Status), nullString(s.Message),
		)
		if err != nil {
			return nodeerrors.Wrap(err, "failed to insert step")
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, with their steps.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, namespace, target, args_json, started_at, finished_at, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, nodeerrors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run               Run
			argsJSON          string
			started, finished string
			errText           sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Namespace, &run.Target, &argsJSON, &started, &finished, &errText); err != nil {
			return nil, nodeerrors.Wrap(err, "failed to scan run")
		}
		if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
			return nil, nodeerrors.Wrapf(err, "failed to decode args of run %s", run.ID)
		}
		run.StartedAt, _ = time.Parse(timeFormat, started)
		run.FinishedAt, _ = time.Parse(timeFormat, finished)
		run.Error = errText.String
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, run := range runs {
		if err := j.loadSteps(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (j *Journal) loadSteps(ctx context.Context, run *Run) error {
	rows, err := j.db.QueryContext(ctx,
		`SELECT step_index, description, status, message
		 FROM run_steps WHERE run_id = ? ORDER BY step_index`, run.ID)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to query steps")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s       Step
			status  string
			message sql.NullString
		)
		if err := rows.Scan(&s.Index, &s.Description, &status, &message); err != nil {
			return nodeerrors.Wrap(err, "failed to scan step")
		}
		s.Status = transaction.Status(status)
		s.Message = message.String
		run.Steps = append(run.Steps, s)
	}
	return rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
