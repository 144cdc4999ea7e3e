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

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodecfg/internal/transaction"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)

	first := NewRun("nodecfg.defaults", "Network.configure_hostname", []string{"node1"})
	first.Complete(&transaction.Report{
		Title: "Network",
		Results: []transaction.Result{
			{Index: 0, Description: "Saving HOSTNAME, DOMAIN to /tmp/x", Outcome: transaction.Success()},
		},
	}, nil)
	require.NoError(t, j.Record(ctx, first))

	second := NewRun("nodecfg.defaults", "SSH.configure_port", []string{"22"})
	second.StartedAt = first.StartedAt.Add(time.Second)
	second.Complete(&transaction.Report{
		Title: "SSH",
		Results: []transaction.Result{
			{Index: 0, Description: "Saving SSH_PORT to /tmp/x", Outcome: transaction.Failure(errors.New("read-only file system"))},
		},
	}, nil)
	require.NoError(t, j.Record(ctx, second))

	runs, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, ResultFailed, runs[0].Result())
	require.Len(t, runs[0].Steps, 1)
	assert.Equal(t, transaction.StatusFailed, runs[0].Steps[0].Status)
	assert.Equal(t, "read-only file system", runs[0].Steps[0].Message)

	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, []string{"node1"}, runs[1].Args)
	assert.Equal(t, ResultOK, runs[1].Result())
	assert.True(t, runs[1].StartedAt.Equal(first.StartedAt))

	limited, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJournal_RecordDispatchError(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)

	run := NewRun("nodecfg.defaults", "Bogus.op", nil)
	run.Complete(nil, errors.New(`unknown section "Bogus"`))
	require.NoError(t, j.Record(ctx, run))

	runs, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ResultError, runs[0].Result())
	assert.Equal(t, `unknown section "Bogus"`, runs[0].Error)
	assert.Empty(t, runs[0].Steps)
	assert.Empty(t, runs[0].Args)
}

func TestNewRun_CopiesArgs(t *testing.T) {
	args := []string{"a"}
	run := NewRun("ns", "S.op", args)
	args[0] = "b"

	assert.Equal(t, []string{"a"}, run.Args)
	assert.NotEmpty(t, run.ID)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
