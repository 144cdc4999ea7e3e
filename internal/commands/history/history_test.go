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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodecfg/internal/config"
	journal "github.com/tombee/nodecfg/internal/history"
	"github.com/tombee/nodecfg/internal/transaction"
)

func seed(t *testing.T) config.HistoryConfig {
	t.Helper()
	settings := config.HistoryConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "history.db")}

	ctx := context.Background()
	j, err := journal.Open(ctx, settings.Path)
	require.NoError(t, err)
	defer j.Close()

	ok := journal.NewRun("nodecfg.defaults", "Network.configure_hostname", []string{"node1"})
	ok.Complete(&transaction.Report{Results: []transaction.Result{
		{Description: "Saving HOSTNAME, DOMAIN", Outcome: transaction.Success()},
	}}, nil)
	require.NoError(t, j.Record(ctx, ok))

	bad := journal.NewRun("nodecfg.defaults", "Bogus.op", nil)
	bad.StartedAt = ok.StartedAt.Add(1)
	bad.Complete(nil, errors.New(`unknown section "Bogus"`))
	require.NoError(t, j.Record(ctx, bad))

	return settings
}

func execute(t *testing.T, settings config.HistoryConfig, jsonOut bool, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewCommand(settings, jsonOut)
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return buf.String()
}

func TestHistory_List(t *testing.T) {
	out := execute(t, seed(t), false, "--steps")

	assert.Contains(t, out, "Network.configure_hostname node1")
	assert.Contains(t, out, "✓ Saving HOSTNAME, DOMAIN")
	assert.Contains(t, out, `unknown section "Bogus"`)
	assert.Less(t, bytes.Index([]byte(out), []byte("Bogus.op")), bytes.Index([]byte(out), []byte("Network.configure_hostname")), "newest first")
}

func TestHistory_FailedOnlyJSON(t *testing.T) {
	out := execute(t, seed(t), true, "--failed")

	var got Response
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Runs, 1)
	assert.Equal(t, "Bogus.op", got.Runs[0].Target)
	assert.Equal(t, journal.ResultError, got.Runs[0].Result())
}

func TestHistory_Limit(t *testing.T) {
	out := execute(t, seed(t), true, "-n", "1")

	var got Response
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Runs, 1)
}

func TestHistory_Disabled(t *testing.T) {
	out := execute(t, config.HistoryConfig{}, false)
	assert.Contains(t, out, "Run history is disabled")
}

func TestHistory_Empty(t *testing.T) {
	out := execute(t, config.HistoryConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "h.db")}, false)
	assert.Equal(t, "No runs recorded.\n", out)
}
