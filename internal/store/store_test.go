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

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_LoadMissing(t *testing.T) {
	f := Open(filepath.Join(t.TempDir(), "nodecfg.yaml"))

	values, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestFile_UpdateMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "nodecfg.yaml")
	f := Open(path)

	require.NoError(t, f.Update(map[string]string{"HOSTNAME": "node1", "DOMAIN": "local"}))
	require.NoError(t, f.Update(map[string]string{"DOMAIN": "example.com"}))

	values, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOSTNAME": "node1", "DOMAIN": "example.com"}, values)

	v, ok, err := f.Get("HOSTNAME")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "node1", v)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not be left behind")
}

func TestFile_SortedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodecfg.yaml")
	require.NoError(t, Open(path).Update(map[string]string{"SSH_PORT": "22", "HOSTNAME": "n"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "HOSTNAME: n\nSSH_PORT: \"22\"\n", string(data))
}

func TestFile_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodecfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a mapping\n"), 0644))

	_, err := Open(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse defaults file")
}

func TestOpen_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, Open("").Path())
}

func TestFile_CheckMatchesUpdate(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "etc")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	f := Open(filepath.Join(blocker, "nodecfg.yaml"))

	checkErr := f.Check()
	updateErr := f.Update(map[string]string{"HOSTNAME": "n"})
	require.Error(t, checkErr)
	require.Error(t, updateErr)
	assert.Equal(t, updateErr.Error(), checkErr.Error())
}

func TestFile_CheckChangesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodecfg.yaml")
	f := Open(path)

	require.NoError(t, f.Check())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, f.Update(map[string]string{"HOSTNAME": "n"}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, f.Check())
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFile_CheckParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodecfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a mapping\n"), 0644))

	err := Open(path).Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse defaults file")
}
