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
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodecfg/internal/history"
	"github.com/tombee/nodecfg/internal/registry"
	"github.com/tombee/nodecfg/internal/section"
	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

const testNamespace = "test.sections"

// fakeSection records every call so tests can assert on what ran.
type fakeSection struct {
	ops     []section.Operation
	pending []transaction.Step
	nilTx   bool
}

func (f *fakeSection) Operations() []section.Operation { return f.ops }

func (f *fakeSection) Transaction() *transaction.Transaction {
	if f.nilTx {
		return nil
	}
	return transaction.New("fake", f.pending...)
}

type harness struct {
	constructed int
	bound       []map[string]string
	applied     []string
	journal     *fakeJournal
	observer    *fakeObserver
	recorder    *transaction.Recorder
}

func (h *harness) step(desc string, fail error) transaction.Step {
	return transaction.NewStep(desc, func(ctx context.Context, dry bool) error {
		if fail != nil {
			return fail
		}
		if !dry {
			h.applied = append(h.applied, desc)
		}
		return nil
	})
}

func (h *harness) registry() *registry.Registry {
	r := registry.New()

	network := func(string) (section.Instance, error) {
		h.constructed++
		inst := &fakeSection{}
		inst.ops = []section.Operation{
			{
				Name: "configure_hostname",
				Doc:  "Set the hostname.",
				Params: []section.Param{
					section.Required("name", section.KindString),
					section.Optional("domain", section.KindString, "local"),
				},
				Invoke: func(args section.Args) error {
					h.bound = append(h.bound, args.Resolved())
					inst.pending = append(inst.pending, h.step("Saving HOSTNAME, DOMAIN", nil))
					return nil
				},
			},
			{
				Name:   "configure_port",
				Params: []section.Param{section.Optional("port", section.KindInt, "22")},
				Invoke: func(args section.Args) error {
					_, err := args.Int("port")
					return err
				},
			},
			{
				Name:   "current_hostname",
				Invoke: func(section.Args) error { return nil },
			},
		}
		return inst, nil
	}

	failing := func(string) (section.Instance, error) {
		h.constructed++
		inst := &fakeSection{}
		inst.ops = []section.Operation{{
			Name: "configure_all",
			Invoke: func(section.Args) error {
				inst.pending = append(inst.pending,
					h.step("one", nil),
					h.step("two", errors.New("disk full")),
					h.step("three", nil),
				)
				return nil
			},
		}}
		return inst, nil
	}

	empty := func(string) (section.Instance, error) {
		h.constructed++
		return &fakeSection{ops: []section.Operation{{
			Name:   "helper",
			Invoke: func(section.Args) error { return nil },
		}}}, nil
	}

	broken := func(string) (section.Instance, error) {
		h.constructed++
		return &fakeSection{nilTx: true, ops: []section.Operation{{
			Name:   "configure_x",
			Invoke: func(section.Args) error { return nil },
		}}}, nil
	}

	r.Register(testNamespace,
		section.Type{Name: "Network", Doc: "Networking.", New: network},
		section.Type{Name: "Failing", New: failing},
		section.Type{Name: "Empty", New: empty},
		section.Type{Name: "Broken", New: broken},
	)
	return r
}

type fakeJournal struct {
	runs []*history.Run
	err  error
}

func (j *fakeJournal) Record(ctx context.Context, run *history.Run) error {
	j.runs = append(j.runs, run)
	return j.err
}

type fakeObserver struct {
	results []string
}

func (o *fakeObserver) ObserveDispatch(section, operation, result string) {
	o.results = append(o.results, section+"."+operation+"="+result)
}

func newDispatcher(t *testing.T, dry bool) (*Dispatcher, *harness) {
	t.Helper()
	h := &harness{journal: &fakeJournal{}, observer: &fakeObserver{}, recorder: &transaction.Recorder{}}
	d, err := New(Config{
		Registry:  h.registry(),
		Namespace: testNamespace,
		DryRun:    dry,
		Reporters: []transaction.Reporter{h.recorder},
		Journal:   h.journal,
		Observer:  h.observer,
	})
	require.NoError(t, err)
	return d, h
}

func TestDispatch_BindsDefaultsAtCallTime(t *testing.T) {
	d, h := newDispatcher(t, false)
	ctx := context.Background()

	report, err := d.Dispatch(ctx, "Network.configure_hostname", []string{"host1"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Succeeded)

	_, err = d.Dispatch(ctx, "Network.configure_hostname", []string{"host1", "example.com"})
	require.NoError(t, err)

	require.Len(t, h.bound, 2)
	assert.Equal(t, map[string]string{"name": "host1", "domain": "local"}, h.bound[0])
	assert.Equal(t, map[string]string{"name": "host1", "domain": "example.com"}, h.bound[1])
	assert.Equal(t, 2, h.constructed, "one instance per dispatch")
}

func TestDispatch_DryRunPersistsNothing(t *testing.T) {
	d, h := newDispatcher(t, true)

	report, err := d.Dispatch(context.Background(), "Network.configure_hostname", []string{"host1"})
	require.NoError(t, err)

	assert.True(t, report.Dry)
	assert.Equal(t, []string{"Saving HOSTNAME, DOMAIN"}, report.Descriptions())
	assert.Equal(t, transaction.StatusSuccess, report.Results[0].Outcome.Status)
	assert.Empty(t, h.applied)
	assert.Empty(t, h.journal.runs, "dry runs are not journaled")
}

func TestDispatch_UnknownSectionRunsNothing(t *testing.T) {
	d, h := newDispatcher(t, false)

	report, err := d.Dispatch(context.Background(), "Bogus.op", nil)
	assert.Nil(t, report)
	require.ErrorIs(t, err, ErrUnknownSection)

	assert.Equal(t, 0, h.constructed)
	assert.False(t, h.recorder.Started())

	require.Len(t, h.journal.runs, 1)
	assert.Equal(t, history.ResultError, h.journal.runs[0].Result())
	assert.Equal(t, []string{"Bogus.op=error"}, h.observer.results)
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		args   []string
		want   error
	}{
		{"no separator", "Network", nil, ErrMalformedTarget},
		{"empty section", ".configure_hostname", nil, ErrMalformedTarget},
		{"empty operation", "Network.", nil, ErrMalformedTarget},
		{"unknown operation", "Network.configure_bogus", nil, ErrUnknownOperation},
		{"helper is not configurable", "Network.current_hostname", nil, ErrUnknownOperation},
		{"too few args", "Network.configure_hostname", nil, ErrArgumentMismatch},
		{"too many args", "Network.configure_hostname", []string{"a", "b", "c"}, ErrArgumentMismatch},
		{"operation rejects args", "Network.configure_port", []string{"ssh"}, ErrOperationFailed},
		{"nil transaction", "Broken.configure_x", nil, ErrNilTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, h := newDispatcher(t, false)

			report, err := d.Dispatch(context.Background(), tt.target, tt.args)
			assert.Nil(t, report)
			require.ErrorIs(t, err, tt.want)
			assert.False(t, h.recorder.Started(), "no transaction may run")
		})
	}
}

func TestDispatch_ErrorDetails(t *testing.T) {
	d, _ := newDispatcher(t, false)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "Network.configure_bogus", nil)
	assert.Equal(t, "available operations: configure_hostname, configure_port", nodeerrors.Suggestion(err))
	assert.EqualError(t, err, `operation "Network.configure_bogus" not found`)
	var notFound *nodeerrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "operation", notFound.Resource)

	_, err = d.Dispatch(ctx, "Empty.configure_anything", nil)
	require.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, "section Empty has no operations", nodeerrors.Suggestion(err))

	_, err = d.Dispatch(ctx, "Network.configure_port", []string{"ssh"})
	var verr *nodeerrors.ValidationError
	require.ErrorAs(t, err, &verr, "the operation's own error stays reachable")
	assert.Equal(t, "port", verr.Field)

	_, err = d.Dispatch(ctx, "Broken.configure_x", nil)
	assert.True(t, IsInternal(err))

	_, err = d.Dispatch(ctx, "Network", nil)
	assert.False(t, IsInternal(err))
}

func TestDispatch_StepFailureContinues(t *testing.T) {
	d, h := newDispatcher(t, false)

	report, err := d.Dispatch(context.Background(), "Failing.configure_all", nil)
	require.NoError(t, err)

	assert.Equal(t, transaction.Summary{Total: 3, Succeeded: 2, Failed: 1}, report.Summary)
	assert.Equal(t, []string{"one", "three"}, h.applied)

	require.Len(t, h.journal.runs, 1)
	run := h.journal.runs[0]
	assert.Equal(t, history.ResultFailed, run.Result())
	require.Len(t, run.Steps, 3)
	assert.Equal(t, "disk full", run.Steps[1].Message)
	assert.Equal(t, []string{"Failing.configure_all=failed"}, h.observer.results)
}

func TestDispatch_StopOnFailure(t *testing.T) {
	h := &harness{}
	d, err := New(Config{Registry: h.registry(), Namespace: testNamespace, StopOnFailure: true})
	require.NoError(t, err)

	report, err := d.Dispatch(context.Background(), "Failing.configure_all", nil)
	require.NoError(t, err)
	assert.Equal(t, transaction.Summary{Total: 3, Succeeded: 1, Failed: 1, Skipped: 1}, report.Summary)
	assert.Equal(t, []string{"one"}, h.applied)
}

func TestDispatch_JournalFailureIsNotFatal(t *testing.T) {
	d, h := newDispatcher(t, false)
	h.journal.err = errors.New("database is locked")

	report, err := d.Dispatch(context.Background(), "Network.configure_hostname", []string{"n1"})
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Len(t, h.journal.runs, 1)
}

func TestNew_UnknownNamespace(t *testing.T) {
	h := &harness{}
	_, err := New(Config{Registry: h.registry(), Namespace: "nope"})
	assert.ErrorIs(t, err, ErrNamespaceNotFound)

	_, err = New(Config{Namespace: testNamespace})
	assert.Error(t, err)
}

func TestSections(t *testing.T) {
	d, _ := newDispatcher(t, false)

	all, err := d.Sections("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Broken", "Empty", "Failing", "Network"}, all)

	matched, err := d.Sections("*ing")
	require.NoError(t, err)
	assert.Equal(t, []string{"Failing"}, matched)

	_, err = d.Sections("[")
	assert.ErrorIs(t, err, ErrMalformedTarget)
}

func TestHelp_Section(t *testing.T) {
	d, h := newDispatcher(t, false)

	help, err := d.Help("Network")
	require.NoError(t, err)
	assert.False(t, help.Empty())
	require.Len(t, help.Operations, 2)
	assert.Equal(t, "configure_hostname", help.Operations[0].Name)
	assert.Equal(t, "<NAME> [<DOMAIN=local>]\nSet the hostname.", help.Operations[0].Usage)
	assert.Empty(t, h.bound, "help never invokes operations")

	var buf bytes.Buffer
	require.NoError(t, help.Render(&buf))
	assert.Equal(t, "Operations in section 'Network':\n"+
		"- configure_hostname <NAME> [<DOMAIN=local>]\n"+
		"    Set the hostname.\n"+
		"- configure_port [<PORT=22>]\n", buf.String())
}

func TestHelp_EmptySection(t *testing.T) {
	d, _ := newDispatcher(t, false)

	help, err := d.Help("Empty")
	require.NoError(t, err)
	assert.True(t, help.Empty())

	var buf bytes.Buffer
	require.NoError(t, help.Render(&buf))
	assert.Equal(t, "Operations in section 'Empty':\n"+NoOperationsNotice+"\n"+NoOperationsHint+"\n", buf.String())
}

func TestHelp_Operation(t *testing.T) {
	d, _ := newDispatcher(t, false)

	help, err := d.Help("Network.configure_port")
	require.NoError(t, err)
	require.Len(t, help.Operations, 1)
	assert.Equal(t, "[<PORT=22>]", help.Operations[0].Usage)

	_, err = d.Help("Network.configure_bogus")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = d.Help("Bogus")
	assert.ErrorIs(t, err, ErrUnknownSection)

	_, err = d.Help("Network.")
	assert.ErrorIs(t, err, ErrMalformedTarget)
}
