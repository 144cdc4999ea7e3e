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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/nodecfg/internal/section"
	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

type fakeInstance struct {
	ops []section.Operation
}

func (f *fakeInstance) Operations() []section.Operation        { return f.ops }
func (f *fakeInstance) Transaction() *transaction.Transaction { return transaction.New("fake") }

func fakeType(name string, ops ...section.Operation) section.Type {
	return section.Type{
		Name: name,
		New: func(string) (section.Instance, error) {
			return &fakeInstance{ops: ops}, nil
		},
	}
}

func op(name string) section.Operation {
	return section.Operation{Name: name, Invoke: func(section.Args) error { return nil }}
}

func TestRegistry_ListSectionTypes(t *testing.T) {
	r := New()
	r.Register("ns", fakeType("Network"), fakeType("Logging"))

	types, err := r.ListSectionTypes("ns")
	require.NoError(t, err)
	assert.Equal(t, []string{"Logging", "Network"}, SectionNames(types))

	// The returned map is a copy.
	delete(types, "Network")
	again, err := r.ListSectionTypes("ns")
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestRegistry_NamespaceNotFound(t *testing.T) {
	r := New()
	r.Register("nodecfg.defaults", fakeType("Network"))

	_, err := r.ListSectionTypes("other")
	require.ErrorIs(t, err, section.ErrNamespaceNotFound)

	var serr *section.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "available namespaces: nodecfg.defaults", serr.Suggestion())
}

func TestRegistry_SectionType(t *testing.T) {
	r := New()
	r.Register("ns", fakeType("Network"), fakeType("SSH"))

	got, err := r.SectionType("ns", "SSH")
	require.NoError(t, err)
	assert.Equal(t, "SSH", got.Name)

	_, err = r.SectionType("ns", "Bogus")
	require.ErrorIs(t, err, section.ErrUnknownSection)
	assert.Contains(t, err.Error(), `"Bogus"`)

	var serr *section.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "available sections: Network, SSH", serr.Suggestion())

	var notFound *nodeerrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "section", notFound.Resource)
	assert.Equal(t, []string{"Network", "SSH"}, notFound.Available)
	assert.Equal(t, `section "Bogus" not found`, err.Error())
}

func TestRegistry_NoNamespaces(t *testing.T) {
	_, err := New().ListSectionTypes("nodecfg.defaults")
	require.ErrorIs(t, err, section.ErrNamespaceNotFound)
	assert.Equal(t, `namespace "nodecfg.defaults" not found`, err.Error())
	assert.Equal(t, "no namespaces are registered", nodeerrors.Suggestion(err))
}

func TestRegistry_RegisterPanics(t *testing.T) {
	r := New()
	r.Register("ns", fakeType("Network"))

	assert.Panics(t, func() { r.Register("ns", fakeType("Network")) })
	assert.Panics(t, func() { r.Register("ns", section.Type{Name: "NoFactory"}) })
	assert.Panics(t, func() { r.Register("ns", fakeType("")) })
	assert.Panics(t, func() { r.Register("", fakeType("X")) })

	// The same name may live in another namespace.
	assert.NotPanics(t, func() { r.Register("other", fakeType("Network")) })
	assert.Equal(t, []string{"ns", "other"}, r.Namespaces())
}

func TestListOperations_PrefixFilter(t *testing.T) {
	inst := &fakeInstance{ops: []section.Operation{
		op("configure_hostname"),
		op("current_hostname"),
		op("configure_ntp"),
	}}

	ops, err := ListOperations(inst)
	require.NoError(t, err)
	assert.Equal(t, []string{"configure_hostname", "configure_ntp"}, OperationNames(ops))
}

func TestListOperations_Empty(t *testing.T) {
	ops, err := ListOperations(&fakeInstance{})
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestListOperations_InvalidDeclarations(t *testing.T) {
	dup := &fakeInstance{ops: []section.Operation{op("configure_a"), op("configure_a")}}
	_, err := ListOperations(dup)
	assert.ErrorIs(t, err, section.ErrInvalidSection)

	noBody := &fakeInstance{ops: []section.Operation{{Name: "configure_a"}}}
	_, err = ListOperations(noBody)
	assert.ErrorIs(t, err, section.ErrInvalidSection)
	assert.Contains(t, err.Error(), "has no body")
}
