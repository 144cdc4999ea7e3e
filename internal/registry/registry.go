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

// Package registry holds the section types known to the process, grouped
// by namespace. Types are registered once at startup and the registry is
// read-only afterwards.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tombee/nodecfg/internal/section"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// Registry maps namespaces to the section types registered under them.
type Registry struct {
	namespaces map[string]map[string]section.Type
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		namespaces: make(map[string]map[string]section.Type),
	}
}

// Register adds section types to a namespace. It panics on an empty name,
// a missing factory or a duplicate name, since those are programming errors
// in the section's package.
func (r *Registry) Register(namespace string, types ...section.Type) {
	if namespace == "" {
		panic("registry: empty namespace")
	}

	ns, ok := r.namespaces[namespace]
	if !ok {
		ns = make(map[string]section.Type)
		r.namespaces[namespace] = ns
	}

	for _, t := range types {
		if t.Name == "" {
			panic(fmt.Sprintf("registry: section with empty name in %s", namespace))
		}
		if t.New == nil {
			panic(fmt.Sprintf("registry: section %s.%s has no factory", namespace, t.Name))
		}
		if _, exists := ns[t.Name]; exists {
			panic(fmt.Sprintf("registry: section %s.%s registered twice", namespace, t.Name))
		}
		ns[t.Name] = t
	}
}

// Namespaces returns the registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	return slices.Sorted(maps.Keys(r.namespaces))
}

// ListSectionTypes returns every section type in namespace keyed by name.
// The returned map is a copy.
func (r *Registry) ListSectionTypes(namespace string) (map[string]section.Type, error) {
	ns, ok := r.namespaces[namespace]
	if !ok {
		err := &section.Error{
			Kind:  section.KindNamespaceNotFound,
			Cause: &nodeerrors.NotFoundError{Resource: "namespace", ID: namespace, Available: r.Namespaces()},
		}
		if len(r.namespaces) == 0 {
			err.SuggestText = "no namespaces are registered"
		}
		return nil, err
	}
	return maps.Clone(ns), nil
}

// SectionType resolves one section type by name.
func (r *Registry) SectionType(namespace, name string) (section.Type, error) {
	types, err := r.ListSectionTypes(namespace)
	if err != nil {
		return section.Type{}, err
	}

	t, ok := types[name]
	if !ok {
		return section.Type{}, &section.Error{
			Kind:  section.KindUnknownSection,
			Cause: &nodeerrors.NotFoundError{Resource: "section", ID: name, Available: SectionNames(types)},
		}
	}
	return t, nil
}

// ListOperations returns the configurable operations of a live instance,
// keyed by name. Operations without the configure_ prefix are skipped.
// A malformed or duplicated declaration is reported as an invalid section.
func ListOperations(inst section.Instance) (map[string]section.Operation, error) {
	ops := make(map[string]section.Operation)
	if inst == nil {
		return ops, nil
	}

	for _, op := range inst.Operations() {
		if !op.Configurable() {
			continue
		}
		if err := op.Validate(); err != nil {
			return nil, &section.Error{
				Kind:    section.KindInvalidSection,
				Message: "invalid operation declaration",
				Cause:   err,
			}
		}
		if _, exists := ops[op.Name]; exists {
			return nil, &section.Error{
				Kind:    section.KindInvalidSection,
				Message: fmt.Sprintf("operation %s declared twice", op.Name),
			}
		}
		ops[op.Name] = op
	}
	return ops, nil
}

// SectionNames returns the names of types, sorted.
func SectionNames(types map[string]section.Type) []string {
	return slices.Sorted(maps.Keys(types))
}

// OperationNames returns the names of ops, sorted.
func OperationNames(ops map[string]section.Operation) []string {
	return slices.Sorted(maps.Keys(ops))
}
