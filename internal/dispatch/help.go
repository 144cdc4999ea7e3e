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
	"fmt"
	"io"
	"strings"

	"github.com/tombee/nodecfg/internal/binding"
	"github.com/tombee/nodecfg/internal/registry"
	"github.com/tombee/nodecfg/internal/section"
)

// Empty-state notice for sections without configurable operations.
const (
	NoOperationsNotice = "There are no documented operations in this section."
	NoOperationsHint   = "Please provide a patch to add documentation."
)

// OperationHelp describes one operation.
type OperationHelp struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Doc       string `json:"doc,omitempty"`

	// Usage is the signature followed by the doc text on its own line.
	Usage string `json:"usage"`
}

// Help lists the operations of one section, sorted by name.
type Help struct {
	Section    string          `json:"section"`
	Doc        string          `json:"doc,omitempty"`
	Operations []OperationHelp `json:"operations"`
}

// Empty reports whether the section has no configurable operations.
func (h *Help) Empty() bool {
	return len(h.Operations) == 0
}

// Render writes the section header followed by the operations, or by the
// empty-state notice.
func (h *Help) Render(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Operations in section '%s':\n", h.Section)
	if h.Empty() {
		b.WriteString(NoOperationsNotice + "\n")
		b.WriteString(NoOperationsHint + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, op := range h.Operations {
		line := "- " + op.Name
		if op.Signature != "" {
			line += " " + op.Signature
		}
		b.WriteString(line + "\n")
		for _, doc := range strings.Split(op.Doc, "\n") {
			if doc = strings.TrimSpace(doc); doc != "" {
				b.WriteString("    " + doc + "\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Help resolves "Section" or "Section.operation" and describes it. Help
// constructs an instance to list operations but never invokes one.
func (d *Dispatcher) Help(target string) (*Help, error) {
	sectionName, opName, err := splitHelpTarget(target)
	if err != nil {
		return nil, err
	}

	typ, err := d.cfg.Registry.SectionType(d.cfg.Namespace, sectionName)
	if err != nil {
		return nil, err
	}
	inst, err := typ.New(d.cfg.ConfigPath)
	if err != nil {
		return nil, &section.Error{
			Kind:    section.KindOperationFailed,
			Message: fmt.Sprintf("failed to initialize section %s", sectionName),
			Cause:   err,
		}
	}
	ops, err := registry.ListOperations(inst)
	if err != nil {
		return nil, err
	}

	help := &Help{Section: sectionName, Doc: typ.Doc, Operations: []OperationHelp{}}
	if opName != "" {
		op, ok := ops[opName]
		if !ok {
			return nil, unknownOperation(sectionName, opName, ops)
		}
		help.Operations = append(help.Operations, describe(op))
		return help, nil
	}

	for _, name := range registry.OperationNames(ops) {
		help.Operations = append(help.Operations, describe(ops[name]))
	}
	return help, nil
}

func describe(op section.Operation) OperationHelp {
	return OperationHelp{
		Name:      op.Name,
		Signature: binding.Signature(op),
		Doc:       strings.TrimSpace(op.Doc),
		Usage:     binding.DescribeUsage(op),
	}
}
