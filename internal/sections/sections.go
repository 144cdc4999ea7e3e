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

// Package sections provides the built-in configuration sections. Every
// section writes upper-case keys to the node defaults file through
// internal/store.
package sections

import (
	"context"
	"fmt"
	"strings"

	"github.com/tombee/nodecfg/internal/registry"
	"github.com/tombee/nodecfg/internal/section"
	"github.com/tombee/nodecfg/internal/store"
	"github.com/tombee/nodecfg/internal/transaction"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// Namespace is the namespace the built-in sections register under.
const Namespace = "nodecfg.defaults"

// Types returns the built-in section types.
func Types() []section.Type {
	return []section.Type{
		{Name: "Network", Doc: "Hostname, name resolution and time sync.", New: newNetwork},
		{Name: "Logging", Doc: "Remote syslog forwarding and log rotation.", New: newLogging},
		{Name: "SSH", Doc: "SSH daemon access settings.", New: newSSH},
		{Name: "Kdump", Doc: "Crash dump target.", New: newKdump},
		{Name: "Collectd", Doc: "Metrics forwarding.", New: newCollectd},
	}
}

// Register adds the built-in sections to r under Namespace.
func Register(r *registry.Registry) {
	r.Register(Namespace, Types()...)
}

// setting is one key queued for the defaults file.
type setting struct {
	key   string
	value string
}

// base accumulates pending settings for one section instance. Each queue
// call becomes one step.
type base struct {
	title   string
	file    *store.File
	pending []transaction.Step
}

func newBase(title, cfgPath string) base {
	return base{title: title, file: store.Open(cfgPath)}
}

// Transaction returns the steps queued so far.
func (b *base) Transaction() *transaction.Transaction {
	return transaction.New(b.title, b.pending...)
}

func (b *base) queue(settings ...setting) {
	keys := make([]string, len(settings))
	updates := make(map[string]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
		updates[s.key] = s.value
	}

	file := b.file
	desc := fmt.Sprintf("Saving %s to %s", strings.Join(keys, ", "), file.Path())
	b.pending = append(b.pending, transaction.NewStep(desc, func(ctx context.Context, dry bool) error {
		if dry {
			return file.Check()
		}
		return file.Update(updates)
	}))
}

func yesNo(args section.Args, name string) (string, error) {
	v, err := args.Bool(name)
	if err != nil {
		return "", err
	}
	if v {
		return "yes", nil
	}
	return "no", nil
}

func port(args section.Args, name string) (string, error) {
	n, err := args.Int(name)
	if err != nil {
		return "", err
	}
	if n < 1 || n > 65535 {
		return "", &nodeerrors.ValidationError{
			Field:   name,
			Value:   args.Get(name),
			Message: "must be between 1 and 65535",
		}
	}
	return fmt.Sprintf("%d", n), nil
}

func nonEmpty(args section.Args, name string) (string, error) {
	v := strings.TrimSpace(args.Get(name))
	if v == "" {
		return "", &nodeerrors.ValidationError{Field: name, Message: "must not be empty"}
	}
	return v, nil
}

func list(args section.Args, name string) (string, error) {
	items := args.List(name)
	if len(items) == 0 {
		return "", &nodeerrors.ValidationError{
			Field:   name,
			Value:   args.Get(name),
			Message: "must name at least one entry",
			Hint:    "separate entries with commas",
		}
	}
	return strings.Join(items, ","), nil
}
