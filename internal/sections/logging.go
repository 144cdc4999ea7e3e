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

package sections

import (
	"regexp"

	"github.com/tombee/nodecfg/internal/section"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

var sizePattern = regexp.MustCompile(`^[0-9]+[kKmMgG]?$`)

type logging struct {
	base
}

func newLogging(cfgPath string) (section.Instance, error) {
	return &logging{base: newBase("Logging", cfgPath)}, nil
}

func (l *logging) Operations() []section.Operation {
	return []section.Operation{
		{
			Name: "configure_remote",
			Doc:  "Forward syslog to a remote host.",
			Params: []section.Param{
				section.Required("host", section.KindString),
				section.Optional("port", section.KindInt, "514"),
			},
			Invoke: l.configureRemote,
		},
		{
			Name:   "configure_max_size",
			Doc:    "Rotate local logs at this size (e.g. 1024k, 10M).",
			Params: []section.Param{section.Optional("size", section.KindString, "1024k")},
			Invoke: l.configureMaxSize,
		},
	}
}

func (l *logging) configureRemote(args section.Args) error {
	host, err := nonEmpty(args, "host")
	if err != nil {
		return err
	}
	p, err := port(args, "port")
	if err != nil {
		return err
	}
	l.queue(setting{"SYSLOG_SERVER", host}, setting{"SYSLOG_PORT", p})
	return nil
}

func (l *logging) configureMaxSize(args section.Args) error {
	size := args.Get("size")
	if !sizePattern.MatchString(size) {
		return &nodeerrors.ValidationError{
			Field:   "size",
			Value:   size,
			Message: "must be a number with an optional k, M or G suffix",
		}
	}
	l.queue(setting{"SYSLOG_MAX_SIZE", size})
	return nil
}
