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

import "github.com/tombee/nodecfg/internal/section"

type collectd struct {
	base
}

func newCollectd(cfgPath string) (section.Instance, error) {
	return &collectd{base: newBase("Collectd", cfgPath)}, nil
}

func (c *collectd) Operations() []section.Operation {
	return []section.Operation{
		{
			Name: "configure_server",
			Doc:  "Send collectd metrics to a network server.",
			Params: []section.Param{
				section.Required("host", section.KindString),
				section.Optional("port", section.KindInt, "25826"),
			},
			Invoke: c.configureServer,
		},
	}
}

func (c *collectd) configureServer(args section.Args) error {
	host, err := nonEmpty(args, "host")
	if err != nil {
		return err
	}
	p, err := port(args, "port")
	if err != nil {
		return err
	}
	c.queue(setting{"COLLECTD_SERVER", host}, setting{"COLLECTD_PORT", p})
	return nil
}
