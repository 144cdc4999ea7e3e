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
	"strings"

	"github.com/tombee/nodecfg/internal/section"
	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

type network struct {
	base
}

func newNetwork(cfgPath string) (section.Instance, error) {
	return &network{base: newBase("Network", cfgPath)}, nil
}

func (n *network) Operations() []section.Operation {
	return []section.Operation{
		{
			Name: "configure_hostname",
			Doc:  "Set the node hostname and DNS domain.",
			Params: []section.Param{
				section.Required("name", section.KindString),
				section.Optional("domain", section.KindString, "local"),
			},
			Invoke: n.configureHostname,
		},
		{
			Name:   "configure_nameservers",
			Doc:    "Set the resolvers, comma separated.",
			Params: []section.Param{section.Required("servers", section.KindList)},
			Invoke: n.configureNameservers,
		},
		{
			Name: "configure_ntp",
			Doc:  "Set the NTP servers, comma separated.",
			Params: []section.Param{
				section.Required("servers", section.KindList),
				section.Optional("iburst", section.KindBool, "yes"),
			},
			Invoke: n.configureNTP,
		},
	}
}

func (n *network) configureHostname(args section.Args) error {
	name, err := nonEmpty(args, "name")
	if err != nil {
		return err
	}
	if strings.Contains(name, ".") {
		return &nodeerrors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "must be a short name",
			Hint:    "pass the domain as the second argument",
		}
	}
	domain, err := nonEmpty(args, "domain")
	if err != nil {
		return err
	}

	n.queue(setting{"HOSTNAME", name}, setting{"DOMAIN", domain})
	return nil
}

func (n *network) configureNameservers(args section.Args) error {
	servers, err := list(args, "servers")
	if err != nil {
		return err
	}
	n.queue(setting{"NAMESERVERS", servers})
	return nil
}

func (n *network) configureNTP(args section.Args) error {
	servers, err := list(args, "servers")
	if err != nil {
		return err
	}
	iburst, err := yesNo(args, "iburst")
	if err != nil {
		return err
	}
	n.queue(setting{"NTP_SERVERS", servers}, setting{"NTP_IBURST", iburst})
	return nil
}
