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

type ssh struct {
	base
}

func newSSH(cfgPath string) (section.Instance, error) {
	return &ssh{base: newBase("SSH", cfgPath)}, nil
}

func (s *ssh) Operations() []section.Operation {
	return []section.Operation{
		{
			Name:   "configure_password_auth",
			Doc:    "Allow or forbid password logins (yes/no).",
			Params: []section.Param{section.Optional("enabled", section.KindBool, "no")},
			Invoke: s.configurePasswordAuth,
		},
		{
			Name:   "configure_port",
			Params: []section.Param{section.Optional("port", section.KindInt, "22")},
			Invoke: s.configurePort,
		},
	}
}

func (s *ssh) configurePasswordAuth(args section.Args) error {
	enabled, err := yesNo(args, "enabled")
	if err != nil {
		return err
	}
	s.queue(setting{"SSH_PASSWORD_AUTH", enabled})
	return nil
}

func (s *ssh) configurePort(args section.Args) error {
	p, err := port(args, "port")
	if err != nil {
		return err
	}
	s.queue(setting{"SSH_PORT", p})
	return nil
}
