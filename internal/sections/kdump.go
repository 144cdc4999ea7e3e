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

type kdump struct {
	base
}

func newKdump(cfgPath string) (section.Instance, error) {
	return &kdump{base: newBase("Kdump", cfgPath)}, nil
}

func (k *kdump) Operations() []section.Operation {
	return []section.Operation{
		{
			Name:   "configure_nfs",
			Doc:    "Write crash dumps to an NFS export given as host:/path.",
			Params: []section.Param{section.Required("location", section.KindString)},
			Invoke: k.configureNFS,
		},
		{
			Name:   "configure_local",
			Doc:    "Write crash dumps to the local disk.",
			Invoke: k.configureLocal,
		},
	}
}

func (k *kdump) configureNFS(args section.Args) error {
	location, err := nonEmpty(args, "location")
	if err != nil {
		return err
	}
	host, path, ok := strings.Cut(location, ":")
	if !ok || host == "" || !strings.HasPrefix(path, "/") {
		return &nodeerrors.ValidationError{
			Field:   "location",
			Value:   location,
			Message: "must be host:/path",
		}
	}
	k.queue(setting{"KDUMP_TARGET", "nfs"}, setting{"KDUMP_NFS_LOCATION", location})
	return nil
}

func (k *kdump) configureLocal(section.Args) error {
	k.queue(setting{"KDUMP_TARGET", "local"})
	return nil
}
