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
	"strings"

	"github.com/tombee/nodecfg/internal/section"
)

// SplitTarget splits "Section.operation" on the first dot.
func SplitTarget(target string) (string, string, error) {
	sectionName, opName, ok := strings.Cut(target, ".")
	if !ok {
		return "", "", &section.Error{
			Kind:        section.KindMalformedTarget,
			Message:     fmt.Sprintf("invalid target %q: must be in format 'Section.operation'", target),
			SuggestText: "run 'nodecfg help " + target + "' to list its operations",
		}
	}
	if sectionName == "" || opName == "" {
		return "", "", &section.Error{
			Kind:    section.KindMalformedTarget,
			Message: fmt.Sprintf("invalid target %q: section and operation names cannot be empty", target),
		}
	}
	return sectionName, opName, nil
}

// splitHelpTarget accepts a bare section name as well.
func splitHelpTarget(target string) (string, string, error) {
	if !strings.Contains(target, ".") {
		if target == "" {
			return "", "", &section.Error{
				Kind:    section.KindMalformedTarget,
				Message: "missing section name",
			}
		}
		return target, "", nil
	}
	return SplitTarget(target)
}
