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

import "github.com/tombee/nodecfg/internal/section"

// Error is the dispatch error type. Callers classify it with errors.Is
// against the sentinels below, or errors.As to read Kind and Suggestion.
type Error = section.Error

// ErrorKind classifies an Error.
type ErrorKind = section.ErrorKind

var (
	ErrNamespaceNotFound = section.ErrNamespaceNotFound
	ErrUnknownSection    = section.ErrUnknownSection
	ErrUnknownOperation  = section.ErrUnknownOperation
	ErrMalformedTarget   = section.ErrMalformedTarget
	ErrArgumentMismatch  = section.ErrArgumentMismatch
	ErrOperationFailed   = section.ErrOperationFailed
	ErrNilTransaction    = section.ErrNilTransaction
	ErrInvalidSection    = section.ErrInvalidSection
)
