/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a backend-native failure into the uniform taxonomy shared
// by both backends. Callers branch on the kind, never on driver error types.
type Kind uint8

const (
	// KindEngine covers any backend failure during a read or write that no
	// more specific kind matches.
	KindEngine Kind = iota
	// KindConnection means the backend was unreachable or misconfigured at
	// connect time.
	KindConnection
	// KindPermission means the filesystem or the credentials denied access
	// at connect or create time.
	KindPermission
	// KindSchema means table creation or seed insertion failed for a reason
	// other than the expected ignore-duplicate path.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindPermission:
		return "permission"
	case KindSchema:
		return "schema"
	default:
		return "engine"
	}
}

// Error wraps a backend-native failure with its classification and the
// operation that raised it. The operation name replaces the line/file context
// a dynamic traceback would carry: it is static and stable across builds.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classifyConnect wraps a connect-time failure, upgrading it to
// KindPermission when the cause is an access denial.
func classifyConnect(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindConnection
	if errors.Is(err, fs.ErrPermission) {
		kind = KindPermission
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// QuantityError reports a quantity mutation that would push stock below
// zero. Nothing is written when it is raised.
type QuantityError struct {
	Current   int
	Requested int
	Action    QuantityAction
}

func (e *QuantityError) Error() string {
	switch e.Action {
	case ActionSub:
		return fmt.Sprintf("only %d in stock, cannot reduce by %d", e.Current, e.Requested)
	default:
		return fmt.Sprintf("quantity change (%s %d) on a stock of %d would go negative", e.Action, e.Requested, e.Current)
	}
}
