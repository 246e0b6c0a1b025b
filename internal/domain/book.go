/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the inventory data model: the Book value supplied by
// callers and the Record row handed back by the store.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Book is an inventory entry that has not been persisted yet. Construct it
// with NewBook; a Book that exists is valid by construction.
type Book struct {
	Title  string
	Author string
	Qty    int
}

// Record is a persisted inventory row. ID is the surrogate key assigned by
// the store on insert and is never reused.
type Record struct {
	ID     int64
	Title  string
	Author string
	Qty    int
}

// ValidationError names the Book field that failed validation. It is raised
// before any storage is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var spaceRun = regexp.MustCompile(` +`)

// CollapseSpaces trims s and squeezes interior runs of spaces to one.
func CollapseSpaces(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NewBook normalizes and validates the caller's input. Title and author must
// be non-empty after whitespace collapsing and qty must be non-negative;
// invalid input fails with a *ValidationError, never a coerced value.
func NewBook(title, author string, qty int) (Book, error) {
	title = CollapseSpaces(title)
	author = CollapseSpaces(author)
	if title == "" {
		return Book{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if author == "" {
		return Book{}, &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if qty < 0 {
		return Book{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	return Book{Title: title, Author: author, Qty: qty}, nil
}
