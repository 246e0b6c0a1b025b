/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the inventory data-access layer: one Store contract
// implemented by an embedded SQLite backend and a client/server Postgres
// backend, plus the quantity and field-dispatch algorithms both share.
package store

import (
	"context"
	"fmt"
	"regexp"

	"bookstore/internal/domain"
)

// DefaultTable is the inventory table name used when none is configured.
const DefaultTable = "book"

// Store is the backend-agnostic contract the clerk tool is driven through.
// Absence of a row is an outcome, not an error: FindBook returns nil,
// UpdateBook/DeleteBook return false, and InsertBook reports inserted=false
// when the (title, author) pair already exists. All comparisons of title and
// author are case-insensitive at the storage layer.
type Store interface {
	// EnsureSchema creates the inventory table if absent. Idempotent; safe
	// to call on an existing, populated table.
	EnsureSchema(ctx context.Context) error
	// Seed bulk-inserts predefined records, silently skipping rows that
	// collide with existing ids or (title, author) pairs.
	Seed(ctx context.Context, records []SeedRecord) error
	// InsertBook inserts b unless a book with the same title and author
	// already exists. It returns the row id: the generated one when
	// inserted, the existing one otherwise.
	InsertBook(ctx context.Context, b domain.Book) (id int64, inserted bool, err error)
	// FindBook returns the single record matching sel, or nil if none does.
	FindBook(ctx context.Context, sel Selector) (*domain.Record, error)
	// UpdateBook locates the record for sel and applies spec as one
	// transaction. A quantity adjustment that would go negative fails with
	// *QuantityError before anything is written.
	UpdateBook(ctx context.Context, sel Selector, spec UpdateSpec) (updated bool, err error)
	// DeleteBook removes the record matching sel, if any.
	DeleteBook(ctx context.Context, sel Selector) (deleted bool, err error)
	// SearchBooks returns every record whose id, title, or author contains
	// query as a substring. Zero matches yields an empty slice, not an error.
	SearchBooks(ctx context.Context, query string) ([]domain.Record, error)
	// Close releases the backend connection. The store is unusable afterwards.
	Close() error
}

// SeedRecord is one predefined row loaded at store creation. Unlike Book it
// carries an explicit id so reseeding a database keeps ids stable.
type SeedRecord struct {
	ID     int64
	Title  string
	Author string
	Qty    int
}

// Selector identifies at most one row: by id, or by the (title, author) pair
// that is unique under the backend's caseless collation.
type Selector struct {
	id     int64
	title  string
	author string
}

// ByID selects the row with the given surrogate key. Ids are positive; a
// non-positive id is treated as an absent id, so the selector matches
// nothing (title and author can never both be empty).
func ByID(id int64) Selector { return Selector{id: id} }

// ByTitleAuthor selects the row matching title and author case-insensitively.
func ByTitleAuthor(title, author string) Selector {
	return Selector{title: title, author: author}
}

func (s Selector) byID() bool { return s.id > 0 }

func (s Selector) String() string {
	if s.byID() {
		return fmt.Sprintf("id=%d", s.id)
	}
	return fmt.Sprintf("title=%q author=%q", s.title, s.author)
}

// QuantityAction says how a quantity update combines with the current stock.
type QuantityAction string

const (
	ActionAdd QuantityAction = "add"
	ActionSub QuantityAction = "sub"
	ActionSet QuantityAction = "set"
)

type field int

const (
	fieldTitle field = iota
	fieldAuthor
	fieldQuantity
)

// UpdateSpec names the single field an update writes and its new value.
// Exactly one of the constructors builds a valid spec; the zero value writes
// an empty title and should not be used.
type UpdateSpec struct {
	field  field
	text   string
	action QuantityAction
	qty    int
}

// NewTitle replaces the record's title.
func NewTitle(s string) UpdateSpec { return UpdateSpec{field: fieldTitle, text: s} }

// NewAuthor replaces the record's author.
func NewAuthor(s string) UpdateSpec { return UpdateSpec{field: fieldAuthor, text: s} }

// AdjustQty adds to, subtracts from, or sets the record's quantity.
func AdjustQty(action QuantityAction, qty int) UpdateSpec {
	return UpdateSpec{field: fieldQuantity, action: action, qty: qty}
}

// UpdatedQty computes the quantity an adjustment lands on. Stock can reach
// exactly zero but never go negative; a negative result fails with a
// *QuantityError carrying the current stock and the requested change so the
// caller can explain the rejection. Shared by both backends.
func UpdatedQty(current int, action QuantityAction, qty int) (int, error) {
	var result int
	switch action {
	case ActionAdd:
		result = current + qty
	case ActionSub:
		result = current - qty
	case ActionSet:
		result = qty
	default:
		return 0, fmt.Errorf("unknown quantity action %q", action)
	}
	if result < 0 {
		return 0, &QuantityError{Current: current, Requested: qty, Action: action}
	}
	return result, nil
}

// resolveUpdate maps spec onto the one column and value the backend writes
// for the located record. The quantity path runs UpdatedQty against the
// record's current stock before any write happens.
func resolveUpdate(rec *domain.Record, spec UpdateSpec) (column string, value any, err error) {
	switch spec.field {
	case fieldTitle:
		return "title", spec.text, nil
	case fieldAuthor:
		return "author", spec.text, nil
	case fieldQuantity:
		qty, err := UpdatedQty(rec.Qty, spec.action, spec.qty)
		if err != nil {
			return "", nil, err
		}
		return "qty", qty, nil
	default:
		return "", nil, fmt.Errorf("unknown update field %d", spec.field)
	}
}

// Table names are interpolated into SQL, so restrict them to identifiers.
var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkTable(name string) error {
	if !validTable.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
