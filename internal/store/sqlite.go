/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"bookstore/internal/domain"
	applog "bookstore/internal/log"

	"golang.org/x/text/cases"

	// Pure-Go SQLite driver (CGO-free)
	sqlite "modernc.org/sqlite"
)

// CollationName is the caseless collation registered with the embedded
// engine. It backs the UNIQUE(title, author) constraint and equality on the
// title and author columns.
const CollationName = "unicode_nocase"

var (
	collationOnce sync.Once
	collationErr  error
)

// The driver keeps collations in a process-wide registry, so register once.
func registerCollation() error {
	collationOnce.Do(func() {
		collationErr = sqlite.RegisterCollationUtf8(CollationName, collateNoCase)
	})
	return collationErr
}

// collateNoCase folds both operands to their canonical caseless form before
// comparing: equal -> 0, less -> -1, greater -> 1.
func collateNoCase(left, right string) int {
	f := cases.Fold()
	return strings.Compare(f.String(left), f.String(right))
}

// SQLiteStore is the embedded single-file backend. It owns one open
// connection for the lifetime of the process invocation.
type SQLiteStore struct {
	db    *sql.DB
	table string
	log   *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database file at path, ensures the
// inventory table exists, and bulk-loads seeds. Creating the parent
// directory for path is the caller's job. On any failure the partially
// opened connection is closed before the error is returned; on success the
// caller owns the store and must Close it.
func OpenSQLite(ctx context.Context, path, table string, seeds []SeedRecord) (*SQLiteStore, error) {
	const op = "sqlite.open"
	if table == "" {
		table = DefaultTable
	}
	if err := checkTable(table); err != nil {
		return nil, &Error{Kind: KindSchema, Op: op, Err: err}
	}
	if err := registerCollation(); err != nil {
		return nil, &Error{Kind: KindConnection, Op: op, Err: err}
	}

	l := applog.WithOperation(applog.WithComponent("store"), "sqlite_open").With(
		slog.String("path", path),
	)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, classifyConnect(op, err)
	}
	// One live connection, no pooling.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("sqlite ping failed", slog.Any("err", err))
		return nil, classifyConnect(op, err)
	}

	s := &SQLiteStore{db: db, table: table, log: applog.WithComponent("store")}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Seed(ctx, seeds); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("sqlite store ready", slog.String("table", table))
	return s, nil
}

// EnsureSchema creates the inventory table if it does not exist. The unique
// key over (title, author) compares under the registered caseless collation.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const op = "sqlite.ensure_schema"
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		title  TEXT COLLATE %s NOT NULL,
		author TEXT COLLATE %s NOT NULL,
		qty    INTEGER NOT NULL,
		UNIQUE (title, author)
	);`, s.table, CollationName, CollationName)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return &Error{Kind: KindSchema, Op: op, Err: err}
	}
	return nil
}

// Seed inserts the predefined records in one transaction with
// ignore-on-duplicate semantics: rows colliding on id or on the caseless
// (title, author) key are skipped, never upserted.
func (s *SQLiteStore) Seed(ctx context.Context, records []SeedRecord) error {
	const op = "sqlite.seed"
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Kind: KindSchema, Op: op, Err: err}
	}
	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (id, title, author, qty) VALUES (?, ?, ?, ?)`, s.table))
	if err != nil {
		_ = tx.Rollback()
		return &Error{Kind: KindSchema, Op: op, Err: err}
	}
	defer ins.Close()
	for _, r := range records {
		if _, err := ins.ExecContext(ctx, r.ID, r.Title, r.Author, r.Qty); err != nil {
			_ = tx.Rollback()
			return &Error{Kind: KindSchema, Op: op, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Kind: KindSchema, Op: op, Err: err}
	}
	s.log.Debug("seeded records", slog.Int("count", len(records)))
	return nil
}

func (s *SQLiteStore) InsertBook(ctx context.Context, b domain.Book) (int64, bool, error) {
	const op = "sqlite.insert_book"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	existing, err := s.findOne(ctx, tx, ByTitleAuthor(b.Title, b.Author))
	if err != nil {
		_ = tx.Rollback()
		return 0, false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if existing != nil {
		_ = tx.Rollback()
		return existing.ID, false, nil
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (title, author, qty) VALUES (?, ?, ?)`, s.table),
		b.Title, b.Author, b.Qty)
	if err != nil {
		_ = tx.Rollback()
		return 0, false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	return id, true, nil
}

func (s *SQLiteStore) FindBook(ctx context.Context, sel Selector) (*domain.Record, error) {
	const op = "sqlite.find_book"
	rec, err := s.findOne(ctx, s.db, sel)
	if err != nil {
		return nil, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateBook(ctx context.Context, sel Selector, spec UpdateSpec) (bool, error) {
	const op = "sqlite.update_book"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	rec, err := s.findOne(ctx, tx, sel)
	if err != nil {
		_ = tx.Rollback()
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if rec == nil {
		_ = tx.Rollback()
		return false, nil
	}
	column, value, err := resolveUpdate(rec, spec)
	if err != nil {
		// Quantity rejection; nothing was written.
		_ = tx.Rollback()
		return false, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET %s = ? WHERE id = ?`, s.table, column), value, rec.ID); err != nil {
		_ = tx.Rollback()
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	s.log.Debug("book updated", slog.String("selector", sel.String()), slog.String("column", column))
	return true, nil
}

func (s *SQLiteStore) DeleteBook(ctx context.Context, sel Selector) (bool, error) {
	const op = "sqlite.delete_book"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	rec, err := s.findOne(ctx, tx, sel)
	if err != nil {
		_ = tx.Rollback()
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if rec == nil {
		_ = tx.Rollback()
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = ?`, s.table), rec.ID); err != nil {
		_ = tx.Rollback()
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return false, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	s.log.Debug("book deleted", slog.String("selector", sel.String()))
	return true, nil
}

// SearchBooks matches query as a substring against id, title, or author.
// LIKE on the id column compares the integer as text, so a numeric query
// also matches ids.
func (s *SQLiteStore) SearchBooks(ctx context.Context, query string) ([]domain.Record, error) {
	const op = "sqlite.search_books"
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, title, author, qty FROM %s
		 WHERE id LIKE ? OR title LIKE ? OR author LIKE ?
		 ORDER BY id`, s.table),
		pattern, pattern, pattern)
	if err != nil {
		return nil, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	defer rows.Close()
	out := []domain.Record{}
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Author, &r.Qty); err != nil {
			return nil, &Error{Kind: KindEngine, Op: op, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Kind: KindEngine, Op: op, Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// querier lets findOne run against the pool or inside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) findOne(ctx context.Context, q querier, sel Selector) (*domain.Record, error) {
	var row *sql.Row
	if sel.byID() {
		row = q.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT id, title, author, qty FROM %s WHERE id = ?`, s.table), sel.id)
	} else {
		row = q.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT id, title, author, qty FROM %s WHERE author = ? AND title = ?`, s.table),
			sel.author, sel.title)
	}
	var rec domain.Record
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Author, &rec.Qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
