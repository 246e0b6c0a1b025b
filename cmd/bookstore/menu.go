/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"bookstore/internal/domain"
	"bookstore/internal/store"
)

// lineReader is the slice of bufio.Scanner the menu needs; tests feed it
// from a string.
type lineReader interface {
	Scan() bool
	Text() string
}

// clerk drives the interactive menu loop against a store.
type clerk struct {
	st  store.Store
	in  lineReader
	out io.Writer
	log *slog.Logger
}

// maxAttempts bounds how often a prompt re-asks before giving up on the
// current action.
const maxAttempts = 3

var errAborted = errors.New("too many invalid answers")

// Run shows the menu until the clerk exits or input ends. Quantity
// rejections and aborted prompts return to the menu; everything else is a
// real failure and stops the loop.
func (c *clerk) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1) Enter book")
		fmt.Fprintln(c.out, "2) Update book")
		fmt.Fprintln(c.out, "3) Delete book")
		fmt.Fprintln(c.out, "4) Search books")
		fmt.Fprintln(c.out, "0) Exit")
		choice, err := c.prompt("> ")
		if err != nil {
			return nil // input ended
		}

		switch choice {
		case "1":
			err = c.enterBook(ctx)
		case "2":
			err = c.updateBook(ctx)
		case "3":
			err = c.deleteBook(ctx)
		case "4":
			err = c.searchBooks(ctx)
		case "0":
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		default:
			fmt.Fprintln(c.out, "Please choose 1, 2, 3, 4 or 0.")
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errAborted):
			fmt.Fprintln(c.out, "Cancelled.")
		default:
			var qe *store.QuantityError
			var ve *domain.ValidationError
			if errors.As(err, &qe) || errors.As(err, &ve) {
				fmt.Fprintln(c.out, err.Error())
				continue
			}
			return err
		}
	}
}

func (c *clerk) enterBook(ctx context.Context) error {
	title, err := c.promptNonEmpty("Title: ")
	if err != nil {
		return err
	}
	author, err := c.promptNonEmpty("Author: ")
	if err != nil {
		return err
	}
	qty, err := c.promptCount("Quantity: ")
	if err != nil {
		return err
	}

	b, err := domain.NewBook(title, author, qty)
	if err != nil {
		return err
	}
	id, inserted, err := c.st.InsertBook(ctx, b)
	if err != nil {
		return err
	}
	if !inserted {
		fmt.Fprintf(c.out, "%q by %s is already in stock (id %d).\n", b.Title, b.Author, id)
		return nil
	}
	c.log.Info("book entered", slog.Int64("id", id), slog.String("title", b.Title))
	fmt.Fprintf(c.out, "Added %q by %s with id %d.\n", b.Title, b.Author, id)
	return nil
}

func (c *clerk) updateBook(ctx context.Context) error {
	sel, err := c.promptSelector()
	if err != nil {
		return err
	}
	rec, err := c.st.FindBook(ctx, sel)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintln(c.out, "No matching book.")
		return nil
	}
	renderRecords(c.out, []domain.Record{*rec})

	field, err := c.promptChoice("Change [title/author/quantity]: ", "title", "author", "quantity")
	if err != nil {
		return err
	}
	var spec store.UpdateSpec
	switch field {
	case "title":
		v, err := c.promptNonEmpty("New title: ")
		if err != nil {
			return err
		}
		spec = store.NewTitle(v)
	case "author":
		v, err := c.promptNonEmpty("New author: ")
		if err != nil {
			return err
		}
		spec = store.NewAuthor(v)
	case "quantity":
		action, err := c.promptChoice("Adjust [add/sub/set]: ", "add", "sub", "set")
		if err != nil {
			return err
		}
		qty, err := c.promptCount("Quantity: ")
		if err != nil {
			return err
		}
		spec = store.AdjustQty(store.QuantityAction(action), qty)
	}

	updated, err := c.st.UpdateBook(ctx, sel, spec)
	if err != nil {
		return err
	}
	if !updated {
		fmt.Fprintln(c.out, "No matching book.")
		return nil
	}
	c.log.Info("book updated", slog.String("selector", sel.String()), slog.String("field", field))
	fmt.Fprintln(c.out, "Updated.")
	return nil
}

func (c *clerk) deleteBook(ctx context.Context) error {
	sel, err := c.promptSelector()
	if err != nil {
		return err
	}
	rec, err := c.st.FindBook(ctx, sel)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintln(c.out, "No matching book.")
		return nil
	}
	renderRecords(c.out, []domain.Record{*rec})

	yes, err := c.promptYesNo("Delete this book? [y/n]: ")
	if err != nil {
		return err
	}
	if !yes {
		fmt.Fprintln(c.out, "Kept.")
		return nil
	}
	deleted, err := c.st.DeleteBook(ctx, sel)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(c.out, "No matching book.")
		return nil
	}
	c.log.Info("book deleted", slog.String("selector", sel.String()))
	fmt.Fprintln(c.out, "Deleted.")
	return nil
}

func (c *clerk) searchBooks(ctx context.Context) error {
	query, err := c.prompt("Search (empty lists everything): ")
	if err != nil {
		return err
	}
	recs, err := c.st.SearchBooks(ctx, query)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(c.out, "No matches.")
		return nil
	}
	renderRecords(c.out, recs)
	return nil
}

// promptSelector asks for either the id or the title/author pair.
func (c *clerk) promptSelector() (store.Selector, error) {
	yes, err := c.promptYesNo("Do you know the book's id? [y/n]: ")
	if err != nil {
		return store.Selector{}, err
	}
	if yes {
		id, err := c.promptID("Id: ")
		if err != nil {
			return store.Selector{}, err
		}
		return store.ByID(id), nil
	}
	title, err := c.promptNonEmpty("Title: ")
	if err != nil {
		return store.Selector{}, err
	}
	author, err := c.promptNonEmpty("Author: ")
	if err != nil {
		return store.Selector{}, err
	}
	return store.ByTitleAuthor(title, author), nil
}

// prompt reads one trimmed line; io.EOF when input ends.
func (c *clerk) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *clerk) promptNonEmpty(label string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		v, err := c.prompt(label)
		if err != nil {
			return "", err
		}
		if v = domain.CollapseSpaces(v); v != "" {
			return v, nil
		}
		fmt.Fprintln(c.out, "A value is required.")
	}
	return "", errAborted
}

// promptCount reads a non-negative integer; zero is a valid stock level.
func (c *clerk) promptCount(label string) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		v, err := c.prompt(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(c.out, "Please enter a whole number of 0 or more.")
	}
	return 0, errAborted
}

func (c *clerk) promptID(label string) (int64, error) {
	for i := 0; i < maxAttempts; i++ {
		v, err := c.prompt(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintln(c.out, "Please enter a positive id.")
	}
	return 0, errAborted
}

func (c *clerk) promptYesNo(label string) (bool, error) {
	for i := 0; i < maxAttempts; i++ {
		v, err := c.prompt(label)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(v) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(c.out, "Please answer y or n.")
	}
	return false, errAborted
}

func (c *clerk) promptChoice(label string, options ...string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		v, err := c.prompt(label)
		if err != nil {
			return "", err
		}
		v = strings.ToLower(v)
		for _, opt := range options {
			if v == opt {
				return v, nil
			}
		}
		fmt.Fprintf(c.out, "Please choose one of: %s.\n", strings.Join(options, ", "))
	}
	return "", errAborted
}
