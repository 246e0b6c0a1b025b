/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package seed reads predefined inventory records from a CSV file of
// id,title,author,qty rows. The records are handed to the store at creation
// with ignore-on-duplicate semantics.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bookstore/internal/domain"
	"bookstore/internal/store"
)

// ReadFile parses the CSV file at path. A first row whose id column is not
// numeric is treated as a header and skipped; any other malformed row fails
// with its line number.
func ReadFile(path string) ([]store.SeedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()
	recs, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("records file %s: %w", path, err)
	}
	return recs, nil
}

func parse(r io.Reader) ([]store.SeedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var out []store.SeedRecord
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: invalid id %q", line, row[0])
		}
		qty, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity %q", line, row[3])
		}
		title := domain.CollapseSpaces(row[1])
		author := domain.CollapseSpaces(row[2])
		if title == "" || author == "" {
			return nil, fmt.Errorf("line %d: empty title or author", line)
		}
		if qty < 0 {
			return nil, fmt.Errorf("line %d: negative quantity %d", line, qty)
		}
		out = append(out, store.SeedRecord{ID: id, Title: title, Author: author, Qty: qty})
	}
	return out, nil
}
