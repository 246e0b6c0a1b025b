/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"bookstore/internal/domain"
)

// renderRecords prints records as an aligned table. Plain text only; escape
// sequences would throw off the column widths.
func renderRecords(w io.Writer, recs []domain.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tQTY")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", r.ID, r.Title, r.Author, r.Qty)
	}
	_ = tw.Flush()
}
