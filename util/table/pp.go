// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package table lays out rows of text as aligned tables for the command line
// tools.
package table

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
	"golang.org/x/text/unicode/norm"
)

// Options control how PrettyPrint lays out a table.
type Options int

const (
	// HeaderRow separates the first row from the rest with a divider.
	HeaderRow Options = 1 << iota
	// SkipEmpty writes nothing when the table has no rows besides the
	// header.
	SkipEmpty
	// RightJustify pads cells on the left instead of the right.
	RightJustify
)

// PrettyPrint writes the rows of 't' to 'dest' with each column padded to
// its widest cell. A cell may span several lines separated by \n. Rows with
// fewer cells than the first are padded with empty cells.
func PrettyPrint(dest io.Writer, t [][]string, opts Options) {
	body := len(t)
	if opts&HeaderRow != 0 {
		body--
	}
	if len(t) == 0 || (opts&SkipEmpty != 0 && body <= 0) {
		return
	}
	l := newLayout(t)
	w := bufio.NewWriterSize(dest, 256)
	defer w.Flush()
	for ridx, row := range l.rows {
		l.writeRow(w, row, opts)
		if ridx == 0 && opts&HeaderRow != 0 {
			l.writeDivider(w)
		}
	}
}

// layout holds the lines of every cell and the width of every column.
type layout struct {
	rows   [][][]string
	widths []int
}

func newLayout(t [][]string) *layout {
	l := &layout{
		rows:   make([][][]string, len(t)),
		widths: make([]int, len(t[0])),
	}
	for ridx, row := range t {
		cells := make([][]string, len(l.widths))
		for cidx := range cells {
			s := ""
			if cidx < len(row) {
				s = row[cidx]
			}
			cells[cidx] = strings.Split(s, "\n")
			for _, line := range cells[cidx] {
				l.widths[cidx] = cmp.MaxInt(l.widths[cidx], charsWide(line))
			}
		}
		l.rows[ridx] = cells
	}
	return l
}

func (l *layout) writeRow(w *bufio.Writer, cells [][]string, opts Options) {
	height := 0
	for _, lines := range cells {
		height = cmp.MaxInt(height, len(lines))
	}
	for i := 0; i < height; i++ {
		for cidx, lines := range cells {
			line := ""
			if i < len(lines) {
				line = lines[i]
			}
			pad := strings.Repeat(" ", l.widths[cidx]-charsWide(line))
			w.WriteByte(' ')
			if opts&RightJustify != 0 {
				w.WriteString(pad)
				w.WriteString(line)
			} else {
				w.WriteString(line)
				w.WriteString(pad)
			}
			w.WriteString(" |")
		}
		w.WriteByte('\n')
	}
}

func (l *layout) writeDivider(w *bufio.Writer) {
	for _, width := range l.widths {
		w.WriteByte(' ')
		w.WriteString(strings.Repeat("-", width))
		w.WriteString(" |")
	}
	w.WriteByte('\n')
}

// charsWide estimates how many terminal columns a string takes. Combining
// characters are composed first so that "e\u0301" counts once.
func charsWide(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
