package extraction

import (
	"fmt"
	"strings"
)

// Frame is an in-memory table of string cells. Every row has one cell per
// column; an empty cell is a missing value.
type Frame struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewFrame creates an empty frame with the given columns
func NewFrame(columns []string) *Frame {
	f := &Frame{Columns: columns}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, exists := f.index[c]; !exists {
			f.index[c] = i
		}
	}
}

// ColumnIndex returns the position of column name, or -1 if absent
func (f *Frame) ColumnIndex(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

// AppendRow adds a row, padding or truncating it to the column count
func (f *Frame) AppendRow(row []string) {
	switch {
	case len(row) < len(f.Columns):
		padded := make([]string, len(f.Columns))
		copy(padded, row)
		row = padded
	case len(row) > len(f.Columns):
		row = row[:len(f.Columns)]
	}
	f.Rows = append(f.Rows, row)
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// LeftJoin joins right onto f by key. Each left row is repeated once per
// matching right row and kept once with empty right cells when nothing
// matches. Right columns whose name already exists on the left are dropped.
// Empty keys never match.
func (f *Frame) LeftJoin(right *Frame, key string) (*Frame, error) {
	li := f.ColumnIndex(key)
	if li < 0 {
		return nil, fmt.Errorf("left frame has no %s column", key)
	}
	ri := right.ColumnIndex(key)
	if ri < 0 {
		return nil, fmt.Errorf("right frame has no %s column", key)
	}

	columns := append([]string{}, f.Columns...)
	var take []int
	for i, c := range right.Columns {
		if i == ri || f.ColumnIndex(c) >= 0 {
			continue
		}
		take = append(take, i)
		columns = append(columns, c)
	}

	byKey := make(map[string][]int)
	for i, row := range right.Rows {
		if row[ri] == "" {
			continue
		}
		byKey[row[ri]] = append(byKey[row[ri]], i)
	}

	out := NewFrame(columns)
	width := len(f.Columns)
	for _, row := range f.Rows {
		matches := byKey[row[li]]
		if row[li] == "" || len(matches) == 0 {
			joined := make([]string, len(columns))
			copy(joined, row)
			out.Rows = append(out.Rows, joined)
			continue
		}
		for _, m := range matches {
			joined := make([]string, len(columns))
			copy(joined, row)
			for j, idx := range take {
				joined[width+j] = right.Rows[m][idx]
			}
			out.Rows = append(out.Rows, joined)
		}
	}
	return out, nil
}

// WithConstant sets column name to value on every row, adding the column if needed
func (f *Frame) WithConstant(name, value string) {
	i := f.ColumnIndex(name)
	if i < 0 {
		f.Columns = append(f.Columns, name)
		f.reindex()
		for r := range f.Rows {
			f.Rows[r] = append(f.Rows[r], value)
		}
		return
	}
	for r := range f.Rows {
		f.Rows[r][i] = value
	}
}

// DropDuplicates removes rows identical in every cell, keeping the first
// occurrence. It returns the number of rows removed.
func (f *Frame) DropDuplicates() int {
	seen := make(map[string]struct{}, len(f.Rows))
	kept := f.Rows[:0]
	for _, row := range f.Rows {
		key := strings.Join(row, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	removed := len(f.Rows) - len(kept)
	f.Rows = kept
	return removed
}

// DropMissing removes rows with an empty cell in any of the named columns.
// Every column must exist.
func (f *Frame) DropMissing(columns ...string) (int, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = f.ColumnIndex(c)
		if idx[i] < 0 {
			return 0, fmt.Errorf("required column %s is missing", c)
		}
	}

	kept := f.Rows[:0]
	for _, row := range f.Rows {
		complete := true
		for _, i := range idx {
			if strings.TrimSpace(row[i]) == "" {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, row)
		}
	}
	removed := len(f.Rows) - len(kept)
	f.Rows = kept
	return removed, nil
}

// DropColumns removes the named columns. Absent columns are ignored.
func (f *Frame) DropColumns(columns ...string) {
	drop := make(map[int]bool)
	for _, c := range columns {
		if i := f.ColumnIndex(c); i >= 0 {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	keep := make([]int, 0, len(f.Columns)-len(drop))
	names := make([]string, 0, len(f.Columns)-len(drop))
	for i, c := range f.Columns {
		if !drop[i] {
			keep = append(keep, i)
			names = append(names, c)
		}
	}
	for r, row := range f.Rows {
		trimmed := make([]string, len(keep))
		for j, i := range keep {
			trimmed[j] = row[i]
		}
		f.Rows[r] = trimmed
	}
	f.Columns = names
	f.reindex()
}
