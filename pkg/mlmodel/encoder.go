package mlmodel

import (
	"fmt"
	"sort"
)

// OneHotEncoder expands categorical columns into indicator features. Values
// not seen during Fit encode as all zeros.
type OneHotEncoder struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"` // sorted, one list per column
}

// NewOneHotEncoder creates an unfitted encoder for the named columns
func NewOneHotEncoder(columns ...string) *OneHotEncoder {
	return &OneHotEncoder{Columns: columns}
}

// Fit learns the sorted category set of each column. Each row holds one value
// per column.
func (e *OneHotEncoder) Fit(rows [][]string) error {
	sets := make([]map[string]struct{}, len(e.Columns))
	for i := range sets {
		sets[i] = make(map[string]struct{})
	}
	for r, row := range rows {
		if len(row) != len(e.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(e.Columns))
		}
		for i, v := range row {
			sets[i][v] = struct{}{}
		}
	}

	e.Categories = make([][]string, len(e.Columns))
	for i, set := range sets {
		cats := make([]string, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[i] = cats
	}
	return nil
}

// Width returns the number of indicator features produced
func (e *OneHotEncoder) Width() int {
	n := 0
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform appends the indicator features of values to dst
func (e *OneHotEncoder) Transform(dst []float64, values []string) []float64 {
	for i, cats := range e.Categories {
		pos := sort.SearchStrings(cats, values[i])
		for j := range cats {
			if j == pos && cats[j] == values[i] {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		}
	}
	return dst
}

// FeatureNames returns COLUMN_value names in Transform order
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for i, cats := range e.Categories {
		for _, c := range cats {
			names = append(names, e.Columns[i]+"_"+c)
		}
	}
	return names
}

func (e *OneHotEncoder) validate() error {
	if len(e.Categories) != len(e.Columns) {
		return fmt.Errorf("encoder has %d category lists for %d columns", len(e.Categories), len(e.Columns))
	}
	for i, cats := range e.Categories {
		if !sort.StringsAreSorted(cats) {
			return fmt.Errorf("categories of %s are not sorted", e.Columns[i])
		}
	}
	return nil
}
