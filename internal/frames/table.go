// Package frames holds the per-frame telemetry table produced by the replay
// analyzer and its compressed on-disk encoding.
package frames

import (
	"fmt"
	"math"
	"sort"
)

// Column identifies a series: the group is "ball", "game" or a player name.
type Column struct {
	Group string
	Field string
}

func (c Column) String() string {
	return c.Group + "." + c.Field
}

// Table is a column-oriented set of float series that all share one row per
// captured frame. Missing samples are NaN.
type Table struct {
	rows    int
	columns map[Column][]float64
}

// NewTable creates an empty table with a fixed row count.
func NewTable(rows int) *Table {
	return &Table{
		rows:    rows,
		columns: make(map[Column][]float64),
	}
}

// Len returns the number of frames.
func (t *Table) Len() int {
	return t.rows
}

// Set stores a series. The series must have one value per frame.
func (t *Table) Set(group, field string, values []float64) error {
	if len(values) != t.rows {
		return fmt.Errorf("column %s.%s has %d values, table has %d rows", group, field, len(values), t.rows)
	}
	t.columns[Column{Group: group, Field: field}] = values
	return nil
}

// Get returns a series and whether it exists.
func (t *Table) Get(group, field string) ([]float64, bool) {
	values, ok := t.columns[Column{Group: group, Field: field}]
	return values, ok
}

// HasGroup reports whether any column belongs to group.
func (t *Table) HasGroup(group string) bool {
	for col := range t.columns {
		if col.Group == group {
			return true
		}
	}
	return false
}

// Columns returns all columns sorted by group then field.
func (t *Table) Columns() []Column {
	cols := make([]Column, 0, len(t.columns))
	for col := range t.columns {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Group != cols[j].Group {
			return cols[i].Group < cols[j].Group
		}
		return cols[i].Field < cols[j].Field
	})
	return cols
}

// Rows returns one row per frame holding the requested fields of group in
// order, with NaN replaced by fill.
func (t *Table) Rows(group string, fields []string, fill float64) ([][]float64, error) {
	series := make([][]float64, len(fields))
	for i, field := range fields {
		values, ok := t.Get(group, field)
		if !ok {
			return nil, fmt.Errorf("missing column %s.%s", group, field)
		}
		series[i] = values
	}

	out := make([][]float64, t.rows)
	for r := 0; r < t.rows; r++ {
		row := make([]float64, len(fields))
		for i := range fields {
			v := series[i][r]
			if math.IsNaN(v) {
				v = fill
			}
			row[i] = v
		}
		out[r] = row
	}
	return out, nil
}

// Map returns a copy of the table where fn has been applied to the listed
// fields of group. NaN values stay NaN.
func (t *Table) Map(group string, fields []string, fn func(float64) float64) (*Table, error) {
	out := t.clone()
	for _, field := range fields {
		values, ok := t.Get(group, field)
		if !ok {
			return nil, fmt.Errorf("missing column %s.%s", group, field)
		}
		mapped := make([]float64, len(values))
		for i, v := range values {
			if math.IsNaN(v) {
				mapped[i] = v
				continue
			}
			mapped[i] = fn(v)
		}
		out.columns[Column{Group: group, Field: field}] = mapped
	}
	return out, nil
}

func (t *Table) clone() *Table {
	out := NewTable(t.rows)
	for col, values := range t.columns {
		out.columns[col] = values
	}
	return out
}
