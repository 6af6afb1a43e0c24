// Package batch provides the in-memory columnar record batch exchanged between
// data generators and storage backends.
//
// A Batch pairs a Schema with one Column per top-level field. Struct fields are
// represented by StructColumn with one child per struct member. All columns of
// a batch, including struct children, share the same row count.
package batch

import (
	"github.com/pkg/errors"
)

// Batch is a schema with equal length columns.
type Batch struct {
	schema  Schema
	columns []Column
	rows    int
}

// New creates a batch, validating that the columns match the schema.
func New(schema Schema, columns ...Column) (*Batch, error) {
	if err := schema.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}
	if len(schema.Fields) != len(columns) {
		return nil, errors.Errorf("schema has %d fields, got %d columns", len(schema.Fields), len(columns))
	}

	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	if err := checkColumns(schema.Fields, columns, rows, ""); err != nil {
		return nil, err
	}
	return &Batch{schema: schema, columns: columns, rows: rows}, nil
}

// MustNew is like New but panics on error. Use it only where the schema is built by code.
func MustNew(schema Schema, columns ...Column) *Batch {
	b, err := New(schema, columns...)
	if err != nil {
		panic(err)
	}
	return b
}

func checkColumns(fields []Field, columns []Column, rows int, prefix string) error {
	for i, f := range fields {
		c := columns[i]
		if c.Type() != f.Type {
			return errors.Errorf("column %q: schema type %s, column type %s", prefix+f.Name, f.Type, c.Type())
		}
		if c.Len() != rows {
			return errors.Errorf("column %q: %d rows, expected %d", prefix+f.Name, c.Len(), rows)
		}
		if f.Type != Struct {
			continue
		}
		sc := c.(*StructColumn)
		if len(sc.Children) != len(f.Children) {
			return errors.Errorf("column %q: %d children, schema has %d", prefix+f.Name, len(sc.Children), len(f.Children))
		}
		if err := checkColumns(f.Children, sc.Children, rows, prefix+f.Name+"."); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) Schema() Schema { return b.schema }

func (b *Batch) Columns() []Column { return b.columns }

func (b *Batch) NumRows() int { return b.rows }

// Column returns the top-level column by name.
func (b *Batch) Column(name string) (Column, bool) {
	for i, f := range b.schema.Fields {
		if f.Name == name {
			return b.columns[i], true
		}
	}
	return nil, false
}

// NativeSize returns the uncompressed size of the batch.
func (b *Batch) NativeSize() int64 { return b.schema.NativeSize(b.rows) }

// WithSchema returns the same columns under another schema, for example one carrying extra metadata.
func (b *Batch) WithSchema(schema Schema) (*Batch, error) {
	return New(schema, b.columns...)
}

// Take gathers rows at indices on every column. Indices must be within [0, NumRows).
func (b *Batch) Take(indices []int) (*Batch, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= b.rows {
			return nil, errors.Errorf("index %d out of range [0, %d)", idx, b.rows)
		}
	}
	columns := make([]Column, len(b.columns))
	for i, c := range b.columns {
		columns[i] = c.Gather(indices)
	}
	return &Batch{schema: b.schema, columns: columns, rows: len(indices)}, nil
}

// LeafColumns returns primitive columns in the same order as Schema.Leaves.
func (b *Batch) LeafColumns() []Column {
	var out []Column
	var walk func(cols []Column)
	walk = func(cols []Column) {
		for _, c := range cols {
			if sc, ok := c.(*StructColumn); ok {
				walk(sc.Children)
				continue
			}
			out = append(out, c)
		}
	}
	walk(b.columns)
	return out
}

// FromLeaves rebuilds a batch from primitive columns ordered as schema.Leaves.
func FromLeaves(schema Schema, leaves []Column) (*Batch, error) {
	rest := leaves
	var build func(fields []Field) ([]Column, error)
	build = func(fields []Field) ([]Column, error) {
		cols := make([]Column, 0, len(fields))
		for _, f := range fields {
			if f.Type != Struct {
				if len(rest) == 0 {
					return nil, errors.Errorf("not enough leaf columns for field %q", f.Name)
				}
				cols = append(cols, rest[0])
				rest = rest[1:]
				continue
			}
			children, err := build(f.Children)
			if err != nil {
				return nil, err
			}
			rows := 0
			if len(children) > 0 {
				rows = children[0].Len()
			}
			sc, err := NewStructColumn(rows, children...)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", f.Name)
			}
			cols = append(cols, sc)
		}
		return cols, nil
	}

	cols, err := build(schema.Fields)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.Errorf("%d leaf columns left unused", len(rest))
	}
	return New(schema, cols...)
}

// Concat joins batches with equal schemas.
func Concat(batches ...*Batch) (*Batch, error) {
	if len(batches) == 0 {
		return nil, errors.New("nothing to concat")
	}
	if len(batches) == 1 {
		return batches[0], nil
	}

	schema := batches[0].schema
	columns := make([]Column, len(batches[0].columns))
	for i := range columns {
		parts := make([]Column, 0, len(batches))
		for _, b := range batches {
			if !b.schema.Equal(schema) {
				return nil, errors.New("concat: schemas differ")
			}
			parts = append(parts, b.columns[i])
		}
		c, err := ConcatColumns(parts...)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", schema.Fields[i].Name)
		}
		columns[i] = c
	}
	return New(schema, columns...)
}

// RowEqual compares row i of a with row j of b across all columns.
func RowEqual(a *Batch, i int, b *Batch, j int) bool {
	if len(a.columns) != len(b.columns) {
		return false
	}
	for k := range a.columns {
		if !ValueEqual(a.columns[k], i, b.columns[k], j) {
			return false
		}
	}
	return true
}

// Equal reports whether both batches have equal schemas and rows.
func Equal(a, b *Batch) bool {
	if !a.schema.Equal(b.schema) || a.rows != b.rows {
		return false
	}
	for i := 0; i < a.rows; i++ {
		if !RowEqual(a, i, b, i) {
			return false
		}
	}
	return true
}
