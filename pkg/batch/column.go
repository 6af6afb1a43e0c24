package batch

import (
	"math"

	"github.com/pkg/errors"
)

// Column holds the values of one field.
type Column interface {
	Type() DataType
	Len() int
	// Gather returns a new column with the rows at given positions, in the given order.
	Gather(indices []int) Column
}

var (
	_ Column = Int32Column(nil)
	_ Column = Int64Column(nil)
	_ Column = Float64Column(nil)
	_ Column = &StructColumn{}
)

type Int32Column []int32

func (c Int32Column) Type() DataType { return Int32 }
func (c Int32Column) Len() int       { return len(c) }

func (c Int32Column) Gather(indices []int) Column {
	out := make(Int32Column, len(indices))
	for i, idx := range indices {
		out[i] = c[idx]
	}
	return out
}

type Int64Column []int64

func (c Int64Column) Type() DataType { return Int64 }
func (c Int64Column) Len() int       { return len(c) }

func (c Int64Column) Gather(indices []int) Column {
	out := make(Int64Column, len(indices))
	for i, idx := range indices {
		out[i] = c[idx]
	}
	return out
}

type Float64Column []float64

func (c Float64Column) Type() DataType { return Float64 }
func (c Float64Column) Len() int       { return len(c) }

func (c Float64Column) Gather(indices []int) Column {
	out := make(Float64Column, len(indices))
	for i, idx := range indices {
		out[i] = c[idx]
	}
	return out
}

// StructColumn groups child columns of equal length.
type StructColumn struct {
	Children []Column
	rows     int
}

// NewStructColumn creates struct column. All children must have rows values.
func NewStructColumn(rows int, children ...Column) (*StructColumn, error) {
	for i, c := range children {
		if c.Len() != rows {
			return nil, errors.Errorf("struct child %d has %d rows, expected %d", i, c.Len(), rows)
		}
	}
	return &StructColumn{Children: children, rows: rows}, nil
}

func (c *StructColumn) Type() DataType { return Struct }
func (c *StructColumn) Len() int       { return c.rows }

func (c *StructColumn) Gather(indices []int) Column {
	children := make([]Column, len(c.Children))
	for i, ch := range c.Children {
		children[i] = ch.Gather(indices)
	}
	return &StructColumn{Children: children, rows: len(indices)}
}

// NewColumn creates empty primitive column of given type with capacity.
func NewColumn(t DataType, capacity int) (Column, error) {
	switch t {
	case Int32:
		return make(Int32Column, 0, capacity), nil
	case Int64:
		return make(Int64Column, 0, capacity), nil
	case Float64:
		return make(Float64Column, 0, capacity), nil
	default:
		return nil, errors.Errorf("no primitive column for type %q", t)
	}
}

// ConcatColumns appends columns of the same type into one.
func ConcatColumns(cols ...Column) (Column, error) {
	if len(cols) == 0 {
		return nil, errors.New("nothing to concat")
	}
	switch first := cols[0].(type) {
	case Int32Column:
		out := make(Int32Column, 0, totalLen(cols))
		for _, c := range cols {
			v, ok := c.(Int32Column)
			if !ok {
				return nil, errors.Errorf("concat: mixed types %s and %s", first.Type(), c.Type())
			}
			out = append(out, v...)
		}
		return out, nil
	case Int64Column:
		out := make(Int64Column, 0, totalLen(cols))
		for _, c := range cols {
			v, ok := c.(Int64Column)
			if !ok {
				return nil, errors.Errorf("concat: mixed types %s and %s", first.Type(), c.Type())
			}
			out = append(out, v...)
		}
		return out, nil
	case Float64Column:
		out := make(Float64Column, 0, totalLen(cols))
		for _, c := range cols {
			v, ok := c.(Float64Column)
			if !ok {
				return nil, errors.Errorf("concat: mixed types %s and %s", first.Type(), c.Type())
			}
			out = append(out, v...)
		}
		return out, nil
	case *StructColumn:
		children := make([]Column, len(first.Children))
		for i := range first.Children {
			parts := make([]Column, 0, len(cols))
			for _, c := range cols {
				v, ok := c.(*StructColumn)
				if !ok {
					return nil, errors.Errorf("concat: mixed types %s and %s", first.Type(), c.Type())
				}
				if len(v.Children) != len(first.Children) {
					return nil, errors.Errorf("concat: struct with %d children, expected %d", len(v.Children), len(first.Children))
				}
				parts = append(parts, v.Children[i])
			}
			merged, err := ConcatColumns(parts...)
			if err != nil {
				return nil, errors.Wrapf(err, "struct child %d", i)
			}
			children[i] = merged
		}
		return &StructColumn{Children: children, rows: totalLen(cols)}, nil
	default:
		return nil, errors.Errorf("concat: unsupported column %T", first)
	}
}

func totalLen(cols []Column) int {
	n := 0
	for _, c := range cols {
		n += c.Len()
	}
	return n
}

// ValueEqual compares row i of a with row j of b. Floating point values compare by bits, so NaN equals itself.
func ValueEqual(a Column, i int, b Column, j int) bool {
	switch av := a.(type) {
	case Int32Column:
		bv, ok := b.(Int32Column)
		return ok && av[i] == bv[j]
	case Int64Column:
		bv, ok := b.(Int64Column)
		return ok && av[i] == bv[j]
	case Float64Column:
		bv, ok := b.(Float64Column)
		return ok && math.Float64bits(av[i]) == math.Float64bits(bv[j])
	case *StructColumn:
		bv, ok := b.(*StructColumn)
		if !ok || len(av.Children) != len(bv.Children) {
			return false
		}
		for k := range av.Children {
			if !ValueEqual(av.Children[k], i, bv.Children[k], j) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
