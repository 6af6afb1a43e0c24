package backend

import (
	"bytes"
	"context"
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/encoding"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/thanos-io/colbench/pkg/batch"
)

const (
	// schemaMetaKey holds the batch schema in file key/value metadata. Parquet groups order their
	// fields by name and have no per field metadata, so the declared order and hints are restored from it.
	schemaMetaKey = "colbench.schema"

	fileExt        = ".parquet"
	readBufferSize = 1 << 20
	// Upper bound of values held by row buffers while writing.
	writeChunkValues = 1 << 20
)

// fileOptions controls how a batch becomes a file.
type fileOptions struct {
	compression compress.Codec
	// encodingFor returns page encoding of a leaf or nil for the engine default.
	encodingFor func(l batch.Leaf) encoding.Encoding
}

// layout maps schema leaves onto file columns.
type layout struct {
	schema  batch.Schema
	leaves  []batch.Leaf
	columns []int
	// width is the number of file columns, equal to the number of leaves.
	width int
}

func newLayout(s batch.Schema, ps *parquet.Schema) (*layout, error) {
	l := &layout{schema: s, leaves: s.Leaves(), width: len(ps.Columns())}
	if l.width != len(l.leaves) {
		return nil, errors.Errorf("file has %d columns, schema %d leaves", l.width, len(l.leaves))
	}

	l.columns = make([]int, len(l.leaves))
	for i, leaf := range l.leaves {
		lc, ok := ps.Lookup(leaf.Path...)
		if !ok {
			return nil, errors.Errorf("column %s not found in file schema", leaf)
		}
		l.columns[i] = lc.ColumnIndex
	}
	return l, nil
}

func parquetSchema(s batch.Schema, encodingFor func(batch.Leaf) encoding.Encoding) *parquet.Schema {
	var group func(fields []batch.Field, prefix []string) parquet.Group
	group = func(fields []batch.Field, prefix []string) parquet.Group {
		g := make(parquet.Group, len(fields))
		for _, f := range fields {
			path := append(append([]string(nil), prefix...), f.Name)
			if f.Type == batch.Struct {
				g[f.Name] = group(f.Children, path)
				continue
			}

			node := parquet.Leaf(parquetType(f.Type))
			if encodingFor != nil {
				if enc := encodingFor(batch.Leaf{Path: path, Type: f.Type, Metadata: f.Metadata}); enc != nil {
					node = parquet.Encoded(node, enc)
				}
			}
			g[f.Name] = node
		}
		return g
	}
	return parquet.NewSchema("batch", group(s.Fields, nil))
}

func parquetType(t batch.DataType) parquet.Type {
	switch t {
	case batch.Int32:
		return parquet.Int32Type
	case batch.Int64:
		return parquet.Int64Type
	case batch.Float64:
		return parquet.DoubleType
	default:
		panic("no parquet type for " + string(t))
	}
}

// encodeFile serialises b into a single parquet file.
func encodeFile(b *batch.Batch, opts fileOptions) ([]byte, error) {
	schemaYAML, err := yaml.Marshal(b.Schema())
	if err != nil {
		return nil, errors.Wrap(err, "marshal schema")
	}

	ps := parquetSchema(b.Schema(), opts.encodingFor)
	l, err := newLayout(b.Schema(), ps)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w := parquet.NewWriter(buf,
		ps,
		parquet.Compression(opts.compression),
		parquet.KeyValueMetadata(schemaMetaKey, string(schemaYAML)),
	)

	leafCols := b.LeafColumns()
	chunk := writeChunkValues / l.width
	if chunk < 1 {
		chunk = 1
	}
	rows := make([]parquet.Row, 0, chunk)
	for start := 0; start < b.NumRows(); start += chunk {
		end := start + chunk
		if end > b.NumRows() {
			end = b.NumRows()
		}

		rows = rows[:0]
		for r := start; r < end; r++ {
			row := make(parquet.Row, l.width)
			for i, c := range leafCols {
				ci := l.columns[i]
				row[ci] = leafValue(c, r).Level(0, 0, ci)
			}
			rows = append(rows, row)
		}
		if _, err := w.WriteRows(rows); err != nil {
			return nil, errors.Wrapf(err, "write rows [%d, %d)", start, end)
		}
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close writer")
	}
	return buf.Bytes(), nil
}

func leafValue(c batch.Column, row int) parquet.Value {
	switch c := c.(type) {
	case batch.Int32Column:
		return parquet.Int32Value(c[row])
	case batch.Int64Column:
		return parquet.Int64Value(c[row])
	case batch.Float64Column:
		return parquet.DoubleValue(c[row])
	default:
		panic("not a leaf column")
	}
}

// file is an opened parquet object with the batch schema restored.
type file struct {
	*parquet.File
	layout *layout
}

func openFile(ctx context.Context, s *Store, h Handle, opts ...parquet.FileOption) (*file, error) {
	opts = append([]parquet.FileOption{parquet.ReadBufferSize(readBufferSize)}, opts...)
	f, err := parquet.OpenFile(s.ReaderAt(ctx, h), h.Size, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", h.URI)
	}

	raw, ok := f.Lookup(schemaMetaKey)
	if !ok {
		return nil, errors.Errorf("%s: no %s metadata", h.URI, schemaMetaKey)
	}
	var schema batch.Schema
	if err := yaml.UnmarshalStrict([]byte(raw), &schema); err != nil {
		return nil, errors.Wrapf(err, "%s: decode schema", h.URI)
	}
	if err := schema.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s: stored schema", h.URI)
	}

	l, err := newLayout(schema, f.Schema())
	if err != nil {
		return nil, errors.Wrap(err, h.URI)
	}
	return &file{File: f, layout: l}, nil
}

// decodeRows turns full rows read from the file into a batch.
func (f *file) decodeRows(rows []parquet.Row) (*batch.Batch, error) {
	l := f.layout
	for r, row := range rows {
		if len(row) != l.width {
			return nil, errors.Errorf("row %d has %d values, expected %d", r, len(row), l.width)
		}
	}

	cols := make([]batch.Column, len(l.leaves))
	for i, leaf := range l.leaves {
		ci := l.columns[i]
		switch leaf.Type {
		case batch.Int32:
			c := make(batch.Int32Column, len(rows))
			for r, row := range rows {
				c[r] = row[ci].Int32()
			}
			cols[i] = c
		case batch.Int64:
			c := make(batch.Int64Column, len(rows))
			for r, row := range rows {
				c[r] = row[ci].Int64()
			}
			cols[i] = c
		case batch.Float64:
			c := make(batch.Float64Column, len(rows))
			for r, row := range rows {
				c[r] = row[ci].Double()
			}
			cols[i] = c
		default:
			return nil, errors.Errorf("unsupported leaf type %s", leaf.Type)
		}
	}
	return batch.FromLeaves(l.schema, cols)
}

// readAll scans the whole file in batches of at most ReadBatchSize rows.
func (f *file) readAll(ctx context.Context) ([]*batch.Batch, error) {
	r := parquet.NewReader(f.File)
	defer r.Close()

	var (
		out  []*batch.Batch
		rows = make([]parquet.Row, ReadBatchSize)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.ReadRows(rows)
		if n > 0 {
			b, derr := f.decodeRows(rows[:n])
			if derr != nil {
				return nil, derr
			}
			out = append(out, b)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read rows")
		}
	}

	if len(out) == 0 {
		// Keep the schema visible to callers of empty files.
		b, err := f.decodeRows(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func checkIndices(indices []int, rows int64) error {
	for _, idx := range indices {
		if idx < 0 || int64(idx) >= rows {
			return errors.Errorf("index %d out of range [0, %d)", idx, rows)
		}
	}
	return nil
}
