package backend

import (
	"context"
	"io"
	"sort"

	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/encoding"
	"github.com/pkg/errors"

	"github.com/thanos-io/colbench/pkg/batch"
)

// Columnar attaches its hint to every field of written batches. Files keep page indexes, so Take seeks
// directly to requested rows.
type Columnar struct {
	store *Store
	hint  Hint
}

// NewColumnar creates columnar backend writing with given hint.
func NewColumnar(s *Store, hint Hint) *Columnar {
	return &Columnar{store: s, hint: hint}
}

func (c *Columnar) Name() string { return "columnar-" + string(c.hint) }

func (c *Columnar) Hint() Hint { return c.hint }

func (c *Columnar) Write(ctx context.Context, b *batch.Batch) (Handle, error) {
	hinted, err := b.WithSchema(b.Schema().WithMetadata(CompressionMetaKey, string(c.hint)))
	if err != nil {
		return Handle{}, errors.Wrap(err, "attach hint")
	}

	data, err := encodeFile(hinted, fileOptions{
		compression: &parquet.Uncompressed,
		encodingFor: hintEncoding,
	})
	if err != nil {
		return Handle{}, errors.Wrapf(err, "%s: encode", c.Name())
	}

	h, err := c.store.Put(ctx, c.Name(), fileExt, data)
	if err != nil {
		return Handle{}, err
	}
	level.Debug(c.store.logger).Log("msg", "written", "backend", c.Name(), "object", h.URI, "bytes", h.Size, "rows", b.NumRows())
	return h, nil
}

// hintEncoding maps the compression hint of a leaf onto a page encoding.
func hintEncoding(l batch.Leaf) encoding.Encoding {
	switch Hint(l.Metadata[CompressionMetaKey]) {
	case Bitpacking:
		if l.Type == batch.Int32 || l.Type == batch.Int64 {
			return &parquet.DeltaBinaryPacked
		}
	case RLE:
		return &parquet.RLEDictionary
	}
	return nil
}

func (c *Columnar) Read(ctx context.Context, h Handle) ([]*batch.Batch, error) {
	f, err := openFile(ctx, c.store, h)
	if err != nil {
		return nil, err
	}
	return f.readAll(ctx)
}

func (c *Columnar) Take(ctx context.Context, h Handle, indices []int) (*batch.Batch, error) {
	f, err := openFile(ctx, c.store, h)
	if err != nil {
		return nil, err
	}
	if err := checkIndices(indices, f.NumRows()); err != nil {
		return nil, err
	}

	// Rows are fetched once each, in file order, then arranged as requested.
	positions := append([]int(nil), indices...)
	sort.Ints(positions)
	positions = dedup(positions)

	r := parquet.NewReader(f.File)
	defer r.Close()

	rows := make([]parquet.Row, len(positions))
	for i, pos := range positions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.SeekToRow(int64(pos)); err != nil {
			return nil, errors.Wrapf(err, "seek to row %d", pos)
		}
		n, err := r.ReadRows(rows[i : i+1])
		if n == 1 {
			continue
		}
		if err == nil || err == io.EOF {
			err = errors.New("no row returned")
		}
		return nil, errors.Wrapf(err, "read row %d", pos)
	}

	fetched, err := f.decodeRows(rows)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(indices))
	for k, idx := range indices {
		order[k] = sort.SearchInts(positions, idx)
	}
	return fetched.Take(order)
}

func dedup(sorted []int) []int {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
