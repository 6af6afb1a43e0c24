package backend

import (
	"context"

	"github.com/go-kit/log/level"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/thanos-io/colbench/pkg/batch"
)

// Reference writes snappy compressed files with engine default encodings and no hints. It has no
// random access path: Take scans the whole file and gathers requested rows.
type Reference struct {
	store *Store
}

func NewReference(s *Store) *Reference {
	return &Reference{store: s}
}

func (r *Reference) Name() string { return ReferenceName }

func (r *Reference) Write(ctx context.Context, b *batch.Batch) (Handle, error) {
	data, err := encodeFile(b, fileOptions{compression: &parquet.Snappy})
	if err != nil {
		return Handle{}, errors.Wrapf(err, "%s: encode", r.Name())
	}

	h, err := r.store.Put(ctx, r.Name(), fileExt, data)
	if err != nil {
		return Handle{}, err
	}
	level.Debug(r.store.logger).Log("msg", "written", "backend", r.Name(), "object", h.URI, "bytes", h.Size, "rows", b.NumRows())
	return h, nil
}

func (r *Reference) Read(ctx context.Context, h Handle) ([]*batch.Batch, error) {
	f, err := openFile(ctx, r.store, h, parquet.SkipPageIndex(true), parquet.SkipBloomFilters(true))
	if err != nil {
		return nil, err
	}
	return f.readAll(ctx)
}

func (r *Reference) Take(ctx context.Context, h Handle, indices []int) (*batch.Batch, error) {
	batches, err := r.Read(ctx, h)
	if err != nil {
		return nil, err
	}
	all, err := batch.Concat(batches...)
	if err != nil {
		return nil, errors.Wrap(err, "concat")
	}
	return all.Take(indices)
}
