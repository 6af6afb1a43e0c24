// Package backend writes record batches into columnar files kept in an object store and reads them back,
// either fully or by row positions.
//
// Two physical formats are provided. Columnar applies one encoding hint to every field of the batch
// and lets the file engine translate it into page encodings. Reference writes files with engine defaults
// and snappy compressed pages and serves as the baseline.
package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/thanos-io/colbench/pkg/batch"
)

// CompressionMetaKey is the field metadata key carrying the encoding hint.
const CompressionMetaKey = "compression"

// ReadBatchSize is the maximum number of rows in a single batch returned by Read.
const ReadBatchSize = 1024

// Backend is one storage engine able to write, scan and take rows of a batch.
type Backend interface {
	Name() string
	// Write serialises b into a new object. The object stays until released through the store.
	Write(ctx context.Context, b *batch.Batch) (Handle, error)
	// Read returns all rows of the object in batches of at most ReadBatchSize rows.
	Read(ctx context.Context, h Handle) ([]*batch.Batch, error)
	// Take returns rows at given positions, in the order of indices.
	Take(ctx context.Context, h Handle, indices []int) (*batch.Batch, error)
}

// Handle refers to a written object.
type Handle struct {
	// Name of the object within the store.
	Name string
	// URI is mem://<name> for memory store or an absolute path for file store.
	URI    string
	Size   int64
	Digest uint64
}

func (h Handle) String() string {
	return fmt.Sprintf("%s (%d bytes, xxhash %016x)", h.URI, h.Size, h.Digest)
}

// Hint is an encoding strategy requested from the columnar engine.
type Hint string

const (
	// Bitpacking asks for delta bit-packed integers. Floating point values stay plain.
	Bitpacking Hint = "bitpacking"
	// RLE asks for dictionary indexes stored in the RLE/bit-packed hybrid.
	RLE Hint = "rle"
)

const (
	ColumnarBitpackingName = "columnar-bitpacking"
	ColumnarRLEName        = "columnar-rle"
	ReferenceName          = "parquet"
)

type factory func(s *Store) Backend

var factories = map[string]factory{
	ColumnarBitpackingName: func(s *Store) Backend { return NewColumnar(s, Bitpacking) },
	ColumnarRLEName:        func(s *Store) Backend { return NewColumnar(s, RLE) },
	ReferenceName:          func(s *Store) Backend { return NewReference(s) },
}

// Names returns all known backend names in their default declaration order.
func Names() []string {
	return []string{ColumnarBitpackingName, ColumnarRLEName, ReferenceName}
}

// New creates backend by name on top of store.
func New(name string, s *Store) (Backend, error) {
	f, ok := factories[name]
	if !ok {
		known := make([]string, 0, len(factories))
		for k := range factories {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, errors.Errorf("unknown backend %q, expected one of %v", name, known)
	}
	return f(s), nil
}

// NewAll creates backends with given names, in that order.
func NewAll(names []string, s *Store) ([]Backend, error) {
	out := make([]Backend, 0, len(names))
	for _, n := range names {
		b, err := New(n, s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
