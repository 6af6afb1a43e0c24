// Package benchrun drives trials of generated datasets through storage backends and collects sizes and timings.
//
// Trials run strictly one after another on a single goroutine. Every dataset and every index set is produced
// by a fresh generator seeded with datagen.DefaultSeed, so stored sizes are identical between runs.
package benchrun

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/thanos-io/colbench/pkg/backend"
	"github.com/thanos-io/colbench/pkg/batch"
	"github.com/thanos-io/colbench/pkg/report"
)

// Op is a measured backend operation.
type Op string

const (
	OpWrite Op = "write"
	OpRead  Op = "read"
	OpTake  Op = "take"
)

// Result is the outcome of one operation of one backend on one trial.
type Result struct {
	report.Measurement

	// Digest is the xxhash of the stored object.
	Digest uint64
}

// Measurements strips results down to what reports need.
func Measurements(rs []Result) []report.Measurement {
	out := make([]report.Measurement, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Measurement)
	}
	return out
}

// Ratio is the compression ratio of original bytes stored as written bytes.
func Ratio(original, written int64) (float64, error) {
	if written <= 0 {
		return 0, errors.Errorf("written size must be positive, got %d", written)
	}
	return float64(original) / float64(written), nil
}

// Runner executes trials against backends sharing one store.
type Runner struct {
	logger     log.Logger
	store      *backend.Store
	backends   []backend.Backend
	iterations int
}

// NewRunner creates runner. Every timed operation is repeated iterations times and the mean is reported.
func NewRunner(logger log.Logger, store *backend.Store, backends []backend.Backend, iterations int) *Runner {
	if iterations < 1 {
		iterations = 1
	}
	return &Runner{logger: logger, store: store, backends: backends, iterations: iterations}
}

// Backends returns names of runner backends in declaration order.
func (r *Runner) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	return names
}

// Run executes trials in order, backends in declaration order within each trial. The first error aborts the run.
func (r *Runner) Run(ctx context.Context, trials []Trial) ([]Result, error) {
	var results []Result
	for _, t := range trials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b := t.Batch()
		level.Info(r.logger).Log("msg", "running trial", "data", t.Label, "rows", t.Size, "native_bytes", b.NativeSize())
		for _, be := range r.backends {
			res, err := r.runBackend(ctx, be, t, b)
			if err != nil {
				return nil, errors.Wrapf(err, "%s on %s with %d rows", be.Name(), t.Label, t.Size)
			}
			results = append(results, res...)
		}
	}
	return results, nil
}

func (r *Runner) runBackend(ctx context.Context, be backend.Backend, t Trial, b *batch.Batch) (_ []Result, err error) {
	newResult := func(op Op, h backend.Handle, rows int, elapsed time.Duration) Result {
		return Result{
			Measurement: report.Measurement{
				Backend:    be.Name(),
				Label:      t.Label,
				Size:       t.Size,
				Op:         string(op),
				Bytes:      h.Size,
				NativeSize: b.NativeSize(),
				Rows:       rows,
				Elapsed:    elapsed,
			},
			Digest: h.Digest,
		}
	}

	h, elapsed, err := r.write(ctx, be, b)
	if err != nil {
		return nil, errors.Wrap(err, "write")
	}
	defer func() {
		if rerr := r.store.Release(ctx, h); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "release")
		}
	}()
	level.Debug(r.logger).Log("msg", "write done", "backend", be.Name(), "object", h, "elapsed", elapsed)
	results := []Result{newResult(OpWrite, h, b.NumRows(), elapsed)}

	if t.Read {
		var rows int
		elapsed, err := r.measure(func() error {
			batches, err := be.Read(ctx, h)
			if err != nil {
				return err
			}
			rows = 0
			for _, rb := range batches {
				rows += rb.NumRows()
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "read")
		}
		if rows != b.NumRows() {
			return nil, errors.Errorf("read %d rows, written %d", rows, b.NumRows())
		}
		level.Debug(r.logger).Log("msg", "read done", "backend", be.Name(), "rows", rows, "elapsed", elapsed)
		results = append(results, newResult(OpRead, h, rows, elapsed))
	}

	for _, a := range t.Accesses() {
		var rows int
		elapsed, err := r.measure(func() error {
			got, err := be.Take(ctx, h, a.Indices)
			if err != nil {
				return err
			}
			rows = got.NumRows()
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "take %d rows", len(a.Indices))
		}
		if rows != len(a.Indices) {
			return nil, errors.Errorf("took %d rows, requested %d", rows, len(a.Indices))
		}
		level.Debug(r.logger).Log("msg", "take done", "backend", be.Name(), "ratio", a.Ratio, "rows", rows, "elapsed", elapsed)

		res := newResult(OpTake, h, rows, elapsed)
		res.AccessRatio = a.Ratio
		results = append(results, res)
	}
	return results, nil
}

// write stores b iterations times and keeps only the last object.
func (r *Runner) write(ctx context.Context, be backend.Backend, b *batch.Batch) (backend.Handle, time.Duration, error) {
	var (
		h     backend.Handle
		total time.Duration
	)
	for i := 0; i < r.iterations; i++ {
		if i > 0 {
			if err := r.store.Release(ctx, h); err != nil {
				return backend.Handle{}, 0, errors.Wrap(err, "release")
			}
		}

		start := time.Now()
		next, err := be.Write(ctx, b)
		if err != nil {
			return backend.Handle{}, 0, err
		}
		total += time.Since(start)

		if i > 0 && (next.Size != h.Size || next.Digest != h.Digest) {
			_ = r.store.Release(ctx, next)
			return backend.Handle{}, 0, errors.Errorf("unstable output: %d bytes (%016x), previously %d bytes (%016x)", next.Size, next.Digest, h.Size, h.Digest)
		}
		h = next
	}
	return h, total / time.Duration(r.iterations), nil
}

func (r *Runner) measure(f func() error) (time.Duration, error) {
	var total time.Duration
	for i := 0; i < r.iterations; i++ {
		start := time.Now()
		if err := f(); err != nil {
			return 0, err
		}
		total += time.Since(start)
	}
	return total / time.Duration(r.iterations), nil
}

// Compare writes every trial once per backend and reports stored sizes with compression ratios.
// Read and take settings of trials are ignored.
func (r *Runner) Compare(ctx context.Context, trials []Trial) ([]report.ComparisonRow, error) {
	writeOnly := make([]Trial, len(trials))
	for i, t := range trials {
		t.Read, t.TakeRatios, t.SingleRow = false, nil, false
		writeOnly[i] = t
	}

	results, err := r.Run(ctx, writeOnly)
	if err != nil {
		return nil, err
	}
	if len(results) != len(writeOnly)*len(r.backends) {
		return nil, errors.Errorf("got %d results for %d trials and %d backends", len(results), len(writeOnly), len(r.backends))
	}

	rows := make([]report.ComparisonRow, 0, len(writeOnly))
	for i, t := range writeOnly {
		row := report.ComparisonRow{Label: t.Label, Rows: t.Size}
		for _, res := range results[i*len(r.backends) : (i+1)*len(r.backends)] {
			ratio, err := Ratio(res.NativeSize, res.Bytes)
			if err != nil {
				return nil, errors.Wrapf(err, "%s on %s with %d rows", res.Backend, t.Label, t.Size)
			}
			row.Cells = append(row.Cells, report.Cell{Backend: res.Backend, Bytes: res.Bytes, Ratio: ratio})
		}
		row = report.MarkBest(row)
		level.Info(r.logger).Log("msg", "compared", "data", t.Label, "rows", t.Size, "best", bestOf(row))
		rows = append(rows, row)
	}
	return rows, nil
}

func bestOf(row report.ComparisonRow) string {
	for _, c := range row.Cells {
		if c.Best {
			return c.Backend
		}
	}
	return ""
}
