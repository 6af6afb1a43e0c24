package backend

import (
	"context"
	"fmt"
	"testing"

	"github.com/thanos-io/thanos/pkg/testutil"

	"github.com/thanos-io/colbench/pkg/datagen"
)

func BenchmarkBackend(b *testing.B) {
	ctx := context.Background()
	s := newTestStore(b, MemoryMode)

	for _, size := range []int{1000, 100000} {
		in := datagen.PatternBatch(datagen.NewGenerator(datagen.DefaultSeed).Generate(datagen.Runs{RunLength: 100, UniqueValues: 10}, size))
		indices := datagen.NewGenerator(datagen.DefaultSeed).Indices(size, 0.01)

		for _, name := range Names() {
			be, err := New(name, s)
			testutil.Ok(b, err)

			b.Run(fmt.Sprintf("write/%s/%d", name, size), func(b *testing.B) {
				b.SetBytes(in.NativeSize())
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					h, err := be.Write(ctx, in)
					testutil.Ok(b, err)
					testutil.Ok(b, s.Release(ctx, h))
				}
			})

			h, err := be.Write(ctx, in)
			testutil.Ok(b, err)

			b.Run(fmt.Sprintf("read/%s/%d", name, size), func(b *testing.B) {
				b.SetBytes(in.NativeSize())
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_, err := be.Read(ctx, h)
					testutil.Ok(b, err)
				}
			})

			b.Run(fmt.Sprintf("take/%s/%d", name, size), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_, err := be.Take(ctx, h, indices)
					testutil.Ok(b, err)
				}
			})
			testutil.Ok(b, s.Release(ctx, h))
		}
	}
}
