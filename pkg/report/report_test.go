package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkBest(t *testing.T) {
	for _, tcase := range []struct {
		name   string
		ratios []float64
		best   []bool
	}{
		{name: "strict maximum", ratios: []float64{1.5, 3.2, 2.0}, best: []bool{false, true, false}},
		{name: "ties within tolerance", ratios: []float64{4.00005, 4.0, 1.0}, best: []bool{true, true, false}},
		{name: "outside tolerance", ratios: []float64{4.0002, 4.0, 1.0}, best: []bool{true, false, false}},
		{name: "single", ratios: []float64{0.9}, best: []bool{true}},
		{name: "empty"},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			row := ComparisonRow{Label: "x", Rows: 10}
			for i, r := range tcase.ratios {
				row.Cells = append(row.Cells, Cell{Backend: string(rune('a' + i)), Ratio: r})
			}

			got := MarkBest(row)
			require.Len(t, got.Cells, len(tcase.ratios))
			for i, c := range got.Cells {
				require.Equal(t, row.Cells[i].Backend, c.Backend, "order must be kept")
				require.Equal(t, tcase.best[i], c.Best, "cell %d", i)
				require.False(t, row.Cells[i].Best, "input row must not be modified")
			}
		})
	}
}

func TestCell_String(t *testing.T) {
	require.Equal(t, "1234 (3.46x)", Cell{Bytes: 1234, Ratio: 3.4567}.String())
	require.Equal(t, "1234 (**3.46x**)", Cell{Bytes: 1234, Ratio: 3.4567, Best: true}.String())
}

func TestWriteCompressionTable(t *testing.T) {
	backends := []string{"columnar-bitpacking", "columnar-rle", "parquet"}
	rows := []ComparisonRow{
		MarkBest(ComparisonRow{Rows: 1000, Cells: []Cell{
			{Backend: "columnar-bitpacking", Bytes: 100, Ratio: 40},
			{Backend: "columnar-rle", Bytes: 50, Ratio: 80},
			{Backend: "parquet", Bytes: 200, Ratio: 20},
		}}),
		MarkBest(ComparisonRow{Rows: 10000, Cells: []Cell{
			{Backend: "parquet", Bytes: 400, Ratio: 100},
			{Backend: "columnar-bitpacking", Bytes: 800, Ratio: 50},
		}}),
	}

	buf := &bytes.Buffer{}
	require.NoError(t, WriteCompressionTable(buf, backends, rows))
	require.Equal(t, `
| Rows | columnar-bitpacking | columnar-rle | parquet |
|------|---------------------|--------------|---------|
| 1000 | 100 (40.00x) | 50 (**80.00x**) | 200 (20.00x) |
| 10000 | 800 (50.00x) | - | 400 (**100.00x**) |
`, buf.String())
}

func TestWriteCompressionTable_Labels(t *testing.T) {
	rows := []ComparisonRow{
		MarkBest(ComparisonRow{Label: "random", Rows: 10, Cells: []Cell{{Backend: "parquet", Bytes: 42, Ratio: 0.95}}}),
	}

	buf := &bytes.Buffer{}
	require.NoError(t, WriteCompressionTable(buf, []string{"parquet"}, rows))
	require.Equal(t, `
| Data | Rows | parquet |
|------|------|---------|
| random | 10 | 42 (**0.95x**) |
`, buf.String())
}

func TestWriteSectionAndFootnote(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteSection(buf, "Flat Schema", "Data pattern: mixed"))
	require.NoError(t, WriteFootnote(buf))
	require.Equal(t, "\n### Flat Schema\nData pattern: mixed\n\n"+Footnote+"\n", buf.String())
}

func TestWriteResultsTable(t *testing.T) {
	ms := []Measurement{
		{Backend: "parquet", Label: "random", Size: 1000, Op: "write", Bytes: 4096, NativeSize: 4000, Rows: 1000, Elapsed: time.Millisecond},
		{Backend: "parquet", Label: "random", Size: 1000, Op: "take", Bytes: 4096, NativeSize: 4000, Rows: 10, AccessRatio: 0.01, Elapsed: time.Millisecond},
		{Backend: "parquet", Label: "random", Size: 1000, Op: "read", Bytes: 4096, NativeSize: 4000, Rows: 1000},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, WriteResultsTable(buf, ms))
	require.Equal(t, `
| Op | Backend | Data | Rows | Access | Stored | Time | Throughput |
|----|---------|------|------|--------|--------|------|------------|
| write | parquet | random | 1000 | - | 4.0 KiB | 1ms | 3.8 MiB/s |
| take | parquet | random | 1000 | 0.01 (10 rows) | 4.0 KiB | 1ms | 10,000 rows/s |
| read | parquet | random | 1000 | - | 4.0 KiB | 0s | - |
`, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_Errors(t *testing.T) {
	require.Error(t, WriteCompressionTable(failingWriter{}, []string{"parquet"}, nil))
	require.Error(t, WriteResultsTable(failingWriter{}, nil))
	require.Error(t, WriteSection(failingWriter{}, "t", ""))
	require.Error(t, WriteFootnote(failingWriter{}))
}
