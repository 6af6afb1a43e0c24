// Package report formats benchmark outcomes as Markdown tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// BestTolerance is the distance from the best ratio within which a cell is still marked best.
const BestTolerance = 1e-4

// Footnote explains bold cells of compression tables.
const Footnote = "**Note**: Best compression ratio for each test is marked with **bold**."

// Cell is the outcome of one backend in a comparison row.
type Cell struct {
	Backend string
	Bytes   int64
	Ratio   float64
	Best    bool
}

func (c Cell) String() string {
	if c.Best {
		return fmt.Sprintf("%d (**%.2fx**)", c.Bytes, c.Ratio)
	}
	return fmt.Sprintf("%d (%.2fx)", c.Bytes, c.Ratio)
}

// ComparisonRow holds compression outcomes of every backend for one dataset.
type ComparisonRow struct {
	Label string
	Rows  int
	Cells []Cell
}

// MarkBest flags cells whose ratio is within BestTolerance of the highest ratio in the row.
// Ties are all flagged. Cell order is kept.
func MarkBest(row ComparisonRow) ComparisonRow {
	best := math.Inf(-1)
	for _, c := range row.Cells {
		if c.Ratio > best {
			best = c.Ratio
		}
	}

	cells := make([]Cell, len(row.Cells))
	for i, c := range row.Cells {
		c.Best = math.Abs(c.Ratio-best) < BestTolerance
		cells[i] = c
	}
	row.Cells = cells
	return row
}

// WriteSection writes a heading with an optional note line.
func WriteSection(w io.Writer, title, note string) error {
	tw := &tableWriter{w: w}
	tw.printf("\n### %s\n", title)
	if note != "" {
		tw.printf("%s\n", note)
	}
	return tw.err
}

// WriteCompressionTable writes one line per row and one column per backend. Backends are given in
// declaration order and are matched with cells by name. The label column is left out when no row has a label.
func WriteCompressionTable(w io.Writer, backends []string, rows []ComparisonRow) error {
	withLabel := false
	for _, r := range rows {
		if r.Label != "" {
			withLabel = true
			break
		}
	}

	header := []string{"Rows"}
	if withLabel {
		header = append([]string{"Data"}, header...)
	}
	header = append(header, backends...)

	tw := &tableWriter{w: w}
	tw.printf("\n")
	tw.row(header)
	tw.separator(header)

	for _, r := range rows {
		line := []string{fmt.Sprintf("%d", r.Rows)}
		if withLabel {
			line = append([]string{r.Label}, line...)
		}
		for _, b := range backends {
			line = append(line, cellFor(r, b))
		}
		tw.row(line)
	}
	return tw.err
}

func cellFor(r ComparisonRow, backend string) string {
	for _, c := range r.Cells {
		if c.Backend == backend {
			return c.String()
		}
	}
	return "-"
}

// WriteFootnote writes the legend of compression tables.
func WriteFootnote(w io.Writer) error {
	_, err := fmt.Fprintf(w, "\n%s\n", Footnote)
	return err
}

// Measurement is a single timed operation.
type Measurement struct {
	Backend string
	Label   string
	Size    int
	Op      string
	// Bytes is the size of the stored object.
	Bytes int64
	// NativeSize is the uncompressed size of the dataset.
	NativeSize int64
	// Rows is the number of rows the operation produced or consumed.
	Rows        int
	AccessRatio float64
	Elapsed     time.Duration
}

// Throughput is uncompressed bytes per second for write and read and rows per second for take.
func (m Measurement) Throughput() string {
	secs := m.Elapsed.Seconds()
	if secs <= 0 {
		return "-"
	}
	if m.Op == "take" {
		return fmt.Sprintf("%s rows/s", humanize.Comma(int64(float64(m.Rows)/secs)))
	}
	return humanize.IBytes(uint64(float64(m.NativeSize)/secs)) + "/s"
}

// WriteResultsTable writes timed operations in the given order.
func WriteResultsTable(w io.Writer, ms []Measurement) error {
	header := []string{"Op", "Backend", "Data", "Rows", "Access", "Stored", "Time", "Throughput"}

	tw := &tableWriter{w: w}
	tw.printf("\n")
	tw.row(header)
	tw.separator(header)
	for _, m := range ms {
		access := "-"
		if m.Op == "take" {
			access = fmt.Sprintf("%g (%d rows)", m.AccessRatio, m.Rows)
		}
		tw.row([]string{
			m.Op,
			m.Backend,
			m.Label,
			fmt.Sprintf("%d", m.Size),
			access,
			humanize.IBytes(uint64(m.Bytes)),
			m.Elapsed.Round(time.Microsecond).String(),
			m.Throughput(),
		})
	}
	return tw.err
}

// tableWriter keeps the first write error, so table code does not check every line.
type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) row(cols []string) {
	t.printf("| %s |\n", strings.Join(cols, " | "))
}

func (t *tableWriter) separator(header []string) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.Repeat("-", len(h))
	}
	t.printf("|-%s-|\n", strings.Join(cols, "-|-"))
}
