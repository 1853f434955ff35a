package commands

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

const (
	benchLineLength = 64
	benchMaxEdit    = 32
	plotSampleCount = 512
	plotFileMode    = 0o644
)

// BenchCommand holds the flags of the bench command.
type BenchCommand struct {
	ops       int
	seed      int64
	docSize   int
	hibernate bool
	plotPath  string
}

// benchResult aggregates one workload run.
type benchResult struct {
	total     time.Duration
	latencies []time.Duration

	hibernateTime time.Duration
	bootTime      time.Duration
	liveSize      int
	parkedSize    int
}

// NewBenchCommand creates the bench command: a seeded randomized edit
// workload against a generated document.
func NewBenchCommand(app *App) *cobra.Command {
	bc := &BenchCommand{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a randomized edit workload and report throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bc.applyConfigDefaults(app)

			return bc.run(app, cmd)
		},
	}

	cmd.Flags().IntVar(&bc.ops, "ops", 0, "number of edit operations (0 = config default)")
	cmd.Flags().Int64Var(&bc.seed, "seed", 0, "workload rng seed (0 = config default)")
	cmd.Flags().IntVar(&bc.docSize, "doc-size", 0, "generated document size in bytes (0 = config default)")
	cmd.Flags().BoolVar(&bc.hibernate, "hibernate", false, "add a hibernation cycle and report compression")
	cmd.Flags().StringVar(&bc.plotPath, "plot", "", "render an HTML latency chart to this path")

	return cmd
}

func (bc *BenchCommand) applyConfigDefaults(app *App) {
	if app.Cfg == nil {
		return
	}

	if bc.ops <= 0 {
		bc.ops = app.Cfg.Bench.Ops
	}

	if bc.seed == 0 {
		bc.seed = app.Cfg.Bench.Seed
	}

	if bc.docSize <= 0 {
		bc.docSize = app.Cfg.Bench.DocSize
	}
}

func (bc *BenchCommand) run(app *App, cmd *cobra.Command) error {
	rng := rand.New(rand.NewSource(bc.seed)) //nolint:gosec // reproducible workload, not crypto

	buffer := generateDocument(rng, bc.docSize)

	app.Logger().Info("bench starting",
		"bench.ops", bc.ops, "bench.seed", bc.seed, "doc.bytes", buffer.Length())

	result := bc.runWorkload(rng, buffer)

	if bc.hibernate {
		bc.runHibernation(buffer, &result)
	}

	if err := buffer.Validate(); err != nil {
		return fmt.Errorf("post-workload audit: %w", err)
	}

	bc.renderTable(cmd.OutOrStdout(), result)

	if bc.plotPath != "" {
		if err := bc.renderPlot(result.latencies); err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "latency chart written to %s\n", bc.plotPath)
	}

	return nil
}

// generateDocument builds a synthetic multi-line document of roughly size
// bytes through the chunked builder.
func generateDocument(rng *rand.Rand, size int) *textbuf.TextBuffer {
	const alphabet = "abcdefghijklmnopqrstuvwxyz 0123456789"

	builder := textbuf.NewBuilder()
	line := make([]byte, 0, benchLineLength+1)

	for written := 0; written < size; {
		line = line[:0]
		for len(line) < benchLineLength {
			line = append(line, alphabet[rng.Intn(len(alphabet))])
		}

		line = append(line, '\n')
		builder.AcceptChunk(string(line))
		written += len(line)
	}

	return builder.Build()
}

func (bc *BenchCommand) runWorkload(rng *rand.Rand, buffer *textbuf.TextBuffer) benchResult {
	result := benchResult{latencies: make([]time.Duration, 0, bc.ops)}
	payload := "piecetree bench payload\n"

	workloadStart := time.Now()

	for op := 0; op < bc.ops; op++ {
		editStart := time.Now()

		if rng.Intn(2) == 0 || buffer.Length() < benchMaxEdit {
			offset := rng.Intn(buffer.Length() + 1)
			length := 1 + rng.Intn(benchMaxEdit)

			if err := buffer.Insert(offset, payload[:min(length, len(payload))]); err != nil {
				panic(err) // bounds are derived from Length(), cannot fail
			}
		} else {
			offset := rng.Intn(buffer.Length())
			length := 1 + rng.Intn(min(benchMaxEdit, buffer.Length()-offset))

			if err := buffer.Delete(offset, length); err != nil {
				panic(err)
			}
		}

		result.latencies = append(result.latencies, time.Since(editStart))
	}

	result.total = time.Since(workloadStart)

	return result
}

func (bc *BenchCommand) runHibernation(buffer *textbuf.TextBuffer, result *benchResult) {
	result.liveSize = buffer.LiveSize()

	hibernateStart := time.Now()
	buffer.Hibernate()
	result.hibernateTime = time.Since(hibernateStart)
	result.parkedSize = buffer.HibernatedSize()

	bootStart := time.Now()
	buffer.Boot()
	result.bootTime = time.Since(bootStart)
}

func (bc *BenchCommand) renderTable(out io.Writer, result benchResult) {
	sorted := make([]time.Duration, len(result.latencies))
	copy(sorted, result.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	opsPerSec := float64(bc.ops) / result.total.Seconds()

	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"operations", humanize.Comma(int64(bc.ops))},
		{"total time", result.total.Round(time.Millisecond)},
		{"throughput", fmt.Sprintf("%s ops/sec", humanize.CommafWithDigits(opsPerSec, 0))},
		{"p50 latency", percentile(sorted, 50)},
		{"p90 latency", percentile(sorted, 90)},
		{"p99 latency", percentile(sorted, 99)},
		{"max latency", sorted[len(sorted)-1]},
	})

	if bc.hibernate {
		ratio := float64(result.parkedSize) / float64(result.liveSize)
		tbl.AppendRows([]table.Row{
			{"live size", humanize.Bytes(uint64(result.liveSize))},     //nolint:gosec // sizes are non-negative
			{"hibernated size", humanize.Bytes(uint64(result.parkedSize))}, //nolint:gosec // sizes are non-negative
			{"compressed ratio", fmt.Sprintf("%.2f", ratio)},
			{"hibernate time", result.hibernateTime.Round(time.Microsecond)},
			{"boot time", result.bootTime.Round(time.Microsecond)},
		})
	}

	tbl.Render()
}

func percentile(sorted []time.Duration, pct int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	idx := len(sorted) * pct / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

// renderPlot writes a go-echarts line chart of op latency over the run,
// downsampled to keep the page light.
func (bc *BenchCommand) renderPlot(latencies []time.Duration) error {
	stride := len(latencies) / plotSampleCount
	if stride < 1 {
		stride = 1
	}

	labels := make([]string, 0, plotSampleCount)
	data := make([]opts.LineData, 0, plotSampleCount)

	for idx := 0; idx < len(latencies); idx += stride {
		labels = append(labels, fmt.Sprintf("%d", idx))
		data = append(data, opts.LineData{Value: float64(latencies[idx].Microseconds())})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "piecetree bench", Subtitle: "edit latency (µs) over run"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "µs"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("latency", data)

	file, err := os.OpenFile(bc.plotPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, plotFileMode)
	if err != nil {
		return fmt.Errorf("create plot %s: %w", bc.plotPath, err)
	}
	defer file.Close() //nolint:errcheck // flushed by Render

	if err := line.Render(file); err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}
