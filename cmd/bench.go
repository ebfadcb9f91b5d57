package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sahib/nandfs/bench"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// allBenchmarks returns every runnable "bench:input" combination.
func allBenchmarks() []string {
	names := []string{}
	for _, benchName := range bench.BenchNames() {
		for _, inputName := range bench.InputNames() {
			names = append(names, benchName+":"+inputName)
		}
	}

	return names
}

// parseBenchSpec splits a "bench[:input]" argument into a runnable
// config. A missing input defaults to the striped pattern.
func parseBenchSpec(spec string, size uint64, ctx *cli.Context) bench.Config {
	benchName, inputName := spec, "striped"
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		benchName, inputName = spec[:idx], spec[idx+1:]
	}

	return bench.Config{
		BenchName:   benchName,
		InputName:   inputName,
		Size:        size,
		Encryption:  ctx.String("encryption"),
		Compression: ctx.String("compression"),
	}
}

func printStats(s bench.Stats) {
	tabW := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tabW, "Time:\t%s\n", s.Time.Format(time.RFC3339))
	fmt.Fprintf(tabW, "CPU:\t%s\n", s.CPUBrandName)
	fmt.Fprintf(tabW, "Cores:\t%d logical / %d physical\n", s.LogicalCores, s.PhysicalCores)
	fmt.Fprintf(tabW, "AES-NI:\t%s\n", yesify(s.HasAESNI))
	fmt.Fprintf(tabW, "SSE3:\t%s\n", yesify(s.HasSSE3))
	tabW.Flush()
}

// barPrinter scales each bar against the baseline of its section. The
// baseline is the first result of a section, which is always the
// uncompressed, unencrypted run.
type barPrinter struct {
	section  string
	baseline time.Duration
	size     uint64
}

func (bp *barPrinter) print(result bench.Result) {
	section := result.Config.BenchName + " <= " + result.Config.InputName
	if section != bp.section {
		bp.section = section
		bp.baseline = result.Took
		fmt.Printf("\n%s\n%s\n\n", section, strings.Repeat("-", len(section)))
	}

	label := fmt.Sprintf("zip-%s enc-%s", result.Compression, result.Encryption)
	drawBar(label, result.Took, bp.baseline, bp.size)
}

// drawBar renders a single result, scaled against the baseline timing
// `ref`. Longer bars are better.
func drawBar(label string, took, ref time.Duration, inputSize uint64) {
	const width = 60

	ratio := 1.0
	if took > 0 {
		ratio = float64(ref) / float64(took)
	}

	fill := int(ratio * width)
	if fill > width {
		fill = width
	}

	mb := float64(inputSize) / 1024 / 1024
	fmt.Printf(
		"%-30s |%-*s| %8.2f MB/s (%5.1f%%) %v\n",
		label,
		width, strings.Repeat("=", fill),
		mb/took.Seconds(),
		ratio*100,
		took.Round(time.Millisecond),
	)
}

type benchmarkRun struct {
	Stats   bench.Stats    `json:"stats"`
	Results []bench.Result `json:"results"`
}

func handleBench(ctx *cli.Context) error {
	size, err := humanize.ParseBytes(ctx.String("size"))
	if err != nil {
		return ExitCode{BadArgs, fmt.Sprintf("invalid size: %v", err)}
	}

	specs := ctx.StringSlice("bench")
	if len(specs) == 0 {
		log.Infof("running all benchmarks, this can take a while...")
		specs = allBenchmarks()
	}

	cfgs := make([]bench.Config, 0, len(specs))
	for _, spec := range specs {
		cfgs = append(cfgs, parseBenchSpec(spec, size, ctx))
	}

	run := benchmarkRun{Stats: bench.FetchStats()}
	isJSON := ctx.Bool("json")
	printer := &barPrinter{size: size}

	if !isJSON {
		printStats(run.Stats)
	}

	// Log lines would tear the bars apart:
	log.SetLevel(log.WarnLevel)

	err = bench.Benchmark(cfgs, func(result bench.Result) {
		run.Results = append(run.Results, result)
		if !isJSON {
			printer.print(result)
		}
	})
	if err != nil {
		return err
	}

	if !isJSON {
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(run)
}

func handleBenchList(ctx *cli.Context) error {
	for _, name := range allBenchmarks() {
		fmt.Println(name)
	}

	return nil
}
