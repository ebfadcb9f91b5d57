package bench

import (
	"sort"
	"time"
)

type Config struct {
	InputName   string `json:"input_name"`
	BenchName   string `json:"bench_name"`
	Size        uint64 `json:"size"`
	Encryption  string
	Compression string
}

type Result struct {
	Config      Config        `json:"config"`
	Encryption  string        `json:"encryption"`
	Compression string        `json:"compression"`
	Took        time.Duration `json:"took"`
}

// buildHints expands the wildcard settings of `cfg` into the concrete
// combinations to measure. Without wildcards there is exactly one.
func buildHints(cfg Config) []Hint {
	zips := []string{cfg.Compression}
	if cfg.Compression == "*" {
		zips = ValidCompressionHints()
	}

	encs := []string{cfg.Encryption}
	if cfg.Encryption == "*" {
		encs = ValidEncryptionHints()
	}

	hs := []Hint{}
	for _, zip := range zips {
		for _, enc := range encs {
			hs = append(hs, Hint{Compression: zip, Encryption: enc})
		}
	}

	// The none-none baseline has to come first:
	sort.Slice(hs, func(i, j int) bool {
		return hs[i].Less(hs[j])
	})

	return hs
}

func benchmarkSingle(cfg Config, fn func(result Result)) error {
	in, err := InputByName(cfg.InputName, cfg.Size)
	if err != nil {
		return err
	}

	defer in.Close()

	out, err := BenchByName(cfg.BenchName)
	if err != nil {
		return err
	}

	defer out.Close()

	supportsHints := out.SupportHints()
	hs := buildHints(cfg)
	if !supportsHints {
		// A bench that cannot switch its packing runs only once. The
		// labels then say that nothing was zipped or encrypted.
		hs = []Hint{{Compression: CompressionNone, Encryption: EncryptionNone}}
	}

	for _, hint := range hs {
		if supportsHints {
			if err := out.SetHint(hint); err != nil {
				return err
			}
		}

		r, err := in.Reader()
		if err != nil {
			return err
		}

		start := time.Now()
		if err := out.Process(r); err != nil {
			return err
		}

		fn(Result{
			Encryption:  hint.Encryption,
			Compression: hint.Compression,
			Config:      cfg,
			Took:        time.Since(start),
		})
	}

	return nil
}

func Benchmark(cfgs []Config, fn func(result Result)) error {
	for _, cfg := range cfgs {
		if err := benchmarkSingle(cfg, fn); err != nil {
			return err
		}
	}

	return nil
}
