package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/fpnoise/internal/config"
	"github.com/OCharnyshevich/fpnoise/internal/sweep"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		url        = flag.String("url", "git::https://github.com/OCharnyshevich/fpnoise.git//internal/sweep/testdata", "reference bundle source (any go-getter URL)")
		out        = flag.String("o", "./refvectors", "output dir path")
		configPath = flag.String("config", "", "YAML config the reference sweeps were produced with")
		noCheck    = flag.Bool("no-verify", false, "download only")
	)
	flag.IntVar(&cfg.Noise.Dims, "dims", cfg.Noise.Dims, "dimensions of the reference sweeps")
	flag.Int64Var(&cfg.Noise.Scale, "scale", cfg.Noise.Scale, "grid scale of the reference sweeps")
	flag.Int64Var(&cfg.Noise.Seed, "seed", cfg.Noise.Seed, "seed of the reference sweeps")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *out == "" || *url == "" {
		log.Error("both -url and -o are required")
		os.Exit(2)
	}
	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if err := os.RemoveAll(*out); err != nil {
		log.Error("clean output dir", "path", *out, "error", err)
		os.Exit(1)
	}

	log.Info("start downloading reference vectors", "url", *url, "path", *out)
	if err := get.Get(*out, *url); err != nil {
		log.Error("download", "error", err)
		os.Exit(1)
	}
	log.Info("done downloading reference vectors", "path", *out)

	if *noCheck {
		return
	}
	bad, err := verify(context.Background(), *out, cfg, log)
	if err != nil {
		log.Error("verify", "error", err)
		os.Exit(1)
	}
	if bad > 0 {
		log.Error("reference mismatch", "samples", bad)
		os.Exit(1)
	}
}

// verify re-evaluates every sample of every CSV file in dir with the
// evaluator cfg describes and returns the number of samples whose raw value
// or operation count differs.
func verify(ctx context.Context, dir string, cfg *config.Config, log *slog.Logger) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return 0, err
	}
	e, err := cfg.Evaluator(nil)
	if err != nil {
		return 0, err
	}
	fc := e.Context()
	dims := cfg.Noise.Dims

	var bad int
	for _, path := range files {
		samples, err := readSamples(path)
		if err != nil {
			return bad, err
		}
		for _, s := range samples {
			if err := ctx.Err(); err != nil {
				return bad, err
			}
			r, err := e.Noise(s.Coord(dims), e.Scale(), e.Seed())
			if err != nil {
				return bad, fmt.Errorf("%s step %d: %w", path, s.Step, err)
			}
			if got := fc.Lift(r.Value).String(); got != s.Raw || r.Steps != s.Steps {
				log.Warn("mismatch", "file", filepath.Base(path), "step", s.Step,
					"got", got, "want", s.Raw, "got_steps", r.Steps, "want_steps", s.Steps)
				bad++
			}
		}
		log.Info("verified", "file", filepath.Base(path), "samples", len(samples))
	}
	return bad, nil
}

func readSamples(path string) ([]sweep.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sweep.ReadCSV(f)
}
