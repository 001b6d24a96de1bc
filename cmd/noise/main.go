package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/OCharnyshevich/fpnoise/internal/config"
	"github.com/OCharnyshevich/fpnoise/internal/sweep"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		configPath = flag.String("config", "", "YAML config file (overrides defaults, not explicit flags)")
		dir        = flag.String("dir", formatVec(cfg.Sweep.Direction), "sweep direction as dx,dy,dz")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Int64Var(&cfg.Sweep.Origin[0], "x", cfg.Sweep.Origin[0], "x coordinate")
	flag.Int64Var(&cfg.Sweep.Origin[1], "y", cfg.Sweep.Origin[1], "y coordinate")
	flag.Int64Var(&cfg.Sweep.Origin[2], "z", cfg.Sweep.Origin[2], "z coordinate (3D only)")
	flag.IntVar(&cfg.Noise.Dims, "dims", cfg.Noise.Dims, "2 or 3")
	flag.Int64Var(&cfg.Noise.Scale, "scale", cfg.Noise.Scale, "grid scale")
	flag.Int64Var(&cfg.Noise.Seed, "seed", cfg.Noise.Seed, "seed")
	flag.StringVar(&cfg.Noise.SeedPhrase, "seed-phrase", cfg.Noise.SeedPhrase, "derive the seed from a phrase")
	flag.StringVar(&cfg.Noise.Amplitude, "amplitude", cfg.Noise.Amplitude, "output amplitude, e.g. 2.5 or 3/4")
	flag.IntVar(&cfg.Sweep.Steps, "steps", cfg.Sweep.Steps, "number of sweep samples, 0 for a single query")
	flag.IntVar(&cfg.Sweep.Workers, "workers", cfg.Sweep.Workers, "parallel sweep workers")
	flag.StringVar(&cfg.Output.CSV, "csv", cfg.Output.CSV, "write sweep samples to this CSV file")
	flag.StringVar(&cfg.Output.Chart, "chart", cfg.Output.Chart, "write a sweep chart to this HTML file")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	d, err := parseVec(*dir)
	if err != nil {
		log.Error("parse direction", "error", err)
		os.Exit(2)
	}
	cfg.Sweep.Direction = d

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error("noise", "error", err)
		os.Exit(1)
	}
}

// run answers a single query, or runs a sweep and writes its artifacts.
// Values are printed to out.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger, out io.Writer) error {
	e, err := cfg.Evaluator(log)
	if err != nil {
		return err
	}
	fc := e.Context()
	o := cfg.Sweep.Origin

	if cfg.Sweep.Steps == 0 {
		coord := o[:cfg.Noise.Dims]
		r, err := e.Noise(coord, e.Scale(), e.Seed())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "noise%v = %s (raw %s, %d steps)\n", coord, fc.Format(r.Value, 18), fc.Lift(r.Value), r.Steps)
		return nil
	}

	samples, err := sweep.Run(ctx, e, sweep.Spec{
		Origin:    o,
		Direction: cfg.Sweep.Direction,
		Steps:     cfg.Sweep.Steps,
		Dims:      cfg.Noise.Dims,
		Scale:     e.Scale(),
		Seed:      e.Seed(),
		Workers:   cfg.Sweep.Workers,
	})
	if err != nil {
		return err
	}
	for _, s := range samples {
		fmt.Fprintf(out, "%d\t%v\t%.18f\t%s\t%d\n", s.Step, s.Coord(cfg.Noise.Dims), s.Value, s.Raw, s.Steps)
	}

	sum, err := sweep.Summarize(samples)
	if err != nil {
		return err
	}
	log.Info("sweep done",
		"samples", sum.Count,
		"mean", sum.Mean,
		"stddev", sum.StdDev,
		"min", sum.Min,
		"max", sum.Max,
		"max_delta", sum.MaxDelta,
		"steps", sum.TotalSteps,
	)

	if cfg.Output.CSV != "" {
		if err := writeFile(cfg.Output.CSV, func(f *os.File) error { return sweep.WriteCSV(f, samples) }); err != nil {
			return err
		}
		log.Info("wrote csv", "path", cfg.Output.CSV)
	}
	if cfg.Output.Chart != "" {
		title := fmt.Sprintf("noise sweep from %v along %v", o[:cfg.Noise.Dims], cfg.Sweep.Direction[:cfg.Noise.Dims])
		if err := writeFile(cfg.Output.Chart, func(f *os.File) error { return sweep.WriteChart(f, title, samples) }); err != nil {
			return err
		}
		log.Info("wrote chart", "path", cfg.Output.Chart)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseVec(s string) ([3]int64, error) {
	var v [3]int64
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return v, fmt.Errorf("direction %q: want dx,dy[,dz]", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return v, fmt.Errorf("direction %q: %w", s, err)
		}
		v[i] = n
	}
	return v, nil
}

func formatVec(v [3]int64) string {
	return fmt.Sprintf("%d,%d,%d", v[0], v[1], v[2])
}
