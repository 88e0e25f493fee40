package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"structural-credit/internal/analysis"
	"structural-credit/internal/batch"
	"structural-credit/internal/boundary"
	"structural-credit/internal/calibration"
	"structural-credit/internal/config"
	"structural-credit/internal/data"
	"structural-credit/internal/model"
)

type commonFlags struct {
	data     *string
	config   *string
	n        *int
	warm     *bool
	variant  *string
	ratio    *float64
	maturity *float64
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		data:     fs.String("data", "data/observations.csv", "Comma-separated CSV/JSON paths or directories"),
		config:   fs.String("config", "", "Path to YAML config (defaults when empty)"),
		n:        fs.Int("n", 0, "Optional: limit to first N observations (0=all)"),
		warm:     fs.Bool("warm-start", false, "Seed each firm's solve with its previous converged state"),
		variant:  fs.String("variant", "", "Override model.boundary.name (maturity, continuous_barrier)"),
		ratio:    fs.Float64("barrier-ratio", 0, "Override model.boundary.barrier_ratio"),
		maturity: fs.Float64("T", 0, "Override model.time_to_maturity"),
	}
}

// resolve loads config and observations with command-line overrides applied.
func (f commonFlags) resolve() (*config.Config, []model.MarketObservation, error) {
	cfg, err := loadConfig(*f.config)
	if err != nil {
		return nil, nil, err
	}
	cfg.Model = config.MergeModel(cfg.Model, config.ModelConfig{
		TimeToMaturity: *f.maturity,
		Boundary:       config.BoundaryConfig{Name: *f.variant, BarrierRatio: *f.ratio},
	})
	if *f.warm {
		cfg.Batch.WarmStart = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	obs, err := loadObservations(*f.data, cfg.Model.TimeToMaturity)
	if err != nil {
		return nil, nil, err
	}
	if *f.n > 0 && *f.n < len(obs) {
		obs = obs[:*f.n]
	}
	return cfg, obs, nil
}

func runBatch(ctx context.Context, cfg *config.Config, variant boundary.Variant, obs []model.MarketObservation) (*batch.Result, error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	engine := batch.New(
		calibration.New(cfg.Solver.ToOptions()),
		variant,
		batch.Options{Workers: cfg.Batch.Workers, WarmStart: cfg.Batch.WarmStart},
		batch.WithLogger(log),
	)
	res, err := engine.Run(ctx, obs)
	if err != nil {
		return nil, err
	}
	if !cfg.Smoothing.Disabled {
		if err := analysis.SmoothPD(res.Records, cfg.Smoothing.Alpha); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func cmdCalibrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	common := registerCommon(fs)
	outPath := fs.String("out", "results/risk_records.csv", "Output CSV path")
	_ = fs.Parse(args)

	cfg, obs, err := common.resolve()
	if err != nil {
		return err
	}
	variant, err := cfg.Model.Boundary.Variant()
	if err != nil {
		return err
	}
	res, err := runBatch(ctx, cfg, variant, obs)
	if err != nil {
		return err
	}
	if err := batch.WriteRecordsCSV(*outPath, res.Records); err != nil {
		return fmt.Errorf("write %s: %w", *outPath, err)
	}

	s := res.Summary
	fmt.Printf("Wrote %d rows to %s (variant=%s, %s)\n", len(res.Records), *outPath, res.Variant, res.Elapsed.Round(time.Millisecond))
	fmt.Printf("Converged=%d Degenerate=%d Failed=%d success=%.1f%%\n",
		s.Converged, s.Degenerate, s.Failed, 100*s.SuccessRate())
	for reason, n := range s.ByReason {
		fmt.Printf("  %-16s %d\n", reason, n)
	}
	if s.Converged > 0 {
		fmt.Printf("Mean V=%.2f sigma_V=%.4f DD=%.2f PD=%.4f%%\n", s.MeanV, s.MeanSigmaV, s.MeanDD, 100*s.MeanPD)
	}
	return nil
}

func cmdCompare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	common := registerCommon(fs)
	_ = fs.Parse(args)

	cfg, obs, err := common.resolve()
	if err != nil {
		return err
	}
	if cfg.Smoothing.Disabled {
		return fmt.Errorf("compare needs smoothing enabled")
	}

	ratio := cfg.Model.Boundary.BarrierRatio
	if ratio == 0 {
		ratio = 0.7
	}
	maturity, err := runBatch(ctx, cfg, boundary.Maturity{}, obs)
	if err != nil {
		return err
	}
	barrier, err := runBatch(ctx, cfg, boundary.ContinuousBarrier{Ratio: ratio}, obs)
	if err != nil {
		return err
	}

	fmt.Println("PD stability, maturity variant (raw vs smoothed):")
	fmt.Printf("%-10s %-12s %-12s %-10s\n", "firm", "raw_std", "smooth_std", "reduction")
	raw := analysis.Stability(maturity.Records, analysis.RawPD)
	smoothed := analysis.Stability(maturity.Records, analysis.SmoothedPD)
	for _, c := range analysis.CompareStability(raw, smoothed) {
		fmt.Printf("%-10s %-12.6f %-12.6f %8.1f%%\n", c.FirmID, c.RawStd, c.SmoothedStd, c.ReductionPct)
	}

	fmt.Println("")
	fmt.Printf("Mean PD by firm, maturity vs continuous_barrier (ratio=%.2f):\n", ratio)
	fmt.Printf("%-10s %-10s %-12s %-12s %-10s %-10s\n", "firm", "leverage", "maturity", "barrier", "cv", "turns")
	barrierStats := analysis.Stability(barrier.Records, analysis.RawPD)
	for _, m := range raw {
		b := lookup(barrierStats, m.FirmID)
		fmt.Printf("%-10s %-10.2f %-12s %-12s %-10.3f %-10.2f\n",
			m.FirmID, m.MeanLeverage, pct(m.MeanPD), pct(b.MeanPD), m.CV, m.DirectionChangeShare)
	}
	return nil
}

func cmdRank(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	common := registerCommon(fs)
	smoothed := fs.Bool("smoothed", false, "Rank on the smoothed PD series")
	_ = fs.Parse(args)

	cfg, obs, err := common.resolve()
	if err != nil {
		return err
	}
	variant, err := cfg.Model.Boundary.Variant()
	if err != nil {
		return err
	}
	res, err := runBatch(ctx, cfg, variant, obs)
	if err != nil {
		return err
	}

	sel := analysis.RawPD
	if *smoothed {
		if cfg.Smoothing.Disabled {
			return fmt.Errorf("--smoothed needs smoothing enabled")
		}
		sel = analysis.SmoothedPD
	}
	ranked := analysis.RankByMeanPD(analysis.Stability(res.Records, sel))
	fmt.Printf("%-4s %-10s %-8s %-10s %-12s %-10s %-10s\n", "rank", "firm", "count", "leverage", "mean_pd", "p95_pd", "mean_dd")
	for i, r := range ranked {
		fmt.Printf("%-4d %-10s %-8d %-10.2f %-12s %-10s %-10.2f\n",
			i+1, r.FirmID, r.Converged, r.MeanLeverage, pct(r.MeanPD), pct(r.P95PD), r.MeanDD)
	}
	return nil
}

func lookup(stats []analysis.FirmStability, firm string) analysis.FirmStability {
	for _, s := range stats {
		if s.FirmID == firm {
			return s
		}
	}
	return analysis.FirmStability{FirmID: firm, MeanPD: math.NaN()}
}

func pct(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f%%", 100*x)
}

// loadObservations reads every path in a comma-separated list. Directories
// contribute their .csv and .json files.
func loadObservations(paths string, defaultT float64) ([]model.MarketObservation, error) {
	var out []model.MarketObservation
	for _, p := range splitPaths(paths) {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		files := []string{p}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, err
			}
			files = files[:0]
			for _, e := range entries {
				if !e.IsDir() {
					files = append(files, filepath.Join(p, e.Name()))
				}
			}
		}
		for _, f := range files {
			var obs []model.MarketObservation
			switch strings.ToLower(filepath.Ext(f)) {
			case ".csv":
				obs, err = data.LoadObservationsCSV(f, defaultT)
			case ".json":
				obs, err = data.LoadObservationsJSON(f, defaultT)
			default:
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, obs...)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no observations found in %q", paths)
	}
	return out, nil
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
