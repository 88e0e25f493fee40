package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"structural-credit/internal/config"
	"structural-credit/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "calibrate":
		err = cmdCalibrate(ctx, os.Args[2:])
	case "compare":
		err = cmdCompare(ctx, os.Args[2:])
	case "rank":
		err = cmdRank(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli calibrate --data observations.csv --config config.yaml --out results/risk_records.csv")
	fmt.Println("  cli compare   --data observations.csv --config config.yaml")
	fmt.Println("  cli rank      --data observations.csv --config config.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data takes comma-separated .csv/.json files or directories")
	fmt.Println("  - calibrate writes one row per observation with status CONVERGED/DEGENERATE/FAILED")
	fmt.Println("  - compare reports raw vs smoothed PD stability and maturity vs barrier PD per firm")
	fmt.Println("  - rank orders firms by mean PD")
}

// loadConfig reads path, or returns defaults when path is empty, then applies env overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.Log.ToLogger())
}
