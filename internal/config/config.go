package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"structural-credit/internal/boundary"
	"structural-credit/internal/calibration"
	"structural-credit/internal/logger"
)

var validate = validator.New()

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load solver settings from a separate YAML shared between runs.
	// Explicit values under solver override the file.
	SolverFile string `yaml:"solver_file"`

	Model     ModelConfig     `yaml:"model"`
	Solver    SolverConfig    `yaml:"solver"`
	Batch     BatchConfig     `yaml:"batch"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

type ModelConfig struct {
	TimeToMaturity float64        `yaml:"time_to_maturity" json:"time_to_maturity" default:"1" validate:"gt=0"`
	Boundary       BoundaryConfig `yaml:"boundary" json:"boundary"`
}

type BoundaryConfig struct {
	Name         string  `yaml:"name" json:"name" default:"maturity" validate:"oneof=maturity continuous_barrier"`
	BarrierRatio float64 `yaml:"barrier_ratio" json:"barrier_ratio,omitempty" validate:"required_if=Name continuous_barrier,gte=0,lte=1"`
}

type SolverConfig struct {
	Tolerance          float64 `yaml:"tolerance" json:"tolerance,omitempty" default:"1e-6" validate:"gt=0"`
	MaxIterations      int     `yaml:"max_iterations" json:"max_iterations,omitempty" default:"100" validate:"gte=1,lte=100000"`
	ClampFraction      float64 `yaml:"clamp_fraction" json:"clamp_fraction,omitempty" default:"0.5" validate:"gt=0,lte=1"`
	PerturbFactor      float64 `yaml:"perturb_factor" json:"perturb_factor,omitempty" default:"2" validate:"gt=0"`
	AssetFloorRatio    float64 `yaml:"asset_floor_ratio" json:"asset_floor_ratio,omitempty" default:"1e-6" validate:"gt=0,lt=1"`
	VolatilityFloor    float64 `yaml:"volatility_floor" json:"volatility_floor,omitempty" default:"1e-4" validate:"gt=0"`
	MaxAssetVolatility float64 `yaml:"max_asset_volatility" json:"max_asset_volatility,omitempty" default:"2" validate:"gtfield=VolatilityFloor"`
	MinAssetToEquity   float64 `yaml:"min_asset_to_equity" json:"min_asset_to_equity,omitempty" default:"1.01" validate:"gte=1"`
}

type BatchConfig struct {
	// Workers bounds parallel calibrations; 0 means one per CPU.
	Workers   int  `yaml:"workers" validate:"gte=0"`
	WarmStart bool `yaml:"warm_start"`
}

type SmoothingConfig struct {
	Alpha    float64 `yaml:"alpha" default:"0.1" validate:"gt=0,lte=1"`
	Disabled bool    `yaml:"disabled"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stderr"`
}

type ServerConfig struct {
	Port   int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	RunTTL time.Duration `yaml:"run_ttl" default:"1h" validate:"gt=0"`
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads, merges and defaults config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// If solver_file is set, load it and merge in any explicit overrides from c.Solver.
	if c.SolverFile != "" {
		solverPath := c.SolverFile
		if !filepath.IsAbs(solverPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), solverPath)
			if _, err := os.Stat(cand); err == nil {
				solverPath = cand
			}
		}
		loaded, err := loadSolverFile(solverPath)
		if err != nil {
			return nil, err
		}
		c.Solver = MergeSolver(loaded, c.Solver)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// ApplyEnv overlays API_PORT and LOG_LEVEL when set.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("API_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("API_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if _, err := c.Model.Boundary.Variant(); err != nil {
		return fmt.Errorf("model.boundary invalid: %w", err)
	}
	return nil
}

func (b BoundaryConfig) ToSpec() boundary.Spec {
	return boundary.Spec{Name: b.Name, BarrierRatio: b.BarrierRatio}
}

func (b BoundaryConfig) Variant() (boundary.Variant, error) {
	return boundary.New(b.ToSpec())
}

func (s SolverConfig) ToOptions() calibration.Options {
	return calibration.Options{
		Tolerance:          s.Tolerance,
		MaxIterations:      s.MaxIterations,
		ClampFraction:      s.ClampFraction,
		PerturbFactor:      s.PerturbFactor,
		AssetFloorRatio:    s.AssetFloorRatio,
		VolatilityFloor:    s.VolatilityFloor,
		MaxAssetVolatility: s.MaxAssetVolatility,
		MinAssetToEquity:   s.MinAssetToEquity,
	}
}

func (l LogConfig) ToLogger() logger.Config {
	return logger.Config{Level: l.Level, Format: l.Format, Output: l.Output}
}

type solverFileWrapper struct {
	Solver SolverConfig `yaml:"solver"`
}

func loadSolverFile(path string) (SolverConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SolverConfig{}, err
	}
	var w solverFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return SolverConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Solver, nil
}

// MergeSolver overlays non-zero fields from override onto base.
// This is used when loading a solver file and when a request carries its own settings.
func MergeSolver(base, override SolverConfig) SolverConfig {
	out := base
	if override.Tolerance != 0 {
		out.Tolerance = override.Tolerance
	}
	if override.MaxIterations != 0 {
		out.MaxIterations = override.MaxIterations
	}
	if override.ClampFraction != 0 {
		out.ClampFraction = override.ClampFraction
	}
	if override.PerturbFactor != 0 {
		out.PerturbFactor = override.PerturbFactor
	}
	if override.AssetFloorRatio != 0 {
		out.AssetFloorRatio = override.AssetFloorRatio
	}
	if override.VolatilityFloor != 0 {
		out.VolatilityFloor = override.VolatilityFloor
	}
	if override.MaxAssetVolatility != 0 {
		out.MaxAssetVolatility = override.MaxAssetVolatility
	}
	if override.MinAssetToEquity != 0 {
		out.MinAssetToEquity = override.MinAssetToEquity
	}
	return out
}

// MergeModel overlays non-zero fields from override onto base. A boundary name in
// override replaces the whole boundary so a ratio never leaks between variants.
func MergeModel(base, override ModelConfig) ModelConfig {
	out := base
	if override.TimeToMaturity != 0 {
		out.TimeToMaturity = override.TimeToMaturity
	}
	if override.Boundary.Name != "" {
		out.Boundary = override.Boundary
	} else if override.Boundary.BarrierRatio != 0 {
		out.Boundary.BarrierRatio = override.Boundary.BarrierRatio
	}
	return out
}
