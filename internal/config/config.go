package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	LayerSizes    []int   `yaml:"layer_sizes"`
	Eps           float64 `yaml:"eps"`
	LearningRate  float64 `yaml:"learning_rate"`
	Epochs        int     `yaml:"epochs"`
	SnapshotEvery int     `yaml:"snapshot_every"`
	LogEvery      int     `yaml:"log_every"`
	Seed          int64   `yaml:"seed"`
	RenderMS      int     `yaml:"render_ms"`
	Listen        string  `yaml:"listen"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	LayerSizes    string
	Eps           float64
	LearningRate  float64
	Epochs        int
	SnapshotEvery int
	LogEvery      int
	Seed          int64
	RenderMS      int
	Listen        string
}

// Default returns the built-in XOR demo configuration.
func Default() *Config {
	return &Config{
		LayerSizes:    []int{2, 2, 1},
		Eps:           1e-1,
		LearningRate:  1e-1,
		Epochs:        0,
		SnapshotEvery: 25,
		LogEvery:      500,
		Seed:          1,
		RenderMS:      100,
	}
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.LayerSizes != "" {
		sizes, err := parseLayerSizes(o.LayerSizes)
		if err != nil {
			return err
		}
		c.LayerSizes = sizes
	}
	if o.Eps != 0 {
		c.Eps = o.Eps
	}
	if o.LearningRate != 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.SnapshotEvery > 0 {
		c.SnapshotEvery = o.SnapshotEvery
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.RenderMS > 0 {
		c.RenderMS = o.RenderMS
	}
	if o.Listen != "" {
		c.Listen = o.Listen
	}
	return nil
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.LayerSizes) < 2 {
		return fmt.Errorf("layer_sizes needs at least 2 entries (got %d)", len(c.LayerSizes))
	}
	for i, s := range c.LayerSizes {
		if s <= 0 {
			return fmt.Errorf("layer_sizes[%d] must be > 0 (got %d)", i, s)
		}
	}
	if c.Eps == 0 {
		return errors.New("eps must be non-zero")
	}
	if c.LearningRate < 0 {
		return fmt.Errorf("learning_rate must be >= 0 (got %g)", c.LearningRate)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be >= 0 (got %d)", c.Epochs)
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = 25
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 500
	}
	if c.RenderMS <= 0 {
		c.RenderMS = 100
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: missing ':'", lineNo)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, "\"'")
		switch key {
		case "layer_sizes":
			sizes, err := parseLayerSizes(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cfg.LayerSizes = sizes
		case "eps":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: eps: %w", lineNo, err)
			}
			cfg.Eps = v
		case "learning_rate":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: learning_rate: %w", lineNo, err)
			}
			cfg.LearningRate = v
		case "epochs":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: epochs: %w", lineNo, err)
			}
			cfg.Epochs = v
		case "snapshot_every":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: snapshot_every: %w", lineNo, err)
			}
			cfg.SnapshotEvery = v
		case "log_every":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: log_every: %w", lineNo, err)
			}
			cfg.LogEvery = v
		case "seed":
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: seed: %w", lineNo, err)
			}
			cfg.Seed = v
		case "render_ms":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: render_ms: %w", lineNo, err)
			}
			cfg.RenderMS = v
		case "listen":
			cfg.Listen = value
		default:
			return nil, fmt.Errorf("line %d: unknown key %s", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLayerSizes(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	sizes := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("layer_sizes: %w", err)
		}
		sizes = append(sizes, v)
	}
	if len(sizes) == 0 {
		return nil, errors.New("layer_sizes: empty list")
	}
	return sizes, nil
}
