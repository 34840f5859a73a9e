package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// AsOfLayout is the layout of the as_of date in YAML and on the command line.
const AsOfLayout = "2006-01-02"

// YearConfig holds the tables and constants for one model year.
type YearConfig struct {
	Year                    int     `yaml:"year"`
	RateTable               string  `yaml:"rate_table"`
	RateTableSkipRows       int     `yaml:"rate_table_skip_rows"`
	CodeMap                 string  `yaml:"code_map"`
	NormalizationFactor     float64 `yaml:"normalization_factor"`
	CodingPatternAdjustment float64 `yaml:"coding_pattern_adjustment"`
	Weight                  float64 `yaml:"weight"`
}

// Config holds all runtime configuration for a scoring run.
type Config struct {
	ConfigPath  string
	DSN         string
	LogFormat   string // "text" or "json"
	LogLevel    string
	MembersPath string
	AsOfRaw     string
	AsOf        time.Time
	Workers     int
	ScoresOut   string
	BlendOut    string
	MetricsFile string
	Force       bool
	Strict      bool
	Years       []YearConfig
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	AsOf        string       `yaml:"as_of"`
	Members     string       `yaml:"members"`
	Workers     int          `yaml:"workers"`
	ScoresOut   string       `yaml:"scores_out"`
	BlendOut    string       `yaml:"blend_out"`
	MetricsFile string       `yaml:"metrics_file"`
	Years       []YearConfig `yaml:"years"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Values already set (from flags) are kept.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.ConfigPath = path
	setString(&c.AsOfRaw, yc.AsOf)
	setString(&c.MembersPath, yc.Members)
	setString(&c.ScoresOut, yc.ScoresOut)
	setString(&c.BlendOut, yc.BlendOut)
	setString(&c.MetricsFile, yc.MetricsFile)
	if c.Workers == 0 {
		c.Workers = yc.Workers
	}
	if len(c.Years) == 0 {
		c.Years = yc.Years
	}
	return nil
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// ResolveAsOf parses AsOfRaw, defaulting to today.
func (c *Config) ResolveAsOf(now time.Time) error {
	if c.AsOfRaw == "" {
		y, m, d := now.Date()
		c.AsOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return nil
	}
	t, err := time.Parse(AsOfLayout, c.AsOfRaw)
	if err != nil {
		return fmt.Errorf("invalid as_of %q (want YYYY-MM-DD): %w", c.AsOfRaw, err)
	}
	c.AsOf = t
	return nil
}

// ValidateTables checks the model years and the table files they reference.
func (c *Config) ValidateTables() error {
	if len(c.Years) == 0 {
		return errors.New("at least one model year is required")
	}
	seen := make(map[int]bool, len(c.Years))
	for _, y := range c.Years {
		if y.Year <= 0 {
			return fmt.Errorf("model year %d is invalid", y.Year)
		}
		if seen[y.Year] {
			return fmt.Errorf("model year %d is configured twice", y.Year)
		}
		seen[y.Year] = true
		if !(y.NormalizationFactor > 0) {
			return fmt.Errorf("year %d: normalization_factor must be > 0", y.Year)
		}
		if y.CodingPatternAdjustment < 0 || y.CodingPatternAdjustment >= 1 {
			return fmt.Errorf("year %d: coding_pattern_adjustment must be in [0,1)", y.Year)
		}
		if y.RateTableSkipRows < 0 {
			return fmt.Errorf("year %d: rate_table_skip_rows must be >= 0", y.Year)
		}
		if err := checkFile("year "+fmt.Sprint(y.Year)+" rate_table", y.RateTable); err != nil {
			return err
		}
		if err := checkFile("year "+fmt.Sprint(y.Year)+" code_map", y.CodeMap); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if err := checkFile("members", c.MembersPath); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return c.ValidateTables()
}

// ValidateDSN checks that a database connection string is set.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or HCCSCORE_DB_URL is required")
	}
	return nil
}

func checkFile(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", name)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s not accessible: %w", name, err)
	}
	return nil
}

// YearNumbers returns the configured model years in ascending order.
func (c *Config) YearNumbers() []int {
	out := make([]int, len(c.Years))
	for i, y := range c.Years {
		out[i] = y.Year
	}
	sort.Ints(out)
	return out
}

// Weights maps each model year to its blend weight.
func (c *Config) Weights() map[int]float64 {
	w := make(map[int]float64, len(c.Years))
	for _, y := range c.Years {
		w[y.Year] = y.Weight
	}
	return w
}

// WeightSum adds the blend weights of all years.
func (c *Config) WeightSum() float64 {
	var s float64
	for _, y := range c.Years {
		s += y.Weight
	}
	return s
}

// WeightsBalanced reports whether the weights sum to 1 within rounding.
func (c *Config) WeightsBalanced() bool {
	return math.Abs(c.WeightSum()-1) < 1e-9
}
