package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"landcover/pkg/dataprep"
)

// ClassConfig is one label set entry as written in YAML.
type ClassConfig struct {
	Name  string `yaml:"name"`
	Code  int    `yaml:"code"`
	Color string `yaml:"color"`
}

type Config struct {
	BasePath    string `yaml:"base_path"`
	RasterPath  string `yaml:"raster_path"`
	VectorPath  string `yaml:"vector_path"`
	ClassColumn string `yaml:"class_column"`
	SampleCount int    `yaml:"sample_count"`
	Seed        int64  `yaml:"seed"`

	Mode               string    `yaml:"mode"`
	ValidationFraction float64   `yaml:"validation_fraction"`
	Stratified         bool      `yaml:"stratified"`
	KernelSizes        []int     `yaml:"kernel_sizes"`
	LearningRates      []float64 `yaml:"learning_rates"`
	Epochs             int       `yaml:"epochs"`
	Folds              int       `yaml:"folds"`
	BatchSize          int       `yaml:"batch_size"`
	PredictBatchSize   int       `yaml:"predict_batch_size"`
	Optimizer          string    `yaml:"optimizer"`
	Selection          string    `yaml:"selection"`
	Dropout            float64   `yaml:"dropout"`

	Labels       []ClassConfig `yaml:"labels"`
	IncludeCloud bool          `yaml:"include_cloud"`
	NoData       *int          `yaml:"nodata"`

	ClassifyRasterPath string `yaml:"classify_raster_path"`
	OutputDir          string `yaml:"output_dir"`
	ModelPath          string `yaml:"model_path"`
	LabelRasterPath    string `yaml:"label_raster_path"`
	LegendImagePath    string `yaml:"legend_image_path"`
	HistoryChartPath   string `yaml:"history_chart_path"`
	SignatureChartPath string `yaml:"signature_chart_path"`
	FeatureTablePath   string `yaml:"feature_table_path"`
	LedgerPath         string `yaml:"ledger_path"`
}

// DefaultLabels is the fixed label set used when the config lists none.
// Cloud is only part of it when include_cloud is set.
func DefaultLabels(includeCloud bool) []ClassConfig {
	out := []ClassConfig{
		{Name: "seagrass", Code: 1, Color: "#1b9e77"},
		{Name: "land", Code: 2, Color: "#a6761d"},
		{Name: "mangroves", Code: 3, Color: "#00441b"},
		{Name: "water", Code: 4, Color: "#2166ac"},
		{Name: "other_vegetation", Code: 5, Color: "#a6d854"},
	}
	if includeCloud {
		out = append(out, ClassConfig{Name: "cloud", Code: 6, Color: "#f0f0f0"})
	}
	return out
}

// Load reads the YAML config at path (CONFIG_PATH overrides an empty path),
// applies LANDCOVER_* environment overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// Env vars override YAML values
	envOverride(&cfg.BasePath, "LANDCOVER_BASE_PATH")
	envOverride(&cfg.RasterPath, "LANDCOVER_RASTER_PATH")
	envOverride(&cfg.VectorPath, "LANDCOVER_VECTOR_PATH")
	envOverride(&cfg.ClassColumn, "LANDCOVER_CLASS_COLUMN")
	envOverride(&cfg.Mode, "LANDCOVER_MODE")
	envOverride(&cfg.Selection, "LANDCOVER_SELECTION")
	envOverride(&cfg.OutputDir, "LANDCOVER_OUTPUT_DIR")
	envOverride(&cfg.ClassifyRasterPath, "LANDCOVER_CLASSIFY_RASTER_PATH")
	if err := envOverrideInt(&cfg.SampleCount, "LANDCOVER_SAMPLE_COUNT"); err != nil {
		return nil, err
	}
	if err := envOverrideInt(&cfg.Epochs, "LANDCOVER_EPOCHS"); err != nil {
		return nil, err
	}
	if err := envOverrideInt(&cfg.Folds, "LANDCOVER_FOLDS"); err != nil {
		return nil, err
	}
	if err := envOverrideInt(&cfg.BatchSize, "LANDCOVER_BATCH_SIZE"); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaults holds the scalar defaults. They are set before the YAML is
// decoded, so an explicit zero in the file (seed: 0, dropout: 0) is kept.
func defaults() Config {
	return Config{
		ClassColumn:        "class",
		Seed:               42,
		Mode:               "kfold",
		ValidationFraction: 0.2,
		Epochs:             50,
		Folds:              5,
		BatchSize:          32,
		PredictBatchSize:   10000,
		Optimizer:          "adam",
		Selection:          "accuracy",
		Dropout:            0.3,
		OutputDir:          "outputs",
	}
}

// applyDefaults fills list and path settings that depend on other fields.
func (c *Config) applyDefaults() {
	if len(c.KernelSizes) == 0 {
		c.KernelSizes = []int{3}
	}
	if len(c.LearningRates) == 0 {
		c.LearningRates = []float64{0.001}
	}
	if len(c.Labels) == 0 {
		c.Labels = DefaultLabels(c.IncludeCloud)
	}
	defaultPath(&c.ModelPath, c.OutputDir, "model.json")
	defaultPath(&c.LabelRasterPath, c.OutputDir, "classified.tif")
	defaultPath(&c.LegendImagePath, c.OutputDir, "classified.png")
	defaultPath(&c.HistoryChartPath, c.OutputDir, "history.png")
	defaultPath(&c.SignatureChartPath, c.OutputDir, "signatures.png")
	defaultPath(&c.FeatureTablePath, c.OutputDir, "features.csv")
	defaultPath(&c.LedgerPath, c.OutputDir, "runs.db")
}

func defaultPath(field *string, dir, name string) {
	if *field == "" {
		*field = filepath.Join(dir, name)
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case "kfold", "split":
	default:
		return fmt.Errorf("config: mode must be 'kfold' or 'split', got '%s'", c.Mode)
	}
	switch c.Selection {
	case "accuracy", "loss":
	default:
		return fmt.Errorf("config: selection must be 'accuracy' or 'loss', got '%s'", c.Selection)
	}
	switch c.Optimizer {
	case "adam", "sgd":
	default:
		return fmt.Errorf("config: optimizer must be 'adam' or 'sgd', got '%s'", c.Optimizer)
	}
	if c.Mode == "kfold" && c.Folds < 2 {
		return fmt.Errorf("config: folds must be >= 2, got %d", c.Folds)
	}
	if c.ValidationFraction <= 0 || c.ValidationFraction >= 1 {
		return fmt.Errorf("config: validation_fraction must be in (0,1), got %v", c.ValidationFraction)
	}
	if c.Epochs < 1 || c.BatchSize < 1 || c.PredictBatchSize < 1 {
		return fmt.Errorf("config: epochs, batch_size and predict_batch_size must be >= 1")
	}
	if c.SampleCount < 0 {
		return fmt.Errorf("config: sample_count must be >= 0, got %d", c.SampleCount)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("config: dropout must be in [0,1), got %v", c.Dropout)
	}
	for _, k := range c.KernelSizes {
		if k < 1 {
			return fmt.Errorf("config: kernel sizes must be >= 1, got %d", k)
		}
	}
	for _, lr := range c.LearningRates {
		if lr <= 0 {
			return fmt.Errorf("config: learning rates must be > 0, got %v", lr)
		}
	}
	if c.NoData != nil && (*c.NoData < 0 || *c.NoData > 255) {
		return fmt.Errorf("config: nodata must fit in a byte, got %d", *c.NoData)
	}
	labels, err := c.LabelSet()
	if err != nil {
		return err
	}
	if c.NoData != nil {
		if _, err := labels.IndexOfCode(*c.NoData); err == nil {
			return fmt.Errorf("config: nodata %d collides with a class code", *c.NoData)
		}
	}
	return nil
}

// LabelSet builds the validated label set.
func (c *Config) LabelSet() (*dataprep.LabelSet, error) {
	classes := make([]dataprep.Class, len(c.Labels))
	for i, l := range c.Labels {
		col, err := parseColor(l.Color)
		if err != nil {
			return nil, fmt.Errorf("config: class %q: %w", l.Name, err)
		}
		classes[i] = dataprep.Class{Name: l.Name, Code: l.Code, Color: col}
	}
	return dataprep.NewLabelSet(classes)
}

// NoDataByte returns the configured no-data code, if any.
func (c *Config) NoDataByte() *uint8 {
	if c.NoData == nil {
		return nil
	}
	v := uint8(*c.NoData)
	return &v
}

// Resolve makes p absolute against the base path unless it already is.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BasePath == "" {
		return p
	}
	return filepath.Join(c.BasePath, p)
}

func parseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q, want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("config: invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
