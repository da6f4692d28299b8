package conceptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/persistence"
)

// IndexConfig configures the neighbour index built for the fast pass.
type IndexConfig struct {
	Type           string `yaml:"type"`
	M              int    `yaml:"m"`
	EFConstruction int    `yaml:"ef_construction"`
	EFSearch       int    `yaml:"ef_search"`
	Compression    string `yaml:"compression"`
}

// Config is the file form of a clustering run.
type Config struct {
	K                 int         `yaml:"k"`
	Tau               *float64    `yaml:"tau,omitempty"`
	Mode              string      `yaml:"mode"`
	ExistingIndexPath string      `yaml:"existing_index_path,omitempty"`
	SampleRatio       float64     `yaml:"sample_ratio"`
	Index             IndexConfig `yaml:"index"`
	Stage2            string      `yaml:"stage2"`
	Seed              int64       `yaml:"seed"`
	Output            string      `yaml:"output,omitempty"`
	Points            string      `yaml:"points,omitempty"`
	Labels            string      `yaml:"labels,omitempty"`
}

// DefaultConfig returns the configuration used for unset keys.
func DefaultConfig() Config {
	return Config{
		Mode: string(ModeFast),
		Index: IndexConfig{
			Type:           index.TypeHNSW.String(),
			M:              hnsw.DefaultOptions.M,
			EFConstruction: hnsw.DefaultOptions.EF,
			EFSearch:       hnsw.DefaultOptions.EFSearch,
			Compression:    persistence.CompressionZSTD.String(),
		},
		Stage2: "ward",
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Validate checks every value. k must be set.
func (c Config) Validate() error {
	var errs []error

	if c.K <= 0 {
		errs = append(errs, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidK, c.K))
	}

	if c.Tau != nil && (math.IsNaN(*c.Tau) || math.IsInf(*c.Tau, 0)) {
		errs = append(errs, fmt.Errorf("%w: tau %v", ErrInvalidConfig, *c.Tau))
	}

	if _, err := ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}

	if math.IsNaN(c.SampleRatio) || c.SampleRatio < 0 || c.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: sample_ratio must be in (0, 1], got %v", ErrInvalidConfig, c.SampleRatio))
	}

	if _, err := index.ParseType(c.Index.Type); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if c.Index.M < 0 || c.Index.M == 1 {
		errs = append(errs, fmt.Errorf("%w: index.m must be at least 2, got %d", ErrInvalidConfig, c.Index.M))
	}

	if c.Index.EFConstruction < 0 || c.Index.EFSearch < 0 {
		errs = append(errs, fmt.Errorf("%w: negative ef", ErrInvalidConfig))
	}

	if _, err := c.Compression(); err != nil {
		errs = append(errs, err)
	}

	if _, err := ParseClusterer(c.Stage2, c.Seed); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Compression returns the index blob compression.
func (c Config) Compression() (persistence.CompressionType, error) {
	ct, err := persistence.ParseCompression(c.Index.Compression)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return ct, nil
}

// Options converts the configuration into Cluster options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	mode, _ := ParseMode(c.Mode)
	indexType, _ := index.ParseType(c.Index.Type)
	clusterer, _ := ParseClusterer(c.Stage2, c.Seed)

	opts := []Option{
		WithMode(mode),
		WithIndexType(indexType),
		WithClusterer(clusterer),
		WithSeed(c.Seed),
		WithSampleRatio(c.SampleRatio),
	}

	if c.Tau != nil {
		opts = append(opts, WithThreshold(*c.Tau))
	}

	if path := strings.TrimSpace(c.ExistingIndexPath); path != "" {
		opts = append(opts, WithIndexPath(path))
	}

	ic := c.Index
	opts = append(opts, WithHNSWOptions(func(o *hnsw.Options) {
		if ic.M > 0 {
			o.M = ic.M
		}
		if ic.EFConstruction > 0 {
			o.EF = ic.EFConstruction
		}
		if ic.EFSearch > 0 {
			o.EFSearch = ic.EFSearch
		}
	}))

	return opts, nil
}
