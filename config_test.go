package conceptx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arushisharma17/ConceptX/persistence"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
k: 3
tau: 2
mode: exact
sample_ratio: 0.5
index:
  type: flat
  compression: lz4
stage2: kmeans
seed: 11
output: out
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.K)
	require.NotNil(t, cfg.Tau)
	assert.Equal(t, 2.0, *cfg.Tau)
	assert.Equal(t, "exact", cfg.Mode)
	assert.Equal(t, 0.5, cfg.SampleRatio)
	assert.Equal(t, "flat", cfg.Index.Type)
	assert.Equal(t, 16, cfg.Index.M, "unset keys keep their defaults")
	assert.Equal(t, "kmeans", cfg.Stage2)
	assert.Equal(t, int64(11), cfg.Seed)

	ct, err := cfg.Compression()
	require.NoError(t, err)
	assert.Equal(t, persistence.CompressionLZ4, ct)
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Nil(t, cfg.Tau)
}

func TestParseConfig_UnknownKey(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("k: 3\nclusters: 4\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.K = 5
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"MissingK", func(c *Config) { c.K = 0 }, ErrInvalidK},
		{"Mode", func(c *Config) { c.Mode = "slow" }, ErrInvalidConfig},
		{"Ratio", func(c *Config) { c.SampleRatio = 2 }, ErrInvalidConfig},
		{"IndexType", func(c *Config) { c.Index.Type = "ivf" }, ErrInvalidConfig},
		{"M", func(c *Config) { c.Index.M = 1 }, ErrInvalidConfig},
		{"Compression", func(c *Config) { c.Index.Compression = "gzip" }, ErrInvalidConfig},
		{"Stage2", func(c *Config) { c.Stage2 = "dbscan" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	points, labels := sixPoints()

	cfg := DefaultConfig()
	cfg.K = 3
	cfg.Mode = "exact"
	tau := 2.0
	cfg.Tau = &tau

	opts, err := cfg.Options()
	require.NoError(t, err)

	res, err := Cluster(context.Background(), points, labels, cfg.K, opts...)
	require.NoError(t, err)
	assert.Equal(t, ModeExact, res.Mode)
	assert.Equal(t, 3, res.Partition.Len())

	cfg.K = 0
	_, err = cfg.Options()
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestLoadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 7
	cfg.Output = "s3://bucket/runs"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "conceptx.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
