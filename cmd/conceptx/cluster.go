package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arushisharma17/ConceptX"
	"github.com/arushisharma17/ConceptX/codec"
	"github.com/arushisharma17/ConceptX/metrics/prometheus"
)

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML configuration file; explicit flags override it")
	fs.IntP("k", "k", 0, "Number of final clusters")
	fs.Float64P("tau", "t", 0, "Distance threshold (estimated when unset)")
	fs.String("mode", "fast", "Clique pass: fast or exact")
	fs.Float64P("sample-ratio", "a", 0, "Keep only the first N*ratio points")
	fs.StringP("points", "p", "", "Points file (.npy or text)")
	fs.StringP("labels", "v", "", "Labels file (.npy or one label per line)")
	fs.StringP("output", "o", ".", "Output location: directory, s3://bucket/prefix or minio://host/bucket/prefix")
	fs.StringP("existing-index", "c", "", "Index blob to reuse instead of building one")
	fs.String("index-type", "hnsw", "Index type: hnsw or flat")
	fs.Int("m", 0, "HNSW connections per node")
	fs.Int("ef-construction", 0, "HNSW candidate list size during construction")
	fs.Int("ef-search", 0, "HNSW minimum candidate list size during queries")
	fs.String("compression", "zstd", "Index blob compression: none, lz4 or zstd")
	fs.String("stage2", "ward", "Centroid clustering: ward or kmeans")
	fs.Int64("seed", 0, "Random seed (0 means time based)")
}

// runConfig loads --config and overlays every flag the user set.
func runConfig(cmd *cobra.Command) (conceptx.Config, error) {
	fs := cmd.Flags()

	cfg := conceptx.DefaultConfig()
	if path, _ := fs.GetString("config"); path != "" {
		var err error
		if cfg, err = conceptx.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}

	set("k", func() { cfg.K, _ = fs.GetInt("k") })
	set("tau", func() {
		tau, _ := fs.GetFloat64("tau")
		cfg.Tau = &tau
	})
	set("mode", func() { cfg.Mode, _ = fs.GetString("mode") })
	set("sample-ratio", func() { cfg.SampleRatio, _ = fs.GetFloat64("sample-ratio") })
	set("points", func() { cfg.Points, _ = fs.GetString("points") })
	set("labels", func() { cfg.Labels, _ = fs.GetString("labels") })
	set("existing-index", func() { cfg.ExistingIndexPath, _ = fs.GetString("existing-index") })
	set("index-type", func() { cfg.Index.Type, _ = fs.GetString("index-type") })
	set("m", func() { cfg.Index.M, _ = fs.GetInt("m") })
	set("ef-construction", func() { cfg.Index.EFConstruction, _ = fs.GetInt("ef-construction") })
	set("ef-search", func() { cfg.Index.EFSearch, _ = fs.GetInt("ef-search") })
	set("compression", func() { cfg.Index.Compression, _ = fs.GetString("compression") })
	set("stage2", func() { cfg.Stage2, _ = fs.GetString("stage2") })
	set("seed", func() { cfg.Seed, _ = fs.GetInt64("seed") })

	if fs.Changed("output") || cfg.Output == "" {
		cfg.Output, _ = fs.GetString("output")
	}

	return cfg, nil
}

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster points with leader cliques and centroid clustering",
		Long: `Cluster points into K concept clusters.

Writes clusters-leaders-{K}-{tau}{ref}.txt with one "label|||cluster" line per
point, a JSON run report and, when one was built, the index blob
leaders{ref}.ann for reuse with --existing-index.

Examples:
  conceptx cluster -p points.npy -v vocab.npy -k 50
  conceptx cluster -p points.npy -v vocab.npy -k 50 -t 1.5 --mode exact
  conceptx cluster --config run.yaml -o s3://bucket/runs/layer12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()

			cfg, err := runConfig(cmd)
			if err != nil {
				return err
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			compression, err := cfg.Compression()
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			codecName, _ := cmd.Flags().GetString("report-codec")
			reportCodec, ok := codec.ByName(codecName)
			if !ok {
				return fmt.Errorf("%w: report codec %q (want one of %v)", conceptx.ErrInvalidConfig, codecName, codec.Names())
			}

			store, err := loadStore(cfg.Points, cfg.Labels, 0)
			if err != nil {
				return err
			}

			out, err := openStore(ctx, cfg.Output)
			if err != nil {
				return err
			}

			metrics := prometheus.New("")
			opts = append(opts, conceptx.WithLogger(logger), conceptx.WithMetricsCollector(metrics))

			res, clusterErr := conceptx.Cluster(ctx, store.Points(), store.Labels(), cfg.K, opts...)

			if path, _ := cmd.Flags().GetString("metrics-textfile"); path != "" {
				if err := metrics.WriteToTextfile(path); err != nil {
					logger.WarnContext(ctx, "write metrics textfile", "path", path, "error", err)
				}
			}

			if clusterErr != nil {
				return clusterErr
			}

			names, err := conceptx.WriteArtifacts(ctx, out, res, conceptx.NewReport(res, start, time.Now()), conceptx.ArtifactOptions{
				Compression: compression,
				Codec:       reportCodec,
			})
			if err != nil {
				return fmt.Errorf("write artifacts: %w", err)
			}

			return printResult(cmd, map[string]any{
				"points":    res.Store.Len(),
				"cliques":   res.Partition.Len(),
				"k":         res.K,
				"tau":       res.Tau,
				"estimated": res.TauEstimated,
				"artifacts": names,
			}, func() {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Clustered %d points into %d cliques and %d clusters (tau=%g)\n",
					res.Store.Len(), res.Partition.Len(), res.K, res.Tau)
				for _, name := range names {
					fmt.Fprintf(w, "  %s\n", name)
				}
			})
		},
	}

	addRunFlags(cmd.Flags())
	cmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file")
	cmd.Flags().String("report-codec", "go-json", "JSON encoder for the run report: go-json or json")

	return cmd
}
