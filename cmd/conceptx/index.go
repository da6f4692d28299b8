package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/ConceptX"
	"github.com/arushisharma17/ConceptX/index/hnsw"
	"github.com/arushisharma17/ConceptX/persistence"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage neighbour index blobs",
	}

	cmd.AddCommand(newIndexBuildCmd(), newIndexInfoCmd())

	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a neighbour index blob for later cluster runs",
		Long: `Build the index a fast cluster run would build and store it as
leaders{ref}.ann.

Examples:
  conceptx index build -p points.npy -o ./out
  conceptx index build -p points.npy -a 0.5 --index-type flat --compression lz4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := runConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.K == 0 {
				// k is irrelevant for the index.
				cfg.K = 1
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

			store, err := loadStore(cfg.Points, "", 0)
			if err != nil {
				return err
			}

			out, err := openStore(ctx, cfg.Output)
			if err != nil {
				return err
			}

			idx, err := conceptx.BuildIndex(ctx, store.Points(), append(opts, conceptx.WithLogger(logger))...)
			if err != nil {
				return err
			}

			data, err := persistence.EncodeIndex(idx, compression)
			if err != nil {
				return err
			}

			name := conceptx.IndexName(conceptx.Ref(cfg.SampleRatio))
			if err := out.Put(ctx, name, data); err != nil {
				return fmt.Errorf("write index: %w", err)
			}

			return printResult(cmd, map[string]any{
				"name":   name,
				"type":   idx.Name(),
				"points": idx.Len(),
				"bytes":  len(data),
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Built %s index over %d points: %s (%d bytes)\n", idx.Name(), idx.Len(), name, len(data))
			})
		},
	}

	addRunFlags(cmd.Flags())

	return cmd
}

func newIndexInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <location> <name>",
		Short: "Describe a stored index blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, args[0])
			if err != nil {
				return err
			}

			idx, err := conceptx.LoadIndex(ctx, store, args[1])
			if err != nil {
				return err
			}

			info := map[string]any{
				"type":      idx.Name(),
				"points":    idx.Len(),
				"dimension": idx.Dimension(),
			}
			if h, ok := idx.(*hnsw.HNSW); ok {
				info["hnsw"] = h.Stats()
			}

			return printResult(cmd, info, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s index: %d points of dimension %d\n", idx.Name(), idx.Len(), idx.Dimension())
			})
		},
	}
}
