package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/ConceptX"
	"github.com/arushisharma17/ConceptX/dataset"
	"github.com/arushisharma17/ConceptX/internal/npy"
)

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write random points and word_{i} labels",
		Long: `Write synthetic_points.npy and synthetic_vocab.npy (or .txt with
--labels-format txt) for trying out the clustering commands.

Examples:
  conceptx synth -n 10000 -d 64 --centers 20 -o ./data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs := cmd.Flags()

			format, _ := fs.GetString("labels-format")
			if format != "npy" && format != "txt" {
				return fmt.Errorf("%w: labels format %q", conceptx.ErrInvalidConfig, format)
			}

			opts := dataset.DefaultSyntheticOptions
			opts.Points, _ = fs.GetInt("points")
			opts.Dimension, _ = fs.GetInt("dimension")
			opts.Centers, _ = fs.GetInt("centers")
			opts.Spread, _ = fs.GetFloat64("spread")
			opts.Seed, _ = fs.GetInt64("seed")

			points, labels, _, err := dataset.Synthetic(func(o *dataset.SyntheticOptions) { *o = opts })
			if err != nil {
				return err
			}

			output, _ := fs.GetString("output")
			out, err := openStore(ctx, output)
			if err != nil {
				return err
			}

			var pointsBuf bytes.Buffer
			if err := npy.WriteMatrix(&pointsBuf, points); err != nil {
				return err
			}

			var labelsBuf bytes.Buffer
			if format == "npy" {
				if err := npy.WriteStrings(&labelsBuf, labels); err != nil {
					return err
				}
			} else {
				labelsBuf.WriteString(strings.Join(labels, "\n"))
				labelsBuf.WriteByte('\n')
			}

			pointsName := "synthetic_points.npy"
			labelsName := "synthetic_vocab." + format

			if err := out.Put(ctx, pointsName, pointsBuf.Bytes()); err != nil {
				return err
			}
			if err := out.Put(ctx, labelsName, labelsBuf.Bytes()); err != nil {
				return err
			}

			return printResult(cmd, map[string]any{
				"points":    pointsName,
				"labels":    labelsName,
				"count":     len(points),
				"dimension": opts.Dimension,
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d points of dimension %d: %s, %s\n", len(points), opts.Dimension, pointsName, labelsName)
			})
		},
	}

	d := dataset.DefaultSyntheticOptions
	cmd.Flags().IntP("points", "n", d.Points, "Number of points")
	cmd.Flags().IntP("dimension", "d", d.Dimension, "Point dimension")
	cmd.Flags().Int("centers", d.Centers, "Draw Gaussian blobs around this many centers (0 means uniform)")
	cmd.Flags().Float64("spread", d.Spread, "Blob standard deviation")
	cmd.Flags().Int64("seed", d.Seed, "Random seed")
	cmd.Flags().StringP("output", "o", ".", "Output location")
	cmd.Flags().String("labels-format", "npy", "Labels format: npy or txt")

	return cmd
}
