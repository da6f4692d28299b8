package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arushisharma17/ConceptX"
	"github.com/arushisharma17/ConceptX/agglomerative"
	"github.com/arushisharma17/ConceptX/blobstore"
	"github.com/arushisharma17/ConceptX/internal/kmeans"
	"github.com/arushisharma17/ConceptX/internal/npy"
	"github.com/arushisharma17/ConceptX/results"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

func addBaselineFlags(fs *pflag.FlagSet) {
	fs.IntP("k", "k", 0, "Number of clusters")
	fs.Float64P("sample-ratio", "a", 0, "Keep only the first N*ratio points")
	fs.StringP("points", "p", "", "Points file (.npy or text)")
	fs.StringP("labels", "v", "", "Labels file (.npy or one label per line)")
	fs.StringP("output", "o", ".", "Output location: directory, s3://bucket/prefix or minio://host/bucket/prefix")
}

// baselineInputs loads the shared inputs of the direct clustering commands.
func baselineInputs(cmd *cobra.Command) (store *vectorstore.Store, out blobstore.BlobStore, k int, ref string, err error) {
	fs := cmd.Flags()

	k, _ = fs.GetInt("k")
	if k <= 0 {
		return nil, nil, 0, "", fmt.Errorf("%w: -k must be positive", conceptx.ErrInvalidK)
	}

	ratio, _ := fs.GetFloat64("sample-ratio")
	pointsPath, _ := fs.GetString("points")
	labelsPath, _ := fs.GetString("labels")
	output, _ := fs.GetString("output")

	store, err = loadStore(pointsPath, labelsPath, ratio)
	if err != nil {
		return nil, nil, 0, "", err
	}

	out, err = openStore(cmd.Context(), output)
	if err != nil {
		return nil, nil, 0, "", err
	}

	return store, out, k, conceptx.Ref(ratio), nil
}

// putAssignments writes one record per point in store order.
func putAssignments(ctx context.Context, out blobstore.BlobStore, name string, store *vectorstore.Store, assignments []int) error {
	records := make([]results.Record, store.Len())
	for i := range records {
		records[i] = results.Record{Label: store.Label(i), Cluster: assignments[i]}
	}

	var buf bytes.Buffer
	if err := results.WriteText(&buf, records); err != nil {
		return err
	}

	return out.Put(ctx, name, buf.Bytes())
}

func newKMeansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kmeans",
		Short: "Cluster all points directly with k-means",
		Long: `Cluster every point with Lloyd's k-means, without cliques. Writes
clusters-kmeans-{K}{ref}.txt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, out, k, ref, err := baselineInputs(cmd)
			if err != nil {
				return err
			}

			seed, _ := cmd.Flags().GetInt64("seed")
			restarts, _ := cmd.Flags().GetInt("restarts")

			start := time.Now()
			model, err := kmeans.Train(ctx, store.Points(), k, func(o *kmeans.Options) {
				o.Seed = seed
				if restarts > 0 {
					o.Restarts = restarts
				}
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			name := conceptx.BaselineClustersName("kmeans", k, ref)
			if err := putAssignments(ctx, out, name, store, model.Assignments); err != nil {
				return err
			}

			return printResult(cmd, map[string]any{
				"name":       name,
				"points":     store.Len(),
				"k":          k,
				"inertia":    model.Inertia,
				"iterations": model.Iterations,
				"duration":   elapsed.String(),
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "k-means of %d points into %d clusters (inertia %g) in %s: %s\n",
					store.Len(), k, model.Inertia, elapsed, name)
			})
		},
	}

	addBaselineFlags(cmd.Flags())
	cmd.Flags().Int64("seed", kmeans.DefaultOptions.Seed, "Random seed")
	cmd.Flags().Int("restarts", 0, "Independent seedings, the lowest inertia wins")

	return cmd
}

func newAgglomerativeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agglomerative",
		Short: "Cluster all points directly with Ward linkage",
		Long: `Cluster every point with Ward linkage, without cliques. Writes
clusters-agg-{K}{ref}.txt and the linkage matrix agg_linkage_matrix_{K}.npy.
Memory grows with the square of the point count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, out, k, ref, err := baselineInputs(cmd)
			if err != nil {
				return err
			}
			if k > store.Len() {
				return fmt.Errorf("%w: k=%d exceeds %d points", conceptx.ErrInvalidK, k, store.Len())
			}

			start := time.Now()
			merges, err := agglomerative.Linkage(ctx, store.Points())
			if err != nil {
				return err
			}

			assignments, err := agglomerative.Cut(merges, store.Len(), k)
			if err != nil {
				return fmt.Errorf("%w: %w", conceptx.ErrInvalidK, err)
			}
			elapsed := time.Since(start)

			var linkage bytes.Buffer
			if err := npy.WriteMatrix(&linkage, agglomerative.LinkageMatrix(merges)); err != nil {
				return err
			}

			name := conceptx.BaselineClustersName("agg", k, ref)
			if err := putAssignments(ctx, out, name, store, assignments); err != nil {
				return err
			}
			if err := out.Put(ctx, conceptx.LinkageName(k), linkage.Bytes()); err != nil {
				return err
			}

			return printResult(cmd, map[string]any{
				"name":     name,
				"linkage":  conceptx.LinkageName(k),
				"points":   store.Len(),
				"k":        k,
				"duration": elapsed.String(),
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Ward clustering of %d points into %d clusters in %s: %s, %s\n",
					store.Len(), k, elapsed, name, conceptx.LinkageName(k))
			})
		},
	}

	addBaselineFlags(cmd.Flags())

	return cmd
}
