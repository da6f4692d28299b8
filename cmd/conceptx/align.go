package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/ConceptX/labelmap"
	"github.com/arushisharma17/ConceptX/results"
)

func readRecords(path string) ([]results.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := results.ReadText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align <reference> <candidate>",
		Short: "Map the cluster ids of one result onto another",
		Long: `Pair the records of two cluster files by label and find the mapping of
candidate ids onto reference ids with the largest agreement (Hungarian
algorithm on the contingency matrix).

With --output the candidate file is rewritten with the mapped ids.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, err := readRecords(args[0])
			if err != nil {
				return err
			}

			candidate, err := readRecords(args[1])
			if err != nil {
				return err
			}

			ref, cand, unmatched := results.Pair(reference, candidate)

			alignment, err := labelmap.Align(ref, cand)
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				ids := make([]int, len(candidate))
				for i, r := range candidate {
					ids[i] = r.Cluster
				}
				mapped := alignment.Apply(ids)

				aligned := make([]results.Record, len(candidate))
				for i, r := range candidate {
					aligned[i] = results.Record{Label: r.Label, Cluster: mapped[i]}
				}

				var buf bytes.Buffer
				if err := results.WriteText(&buf, aligned); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return err
				}
			}

			return printResult(cmd, map[string]any{
				"paired":    alignment.Total,
				"matched":   alignment.Matched,
				"agreement": alignment.Agreement(),
				"unmatched": unmatched,
				"mapping":   alignment.Mapping,
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Agreement %.4f (%d of %d paired records, %d unmatched)\n",
					alignment.Agreement(), alignment.Matched, alignment.Total, unmatched)
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the candidate records with mapped ids to this file")

	return cmd
}
