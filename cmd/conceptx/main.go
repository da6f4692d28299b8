// Command conceptx clusters labelled embeddings into concept groups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "conceptx",
		Short: "Leader clustering of labelled embeddings",
		Long: `conceptx groups large sets of labelled points, such as contextual token
embeddings, into concept clusters.

Points are first grouped into tight cliques around leaders within a distance
threshold tau, then the clique centroids are clustered into K groups.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Bool("json", false, "Print command results as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newClusterCmd(),
		newIndexCmd(),
		newKMeansCmd(),
		newAgglomerativeCmd(),
		newAlignCmd(),
		newSynthCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, map[string]string{"version": version}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "conceptx version %s\n", version)
			})
		},
	}
}
