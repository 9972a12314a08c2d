package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fieldprofile",
		Short: "Cluster metadata field-presence patterns into ranked archetypes",
		Long: `Fieldprofile summarizes a metadata corpus by the fields its records populate.

It encodes aggregated field-presence patterns as fixed-width fingerprints over a
canonical field list, groups near-identical fingerprints into clusters, and ranks
the clusters by how much of the corpus they represent.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newClusterCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newConvertCmd())

	return cmd
}
