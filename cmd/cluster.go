package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/fieldprofile/internal/clustering"
	"github.com/lehigh-university-libraries/fieldprofile/internal/llm"
	"github.com/lehigh-university-libraries/fieldprofile/internal/narrate"
	"github.com/lehigh-university-libraries/fieldprofile/internal/profile"
	"github.com/lehigh-university-libraries/fieldprofile/internal/report"
	"github.com/spf13/cobra"
)

func newClusterCmd() *cobra.Command {
	var fieldsPath string
	var profilesPath string
	var threshold float64
	var format string
	var outputPath string
	var describe bool
	var provider string
	var model string
	var top int

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group profile rows into ranked clusters of similar field patterns",
		Long: `Encodes every aggregated profile row as a fingerprint over the canonical field
list, links fingerprints whose share of matching positions is at least the
threshold, and ranks the resulting clusters by their summed corpus weight.

The default csv format prints one "rank,row" line per cluster member.`,
		Example: `  # Default threshold, csv output
  fieldprofile cluster --fields field-counts.csv --profiles profiles.csv

  # Looser grouping with a text summary
  fieldprofile cluster --fields field-counts.csv --profiles profiles.csv --threshold 0.9 --format text

  # Spreadsheet with an LLM-written summary of the top clusters
  fieldprofile cluster --fields field-counts.csv --profiles profiles.parquet \
    --format xlsx --output clusters.xlsx --describe --provider gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := envFloat(cmd, "threshold", "FIELDPROFILE_THRESHOLD", threshold)
			if err != nil {
				return err
			}
			if err := clustering.ValidateThreshold(threshold); err != nil {
				return err
			}

			format = strings.ToLower(envString(cmd, "format", "FIELDPROFILE_FORMAT", format))
			if !slices.Contains(report.Formats, format) {
				return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(report.Formats, ", "))
			}
			if format == "xlsx" && outputPath == "" {
				return fmt.Errorf("xlsx output requires --output")
			}

			reader, err := loadReader(fieldsPath, profilesPath)
			if err != nil {
				return err
			}

			rep, err := reader.Cluster(threshold)
			if err != nil {
				return err
			}

			meta := report.Metadata{
				RunID:        uuid.NewString(),
				GeneratedAt:  time.Now(),
				FieldsFile:   fieldsPath,
				ProfilesFile: profilesPath,
			}

			if describe {
				p, err := llm.New(provider)
				if err != nil {
					return err
				}
				if model == "" {
					model = llm.DefaultModel(provider)
				}
				narrative, err := narrate.Describe(cmd.Context(), p, rep, narrate.Config{
					Model:       model,
					Temperature: 0.1,
					Top:         top,
				})
				if err != nil {
					// The report is still useful without a narrative.
					slog.Error("Unable to describe clusters", "provider", provider, "err", err)
				}
				meta.Narrative = narrative
			}

			if outputPath == "" {
				if err := report.Write(cmd.OutOrStdout(), format, rep, meta); err != nil {
					return err
				}
			} else if err := writeReportFile(outputPath, format, rep, meta); err != nil {
				return err
			}

			if n := len(rep.Rejected); n > 0 {
				slog.Warn("Some profile rows were rejected and excluded from clusters", "rejected", n)
			}
			if outputPath != "" {
				slog.Info("Report saved", "path", outputPath, "format", format, "run", meta.RunID)
			}
			return nil
		},
	}

	addInputFlags(cmd, &fieldsPath, &profilesPath)
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", clustering.DefaultThreshold, "Minimum similarity in (0, 1] for two patterns to be linked")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format ("+strings.Join(report.Formats, ", ")+")")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&describe, "describe", false, "Ask an LLM provider for a summary of the top clusters")
	cmd.Flags().StringVar(&provider, "provider", "gemini", "LLM provider ("+strings.Join(llm.Names, ", ")+")")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().IntVar(&top, "top", 5, "Number of clusters to describe (-1 for all)")

	return cmd
}

// writeReportFile writes the report to path. The file is removed when the
// report cannot be written or flushed in full.
func writeReportFile(path, format string, rep *profile.Report, meta report.Metadata) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
		if err != nil {
			if removeErr := os.Remove(path); removeErr != nil {
				slog.Warn("Unable to remove partial report", "path", path, "err", removeErr)
			}
		}
	}()

	return report.Write(file, format, rep, meta)
}
