package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
	"github.com/lehigh-university-libraries/fieldprofile/internal/fingerprint"
	"github.com/lehigh-university-libraries/fieldprofile/internal/pattern"
	"github.com/lehigh-university-libraries/fieldprofile/internal/source"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var profilesPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a CSV profile file into a Parquet table",
		Long: `Reads aggregated profile rows in the fields,length,count,percent layout and
stores them as a Parquet table with columns fields, length, count and percent.
Rows that cannot be parsed are skipped and logged.`,
		Example: `  fieldprofile convert --profiles profiles.csv --output profiles.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := source.NewLoader(profilesPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}

			// Field names are not checked against any index here.
			enc := fingerprint.NewEncoder(fieldindex.Index{})

			rows := make([]source.ProfileRow, 0, len(lines))
			skipped := 0
			for i, line := range lines {
				if strings.TrimSpace(line) == "" {
					continue
				}
				record, err := pattern.ParseRow(line, enc)
				if err != nil {
					slog.Warn("Skipping profile row", "line", i+1, "error", err)
					skipped++
					continue
				}
				rows = append(rows, source.ProfileRow{
					Fields:  strings.Join(record.Fields, pattern.FieldSeparator),
					Length:  int64(record.Length),
					Count:   int64(record.Count),
					Percent: record.Weight,
				})
			}

			if err := source.WriteParquet(outputPath, rows); err != nil {
				return err
			}

			slog.Info("Converted profiles", "rows", len(rows), "skipped", skipped, "output", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&profilesPath, "profiles", "", "Profile rows to convert (.csv or .txt) (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Parquet file to write (required)")
	_ = cmd.MarkFlagRequired("profiles")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
