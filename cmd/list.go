package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var fieldsPath string
	var profilesPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the fingerprint of every profile row without clustering",
		Example: `  fieldprofile list --fields field-counts.csv --profiles profiles.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := loadReader(fieldsPath, profilesPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, fp := range reader.Fingerprints() {
				if _, err := fmt.Fprintln(out, fp); err != nil {
					return err
				}
			}

			if n := len(reader.Rejected()); n > 0 {
				slog.Warn("Some profile rows were rejected", "rejected", n)
			}
			return nil
		},
	}

	addInputFlags(cmd, &fieldsPath, &profilesPath)

	return cmd
}
