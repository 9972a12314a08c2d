package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
	"github.com/lehigh-university-libraries/fieldprofile/internal/profile"
	"github.com/lehigh-university-libraries/fieldprofile/internal/source"
	"github.com/spf13/cobra"
)

// loadReader parses the canonical field header and the profile rows. A bad
// header aborts before any row is read.
func loadReader(fieldsPath, profilesPath string) (*profile.Reader, error) {
	index, err := fieldindex.ReadHeader(fieldsPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded canonical fields", "path", fieldsPath, "fields", len(index))

	lines, err := source.NewLoader(profilesPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	slog.Info("Loaded profiles", "path", profilesPath, "rows", len(lines))

	return profile.NewReader(index, lines), nil
}

func addInputFlags(cmd *cobra.Command, fieldsPath, profilesPath *string) {
	cmd.Flags().StringVar(fieldsPath, "fields", "", "File whose first line is the canonical field count header (required)")
	cmd.Flags().StringVar(profilesPath, "profiles", "", "Aggregated profile rows (.csv, .txt or .parquet) (required)")
	_ = cmd.MarkFlagRequired("fields")
	_ = cmd.MarkFlagRequired("profiles")
}

// envString returns the flag value unless it was left at its default and key
// is set in the environment.
func envString(cmd *cobra.Command, flag, key, value string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if env := os.Getenv(key); env != "" {
		return env
	}
	return value
}

func envFloat(cmd *cobra.Command, flag, key string, value float64) (float64, error) {
	if cmd.Flags().Changed(flag) {
		return value, nil
	}
	env := os.Getenv(key)
	if env == "" {
		return value, nil
	}
	parsed, err := strconv.ParseFloat(env, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, env, err)
	}
	return parsed, nil
}
