package narrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/llm"
	"github.com/lehigh-university-libraries/fieldprofile/internal/profile"
)

const systemPrompt = `You review metadata quality reports for a library catalog.
Each cluster groups records that populate nearly the same set of fields.
Write a short plain-text summary naming the dominant structural defect
patterns, most significant first. Refer to fields by the names given.
Do not invent fields or percentages.`

// Config controls how clusters are described
type Config struct {
	Model       string
	Temperature float64
	Top         int
}

// Describe asks the provider for a reviewer-facing summary of the top
// clusters of rep.
func Describe(ctx context.Context, provider llm.Provider, rep *profile.Report, cfg Config) (string, error) {
	if len(rep.Clusters) == 0 {
		return "", fmt.Errorf("report has no clusters to describe")
	}

	prompt := Prompt(rep, cfg.Top)
	slog.Debug("Requesting cluster narrative", "model", cfg.Model, "clusters", len(rep.Top(cfg.Top)))

	text, err := provider.Generate(ctx, llm.Request{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		System:      systemPrompt,
		Prompt:      prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe clusters: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Prompt renders the top clusters of rep as the user prompt.
func Prompt(rep *profile.Report, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Canonical fields (%d): %s\n", len(rep.Fields), strings.Join(rep.Fields, ", "))
	fmt.Fprintf(&b, "Similarity threshold: %.2f\n", rep.Threshold)
	fmt.Fprintf(&b, "Clusters shown: %d of %d\n\n", len(rep.Top(top)), len(rep.Clusters))

	for _, c := range rep.Top(top) {
		fmt.Fprintf(&b, "Cluster %d: %.2f%% of records, %d records, %d patterns\n",
			c.Rank, c.Weight, c.Count, len(c.Members))
		fmt.Fprintf(&b, "  always present: %s\n", orNone(c.Present))
		fmt.Fprintf(&b, "  always missing: %s\n", orNone(c.Missing))
	}

	return b.String()
}

func orNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
