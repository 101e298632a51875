// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/search"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [name]",
	Short: "Detailed restaurant search over generative and places providers",
	Long: `Enrich runs the detailed second pass for a restaurant name or a free-text
query. Mode selects the providers: rich (generative only), structured
(places providers, falling back to generative ones when they are
misconfigured) or hybrid (both, the default).

A structured provider that rejects its credentials is disabled for the rest
of the process; enrich then continues with the remaining providers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringP("location", "l", "", "city or area to search in (required)")
	enrichCmd.Flags().String("mode", "hybrid", "provider mode: rich, structured, hybrid (or 1, 2, 3)")
	enrichCmd.Flags().Int("limit", 0, "maximum results (0 = use config default)")
	enrichCmd.Flags().Bool("json", false, "output results as JSON")
	enrichCmd.Flags().Bool("detail", false, "print every field of each result")
	_ = enrichCmd.MarkFlagRequired("location")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	location, _ := cmd.Flags().GetString("location")
	modeFlag, _ := cmd.Flags().GetString("mode")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	detail, _ := cmd.Flags().GetBool("detail")

	mode, err := search.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	agg, cleanup, err := buildAggregator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := agg.Enrich(context.Background(), strings.Join(args, " "), location, mode, limit)
	if err != nil {
		var report *search.FailureReport
		if errors.As(err, &report) {
			for _, f := range report.Failures {
				fmt.Fprintf(os.Stderr, "  %s\n", f)
			}
			return fmt.Errorf("search unavailable: %d provider(s) failed", len(report.Failures))
		}
		return err
	}

	switch {
	case jsonOutput:
		return search.FormatJSON(records, os.Stdout)
	case detail:
		for i, r := range records {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			search.FormatDetail(r, os.Stdout)
		}
	default:
		search.FormatTable(records, os.Stdout)
	}
	return nil
}
