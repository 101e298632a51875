package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/pkg/types"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [query]",
	Short: "Quick restaurant lookup over lightweight sources",
	Long: `Lookup runs the fast first pass: every lightweight source is queried in
parallel and the answers are merged into candidate restaurants. Adapter
failures are logged and skipped; an all-failed lookup prints no results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringP("location", "l", "", "city or area to search in (required)")
	lookupCmd.Flags().Int("limit", 0, "maximum results (0 = use config default)")
	lookupCmd.Flags().Bool("json", false, "output results as JSON")
	_ = lookupCmd.MarkFlagRequired("location")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	location, _ := cmd.Flags().GetString("location")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	agg, cleanup, err := buildAggregator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := agg.Lookup(context.Background(), types.NewSearchRequest(strings.Join(args, " "), location, limit))
	if err != nil {
		return err
	}

	if jsonOutput {
		return search.FormatJSON(res, os.Stdout)
	}
	search.FormatTable(res.Candidates, os.Stdout)
	return nil
}
