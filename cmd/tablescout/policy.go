package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/search"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show provider availability, optionally after a probe search",
	Long: `Policy prints which providers are registered and available. With --probe
it first runs one hybrid enrichment so that providers rejecting their
credentials are detected and disabled, which is how a long-running server
would see them.`,
	RunE: runPolicy,
}

func init() {
	policyCmd.Flags().String("probe", "", "restaurant name to probe with before printing")
	policyCmd.Flags().StringP("location", "l", "London", "location used by the probe")
	policyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(policyCmd)
}

func runPolicy(cmd *cobra.Command, args []string) error {
	probe, _ := cmd.Flags().GetString("probe")
	location, _ := cmd.Flags().GetString("location")
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

	if probe != "" {
		// The probe only exists to exercise the providers; its failures are
		// already reflected in the policy.
		_, _ = agg.Enrich(context.Background(), probe, location, search.ModeHybrid, 1)
	}

	p := agg.Policy()
	if jsonOutput {
		return search.FormatJSON(map[string]any{
			"state":    p.State().String(),
			"adapters": p.Snapshot(),
		}, os.Stdout)
	}

	formatPolicyTable(p, os.Stdout)
	return nil
}

func formatPolicyTable(p *search.Policy, w io.Writer) {
	fmt.Fprintf(w, "State: %s\n\n", p.State())
	fmt.Fprintf(w, "%-12s  %-12s  %s\n", "Provider", "Role", "Available")
	fmt.Fprintln(w, strings.Repeat("-", 36))
	for _, s := range p.Snapshot() {
		fmt.Fprintf(w, "%-12s  %-12s  %t\n", s.ID, s.Role, s.Available)
	}
}
