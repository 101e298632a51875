// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/internal/watchlist"
	"github.com/pdiddy/tablescout/pkg/types"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage your saved restaurants (add, list, show, update, remove, export)",
	Long: `Saved manages a local SQLite list of restaurants together with your own
notes: whether you visited, a 1-5 rating, free-text notes and tags.`,
}

// --- add subcommand ---

var savedAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Enrich a restaurant and save the best match",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSavedAdd,
}

func runSavedAdd(cmd *cobra.Command, args []string) error {
	location, _ := cmd.Flags().GetString("location")
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := search.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, store, user, err := savedSetup(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	agg, cleanup, err := buildAggregator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	records, err := agg.Enrich(ctx, strings.Join(args, " "), location, mode, 1)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no restaurant found for %q in %s", strings.Join(args, " "), location)
	}

	ann := annotationFromFlags(cmd).Apply(types.Annotation{})
	saved, err := store.Save(ctx, user, records[0], ann)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s (%s)\n", saved.Restaurant.Name, saved.RestaurantID)
	return nil
}

// --- list subcommand ---

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved restaurants with optional filters",
	RunE:  runSavedList,
}

func runSavedList(cmd *cobra.Command, args []string) error {
	_, store, user, err := savedSetup(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	sortBy, _ := cmd.Flags().GetString("sort-by")
	asc, _ := cmd.Flags().GetBool("asc")
	city, _ := cmd.Flags().GetString("city")
	cuisine, _ := cmd.Flags().GetString("cuisine")
	country, _ := cmd.Flags().GetString("country")
	opts := watchlist.ListOptions{SortBy: sortBy, Asc: asc, City: city, Cuisine: cuisine, Country: country}
	if v, _ := cmd.Flags().GetString("visited"); v != "" {
		visited, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("--visited must be true or false: %w", err)
		}
		opts.Visited = &visited
	}

	entries, err := store.List(context.Background(), user, opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(entries, os.Stdout)
	}
	formatSavedTable(entries, os.Stdout)
	return nil
}

func formatSavedTable(entries []types.SavedRestaurant, w io.Writer) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved restaurants.")
		return
	}

	fmt.Fprintf(w, "%-30s  %-16s  %-20s  %-7s  %-6s  %s\n",
		"Name", "City", "Cuisine", "Visited", "Rating", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, e := range entries {
		name := e.Restaurant.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		cuisine := strings.Join(e.Restaurant.CuisineTags, ", ")
		if len(cuisine) > 20 {
			cuisine = cuisine[:17] + "..."
		}
		rating := "-"
		if e.PersonalRating != nil {
			rating = strconv.Itoa(*e.PersonalRating)
		}
		visited := "no"
		if e.Visited {
			visited = "yes"
		}
		fmt.Fprintf(w, "%-30s  %-16s  %-20s  %-7s  %-6s  %s\n",
			name, e.Restaurant.City, cuisine, visited, rating, e.RestaurantID)
	}
	fmt.Fprintf(w, "\n%d saved\n", len(entries))
}

// --- show subcommand ---

var savedShowCmd = &cobra.Command{
	Use:   "show [restaurant-id]",
	Short: "Show one saved restaurant with your notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, user, err := savedSetup(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		e, err := store.Get(context.Background(), user, args[0])
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return search.FormatJSON(e, os.Stdout)
		}

		search.FormatDetail(e.Restaurant, os.Stdout)
		fmt.Printf("\nVisited:     %t\n", e.Visited)
		if e.PersonalRating != nil {
			fmt.Printf("Rating:      %d/5\n", *e.PersonalRating)
		}
		if len(e.Tags) > 0 {
			fmt.Printf("Tags:        %s\n", strings.Join(e.Tags, ", "))
		}
		if e.Notes != "" {
			fmt.Printf("Notes:       %s\n", e.Notes)
		}
		fmt.Printf("Added:       %s\n", e.AddedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

// --- update subcommand ---

var savedUpdateCmd = &cobra.Command{
	Use:   "update [restaurant-id]",
	Short: "Update visited, rating, notes or tags of a saved restaurant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, user, err := savedSetup(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		e, err := store.Update(context.Background(), user, args[0], annotationFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", e.Restaurant.Name)
		return nil
	},
}

// --- remove subcommand ---

var savedRemoveCmd = &cobra.Command{
	Use:   "remove [restaurant-id]",
	Short: "Remove a restaurant from the saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, user, err := savedSetup(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(context.Background(), user, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// --- export subcommand ---

var savedExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the saved list to YAML or JSON",
	Long: `Export writes every saved restaurant to <data-dir>/export-<user>.yaml
or export-<user>.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		_, store, user, err := savedSetup(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		path, err := store.ExportFile(context.Background(), user, format)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	},
}

// --- shared helpers ---

func savedSetup(cmd *cobra.Command) (types.AppConfig, *watchlist.Store, string, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return cfg, nil, "", err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Watchlist.DataDir = dir
	}
	user, _ := cmd.Flags().GetString("user")

	store, err := watchlist.NewStore(cfg.Watchlist)
	if err != nil {
		return cfg, nil, "", err
	}
	return cfg, store, user, nil
}

// annotationFromFlags builds a patch from the annotation flags the user set.
func annotationFromFlags(cmd *cobra.Command) types.AnnotationPatch {
	var p types.AnnotationPatch
	flags := cmd.Flags()
	if flags.Changed("visited") {
		v, _ := flags.GetBool("visited")
		p.Visited = &v
	}
	if flags.Changed("rating") {
		v, _ := flags.GetInt("rating")
		p.PersonalRating = &v
	}
	if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		p.Notes = &v
	}
	if flags.Changed("tag") {
		v, _ := flags.GetStringSlice("tag")
		p.Tags = &v
	}
	return p
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	savedCmd.PersistentFlags().String("user", "local", "user id owning the saved list")
	savedCmd.PersistentFlags().String("data-dir", "", "data directory (overrides watchlist.data_dir)")

	savedAddCmd.Flags().StringP("location", "l", "", "city or area to search in (required)")
	savedAddCmd.Flags().String("mode", "hybrid", "provider mode: rich, structured, hybrid")
	_ = savedAddCmd.MarkFlagRequired("location")

	for _, c := range []*cobra.Command{savedAddCmd, savedUpdateCmd} {
		c.Flags().Bool("visited", false, "mark as visited")
		c.Flags().Int("rating", 0, "personal rating 1-5")
		c.Flags().String("notes", "", "free-text notes (max 1000 characters)")
		c.Flags().StringSlice("tag", nil, "tag (repeatable, max 10)")
	}

	savedListCmd.Flags().String("sort-by", "", "sort key: added_at, name, city, cuisine")
	savedListCmd.Flags().Bool("asc", false, "sort ascending (default newest first)")
	savedListCmd.Flags().String("visited", "", "filter by visited: true or false")
	savedListCmd.Flags().String("city", "", "filter by city")
	savedListCmd.Flags().String("cuisine", "", "filter by cuisine")
	savedListCmd.Flags().String("country", "", "filter by country")
	savedListCmd.Flags().Bool("json", false, "output as JSON")

	savedShowCmd.Flags().Bool("json", false, "output as JSON")

	savedExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	savedCmd.AddCommand(savedAddCmd, savedListCmd, savedShowCmd, savedUpdateCmd, savedRemoveCmd, savedExportCmd)
	rootCmd.AddCommand(savedCmd)
}
