package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/tablescout/pkg/types"
)

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.CanonicalRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-36s  %-16s  %-24s  %-6s  %s\n",
		"Rank", "Name", "City", "Cuisine", "Images", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-36s  %-16s  %-24s  %-6d  %s\n",
			i+1,
			truncate(r.Name, 36),
			truncate(r.City, 16),
			truncate(strings.Join(r.CuisineTags, ", "), 24),
			len(r.ImageURLs),
			strings.Join(r.SourceProviderIDs, ","))
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatDetail writes one record with every populated field.
func FormatDetail(r types.CanonicalRecord, w io.Writer) {
	field := func(label, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-12s %s\n", label+":", v)
		}
	}
	field("Name", r.Name)
	field("ID", r.ID)
	field("City", r.City)
	field("Country", r.Country)
	field("Category", r.Category)
	field("Cuisine", strings.Join(r.CuisineTags, ", "))
	field("Phone", r.Contact.Phone)
	field("Website", r.Contact.Website)
	field("Menu", r.Contact.MenuURL)
	field("Maps", r.Contact.MapsURL)
	field("Sources", strings.Join(r.SourceProviderIDs, ", "))
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}
	for _, k := range r.KnownFor {
		fmt.Fprintf(w, "  * %s\n", k)
	}
	for _, u := range r.ImageURLs {
		fmt.Fprintf(w, "  image: %s\n", u)
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
