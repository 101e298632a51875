package watchlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/tablescout/pkg/types"
)

// Sort keys accepted by ListOptions.SortBy.
const (
	SortAddedAt = "added_at"
	SortName    = "name"
	SortCity    = "city"
	SortCuisine = "cuisine"
)

var sortColumns = map[string]string{
	SortAddedAt: "added_at",
	SortName:    "lower(name)",
	SortCity:    "lower(city)",
	SortCuisine: "lower(cuisine)",
}

// ListOptions filters and orders a user's saved restaurants.
type ListOptions struct {
	// SortBy is one of the Sort constants. Empty sorts by added_at.
	SortBy string `validate:"omitempty,oneof=added_at name city cuisine"`

	// Asc sorts ascending. The default is descending, newest first.
	Asc bool

	// Visited, when non-nil, keeps only entries with that visited flag.
	Visited *bool

	// City and Country match case-insensitively; Cuisine matches when it
	// is contained in the record's cuisine list.
	City    string
	Cuisine string
	Country string
}

// List returns the user's saved restaurants matching opts.
func (s *Store) List(ctx context.Context, userID string, opts ListOptions) ([]types.SavedRestaurant, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var (
		qb   strings.Builder
		args = []any{userID}
	)
	qb.WriteString(`SELECT ` + columns + ` FROM saved_restaurants WHERE user_id = ?`)

	if opts.Visited != nil {
		qb.WriteString(` AND visited = ?`)
		args = append(args, *opts.Visited)
	}
	if opts.City != "" {
		qb.WriteString(` AND lower(city) = lower(?)`)
		args = append(args, strings.TrimSpace(opts.City))
	}
	if opts.Country != "" {
		qb.WriteString(` AND lower(country) = lower(?)`)
		args = append(args, strings.TrimSpace(opts.Country))
	}
	if opts.Cuisine != "" {
		qb.WriteString(` AND instr(lower(cuisine), lower(?)) > 0`)
		args = append(args, strings.TrimSpace(opts.Cuisine))
	}

	col := sortColumns[opts.SortBy]
	if col == "" {
		col = sortColumns[SortAddedAt]
	}
	dir := "DESC"
	if opts.Asc {
		dir = "ASC"
	}
	qb.WriteString(` ORDER BY ` + col + ` ` + dir + `, rowid ` + dir)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying saved restaurants: %w", err)
	}
	defer rows.Close()

	out := []types.SavedRestaurant{}
	for rows.Next() {
		saved, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}
