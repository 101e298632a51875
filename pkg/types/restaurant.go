// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tablescout search
// pipeline: requests, raw provider candidates, canonical restaurant records,
// and configuration.
package types

import (
	"fmt"
	"strings"
)

// DefaultResultLimit is the result bound applied when a request leaves it unset.
const DefaultResultLimit = 5

// Role is the capability tag of a provider adapter.
type Role int

const (
	// RoleLightweight marks fast, low-detail, cheap adapters used by lookup.
	RoleLightweight Role = iota + 1
	// RoleRich marks slower, detailed, costed adapters (generative sources).
	RoleRich
	// RoleStructured marks provider-curated adapters with dependable
	// contact data and imagery but shallow semantic matching.
	RoleStructured
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleLightweight:
		return "lightweight"
	case RoleRich:
		return "rich"
	case RoleStructured:
		return "structured"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// SearchRequest is one lookup call. Construct it with NewSearchRequest.
type SearchRequest struct {
	Query       string `json:"query" yaml:"query"`
	Location    string `json:"location" yaml:"location"`
	ResultLimit int    `json:"result_limit" yaml:"result_limit"`
}

// NewSearchRequest trims query and location and applies the default limit.
// Validation of empty fields is left to the pipeline.
func NewSearchRequest(query, location string, limit int) SearchRequest {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return SearchRequest{
		Query:       strings.TrimSpace(query),
		Location:    strings.TrimSpace(location),
		ResultLimit: limit,
	}
}

// Detail field keys used in RawCandidate.DetailFields. Values are string,
// []string or map[string]string as noted.
const (
	FieldCity        = "city"         // string
	FieldCountry     = "country"      // string
	FieldDescription = "description"  // string
	FieldPhone       = "phone"        // string
	FieldWebsite     = "website"      // string
	FieldMenuURL     = "menu_url"     // string
	FieldMapsURL     = "maps_url"     // string
	FieldHours       = "hours"        // map[string]string, weekday -> hours
	FieldTimezone    = "timezone"     // string
	FieldCuisine     = "cuisine"      // []string
	FieldCategory    = "category"     // string
	FieldDietType    = "diet_type"    // string
	FieldKnownFor    = "known_for"    // []string
	FieldSocial      = "social_links" // map[string]string, network -> handle or URL
)

// RawCandidate is one provider's loosely typed answer. It is owned by the
// pipeline that invoked the adapter and is never mutated after creation.
type RawCandidate struct {
	SourceProviderID string         `json:"source_provider_id"`
	Role             Role           `json:"role"`
	Name             string         `json:"name"`
	LocationHint     string         `json:"location_hint"`
	DetailFields     map[string]any `json:"detail_fields,omitempty"`
	ImageURLs        []string       `json:"image_urls,omitempty"`
	Rank             *float64       `json:"rank,omitempty"`
}

// Contact holds the reachable endpoints of a restaurant.
type Contact struct {
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
	MenuURL string `json:"menu_url,omitempty" yaml:"menu_url,omitempty"`
	MapsURL string `json:"maps_url,omitempty" yaml:"maps_url,omitempty"`
}

// CanonicalRecord is the deduplicated, provider-agnostic view of one
// restaurant. It is built by the merge engine and immutable afterwards.
type CanonicalRecord struct {
	// ID is derived from the normalized name and city, never provider-supplied.
	ID string `json:"id" yaml:"id"`

	Name        string            `json:"name" yaml:"name"`
	City        string            `json:"city" yaml:"city"`
	Country     string            `json:"country,omitempty" yaml:"country,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Contact     Contact           `json:"contact" yaml:"contact"`
	HoursByDay  map[string]string `json:"hours_by_day,omitempty" yaml:"hours_by_day,omitempty"`
	Timezone    string            `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	CuisineTags []string          `json:"cuisine_tags,omitempty" yaml:"cuisine_tags,omitempty"`
	Category    string            `json:"category,omitempty" yaml:"category,omitempty"`
	DietType    string            `json:"diet_type,omitempty" yaml:"diet_type,omitempty"`
	KnownFor    []string          `json:"known_for,omitempty" yaml:"known_for,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty" yaml:"social_links,omitempty"`

	// ImageURLs is deduplicated; the highest-priority source's images come first.
	ImageURLs []string `json:"image_urls" yaml:"image_urls"`

	// SourceProviderIDs is the provenance of the record and is never empty.
	SourceProviderIDs []string `json:"source_provider_ids" yaml:"source_provider_ids"`
}

// LookupResult is the answer to a lookup request.
type LookupResult struct {
	Candidates []CanonicalRecord `json:"results"`
	Total      int               `json:"total"`
}
