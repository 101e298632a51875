package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/tablescout/pkg/types"
)

// RestaurantSchemaPrompt describes the JSON shape generative providers are
// asked to answer with. DecodeRestaurants parses it.
const RestaurantSchemaPrompt = `Return ONLY valid JSON (no markdown, no explanations) in this structure:
{
  "restaurants": [
    {
      "restaurant_name": "Full Restaurant Name",
      "description": "Detailed description",
      "google_maps_url": "https://www.google.com/maps/search/?api=1&query=...",
      "website": "https://... or null",
      "menu_url": "https://... or null",
      "city": "City Name",
      "country": "Country Name",
      "phone_number": "+XXX ... or null",
      "hours": {"monday": "HH:MM am - HH:MM pm or Closed", "...": "...", "timezone": "Asia/Dubai"},
      "cuisine": "Cuisine type(s), comma separated",
      "type": "Fine Dining, Casual, Cafe, ...",
      "diet_type": "mixed/vegetarian/vegan/...",
      "social_media": {"instagram": "handle or null", "facebook": "url or null", "twitter": null, "tiktok": null, "tripadvisor": null},
      "known_for": ["Highlight 1", "Highlight 2"],
      "images": ["direct image URL"]
    }
  ]
}
Only include restaurants located in the requested location. Never invent image
URLs; return [] when no real image URL is known.
If nothing matches, return {"restaurants": []}.`

type restaurantEnvelope struct {
	Restaurants []restaurantJSON `json:"restaurants"`
}

type restaurantJSON struct {
	Name        string            `json:"restaurant_name"`
	Description string            `json:"description"`
	MapsURL     string            `json:"google_maps_url"`
	Website     string            `json:"website"`
	MenuURL     string            `json:"menu_url"`
	City        string            `json:"city"`
	Country     string            `json:"country"`
	Phone       string            `json:"phone_number"`
	Hours       map[string]string `json:"hours"`
	Cuisine     string            `json:"cuisine"`
	Type        string            `json:"type"`
	DietType    string            `json:"diet_type"`
	Social      map[string]string `json:"social_media"`
	KnownFor    []string          `json:"known_for"`
	Images      []string          `json:"images"`
}

// DecodeRestaurants parses a generative provider's answer. Markdown code
// fences around the JSON are tolerated. Entries without a name are skipped;
// entries without a city inherit location.
func DecodeRestaurants(text, location string) ([]types.RawCandidate, error) {
	text = StripCodeFence(text)
	if text == "" {
		return []types.RawCandidate{}, nil
	}

	var env restaurantEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("parsing restaurant JSON: %w", err)
	}

	out := make([]types.RawCandidate, 0, len(env.Restaurants))
	for i, r := range env.Restaurants {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		city := strings.TrimSpace(r.City)
		if city == "" {
			city = location
		}

		details := map[string]any{}
		setString(details, types.FieldCity, city)
		setString(details, types.FieldCountry, r.Country)
		setString(details, types.FieldDescription, r.Description)
		setString(details, types.FieldPhone, r.Phone)
		setString(details, types.FieldWebsite, r.Website)
		setString(details, types.FieldMenuURL, r.MenuURL)
		setString(details, types.FieldMapsURL, r.MapsURL)
		setString(details, types.FieldCategory, r.Type)
		setString(details, types.FieldDietType, r.DietType)

		if hours, tz := splitHours(r.Hours); len(hours) > 0 {
			details[types.FieldHours] = hours
			setString(details, types.FieldTimezone, tz)
		}
		if tags := SplitList(r.Cuisine); len(tags) > 0 {
			details[types.FieldCuisine] = tags
		}
		if known := compact(r.KnownFor); len(known) > 0 {
			details[types.FieldKnownFor] = known
		}
		if social := compactMap(r.Social); len(social) > 0 {
			details[types.FieldSocial] = social
		}

		rank := PositionRank(i, len(env.Restaurants))
		out = append(out, types.RawCandidate{
			Name:         name,
			LocationHint: location,
			DetailFields: details,
			ImageURLs:    compact(r.Images),
			Rank:         &rank,
		})
	}
	return out, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// PositionRank is a position-based relevance score in [0.1, 1.0].
func PositionRank(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

// SplitList splits a comma separated list, trimming and dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitHours separates the weekday entries from the "timezone" key and
// drops placeholder values.
func splitHours(in map[string]string) (map[string]string, string) {
	hours := make(map[string]string)
	var tz string
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "null") || v == "..." {
			continue
		}
		if k == "timezone" {
			tz = v
			continue
		}
		hours[k] = v
	}
	return hours, tz
}

func setString(m map[string]any, key, v string) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "null") {
		return
	}
	m[key] = v
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func compactMap(in map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "null") {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
