// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package foursquare adapts the Foursquare Places search API as a structured
// provider: contact details, opening hours, categories and photos.
package foursquare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/tablescout/internal/httputil"
	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// ID identifies the adapter in provenance and the availability policy.
const ID = "foursquare"

// searchBase is the Places search endpoint. Declared as a var so tests can
// substitute an httptest server.
var searchBase = "https://api.foursquare.com/v3/places/search"

const (
	foodCategory = "13000"
	resultLimit  = 5
	photoSize    = "500x500"
	maxPhotos    = 2
	fields       = "fsq_id,name,location,tel,website,hours,photos,categories,description,social_media,menu"
)

var dayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Adapter queries Foursquare Places. It is safe for concurrent use.
type Adapter struct {
	client    *http.Client
	limiter   *rate.Limiter
	apiKey    string
	endpoint  string
	userAgent string
}

// New builds the adapter. An empty API key is reported as a misconfiguration
// on every Fetch rather than here, so the fallback policy can react to it.
func New(cfg types.ProviderConfig, client *http.Client, userAgent string) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := searchBase
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/places/search"
	}
	return &Adapter{
		client:    client,
		limiter:   httputil.NewLimiter(cfg.RequestsPerSecond),
		apiKey:    cfg.APIKey,
		endpoint:  endpoint,
		userAgent: userAgent,
	}
}

func (a *Adapter) ID() string       { return ID }
func (a *Adapter) Role() types.Role { return types.RoleStructured }

// Fetch searches food venues matching query near location.
func (a *Adapter) Fetch(ctx context.Context, query, location string, timeout time.Duration) ([]types.RawCandidate, error) {
	if a.apiKey == "" {
		return nil, provider.Misconfigured(ID, "missing API key")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	params := url.Values{
		"query":      {query},
		"near":       {location},
		"categories": {foodCategory},
		"limit":      {strconv.Itoa(resultLimit)},
		"fields":     {fields},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := httputil.Do(ctx, a.client, a.limiter, req)
	if err != nil {
		return nil, fmt.Errorf("foursquare search: %w", err)
	}
	defer resp.Body.Close()

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing foursquare response: %w", err)
	}

	out := make([]types.RawCandidate, 0, len(body.Results))
	for i, p := range body.Results {
		if c, ok := toCandidate(p, location, provider.PositionRank(i, len(body.Results))); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func toCandidate(p place, location string, rank float64) (types.RawCandidate, bool) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return types.RawCandidate{}, false
	}
	city := strings.TrimSpace(p.Location.Locality)
	if city == "" {
		city = location
	}

	details := map[string]any{types.FieldCity: city}
	set := func(key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			details[key] = v
		}
	}
	set(types.FieldCountry, p.Location.Country)
	set(types.FieldDescription, p.Description)
	set(types.FieldPhone, p.Tel)
	set(types.FieldWebsite, p.Website)
	set(types.FieldMenuURL, p.Menu)
	set(types.FieldMapsURL, mapsURL(name, city, p.Location))

	var categories []string
	for _, c := range p.Categories {
		if n := strings.TrimSpace(c.Name); n != "" {
			categories = append(categories, n)
		}
	}
	if len(categories) > 3 {
		categories = categories[:3]
	}
	if len(categories) > 0 {
		details[types.FieldCuisine] = categories
	}
	set(types.FieldCategory, venueType(p.Categories))
	set(types.FieldDietType, dietType(p.Categories))

	if hours := parseHours(p.Hours.Regular); len(hours) > 0 {
		details[types.FieldHours] = hours
		set(types.FieldTimezone, p.Hours.Timezone)
	}

	social := map[string]string{}
	if v := strings.TrimSpace(p.Social.Instagram); v != "" {
		social["instagram"] = v
	}
	if v := strings.TrimSpace(p.Social.Twitter); v != "" {
		social["twitter"] = v
	}
	if v := strings.TrimSpace(p.Social.FacebookID); v != "" {
		social["facebook"] = v
	}
	if len(social) > 0 {
		details[types.FieldSocial] = social
	}

	return types.RawCandidate{
		SourceProviderID: ID,
		Role:             types.RoleStructured,
		Name:             name,
		LocationHint:     location,
		DetailFields:     details,
		ImageURLs:        photoURLs(p.Photos),
		Rank:             &rank,
	}, true
}

func photoURLs(photos []photo) []string {
	out := []string{}
	for _, ph := range photos {
		if len(out) == maxPhotos {
			break
		}
		if ph.Prefix != "" && ph.Suffix != "" {
			out = append(out, ph.Prefix+photoSize+ph.Suffix)
		}
	}
	return out
}

func mapsURL(name, city string, loc placeLocation) string {
	q := name + " " + city
	if loc.Latitude != 0 || loc.Longitude != 0 {
		q = strconv.FormatFloat(loc.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(q)
}

// parseHours turns Foursquare's regular schedule (day 1 is Monday) into
// weekday -> "9:00 am - 11:00 pm". Days with several windows are joined.
func parseHours(regular []hoursWindow) map[string]string {
	hours := make(map[string]string)
	for _, w := range regular {
		if w.Day < 1 || w.Day > 7 || w.Open == "" || w.Close == "" {
			continue
		}
		day := dayNames[w.Day-1]
		span := formatTime(w.Open) + " - " + formatTime(w.Close)
		if prev, ok := hours[day]; ok {
			span = prev + ", " + span
		}
		hours[day] = span
	}
	return hours
}

// formatTime converts "0930" to "9:30 am". A leading "+" (closing after
// midnight) is dropped. Unrecognized values are returned unchanged.
func formatTime(s string) string {
	t := strings.TrimPrefix(s, "+")
	if len(t) != 4 {
		return s
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil {
		return s
	}
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%d:%s %s", hour, t[2:], suffix)
}

func venueType(cats []category) string {
	switch {
	case anyCategory(cats, "fine dining"):
		return "Fine Dining"
	case anyCategory(cats, "casual"):
		return "Casual Dining"
	case anyCategory(cats, "cafe", "café", "coffee"):
		return "Café"
	case anyCategory(cats, "bar"):
		return "Bar & Grill"
	case len(cats) > 0:
		return "Restaurant"
	default:
		return ""
	}
}

func dietType(cats []category) string {
	switch {
	case anyCategory(cats, "vegan"):
		return "vegan"
	case anyCategory(cats, "vegetarian"):
		return "vegetarian"
	default:
		return ""
	}
}

func anyCategory(cats []category, needles ...string) bool {
	for _, c := range cats {
		name := strings.ToLower(c.Name)
		for _, n := range needles {
			if strings.Contains(name, n) {
				return true
			}
		}
	}
	return false
}

// Foursquare API JSON structures.
type searchResponse struct {
	Results []place `json:"results"`
}

type place struct {
	FsqID       string        `json:"fsq_id"`
	Name        string        `json:"name"`
	Location    placeLocation `json:"location"`
	Tel         string        `json:"tel"`
	Website     string        `json:"website"`
	Menu        string        `json:"menu"`
	Description string        `json:"description"`
	Categories  []category    `json:"categories"`
	Hours       placeHours    `json:"hours"`
	Photos      []photo       `json:"photos"`
	Social      socialMedia   `json:"social_media"`
}

type placeLocation struct {
	Locality         string  `json:"locality"`
	Country          string  `json:"country"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

type category struct {
	Name string `json:"name"`
}

type placeHours struct {
	Timezone string        `json:"timezone"`
	Regular  []hoursWindow `json:"regular"`
}

type hoursWindow struct {
	Day   int    `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type photo struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

type socialMedia struct {
	Instagram  string `json:"instagram"`
	Twitter    string `json:"twitter"`
	FacebookID string `json:"facebook_id"`
}
