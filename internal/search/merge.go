// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/pdiddy/tablescout/pkg/types"
)

// equivalenceThreshold is the minimum Jaccard overlap of name tokens for two
// candidates in the same city to describe the same restaurant.
const equivalenceThreshold = 0.70

// recordNamespace seeds the name-based UUIDs used as CanonicalRecord ids.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tablescout:restaurant"))

// DuplicateKey is the equivalence-testing view of a candidate. It is never
// persisted or returned.
type DuplicateKey struct {
	NameTokens map[string]struct{}
	City       string
}

// KeyFor computes the duplicate key of c.
func KeyFor(c types.RawCandidate) DuplicateKey {
	return DuplicateKey{
		NameTokens: tokenize(c.Name),
		City:       normalize(candidateCity(c)),
	}
}

// Equivalent reports whether k and o describe the same restaurant: the
// cities match and the name tokens overlap by at least 70%.
func (k DuplicateKey) Equivalent(o DuplicateKey) bool {
	if k.City != o.City {
		return false
	}
	return jaccard(k.NameTokens, o.NameTokens) >= equivalenceThreshold
}

// Merge reconciles candidates into canonical records. Candidates are visited
// in priority order (structured, rich, then the rest; arrival order within a
// tier) and each joins the first already-formed group it is equivalent to,
// or founds a new one. Fields are filled first-non-empty-wins, so a value
// from a higher-priority source is never overwritten.
//
// The record's name and city come from the founding candidate, so the
// output never contains two equivalent records. Merge is deterministic for a
// given input order.
func Merge(candidates []types.RawCandidate) []types.CanonicalRecord {
	ordered := make([]types.RawCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return priority(ordered[i].Role) < priority(ordered[j].Role)
	})

	var (
		keys    []DuplicateKey
		records []types.CanonicalRecord
	)
	for _, c := range ordered {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		key := KeyFor(c)

		merged := false
		for i := range keys {
			if keys[i].Equivalent(key) {
				mergeInto(&records[i], c)
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		keys = append(keys, key)
		records = append(records, newRecord(c))
	}

	if records == nil {
		records = []types.CanonicalRecord{}
	}
	return records
}

func priority(r types.Role) int {
	switch r {
	case types.RoleStructured:
		return 0
	case types.RoleRich:
		return 1
	default:
		return 2
	}
}

func newRecord(c types.RawCandidate) types.CanonicalRecord {
	name := strings.TrimSpace(c.Name)
	city := strings.TrimSpace(candidateCity(c))
	rec := types.CanonicalRecord{
		ID:                recordID(name, city),
		Name:              name,
		City:              city,
		ImageURLs:         []string{},
		SourceProviderIDs: []string{},
	}
	mergeInto(&rec, c)
	return rec
}

// recordID is stable across providers and requests for the same name and city.
func recordID(name, city string) string {
	return uuid.NewSHA1(recordNamespace, []byte(normalize(name)+"|"+normalize(city))).String()
}

func mergeInto(dst *types.CanonicalRecord, c types.RawCandidate) {
	fillString(&dst.Country, stringField(c, types.FieldCountry))
	fillString(&dst.Description, stringField(c, types.FieldDescription))
	fillString(&dst.Contact.Phone, stringField(c, types.FieldPhone))
	fillString(&dst.Contact.Website, stringField(c, types.FieldWebsite))
	fillString(&dst.Contact.MenuURL, stringField(c, types.FieldMenuURL))
	fillString(&dst.Contact.MapsURL, stringField(c, types.FieldMapsURL))
	fillString(&dst.Timezone, stringField(c, types.FieldTimezone))
	fillString(&dst.Category, stringField(c, types.FieldCategory))
	fillString(&dst.DietType, stringField(c, types.FieldDietType))

	if len(dst.HoursByDay) == 0 {
		if h := mapField(c, types.FieldHours); len(h) > 0 {
			dst.HoursByDay = h
		}
	}
	if len(dst.CuisineTags) == 0 {
		dst.CuisineTags = stringsField(c, types.FieldCuisine)
	}
	if len(dst.KnownFor) == 0 {
		dst.KnownFor = stringsField(c, types.FieldKnownFor)
	}

	// Each social network is its own field.
	for network, link := range mapField(c, types.FieldSocial) {
		if dst.SocialLinks == nil {
			dst.SocialLinks = make(map[string]string)
		}
		if _, ok := dst.SocialLinks[network]; !ok {
			dst.SocialLinks[network] = link
		}
	}

	dst.ImageURLs = appendUnique(dst.ImageURLs, c.ImageURLs...)
	if c.SourceProviderID != "" {
		dst.SourceProviderIDs = appendUnique(dst.SourceProviderIDs, c.SourceProviderID)
	}
}

func candidateCity(c types.RawCandidate) string {
	if city := stringField(c, types.FieldCity); city != "" {
		return city
	}
	return c.LocationHint
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// stringField reads a string detail field; other value types read as empty.
func stringField(c types.RawCandidate, key string) string {
	if s, ok := c.DetailFields[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// stringsField reads a list detail field. A plain string is split on commas.
func stringsField(c types.RawCandidate, key string) []string {
	var out []string
	switch v := c.DetailFields[key].(type) {
	case []string:
		out = appendUnique(nil, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = appendUnique(out, s)
			}
		}
	case string:
		out = appendUnique(nil, strings.Split(v, ",")...)
	}
	return out
}

// mapField reads a string-keyed detail field into a fresh map.
func mapField(c types.RawCandidate, key string) map[string]string {
	out := make(map[string]string)
	switch v := c.DetailFields[key].(type) {
	case map[string]string:
		for k, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out[k] = s
			}
		}
	case map[string]any:
		for k, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out[k] = strings.TrimSpace(s)
			}
		}
	}
	return out
}

// tokenize lowercases s, strips punctuation, and splits on whitespace.
func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.Fields(stripPunct(s)) {
		tokens[f] = struct{}{}
	}
	return tokens
}

// normalize lowercases s, strips punctuation, and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(stripPunct(s)), " ")
}

func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// jaccard is |a ∩ b| / |a ∪ b|; two empty sets score 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
