package jobs

import (
	"sort"
	"strings"

	"jobBoard/internal/plan"
)

// Remote modes, bucketed from the free-text location.
const (
	ModeHybrid = "hybrid"
	ModeRemote = "remote"
	ModeOnsite = "onsite"
)

// Facets summarises the catalog for the browse sidebar.
type Facets struct {
	Total       int               `json:"total"`
	Categories  map[string]int    `json:"categories"`
	Tags        []string          `json:"tags"`
	Locations   []string          `json:"locations"`
	Plans       map[plan.Type]int `json:"plans"`
	RemoteModes map[string]int    `json:"remote_modes"`
}

// RemoteMode buckets a location: "hybrid" wins over "remote"; anything
// else is onsite.
func RemoteMode(location string) string {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, ModeHybrid):
		return ModeHybrid
	case strings.Contains(lower, ModeRemote):
		return ModeRemote
	default:
		return ModeOnsite
	}
}

// ComputeFacets counts categories, plans, and remote modes and collects the
// sorted distinct tags and locations.
func ComputeFacets(all []Listing) Facets {
	f := Facets{
		Total:       len(all),
		Categories:  make(map[string]int),
		Plans:       map[plan.Type]int{plan.Standard: 0, plan.FeaturedPro: 0, plan.EliteManaged: 0},
		RemoteModes: map[string]int{ModeHybrid: 0, ModeRemote: 0, ModeOnsite: 0},
	}

	tags := make(map[string]struct{})
	locations := make(map[string]struct{})
	for _, l := range all {
		if l.Category != "" {
			f.Categories[l.Category]++
		}
		p := l.PlanType
		if _, known := plan.Lookup(p); !known {
			p = plan.Standard
		}
		f.Plans[p]++
		f.RemoteModes[RemoteMode(l.Location)]++

		for _, t := range l.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags[t] = struct{}{}
			}
		}
		if loc := strings.TrimSpace(l.Location); loc != "" {
			locations[loc] = struct{}{}
		}
	}

	f.Tags = sortedKeys(tags)
	f.Locations = sortedKeys(locations)
	return f
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
