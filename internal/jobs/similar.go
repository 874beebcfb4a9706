package jobs

import (
	"sort"
	"strings"
)

const (
	categoryWeight = 3
	tagWeight      = 2
	toolWeight     = 1
)

type profile struct {
	categories map[string]struct{}
	tags       map[string]struct{}
	tools      map[string]struct{}
}

func newProfile(seeds ...Listing) profile {
	p := profile{
		categories: make(map[string]struct{}),
		tags:       make(map[string]struct{}),
		tools:      make(map[string]struct{}),
	}
	for _, s := range seeds {
		if s.Category != "" {
			p.categories[s.Category] = struct{}{}
		}
		for _, t := range s.Tags {
			p.tags[strings.ToLower(t)] = struct{}{}
		}
		for _, t := range s.Tools {
			p.tools[strings.ToLower(t)] = struct{}{}
		}
	}
	return p
}

func (p profile) ceiling() int {
	c := tagWeight*len(p.tags) + toolWeight*len(p.tools)
	if len(p.categories) > 0 {
		c += categoryWeight
	}
	return c
}

func (p profile) score(l Listing) int {
	score := 0
	if _, ok := p.categories[l.Category]; ok {
		score += categoryWeight
	}
	for _, t := range l.Tags {
		if _, ok := p.tags[strings.ToLower(t)]; ok {
			score += tagWeight
		}
	}
	for _, t := range l.Tools {
		if _, ok := p.tools[strings.ToLower(t)]; ok {
			score += toolWeight
		}
	}
	return score
}

// Similar returns up to limit listings sharing category, tags, or tools with
// target, best first, with MatchScore filled in.
func Similar(all []Listing, target Listing, limit int) []Listing {
	return rankByProfile(all, newProfile(target), map[string]struct{}{target.ID: {}}, limit)
}

// Recommend ranks the catalog against a candidate's saved listings. Saved
// listings themselves are excluded.
func Recommend(all []Listing, saved []Listing, limit int) []Listing {
	if len(saved) == 0 {
		return []Listing{}
	}
	exclude := make(map[string]struct{}, len(saved))
	for _, s := range saved {
		exclude[s.ID] = struct{}{}
	}
	return rankByProfile(all, newProfile(saved...), exclude, limit)
}

type scored struct {
	listing Listing
	score   int
}

func rankByProfile(all []Listing, p profile, exclude map[string]struct{}, limit int) []Listing {
	ceiling := p.ceiling()
	if ceiling == 0 || limit <= 0 {
		return []Listing{}
	}

	candidates := make([]scored, 0, len(all))
	for _, l := range all {
		if _, skip := exclude[l.ID]; skip {
			continue
		}
		if s := p.score(l); s > 0 {
			candidates = append(candidates, scored{listing: l, score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		wi, wj := TierWeight(candidates[i].listing.PlanType), TierWeight(candidates[j].listing.PlanType)
		if wi != wj {
			return wi > wj
		}
		return candidates[i].listing.Timestamp > candidates[j].listing.Timestamp
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]Listing, 0, len(candidates))
	for _, c := range candidates {
		pct := c.score * 100 / ceiling
		if pct > 100 {
			pct = 100
		}
		l := c.listing
		l.MatchScore = &pct
		out = append(out, l)
	}
	return out
}
