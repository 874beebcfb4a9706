package jobs

import (
	"sort"
	"strings"
)

// MaxSuggestions caps the predictive search dropdown.
const MaxSuggestions = 5

// Filter narrows all to the listings matching c and orders them by tier
// weight, then by c.SortBy. The input slice is not modified.
func Filter(all []Listing, c Criteria) []Listing {
	out := make([]Listing, 0, len(all))
	for _, l := range all {
		if Matches(l, c) {
			out = append(out, l)
		}
	}
	Rank(out, c.SortBy)
	return out
}

// Matches reports whether l satisfies every predicate of c. Query and
// system are OR across their candidate fields; the predicates are ANDed.
func Matches(l Listing, c Criteria) bool {
	return matchesQuery(l, c.Query) &&
		matchesCategory(l, c.Category) &&
		matchesSystem(l, c.System)
}

// Rank sorts in place: tier weight descending, then salary or recency.
func Rank(list []Listing, by SortBy) {
	sort.SliceStable(list, func(i, j int) bool {
		wi, wj := TierWeight(list[i].PlanType), TierWeight(list[j].PlanType)
		if wi != wj {
			return wi > wj
		}
		if by == SortSalary {
			return SalaryValue(list[i]) > SalaryValue(list[j])
		}
		return list[i].Timestamp > list[j].Timestamp
	})
}

// Suggest returns up to MaxSuggestions distinct titles, company names, and
// tags containing query, in catalog order.
func Suggest(all []Listing, query string) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, MaxSuggestions)
	add := func(candidate string) bool {
		lower := strings.ToLower(candidate)
		if candidate == "" || !strings.Contains(lower, needle) {
			return false
		}
		if _, ok := seen[lower]; ok {
			return false
		}
		seen[lower] = struct{}{}
		out = append(out, candidate)
		return len(out) >= MaxSuggestions
	}

	for _, l := range all {
		if add(l.Title) || add(l.Company) {
			return out
		}
		for _, tag := range l.Tags {
			if add(tag) {
				return out
			}
		}
	}
	return out
}

func matchesQuery(l Listing, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Company), q) {
		return true
	}
	for _, tag := range l.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesCategory(l Listing, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return l.Category == category
}

func matchesSystem(l Listing, system string) bool {
	s := strings.ToLower(strings.TrimSpace(system))
	if s == "" || system == AllSystems {
		return true
	}
	for _, tag := range l.Tags {
		if strings.Contains(strings.ToLower(tag), s) {
			return true
		}
	}
	return false
}
