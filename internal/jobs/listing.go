// Package jobs holds the catalog logic that runs over an in-memory set of
// published listings: filtering, ranking, suggestions, facets, and the
// lightweight matching used for recommendations. Nothing here touches the
// store; the slice may come from the database or from the catalog cache.
package jobs

import "jobBoard/internal/plan"

// Sentinels the UI sends when a facet is not narrowed.
const (
	AllCategories = "All Roles"
	AllSystems    = "All Systems"
)

// SortBy selects the secondary ordering inside a tier.
type SortBy string

const (
	SortNewest SortBy = "newest"
	SortSalary SortBy = "salary"
)

// ParseSortBy falls back to newest for anything unrecognized.
func ParseSortBy(raw string) SortBy {
	if SortBy(raw) == SortSalary {
		return SortSalary
	}
	return SortNewest
}

// Listing is a published job as the catalog sees it.
type Listing struct {
	ID                 string    `json:"id"`
	Slug               string    `json:"slug,omitempty"`
	Title              string    `json:"title"`
	Company            string    `json:"company"`
	Logo               string    `json:"logo,omitempty"`
	Location           string    `json:"location"`
	Type               string    `json:"type"`
	Category           string    `json:"category"`
	Description        string    `json:"description,omitempty"`
	CompanyDescription string    `json:"company_description,omitempty"`
	ApplyURL           string    `json:"apply_url,omitempty"`
	Tags               []string  `json:"tags"`
	Tools              []string  `json:"tools"`
	Benefits           []string  `json:"benefits"`
	Salary             string    `json:"salary"`
	SalaryMin          int64     `json:"salary_min,omitempty"`
	SalaryMax          int64     `json:"salary_max,omitempty"`
	SalaryCurrency     string    `json:"salary_currency,omitempty"`
	SalaryPeriod       Period    `json:"salary_period,omitempty"`
	PlanType           plan.Type `json:"plan_type"`
	IsFeatured         bool      `json:"is_featured"`
	Views              int64     `json:"views"`
	Matches            int64     `json:"matches"`
	PostedAt           string    `json:"posted_at"`
	Timestamp          int64     `json:"timestamp"`
	MatchScore         *int      `json:"match_score,omitempty"`
}

// Criteria are the search inputs of the job list.
type Criteria struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	System   string `json:"system"`
	SortBy   SortBy `json:"sort_by"`
}
