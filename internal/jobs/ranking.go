package jobs

import "jobBoard/internal/plan"

// TierWeight orders paid visibility levels. Missing or unknown plans rank
// with Standard.
func TierWeight(t plan.Type) int {
	switch t {
	case plan.EliteManaged:
		return 3
	case plan.FeaturedPro:
		return 2
	default:
		return 1
	}
}

// Salary competitiveness labels.
const (
	LabelTop    = "Top 5%"
	LabelHigh   = "High"
	LabelMarket = "Market"
	LabelEntry  = "Entry"
)

// SalaryLabel buckets an annual salary value.
func SalaryLabel(value int64) string {
	switch {
	case value > 140000:
		return LabelTop
	case value > 110000:
		return LabelHigh
	case value > 80000:
		return LabelMarket
	default:
		return LabelEntry
	}
}
