package jobs

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Period is the pay interval of a salary.
type Period string

const (
	PeriodYear  Period = "year"
	PeriodMonth Period = "month"
	PeriodHour  Period = "hour"
)

// Full-time hours used to annualize hourly rates.
const hoursPerYear = 2080

var (
	legacySalaryPattern = regexp.MustCompile(`\$(\d+)`)
	salaryAmountPattern = regexp.MustCompile(`(?i)\$\s*(\d+(?:[.,]\d+)*)\s*(k\b)?`)
)

// Salary is the structured form of the free-text salary string.
type Salary struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
	Period   Period `json:"period"`
}

// Annualized converts Min to a yearly amount.
func (s Salary) Annualized() int64 {
	return annualize(s.Min, s.Period)
}

// ParseSalary reads "$120k - $160k", "$80/hr - $120/hr", "$95,000" and
// similar strings. Bare yearly figures below 1000 are read as thousands.
func ParseSalary(raw string) (Salary, bool) {
	matches := salaryAmountPattern.FindAllStringSubmatch(raw, 2)
	if len(matches) == 0 {
		return Salary{}, false
	}

	period := detectPeriod(raw)
	amounts := make([]int64, 0, len(matches))
	for _, m := range matches {
		value, err := parseAmount(m[1])
		if err != nil {
			return Salary{}, false
		}
		if m[2] != "" || (period == PeriodYear && value < 1000) {
			value *= 1000
		}
		amounts = append(amounts, int64(math.Round(value)))
	}

	s := Salary{Min: amounts[0], Max: amounts[0], Currency: "USD", Period: period}
	if len(amounts) > 1 {
		s.Max = amounts[1]
		if s.Max < s.Min {
			s.Min, s.Max = s.Max, s.Min
		}
	}
	return s, true
}

// LegacySalaryValue reads only the first "$<digits>" token and treats it as
// thousands. Hourly ranges are misread by this rule ("$80/hr" -> 80000); it
// is kept for rows that predate structured salaries.
func LegacySalaryValue(raw string) int64 {
	m := legacySalaryPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return v * 1000
}

// SalaryValue is the annual figure used for sorting and labelling.
func SalaryValue(l Listing) int64 {
	if l.SalaryMin > 0 {
		period := l.SalaryPeriod
		if period == "" {
			period = PeriodYear
		}
		return annualize(l.SalaryMin, period)
	}
	if s, ok := ParseSalary(l.Salary); ok {
		return s.Annualized()
	}
	return LegacySalaryValue(l.Salary)
}

func detectPeriod(raw string) Period {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "/hr"), strings.Contains(lower, "/h "), strings.HasSuffix(lower, "/h"), strings.Contains(lower, "hour"):
		return PeriodHour
	case strings.Contains(lower, "/mo"), strings.Contains(lower, "month"):
		return PeriodMonth
	default:
		return PeriodYear
	}
}

// parseAmount keeps fractions so "$1.5k" scales before rounding.
func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

func annualize(amount int64, period Period) int64 {
	switch period {
	case PeriodHour:
		return amount * hoursPerYear
	case PeriodMonth:
		return amount * 12
	default:
		return amount
	}
}
