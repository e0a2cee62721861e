package estimate

import (
	"fmt"
	"strings"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Period names the granularity a daily rate is scaled to.
type Period string

var multipliers = map[Period]float64{
	Daily:   1,
	Weekly:  7,
	Monthly: 30,
	Yearly:  360,
}

// Periods lists the known periods from shortest to longest.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly, Yearly}
}

func (p Period) IsValid() bool {
	_, ok := multipliers[p]
	return ok
}

// Multiplier returns the fixed day count for p, or 0 for an unknown tag.
func (p Period) Multiplier() float64 {
	return multipliers[p]
}

func (p Period) String() string {
	return string(p)
}

// ParsePeriod accepts a period tag in any letter case; empty means daily.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Daily, nil
	}
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown period %q: must be one of %v", s, Periods())
	}
	return p, nil
}
