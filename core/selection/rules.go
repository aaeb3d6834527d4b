package selection

import (
	"force-cost/core/units"
)

// Exclusion reasons
const (
	ReasonInvalidPower = "invalid power"
	ReasonUnknownUnit  = "unknown unit"
	ReasonInvalidCost  = "invalid cost"
)

// Rule checks one candidate; it returns a non-empty reason when the
// candidate must be excluded.
type Rule func(c Candidate) string

// Candidate is a selected component with its raw measurements extracted
type Candidate struct {
	Member

	// PowerOK is false when the power is missing or not a number
	PowerOK bool
	// CostOK is false when the installed cost is missing
	CostOK bool
}

// DefaultRules returns the validity rules applied to every set
func DefaultRules(table *units.Table) []Rule {
	return []Rule{
		InvalidPower,
		UnknownUnit(table),
		InvalidCost,
	}
}

// InvalidPower excludes missing, non-numeric or non-positive power values
func InvalidPower(c Candidate) string {
	if !c.PowerOK || c.Power <= 0 {
		return ReasonInvalidPower
	}
	return ""
}

// UnknownUnit excludes power units missing from the unit table
func UnknownUnit(table *units.Table) Rule {
	return func(c Candidate) string {
		if !table.Known(c.Unit) {
			return ReasonUnknownUnit
		}
		return ""
	}
}

// InvalidCost excludes missing or non-positive installed costs
func InvalidCost(c Candidate) string {
	if !c.CostOK || c.InstalledCost <= 0 {
		return ReasonInvalidCost
	}
	return ""
}
