// Package selection resolves a set specification against the catalog and
// drops components whose measurements cannot be used for curve fitting.
package selection

import (
	"force-cost/core/catalog"
	"force-cost/core/types"
	"force-cost/core/units"
)

// DefaultMinSamples is the smallest member count considered a reliable fit
const DefaultMinSamples = 3

// Member is a component that passed every validity rule
type Member struct {
	Component     *types.CanonicalComponent
	Power         float64
	Unit          string
	InstalledCost float64
}

// Exclusion records why a selected component was dropped
type Exclusion struct {
	Name     string                  `json:"name"`
	Identity types.ComponentIdentity `json:"identity"`
	Reasons  []string                `json:"reasons"`
}

// Selection is the outcome of filtering one set
type Selection struct {
	// Members are the qualifying components in inclusion order
	Members []Member
	// Excluded lists the dropped components in inclusion order
	Excluded []Exclusion
	// Diagnostics reports unknown references, exclusions and sample warnings
	Diagnostics types.Diagnostics
}

// Names returns the member names in order
func (s *Selection) Names() []string {
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.Component.Name
	}
	return names
}

// Powers returns the member power values and units in order
func (s *Selection) Powers() ([]float64, []string) {
	values := make([]float64, len(s.Members))
	unitNames := make([]string, len(s.Members))
	for i, m := range s.Members {
		values[i] = m.Power
		unitNames[i] = m.Unit
	}
	return values, unitNames
}

// Costs returns the member installed costs in order
func (s *Selection) Costs() []float64 {
	costs := make([]float64, len(s.Members))
	for i, m := range s.Members {
		costs[i] = m.InstalledCost
	}
	return costs
}

// Options configures filtering
type Options struct {
	Rules      []Rule
	MinSamples int
}

// DefaultOptions returns the standard rules for a unit table
func DefaultOptions(table *units.Table) Options {
	return Options{Rules: DefaultRules(table), MinSamples: DefaultMinSamples}
}

// Filter resolves spec against cat. Category matches come first, then
// explicit names, each in the order the set lists them; a component reached twice
// is kept at its first position. Every rule is evaluated for every
// candidate so all reasons for an exclusion are reported.
func Filter(spec types.SetSpecification, cat *catalog.Catalog, opts Options) *Selection {
	sel := &Selection{}
	for _, comp := range resolve(spec, cat, &sel.Diagnostics) {
		c := candidate(comp)

		var reasons []string
		for _, rule := range opts.Rules {
			if reason := rule(c); reason != "" {
				reasons = append(reasons, reason)
			}
		}

		if len(reasons) == 0 {
			sel.Members = append(sel.Members, c.Member)
			continue
		}
		sel.Excluded = append(sel.Excluded, Exclusion{
			Name:     comp.Name,
			Identity: comp.Identity,
			Reasons:  reasons,
		})
		for _, reason := range reasons {
			sel.Diagnostics.Add(types.DiagExcluded, types.SeverityWarning, comp.Name,
				"component %q excluded from set %q: %s", comp.Name, spec.Name, reason)
		}
	}

	if opts.MinSamples > 0 && len(sel.Members) < opts.MinSamples {
		sel.Diagnostics.Add(types.DiagInsufficientSamples, types.SeverityWarning, spec.Name,
			"set %q includes only %d components; at least %d are needed for a reliable cost curve",
			spec.Name, len(sel.Members), opts.MinSamples)
	}

	return sel
}

func resolve(spec types.SetSpecification, cat *catalog.Catalog, diags *types.Diagnostics) []*types.CanonicalComponent {
	var out []*types.CanonicalComponent
	seen := make(map[types.ComponentIdentity]bool)
	add := func(comp *types.CanonicalComponent) {
		if seen[comp.Identity] {
			return
		}
		seen[comp.Identity] = true
		out = append(out, comp)
	}

	for _, category := range spec.Categories {
		matches := cat.WithCategory(category)
		if len(matches) == 0 {
			diags.Add(types.DiagUnknownCategory, types.SeverityWarning, category,
				"component category %q does not exist", category)
			continue
		}
		for _, comp := range matches {
			add(comp)
		}
	}

	for _, name := range spec.Components {
		comp, ok := cat.ByName(name)
		if !ok {
			comp, ok = cat.Get(types.ComponentIdentity(name))
		}
		if !ok {
			diags.Add(types.DiagUnknownComponent, types.SeverityWarning, name,
				"component named %q does not exist", name)
			continue
		}
		add(comp)
	}

	return out
}

func candidate(comp *types.CanonicalComponent) Candidate {
	c := Candidate{Member: Member{Component: comp}}
	if comp.Capacity != nil {
		c.Power, c.PowerOK = comp.Capacity.PowerValue()
		c.Unit = comp.Capacity.PowerUnit
	}
	c.InstalledCost, c.CostOK = comp.Cost.InstalledCostValue()
	return c
}
