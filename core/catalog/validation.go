// Package catalog - Catalog validation
// Ensures catalog integrity and enforces invariants.
package catalog

import (
	"fmt"

	"force-cost/core/types"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*types.CanonicalComponent) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateHasSubRecord,
		validateName,
		validateSourcesMatchSubRecords,
	}
}

// Validate checks a catalog against validation rules
func (c *Catalog) Validate(rules []ValidationRule) []error {
	var errs []error

	for _, comp := range c.Components() {
		if err := validateComponent(comp, rules); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func validateComponent(comp *types.CanonicalComponent, rules []ValidationRule) error {
	for _, rule := range rules {
		if err := rule(comp); err != nil {
			return fmt.Errorf("%s: %w", comp.Identity, err)
		}
	}
	return nil
}

// validateHasSubRecord ensures at least one source contributed data
func validateHasSubRecord(comp *types.CanonicalComponent) error {
	if !comp.HasSubRecord() {
		return fmt.Errorf("component has no capacity or cost data")
	}
	return nil
}

// validateName ensures the component has a name
func validateName(comp *types.CanonicalComponent) error {
	if comp.Name == "" {
		return fmt.Errorf("component has no name")
	}
	return nil
}

// validateSourcesMatchSubRecords ensures Sources lists one label per sub-record
func validateSourcesMatchSubRecords(comp *types.CanonicalComponent) error {
	want := 0
	if comp.Capacity != nil {
		want++
	}
	if comp.Cost != nil {
		want++
	}
	if len(comp.Sources) != want {
		return fmt.Errorf("component lists %d sources for %d sub-records", len(comp.Sources), want)
	}
	return nil
}
