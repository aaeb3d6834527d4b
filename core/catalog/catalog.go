// Package catalog - Canonical component catalog
// Holds one reconciled record per physical component, in the order the
// components were first reported by the extractors.
package catalog

import (
	"strings"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

// Catalog is the read-only set of canonical components once built
type Catalog struct {
	order   []types.ComponentIdentity
	entries map[types.ComponentIdentity]*types.CanonicalComponent
	byName  map[string]types.ComponentIdentity
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[types.ComponentIdentity]*types.CanonicalComponent),
		byName:  make(map[string]types.ComponentIdentity),
	}
}

// Register adds a component. Identities are unique; a second registration
// of the same identity is rejected.
func (c *Catalog) Register(comp *types.CanonicalComponent) error {
	if comp == nil {
		return errors.Input("cannot register nil component")
	}
	if _, exists := c.entries[comp.Identity]; exists {
		return errors.Newf(errors.TypeInput, "component %q registered twice", comp.Identity)
	}
	c.entries[comp.Identity] = comp
	c.order = append(c.order, comp.Identity)
	if _, taken := c.byName[comp.Name]; !taken {
		c.byName[comp.Name] = comp.Identity
	}
	return nil
}

// Get returns a component by identity
func (c *Catalog) Get(id types.ComponentIdentity) (*types.CanonicalComponent, bool) {
	comp, ok := c.entries[id]
	return comp, ok
}

// ByName returns the first registered component with the given name
func (c *Catalog) ByName(name string) (*types.CanonicalComponent, bool) {
	id, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.entries[id], true
}

// Components returns all components in registration order
func (c *Catalog) Components() []*types.CanonicalComponent {
	out := make([]*types.CanonicalComponent, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Len returns the number of components
func (c *Catalog) Len() int {
	return len(c.order)
}

// Categories returns the distinct capacity categories in first-seen order
func (c *Catalog) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, comp := range c.Components() {
		cat := comp.Category()
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		cats = append(cats, cat)
	}
	return cats
}

// WithCategory returns components whose capacity category equals cat
func (c *Catalog) WithCategory(cat string) []*types.CanonicalComponent {
	var out []*types.CanonicalComponent
	for _, comp := range c.Components() {
		if comp.Capacity != nil && comp.Capacity.Category == cat {
			out = append(out, comp)
		}
	}
	return out
}

// Stats returns catalog statistics
func (c *Catalog) Stats() CatalogStats {
	stats := CatalogStats{
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	for _, comp := range c.Components() {
		stats.Total++
		for _, src := range comp.Sources {
			stats.BySource[src]++
		}
		if cat := comp.Category(); cat != "" {
			stats.ByCategory[cat]++
		}
		if comp.Capacity != nil && comp.Cost != nil {
			stats.Complete++
		}
	}

	return stats
}

// CatalogStats holds catalog statistics
type CatalogStats struct {
	Total int `json:"total"`
	// Complete counts components carrying both capacity and cost data
	Complete   int            `json:"complete"`
	BySource   map[string]int `json:"by_source"`
	ByCategory map[string]int `json:"by_category"`
}

// FileStem derives a file name stem from a component identity by dropping
// spaces and replacing path separators.
func FileStem(id types.ComponentIdentity) string {
	s := strings.ReplaceAll(string(id), " ", "")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.ReplaceAll(s, "\\", "_")
}
