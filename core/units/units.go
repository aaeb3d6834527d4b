// Package units provides the recognized capacity units and conversions
// between them.
package units

import (
	"force-cost/internal/errors"
)

// Unit is a recognized capacity unit
type Unit struct {
	// Name is the unit label as reported by the sources (e.g. "kW")
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Factor converts one of this unit into the table's base unit
	Factor float64 `json:"factor" yaml:"factor" mapstructure:"factor"`
}

// Power units observed in the process-simulation outputs
const (
	Kilowatt = "kW"
	Megawatt = "MW"
)

// Table is an ordered set of units sharing one base unit
type Table struct {
	units []Unit
	index map[string]int
}

// DefaultTable returns the kilowatt/megawatt table with kW as the base unit
func DefaultTable() *Table {
	t, _ := NewTable([]Unit{
		{Name: Kilowatt, Factor: 1},
		{Name: Megawatt, Factor: 1000},
	})
	return t
}

// NewTable builds a table, rejecting duplicate names and non-positive factors
func NewTable(units []Unit) (*Table, error) {
	if len(units) == 0 {
		return nil, errors.Config("unit table is empty")
	}
	t := &Table{index: make(map[string]int, len(units))}
	for _, u := range units {
		if u.Name == "" {
			return nil, errors.Config("unit table entry has no name")
		}
		if u.Factor <= 0 {
			return nil, errors.Newf(errors.TypeConfig, "unit %q has non-positive factor %v", u.Name, u.Factor)
		}
		if _, dup := t.index[u.Name]; dup {
			return nil, errors.Newf(errors.TypeConfig, "unit %q listed twice", u.Name)
		}
		t.index[u.Name] = len(t.units)
		t.units = append(t.units, u)
	}
	return t, nil
}

// Units returns the table entries in order
func (t *Table) Units() []Unit {
	out := make([]Unit, len(t.units))
	copy(out, t.units)
	return out
}

// Names returns the recognized unit names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.units))
	for i, u := range t.units {
		names[i] = u.Name
	}
	return names
}

// Known reports whether a unit is recognized
func (t *Table) Known(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Factor returns the base-unit factor for a unit
func (t *Table) Factor(name string) (float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.units[i].Factor, true
}

// Convert rescales value from one recognized unit to another
func (t *Table) Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}
	ff, ok := t.Factor(from)
	if !ok {
		return 0, errors.Newf(errors.TypeInput, "unknown unit %q", from)
	}
	tf, ok := t.Factor(to)
	if !ok {
		return 0, errors.Newf(errors.TypeInput, "unknown unit %q", to)
	}
	return value * ff / tf, nil
}

// Modal returns the most frequent unit. Ties go to the unit seen first, so
// the result only depends on input order.
func Modal(units []string) string {
	counts := make(map[string]int, len(units))
	best, bestCount := "", 0
	for _, u := range units {
		counts[u]++
	}
	for _, u := range units {
		if counts[u] > bestCount {
			best, bestCount = u, counts[u]
		}
	}
	return best
}

// Normalize converts every value to the modal unit of units. The returned
// slice is aligned with values.
func (t *Table) Normalize(values []float64, units []string) (string, []float64, error) {
	if len(values) != len(units) {
		return "", nil, errors.Newf(errors.TypeInput, "%d values but %d units", len(values), len(units))
	}
	if len(values) == 0 {
		return "", nil, nil
	}

	common := Modal(units)
	out := make([]float64, len(values))
	for i, v := range values {
		c, err := t.Convert(v, units[i], common)
		if err != nil {
			return "", nil, errors.Wrapf(errors.TypeInput, err, "normalizing value %d", i)
		}
		out[i] = c
	}
	return common, out, nil
}
