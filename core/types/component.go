package types

import "github.com/shopspring/decimal"

// CanonicalComponent is the reconciled record for one physical component
type CanonicalComponent struct {
	// Name is the human-readable component name agreed by all sources
	Name string `json:"name" yaml:"name"`

	// Identity is the cross-source component identifier
	Identity ComponentIdentity `json:"identity" yaml:"identity"`

	// Sources lists the labels of the sources contributing a sub-record
	Sources []string `json:"sources" yaml:"sources"`

	// SourceFiles lists the extractor input files, when the sources report them
	SourceFiles []string `json:"source_files,omitempty" yaml:"source_files,omitempty"`

	// Capacity is the process-simulation sub-record
	Capacity *CapacityRecord `json:"capacity,omitempty" yaml:"capacity,omitempty"`

	// Cost is the cost-estimation sub-record
	Cost *CostRecord `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// HasSubRecord reports whether at least one source sub-record is present
func (c *CanonicalComponent) HasSubRecord() bool {
	return c.Capacity != nil || c.Cost != nil
}

// Category returns the capacity category, or "" without a capacity record
func (c *CanonicalComponent) Category() string {
	if c.Capacity == nil {
		return ""
	}
	return c.Capacity.Category
}

// CapacityRecord carries sizing data for a component
type CapacityRecord struct {
	// Category is the equipment category (e.g. "Pump", "Compressor")
	Category string `json:"category" yaml:"category"`

	// Power is the raw reported power. It stays untyped so that values such
	// as "unknown" survive until set filtering.
	Power any `json:"power" yaml:"power"`

	// PowerUnit is the unit the power is reported in (e.g. "kW")
	PowerUnit string `json:"power_unit" yaml:"power_unit"`
}

// PowerValue returns the power as a number, if it is one
func (r *CapacityRecord) PowerValue() (float64, bool) {
	if r == nil {
		return 0, false
	}
	return ScalarFloat(r.Power)
}

// CostRecord carries cost-estimation data for a component
type CostRecord struct {
	// EquipmentCost is the bare equipment cost in USD
	EquipmentCost decimal.NullDecimal `json:"equipment_cost" yaml:"equipment_cost"`

	// InstalledCost is the installed cost in USD
	InstalledCost decimal.NullDecimal `json:"installed_cost" yaml:"installed_cost"`

	// EquipmentWeight is the equipment weight in LBS
	EquipmentWeight decimal.NullDecimal `json:"equipment_weight" yaml:"equipment_weight"`

	// TotalInstalledWeight is the total installed weight in LBS
	TotalInstalledWeight decimal.NullDecimal `json:"total_installed_weight" yaml:"total_installed_weight"`
}

// InstalledCostValue returns the installed cost as a float64
func (r *CostRecord) InstalledCostValue() (float64, bool) {
	if r == nil || !r.InstalledCost.Valid {
		return 0, false
	}
	return r.InstalledCost.Decimal.InexactFloat64(), true
}
