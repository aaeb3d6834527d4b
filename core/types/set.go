package types

// SetSpecification describes which components belong to one named set
type SetSpecification struct {
	// Name is the set name
	Name string `json:"name" yaml:"name"`

	// Identifier names where the set specification came from (usually a file path)
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// Categories lists capacity categories to include
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Components lists component names (or identities) to include
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// IsEmpty reports whether the set specification selects nothing
func (s SetSpecification) IsEmpty() bool {
	return len(s.Categories) == 0 && len(s.Components) == 0
}

// FittedCostModel is the power-law cost model fitted for one set:
// cost = ReferencePrice * (capacity / ReferenceDriver) ^ ScalingFactor
type FittedCostModel struct {
	// ReferenceDriver is the largest normalized capacity in the set
	ReferenceDriver float64 `json:"reference_driver" yaml:"reference_driver"`

	// ReferenceUnit is the unit of ReferenceDriver
	ReferenceUnit string `json:"reference_unit" yaml:"reference_unit"`

	// ReferencePrice is the fitted coefficient A, in USD
	ReferencePrice float64 `json:"reference_price" yaml:"reference_price"`

	// ScalingFactor is the fitted exponent X, rounded to 5 decimals
	ScalingFactor float64 `json:"scaling_factor" yaml:"scaling_factor"`

	// MeanAbsolutePercentageError is the fit error in percent, rounded to 2 decimals
	MeanAbsolutePercentageError float64 `json:"mean_absolute_percentage_error" yaml:"mean_absolute_percentage_error"`
}

// SetReport is the output record for one processed set
type SetReport struct {
	// SetName is the name from the set specification
	SetName string `json:"set_name" yaml:"set_name"`

	// SourceSpecIdentifier is the set specification's identifier
	SourceSpecIdentifier string `json:"source_spec_identifier" yaml:"source_spec_identifier"`

	// IncludedComponents lists component names in inclusion order
	IncludedComponents []string `json:"included_components" yaml:"included_components"`

	FittedCostModel `yaml:",inline"`
}
