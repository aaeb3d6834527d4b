package catalog

import (
	"force-cost/internal/errors"
)

// SubRecordKind identifies which canonical sub-record a source fills
type SubRecordKind string

const (
	// KindCapacity - process simulation output (category, power, unit)
	KindCapacity SubRecordKind = "capacity"
	// KindCost - cost estimation output (costs and weights)
	KindCost SubRecordKind = "cost"
)

// Canonical sub-record field keys
const (
	FieldCategory             = "category"
	FieldPower                = "power"
	FieldPowerUnit            = "power_unit"
	FieldEquipmentCost        = "equipment_cost"
	FieldInstalledCost        = "installed_cost"
	FieldEquipmentWeight      = "equipment_weight"
	FieldTotalInstalledWeight = "total_installed_weight"
)

var kindFields = map[SubRecordKind][]string{
	KindCapacity: {FieldCategory, FieldPower, FieldPowerUnit},
	KindCost:     {FieldEquipmentCost, FieldInstalledCost, FieldEquipmentWeight, FieldTotalInstalledWeight},
}

// SourceSchema maps one extractor's field names onto a canonical sub-record
type SourceSchema struct {
	// Label names the source ("HYSYS", "APEA")
	Label string `json:"label" yaml:"label" mapstructure:"label"`

	// Kind is the sub-record this source fills
	Kind SubRecordKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// SourceFileField names the field holding the extractor's input file
	SourceFileField string `json:"source_file_field,omitempty" yaml:"source_file_field,omitempty" mapstructure:"source_file_field"`

	// Fields maps canonical field keys to the source's field names
	Fields map[string]string `json:"fields" yaml:"fields" mapstructure:"fields"`
}

// Schema is the fixed layout used to restructure merged records
type Schema struct {
	// IdentifierField holds the per-source component identifier
	IdentifierField string `json:"identifier_field" yaml:"identifier_field" mapstructure:"identifier_field"`

	// NameField is the canonical component name field
	NameField string `json:"name_field" yaml:"name_field" mapstructure:"name_field"`

	// NameMarker selects candidate name fields during merging
	NameMarker string `json:"name_marker" yaml:"name_marker" mapstructure:"name_marker"`

	// Sources lists the recognized sources in output order
	Sources []SourceSchema `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// DefaultSchema returns the field layout of the HYSYS and APEA extractors
func DefaultSchema() Schema {
	return Schema{
		IdentifierField: "Component ID",
		NameField:       "Component Name",
		NameMarker:      "Component Name",
		Sources: []SourceSchema{
			{
				Label:           "HYSYS",
				Kind:            KindCapacity,
				SourceFileField: "HYSYS Source",
				Fields: map[string]string{
					FieldCategory:  "HYSYS Category",
					FieldPower:     "HYSYS Power",
					FieldPowerUnit: "HYSYS Power Units",
				},
			},
			{
				Label:           "APEA",
				Kind:            KindCost,
				SourceFileField: "APEA Source",
				Fields: map[string]string{
					FieldEquipmentCost:        "APEA Equipment Cost [USD]",
					FieldInstalledCost:        "APEA Installed Cost [USD]",
					FieldEquipmentWeight:      "APEA Equipment Weight [LBS]",
					FieldTotalInstalledWeight: "APEA Total Installed Weight [LBS]",
				},
			},
		},
	}
}

// Source returns the schema of one source by label
func (s Schema) Source(label string) (SourceSchema, bool) {
	for _, src := range s.Sources {
		if src.Label == label {
			return src, true
		}
	}
	return SourceSchema{}, false
}

// Validate checks that every source maps only known fields and that each
// sub-record kind is filled by at most one source.
func (s Schema) Validate() error {
	if s.IdentifierField == "" {
		return errors.Config("schema: identifier field is empty")
	}
	if s.NameField == "" {
		return errors.Config("schema: name field is empty")
	}
	if len(s.Sources) == 0 {
		return errors.Config("schema: no sources")
	}

	kinds := make(map[SubRecordKind]string)
	for _, src := range s.Sources {
		allowed, ok := kindFields[src.Kind]
		if !ok {
			return errors.Newf(errors.TypeConfig, "schema: source %q has unknown kind %q", src.Label, src.Kind)
		}
		if other, dup := kinds[src.Kind]; dup {
			return errors.Newf(errors.TypeConfig, "schema: sources %q and %q both fill %s", other, src.Label, src.Kind)
		}
		kinds[src.Kind] = src.Label
		if len(src.Fields) == 0 {
			return errors.Newf(errors.TypeConfig, "schema: source %q maps no fields", src.Label)
		}
		for key := range src.Fields {
			if !contains(allowed, key) {
				return errors.Newf(errors.TypeConfig, "schema: source %q maps unknown %s field %q", src.Label, src.Kind, key)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
