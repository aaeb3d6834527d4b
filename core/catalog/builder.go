package catalog

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"force-cost/core/merge"
	"force-cost/core/types"
	"force-cost/internal/errors"
	"force-cost/internal/logging"
)

// Group is the set of source records sharing one component identifier
type Group struct {
	Identifier types.ComponentIdentity
	Records    []types.SourceRecord
}

// Builder turns per-source extractor output into a Catalog
type Builder struct {
	schema Schema
	rules  []ValidationRule
	logger *zap.Logger
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithLogger sets the builder's logger; the global logger is used otherwise
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a builder for a schema
func NewBuilder(schema Schema, opts ...BuilderOption) *Builder {
	b := &Builder{schema: schema, rules: DefaultValidationRules()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.Logger
	}
	return b
}

// GroupRecords flattens the source lists in order and groups records by
// identifier value. Groups appear in first-seen order. Records without an
// identifier are reported and left out.
func (b *Builder) GroupRecords(sources ...[]types.SourceRecord) ([]Group, []error) {
	var (
		groups []Group
		index  = make(map[types.ComponentIdentity]int)
		errs   []error
	)

	for _, list := range sources {
		for i, rec := range list {
			id := types.ComponentIdentity(rec.Fields.GetString(b.schema.IdentifierField))
			if id == "" {
				errs = append(errs, errors.MissingIdentifier(rec.Source, b.schema.IdentifierField, i))
				continue
			}
			gi, ok := index[id]
			if !ok {
				gi = len(groups)
				index[id] = gi
				groups = append(groups, Group{Identifier: id})
			}
			groups[gi].Records = append(groups[gi].Records, rec)
		}
	}

	return groups, errs
}

// Build produces the catalog. Each failing group or record yields one error
// and is skipped; the remaining components are still catalogued.
func (b *Builder) Build(sources ...[]types.SourceRecord) (*Catalog, []error) {
	groups, errs := b.GroupRecords(sources...)
	cat := NewCatalog()

	for _, g := range groups {
		comp, err := b.Component(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := validateComponent(comp, b.rules); err != nil {
			errs = append(errs, errors.Wrap(errors.TypeInput, "invalid component", err))
			continue
		}
		if err := cat.Register(comp); err != nil {
			errs = append(errs, err)
		}
	}

	b.logger.Debug("catalog built",
		zap.Int("groups", len(groups)),
		zap.Int("components", cat.Len()),
		zap.Int("errors", len(errs)))

	return cat, errs
}

// Component merges one group and restructures it into the canonical schema
func (b *Builder) Component(g Group) (*types.CanonicalComponent, error) {
	merged, err := merge.Identity(g.Records, merge.Options{
		Marker:     b.schema.NameMarker,
		NameField:  b.schema.NameField,
		Identifier: string(g.Identifier),
	})
	if err != nil {
		return nil, err
	}
	return b.Restructure(g.Identifier, merged), nil
}

// Restructure pulls name and identity to the top level and builds one
// sub-record per recognized source that contributed at least one field.
func (b *Builder) Restructure(id types.ComponentIdentity, merged *types.MergedRecord) *types.CanonicalComponent {
	comp := &types.CanonicalComponent{
		Name:     merged.Name,
		Identity: id,
	}

	for _, src := range b.schema.Sources {
		if !presentAny(merged.Fields, src.Fields) {
			continue
		}
		switch src.Kind {
		case KindCapacity:
			comp.Capacity = capacityRecord(merged.Fields, src.Fields)
		case KindCost:
			comp.Cost = costRecord(merged.Fields, src.Fields)
		default:
			continue
		}
		comp.Sources = append(comp.Sources, src.Label)
		if file := merged.Fields.GetString(src.SourceFileField); src.SourceFileField != "" && file != "" {
			comp.SourceFiles = append(comp.SourceFiles, file)
		}
	}

	return comp
}

func presentAny(fields types.Fields, mapping map[string]string) bool {
	for _, name := range mapping {
		if fields.Has(name) {
			return true
		}
	}
	return false
}

func capacityRecord(fields types.Fields, mapping map[string]string) *types.CapacityRecord {
	power, _ := fields.Lookup(mapping[FieldPower])
	return &types.CapacityRecord{
		Category:  fields.GetString(mapping[FieldCategory]),
		Power:     power,
		PowerUnit: fields.GetString(mapping[FieldPowerUnit]),
	}
}

func costRecord(fields types.Fields, mapping map[string]string) *types.CostRecord {
	return &types.CostRecord{
		EquipmentCost:        nullDecimal(fields, mapping[FieldEquipmentCost]),
		InstalledCost:        nullDecimal(fields, mapping[FieldInstalledCost]),
		EquipmentWeight:      nullDecimal(fields, mapping[FieldEquipmentWeight]),
		TotalInstalledWeight: nullDecimal(fields, mapping[FieldTotalInstalledWeight]),
	}
}

func nullDecimal(fields types.Fields, name string) decimal.NullDecimal {
	if name == "" {
		return decimal.NullDecimal{}
	}
	v, ok := fields.GetFloat(name)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
