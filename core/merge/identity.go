// Package merge reconciles several source records describing one physical
// component into a single flat record.
package merge

import (
	"strings"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

// DefaultMarker is the substring that identifies name fields in source records
const DefaultMarker = "Component Name"

// Options configures identity merging
type Options struct {
	// Marker selects name fields: every field whose name contains it is a
	// candidate name ("Component Name", "HYSYS Component Name", ...)
	Marker string

	// NameField is the single name field kept in the merged record
	NameField string

	// Identifier labels errors; callers pass the component identifier when known
	Identifier string
}

// DefaultOptions returns the options used by the extractors' field naming
func DefaultOptions() Options {
	return Options{Marker: DefaultMarker, NameField: DefaultMarker}
}

func (o Options) withDefaults() Options {
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.NameField == "" {
		o.NameField = o.Marker
	}
	return o
}

// Identity merges records into one MergedRecord.
//
// All name fields are collected from every record before any overwrite, so a
// disagreement is never hidden by a later record. No name at all fails with
// a MISSING_IDENTITY error, more than one distinct name with
// IDENTITY_CONFLICT. Records lacking a name field are fine as long as the
// others agree.
//
// The remaining fields keep their first-seen position; when two records carry
// the same field name, the later record's value wins, so input order matters.
func Identity(records []types.SourceRecord, opts Options) (*types.MergedRecord, error) {
	opts = opts.withDefaults()

	var (
		names   []string
		seen    = make(map[string]bool)
		sources []string
	)
	merged := newOrderedFields()

	for _, rec := range records {
		sources = appendUnique(sources, rec.Source)
		for _, f := range rec.Fields {
			if strings.Contains(f.Name, opts.Marker) {
				if name := types.ScalarString(f.Value); name != "" && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
				continue
			}
			merged.set(f.Name, f.Value)
		}
	}

	identifier := opts.Identifier
	switch len(names) {
	case 0:
		return nil, errors.MissingIdentity(identifier, sources)
	case 1:
	default:
		if identifier == "" {
			identifier = names[0]
		}
		return nil, errors.IdentityConflict(identifier, names)
	}

	fields := make(types.Fields, 0, merged.len()+1)
	fields = append(fields, types.Field{Name: opts.NameField, Value: names[0]})
	fields = append(fields, merged.fields()...)

	return &types.MergedRecord{
		NameField: opts.NameField,
		Name:      names[0],
		Fields:    fields,
		Sources:   sources,
	}, nil
}

// orderedFields keeps first-insertion order while allowing value overwrites
type orderedFields struct {
	pos  map[string]int
	list types.Fields
}

func newOrderedFields() *orderedFields {
	return &orderedFields{pos: make(map[string]int)}
}

func (o *orderedFields) set(name string, value any) {
	if i, ok := o.pos[name]; ok {
		o.list[i].Value = value
		return
	}
	o.pos[name] = len(o.list)
	o.list = append(o.list, types.Field{Name: name, Value: value})
}

func (o *orderedFields) len() int { return len(o.list) }

func (o *orderedFields) fields() types.Fields { return o.list }

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
