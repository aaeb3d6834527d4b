package types

import (
	"bytes"
	"encoding/json"
)

// SourceRecord is the field set one extraction tool produced for one component.
// Field names are source-prefixed ("HYSYS Power", "APEA Installed Cost [USD]").
type SourceRecord struct {
	// Source is the label of the extractor that produced the record
	Source string `json:"source"`

	// Fields holds the record's values in extractor order
	Fields Fields `json:"fields"`
}

// MergedRecord is the flat result of reconciling several source records for
// one component. The name field is always Fields[0].
type MergedRecord struct {
	// NameField is the canonical name field, e.g. "Component Name"
	NameField string

	// Name is the agreed component name
	Name string

	// Fields holds the name field first, then every other field in
	// first-seen order
	Fields Fields

	// Sources lists the labels of the records that were merged
	Sources []string
}

// AsSource exposes the merged record as a single source record, so it can be
// merged again.
func (m *MergedRecord) AsSource(label string) SourceRecord {
	fields := make(Fields, len(m.Fields))
	copy(fields, m.Fields)
	return SourceRecord{Source: label, Fields: fields}
}

// MarshalJSON writes the record as one JSON object in field order.
func (m *MergedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
