// Package extract loads extractor output files into source records.
//
// Each file holds one record object or a list of record objects, as JSON or
// YAML. Field order is preserved.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"force-cost/core/types"
	"force-cost/internal/errors"
	"force-cost/internal/logging"
)

// Extensions lists the file extensions LoadDir picks up
var Extensions = []string{".json", ".yaml", ".yml"}

// Parse decodes one extractor document. Nested objects and lists are
// rejected; extractor records are flat tables.
func Parse(label string, data []byte) ([]types.SourceRecord, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, errors.Parsing("decoding extractor output", err)
	}

	var items []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case yaml.MapSlice:
		items = []any{v}
	case []any:
		items = v
	default:
		return nil, errors.Newf(errors.TypeParsing, "extractor output must be an object or a list of objects, got %T", doc)
	}

	records := make([]types.SourceRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(yaml.MapSlice)
		if !ok {
			return nil, errors.Newf(errors.TypeParsing, "record %d is not an object", i)
		}
		fields, err := toFields(obj)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeParsing, err, "record %d", i)
		}
		records = append(records, types.SourceRecord{Source: label, Fields: fields})
	}
	return records, nil
}

func toFields(obj yaml.MapSlice) (types.Fields, error) {
	fields := make(types.Fields, 0, len(obj))
	for _, item := range obj {
		name := fmt.Sprint(item.Key)
		switch item.Value.(type) {
		case yaml.MapSlice, []any, map[string]any:
			return nil, fmt.Errorf("field %q is not a scalar", name)
		}
		fields = append(fields, types.Field{Name: name, Value: item.Value})
	}
	return fields, nil
}

// LoadFile reads one extractor output file
func LoadFile(label, path string) ([]types.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "reading %s", path)
	}
	records, err := Parse(label, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadFiles reads several files in order and concatenates their records
func LoadFiles(label string, paths []string) ([]types.SourceRecord, error) {
	var all []types.SourceRecord
	for _, path := range paths {
		records, err := LoadFile(label, path)
		if err != nil {
			return nil, err
		}
		logging.Debug("extractor output loaded",
			zap.String("source", label),
			zap.String("path", path),
			zap.Int("records", len(records)))
		all = append(all, records...)
	}
	return all, nil
}

// LoadDir reads every JSON or YAML file directly under dir, in name order
func LoadDir(label, dir string) ([]types.SourceRecord, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Newf(errors.TypeInput, "no extractor output found in %s", dir)
	}
	return LoadFiles(label, paths)
}

// Files lists the extractor output files directly under dir, sorted
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "reading directory %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
