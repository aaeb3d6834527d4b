// Package setfile reads set specifications.
//
// A set file is either a JSON/YAML document
//
//	{"Set Name": "Pumps", "Included Categories": ["Pump"], "Included Components": ["P-7"]}
//
// or an HCL file holding any number of set blocks
//
//	set "Pumps" {
//	  categories = ["Pump"]
//	  components = ["P-7"]
//	}
package setfile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

// DefaultPatterns are the file name patterns Glob matches
var DefaultPatterns = []string{"Setfile*.txt", "*.hcl"}

// Output naming
const (
	InputPrefix  = "Setfile"
	OutputPrefix = "componentSet"
)

type document struct {
	Name       string   `json:"Set Name" yaml:"Set Name"`
	Categories []string `json:"Included Categories" yaml:"Included Categories"`
	Components []string `json:"Included Components" yaml:"Included Components"`
}

type hclDocument struct {
	Sets []hclSet `hcl:"set,block"`
}

type hclSet struct {
	Name       string   `hcl:"name,label"`
	Categories []string `hcl:"categories,optional"`
	Components []string `hcl:"components,optional"`
}

// Load reads every set specification in path. Identifier is set to path.
func Load(path string) ([]types.SetSpecification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "reading set file %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return ParseHCL(path, data)
	}
	spec, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return []types.SetSpecification{spec}, nil
}

// Parse decodes a JSON or YAML set document
func Parse(identifier string, data []byte) (types.SetSpecification, error) {
	var doc document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return types.SetSpecification{}, errors.Parsing("decoding set file "+identifier, err)
		}
	} else if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return types.SetSpecification{}, errors.Parsing("decoding set file "+identifier, err)
	}

	spec := types.SetSpecification{
		Name:       strings.TrimSpace(doc.Name),
		Identifier: identifier,
		Categories: doc.Categories,
		Components: doc.Components,
	}
	if spec.Name == "" {
		return types.SetSpecification{}, errors.Newf(errors.TypeInput, "set file %s has no \"Set Name\"", identifier)
	}
	return spec, nil
}

// ParseHCL decodes the set blocks of an HCL document
func ParseHCL(identifier string, data []byte) ([]types.SetSpecification, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, identifier)
	if diags.HasErrors() {
		return nil, errors.Parsing("parsing set file "+identifier, diagError(diags))
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Parsing("decoding set file "+identifier, diagError(diags))
	}
	if len(doc.Sets) == 0 {
		return nil, errors.Newf(errors.TypeInput, "set file %s declares no set blocks", identifier)
	}

	specs := make([]types.SetSpecification, 0, len(doc.Sets))
	seen := make(map[string]bool, len(doc.Sets))
	for _, s := range doc.Sets {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, errors.Newf(errors.TypeInput, "set file %s has a set block without a name", identifier)
		}
		if seen[name] {
			return nil, errors.Newf(errors.TypeInput, "set file %s declares set %q twice", identifier, name)
		}
		seen[name] = true
		specs = append(specs, types.SetSpecification{
			Name:       name,
			Identifier: identifier,
			Categories: s.Categories,
			Components: s.Components,
		})
	}
	return specs, nil
}

func diagError(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			return d
		}
	}
	return diags
}

// Glob lists set files directly under dir matching any pattern, sorted.
// DefaultPatterns is used when none are given.
func Glob(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	seen := make(map[string]bool)
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInput, err, "bad set file pattern %q", p)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every set file under dir
func LoadDir(dir string, patterns ...string) ([]types.SetSpecification, error) {
	paths, err := Glob(dir, patterns...)
	if err != nil {
		return nil, err
	}
	var specs []types.SetSpecification
	for _, path := range paths {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, loaded...)
	}
	return specs, nil
}

// OutputStem names the report of spec: Setfile_pumps.txt becomes
// componentSet_pumps; sets from any other file use componentSet_<set name>.
func OutputStem(spec types.SetSpecification) string {
	base := filepath.Base(spec.Identifier)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if spec.Identifier != "" && strings.HasPrefix(stem, InputPrefix) && !strings.EqualFold(filepath.Ext(base), ".hcl") {
		return OutputPrefix + strings.TrimPrefix(stem, InputPrefix)
	}
	return OutputPrefix + "_" + sanitize(spec.Name)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
