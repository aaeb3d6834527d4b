package setfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSONSetFile(t *testing.T) {
	path := write(t, t.TempDir(), "Setfile_pumps.txt", `{
	"Set Name": "Pumps",
	"Included Categories": ["Pump"],
	"Included Components": ["COMP-1"]
}`)

	specs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, types.SetSpecification{
		Name:       "Pumps",
		Identifier: path,
		Categories: []string{"Pump"},
		Components: []string{"COMP-1"},
	}, specs[0])
}

func TestParseYAML(t *testing.T) {
	spec, err := Parse("sets.yaml", []byte("Set Name: Turbines\nIncluded Components:\n  - T1\n  - T2\n"))
	require.NoError(t, err)
	assert.Equal(t, "Turbines", spec.Name)
	assert.Empty(t, spec.Categories)
	assert.Equal(t, []string{"T1", "T2"}, spec.Components)
}

func TestParseRequiresName(t *testing.T) {
	_, err := Parse("Setfile_x.txt", []byte(`{"Included Categories": ["Pump"]}`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))

	_, err = Parse("Setfile_y.txt", []byte(`{"Set Name": `))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}

func TestLoadHCL(t *testing.T) {
	path := write(t, t.TempDir(), "plant.hcl", `
set "Pumps" {
  categories = ["Pump"]
}

set "Mixed" {
  categories = ["Turbine"]
  components = ["P1", "P2"]
}
`)

	specs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "Pumps", specs[0].Name)
	assert.Equal(t, []string{"Pump"}, specs[0].Categories)
	assert.Empty(t, specs[0].Components)
	assert.Equal(t, "Mixed", specs[1].Name)
	assert.Equal(t, []string{"P1", "P2"}, specs[1].Components)
	assert.Equal(t, path, specs[1].Identifier)
}

func TestParseHCLRejects(t *testing.T) {
	tests := map[string]string{
		"no blocks":      `x = 1`,
		"duplicate name": "set \"A\" {}\nset \"A\" {}\n",
		"syntax":         `set "A" {`,
		"wrong type":     `set "A" { categories = 3 }`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHCL("sets.hcl", []byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Setfile_b.txt", `{"Set Name": "B", "Included Categories": ["Pump"]}`)
	write(t, dir, "Setfile_a.txt", `{"Set Name": "A", "Included Categories": ["Pump"]}`)
	write(t, dir, "extra.hcl", `set "C" { components = ["X"] }`)
	write(t, dir, "componentSet_a.txt", `{"Set Name": "ignored"}`)
	write(t, dir, "readme.md", "ignored")

	paths, err := Glob(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	specs, err := LoadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestOutputStem(t *testing.T) {
	assert.Equal(t, "componentSet_pumps", OutputStem(types.SetSpecification{Name: "Pumps", Identifier: "sets/Setfile_pumps.txt"}))
	assert.Equal(t, "componentSet_Gas_turbines", OutputStem(types.SetSpecification{Name: "Gas turbines", Identifier: "plant.hcl"}))
	assert.Equal(t, "componentSet_a_b", OutputStem(types.SetSpecification{Name: "a/b"}))
}
