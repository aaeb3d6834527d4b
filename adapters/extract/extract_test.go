package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

func names(fields types.Fields) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestParsePreservesFieldOrder(t *testing.T) {
	doc := `[
  {"Component ID": "PUMP-1", "HYSYS Component Name": "PUMP-1", "HYSYS Power": 50.5, "HYSYS Power Units": "kW", "HYSYS Category": "Pump"},
  {"Component ID": "PUMP-2", "HYSYS Component Name": "PUMP-2", "HYSYS Power": "unknown", "HYSYS Power Units": "kW", "HYSYS Category": "Pump"}
]`
	records, err := Parse("HYSYS", []byte(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "HYSYS", records[0].Source)
	assert.Equal(t, []string{"Component ID", "HYSYS Component Name", "HYSYS Power", "HYSYS Power Units", "HYSYS Category"}, names(records[0].Fields))

	power, ok := records[0].Fields.GetFloat("HYSYS Power")
	require.True(t, ok)
	assert.Equal(t, 50.5, power)

	_, ok = records[1].Fields.GetFloat("HYSYS Power")
	assert.False(t, ok)
}

func TestParseSingleYAMLObject(t *testing.T) {
	doc := `
Component ID: PUMP-1
APEA Component Name: PUMP-1
"APEA Installed Cost [USD]": 20000
"APEA Equipment Weight [LBS]": null
`
	records, err := Parse("APEA", []byte(doc))
	require.NoError(t, err)
	require.Len(t, records, 1)

	cost, ok := records[0].Fields.GetFloat("APEA Installed Cost [USD]")
	require.True(t, ok)
	assert.Equal(t, 20000.0, cost)
	assert.False(t, records[0].Fields.Has("APEA Equipment Weight [LBS]"))
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"scalar document": `42`,
		"list of scalars": `[1, 2]`,
		"nested object":   `{"Component ID": "X", "Extra": {"a": 1}}`,
		"malformed":       `{"Component ID": `,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("HYSYS", []byte(doc))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeParsing))
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("Component ID: B\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"Component ID": "A"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	records, err := LoadDir("HYSYS", dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Fields.GetString("Component ID"))
	assert.Equal(t, "B", records[1].Fields.GetString("Component ID"))
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir("HYSYS", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("HYSYS", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
