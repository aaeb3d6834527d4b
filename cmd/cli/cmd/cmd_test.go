package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hysysExtract = `[
  {"Component ID": "P1", "HYSYS Component Name": "P1", "HYSYS Category": "Pump", "HYSYS Power": 10.0, "HYSYS Power Units": "kW"},
  {"Component ID": "P2", "HYSYS Component Name": "P2", "HYSYS Category": "Pump", "HYSYS Power": 20.0, "HYSYS Power Units": "kW"},
  {"Component ID": "P3", "HYSYS Component Name": "P3", "HYSYS Category": "Pump", "HYSYS Power": 30.0, "HYSYS Power Units": "kW"},
  {"Component ID": "P4", "HYSYS Component Name": "P4", "HYSYS Category": "Pump", "HYSYS Power": 40.0, "HYSYS Power Units": "kW"},
  {"Component ID": "T1", "HYSYS Component Name": "T1", "HYSYS Category": "Turbine", "HYSYS Power": 0.5, "HYSYS Power Units": "MW"},
  {"Component ID": "T2", "HYSYS Component Name": "T2", "HYSYS Category": "Turbine", "HYSYS Power": 1.0, "HYSYS Power Units": "MW"},
  {"Component ID": "T3", "HYSYS Component Name": "T3", "HYSYS Category": "Turbine", "HYSYS Power": 2000.0, "HYSYS Power Units": "kW"}
]`

const apeaExtract = `- {"Component ID": "P1", "APEA Component Name": "P1", "APEA Installed Cost [USD]": 1000.0}
- {"Component ID": "P2", "APEA Component Name": "P2", "APEA Installed Cost [USD]": 1700.0}
- {"Component ID": "P3", "APEA Component Name": "P3", "APEA Installed Cost [USD]": 2200.0}
- {"Component ID": "P4", "APEA Component Name": "P4", "APEA Installed Cost [USD]": 2600.0}
- {"Component ID": "T1", "APEA Component Name": "T1", "APEA Installed Cost [USD]": 100000.0}
- {"Component ID": "T2", "APEA Component Name": "T2", "APEA Installed Cost [USD]": 160000.0}
- {"Component ID": "T3", "APEA Component Name": "T3", "APEA Installed Cost [USD]": 260000.0}
`

const heronInput = `<HERON>
  <Components>
    <Component name="Pumps">
      <economics>
        <lifetime>20</lifetime>
        <CashFlow name="Pumps_capex" type="one-time"/>
      </economics>
    </Component>
  </Components>
</HERON>
`

type workspace struct {
	hysys string
	apea  string
	sets  string
	out   string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{
		hysys: filepath.Join(root, "hysys"),
		apea:  filepath.Join(root, "apea"),
		sets:  filepath.Join(root, "sets"),
		out:   filepath.Join(root, "out"),
	}
	writeFile(t, filepath.Join(ws.hysys, "hysys.json"), hysysExtract)
	writeFile(t, filepath.Join(ws.apea, "apea.yaml"), apeaExtract)
	writeFile(t, filepath.Join(ws.sets, "Setfile_pumps.txt"),
		`{"Set Name": "Pumps", "Included Categories": ["Pump"]}`)
	writeFile(t, filepath.Join(ws.sets, "turbines.hcl"), `
set "Turbines" {
  categories = ["Turbine"]
}
`)
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunWritesReportsAndPlots(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "run",
		"--source", "HYSYS="+ws.hysys,
		"--source", "APEA="+ws.apea,
		"--out", ws.out,
		"--format", "json",
		"--dry-run=false",
		ws.sets)
	require.NoError(t, err)

	var summary struct {
		Sets []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Report *struct {
				ReferenceDriver float64 `json:"reference_driver"`
				ReferenceUnit   string  `json:"reference_unit"`
				ScalingFactor   float64 `json:"scaling_factor"`
			} `json:"report"`
		} `json:"sets"`
		Catalog struct {
			Total int `json:"total"`
		} `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 7, summary.Catalog.Total)
	require.Len(t, summary.Sets, 2)

	pumps := summary.Sets[0]
	assert.Equal(t, "Pumps", pumps.Name)
	assert.Equal(t, "fitted", pumps.Status)
	require.NotNil(t, pumps.Report)
	assert.Equal(t, 40.0, pumps.Report.ReferenceDriver)
	assert.Equal(t, "kW", pumps.Report.ReferenceUnit)
	assert.InDelta(t, 0.666, pumps.Report.ScalingFactor, 0.01)

	assert.Equal(t, "Turbines", summary.Sets[1].Name)
	require.NotNil(t, summary.Sets[1].Report)
	assert.Equal(t, "MW", summary.Sets[1].Report.ReferenceUnit)

	assert.FileExists(t, filepath.Join(ws.out, "components", "P1.json"))
	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_pumps.json"))
	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_pumps.png"))
	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_Turbines.json"))

	// the stored reports feed the HERON export
	input := filepath.Join(t.TempDir(), "heron.xml")
	writeFile(t, input, heronInput)
	_, err = execute(t, "heron", "--out", ws.out, input)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(input), "new_heron.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<Component name="Turbines">`)
	assert.Contains(t, string(data), "<reference_driver>")
	assert.Contains(t, string(data), "<lifetime>20</lifetime>")
}

type setEntry struct {
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Error      string          `json:"error"`
	ReportFile string          `json:"report_file"`
	Report     json.RawMessage `json:"report"`
}

func decodeSets(t *testing.T, out string) []setEntry {
	t.Helper()
	var summary struct {
		Sets []setEntry `json:"sets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	return summary.Sets
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "run",
		"--source", "HYSYS="+ws.hysys,
		"--source", "APEA="+ws.apea,
		"--out", ws.out,
		"--format", "json",
		"--dry-run",
		ws.sets)
	require.NoError(t, err)

	sets := decodeSets(t, out)
	require.Len(t, sets, 2)
	for _, s := range sets {
		assert.Equal(t, "fitted", s.Status)
		assert.NotEmpty(t, s.Report)
		assert.Empty(t, s.ReportFile)
	}
	assert.NoDirExists(t, ws.out)
}

func TestRunKeepsWritingAfterSetFailure(t *testing.T) {
	ws := newWorkspace(t)
	// a directory where the pumps plot should go makes that write fail
	require.NoError(t, os.MkdirAll(filepath.Join(ws.out, "sets", "componentSet_pumps.png"), 0755))

	out, err := execute(t, "run",
		"--source", "HYSYS="+ws.hysys,
		"--source", "APEA="+ws.apea,
		"--out", ws.out,
		"--format", "json",
		"--dry-run=false",
		ws.sets)
	assert.ErrorContains(t, err, "outputs of 1 fitted sets could not be written")

	sets := decodeSets(t, out)
	require.Len(t, sets, 2)
	assert.Equal(t, "Pumps", sets[0].Name)
	assert.Contains(t, sets[0].Error, "plotting")
	assert.Empty(t, sets[1].Error)

	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_pumps.json"))
	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_Turbines.json"))
	assert.FileExists(t, filepath.Join(ws.out, "sets", "componentSet_Turbines.png"))
}

func TestReportsListAndShow(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "run",
		"--source", "HYSYS="+ws.hysys,
		"--source", "APEA="+ws.apea,
		"--out", ws.out,
		"--format", "json",
		"--dry-run=false",
		ws.sets)
	require.NoError(t, err)

	type listed struct {
		ID      string `json:"id"`
		SetName string `json:"set_name"`
	}
	list := func(args ...string) []listed {
		t.Helper()
		out, err := execute(t, append([]string{"reports", "list", "--out", ws.out, "--format", "json"}, args...)...)
		require.NoError(t, err)
		var reports []listed
		require.NoError(t, json.Unmarshal([]byte(out), &reports))
		return reports
	}

	all := list("--set", "", "--limit", "0", "--since", "0s")
	require.Len(t, all, 2)
	assert.Equal(t, "Turbines", all[0].SetName)
	assert.Equal(t, "Pumps", all[1].SetName)

	assert.Len(t, list("--set", "", "--limit", "1", "--since", "0s"), 1)
	assert.Len(t, list("--set", "", "--limit", "0", "--since", "1h"), 2)

	pumps := list("--set", "Pumps", "--limit", "0", "--since", "0s")
	require.Len(t, pumps, 1)
	require.NotEmpty(t, pumps[0].ID)
	assert.Empty(t, list("--set", "Compressors", "--limit", "0", "--since", "0s"))

	out, err := execute(t, "reports", "show", "--out", ws.out, "--format", "json", pumps[0].ID)
	require.NoError(t, err)
	var shown struct {
		ID              string  `json:"id"`
		SetName         string  `json:"set_name"`
		ReferenceDriver float64 `json:"reference_driver"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, pumps[0].ID, shown.ID)
	assert.Equal(t, "Pumps", shown.SetName)
	assert.Equal(t, 40.0, shown.ReferenceDriver)

	_, err = execute(t, "reports", "show", "--out", ws.out, "no-such-id")
	assert.ErrorContains(t, err, "not found")
}

func TestComponentsThenSets(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "components",
		"--source", "HYSYS="+ws.hysys,
		"--source", "APEA="+ws.apea,
		"--out", ws.out)
	require.NoError(t, err)
	assert.Contains(t, out, "7 components written")

	out, err = execute(t, "sets", "--out", ws.out, "--format", "cli", ws.sets)
	require.NoError(t, err)
	assert.Contains(t, out, "Sets fitted: 2 / 2")
	assert.Contains(t, out, "Pumps")
}

func TestSetsWithoutComponents(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "sets", "--out", ws.out, "--format", "json", ws.sets)
	assert.ErrorContains(t, err, "no components stored")
}

func TestRunRejectsUnknownSource(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "run", "--source", "ASPEN="+ws.hysys, "--out", ws.out, "--format", "json", ws.sets)
	assert.ErrorContains(t, err, `unknown source "ASPEN"`)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "pump_hysys.json")
	b := filepath.Join(dir, "pump_apea.yaml")
	writeFile(t, a, `{"HYSYS Component Name": "PUMP 1", "HYSYS Power": 50.0}`)
	writeFile(t, b, "APEA Component Name: PUMP 1\n\"APEA Installed Cost [USD]\": 20000.0\n")

	out, err := execute(t, "merge", "--format", "json", a, b)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Component Name": "PUMP 1",
		"HYSYS Power": 50,
		"APEA Installed Cost [USD]": 20000
	}`, out)

	writeFile(t, b, "APEA Component Name: PUMP 2\n")
	_, err = execute(t, "merge", a, b)
	assert.Error(t, err)
}

func TestConfigShowAndVersion(t *testing.T) {
	out, err := execute(t, "config", "show", "--format", "json")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Contains(t, cfg, "schema")

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "force-cost version "+Version+"\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "force-cost.yaml")
	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
}
