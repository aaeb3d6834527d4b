package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/core/catalog"
	"force-cost/core/engine"
	"force-cost/core/report"
	"force-cost/core/selection"
	"force-cost/core/types"
	"force-cost/core/ui"
	"force-cost/internal/errors"
)

func testRun() *engine.RunResult {
	pumps := &engine.SetOutcome{
		Spec: types.SetSpecification{Name: "Pumps", Identifier: "sets/Setfile_pumps.txt"},
		Selection: &selection.Selection{
			Excluded: []selection.Exclusion{{Name: "P2", Identity: "P2", Reasons: []string{selection.ReasonInvalidPower}}},
			Diagnostics: types.Diagnostics{{
				Kind: types.DiagExcluded, Severity: types.SeverityWarning, Subject: "P2", Message: "invalid power",
			}},
		},
		Output: &report.Output{Report: types.SetReport{
			SetName:            "Pumps",
			IncludedComponents: []string{"P1", "P3", "P4"},
			FittedCostModel: types.FittedCostModel{
				ReferenceDriver: 40, ReferenceUnit: "kW", ReferencePrice: 2631.22,
				ScalingFactor: 0.66608, MeanAbsolutePercentageError: 2.35,
			},
		}},
	}
	valves := &engine.SetOutcome{
		Spec:      types.SetSpecification{Name: "Valves"},
		Selection: &selection.Selection{},
		Err:       errors.CurveFit("Valves", "no component qualifies", nil),
	}
	return &engine.RunResult{
		Outcomes:  []*engine.SetOutcome{pumps, valves},
		Succeeded: 1,
		Failed:    1,
		Duration:  40 * time.Millisecond,
	}
}

func TestSummarize(t *testing.T) {
	stats := &catalog.CatalogStats{Total: 7}
	s := Summarize(testRun(), stats, "1.0.0")

	require.Len(t, s.Sets, 2)
	assert.Equal(t, StatusFitted, s.Sets[0].Status)
	require.NotNil(t, s.Sets[0].Report)
	assert.Equal(t, 0.66608, s.Sets[0].Report.ScalingFactor)
	assert.Len(t, s.Sets[0].Excluded, 1)

	assert.Equal(t, StatusFailed, s.Sets[1].Status)
	assert.Nil(t, s.Sets[1].Report)
	assert.Contains(t, s.Sets[1].Error, "no component qualifies")
	assert.Equal(t, 1, s.Metadata.Failed)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(ui.NewWriter(&bytes.Buffer{}, true))
	assert.Len(t, r.GetAll(), 3)

	_, ok := r.GetFormatter(FormatYAML)
	assert.True(t, ok)
	_, ok = r.GetFormatter("html")
	assert.False(t, ok)

	assert.Error(t, r.Register(&JSONFormatter{}))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Render(&buf, Summarize(testRun(), nil, "1.0.0")))

	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	sets := back["sets"].([]any)
	first := sets[0].(map[string]any)
	rep := first["report"].(map[string]any)
	assert.Equal(t, "Pumps", rep["set_name"])
	assert.Equal(t, 40.0, rep["reference_driver"])
	assert.NotContains(t, back, "catalog")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Render(&buf, Summarize(testRun(), nil, "1.0.0")))
	out := buf.String()
	assert.Contains(t, out, "set_name: Pumps")
	assert.Contains(t, out, "status: failed")
}

func TestCLIFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewCLIFormatter(ui.NewWriter(&buf, true))
	require.NoError(t, f.Render(nil, Summarize(testRun(), &catalog.CatalogStats{Total: 7}, "1.0.0")))

	out := buf.String()
	assert.Contains(t, out, "2631.22 USD")
	assert.Contains(t, out, "40.0 kW")
	assert.Contains(t, out, "[warning] P2: invalid power")
	assert.Contains(t, out, "no component qualifies")
	assert.Contains(t, out, "Sets fitted: 1 / 2")
}
