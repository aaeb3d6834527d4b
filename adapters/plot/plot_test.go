package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/core/fit"
	"force-cost/core/report"
	"force-cost/core/selection"
	"force-cost/core/types"
)

func pumpRequest(t *testing.T) *report.PlotRequest {
	t.Helper()
	power := []float64{10, 20, 30, 40}
	cost := []float64{1000, 1700, 2200, 2600}
	fitted, err := fit.PowerLaw(power, cost, fit.DefaultOptions())
	require.NoError(t, err)

	members := make([]selection.Member, len(power))
	for i := range power {
		members[i] = selection.Member{
			Component:     &types.CanonicalComponent{Name: "P"},
			Power:         power[i],
			Unit:          "kW",
			InstalledCost: cost[i],
		}
	}
	out := report.Build(types.SetSpecification{Name: "Pumps"}, members, "kW", fitted)
	require.NotNil(t, out.Plot)
	return out.Plot
}

func TestBuild(t *testing.T) {
	p, err := Build(pumpRequest(t))
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "Pumps")
	assert.Equal(t, "Power in kW", p.X.Label.Text)
	assert.Equal(t, report.CostAxisLabel, p.Y.Label.Text)
}

func TestRenderFormats(t *testing.T) {
	req := pumpRequest(t)
	magic := map[string][]byte{
		"png": []byte("\x89PNG"),
		"svg": []byte("<svg"),
		"pdf": []byte("%PDF"),
	}
	for format, prefix := range magic {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			opts := DefaultOptions()
			opts.Format = format
			require.NoError(t, Render(req, opts, &buf))
			head := buf.Bytes()
			if len(head) > 512 {
				head = head[:512]
			}
			assert.True(t, bytes.Contains(head, prefix))
		})
	}
}

func TestRenderRejects(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(nil, DefaultOptions(), &buf))
	assert.Error(t, Render(pumpRequest(t), Options{Width: 6, Height: 6, Format: "gif"}, &buf))
	assert.Error(t, Render(pumpRequest(t), Options{Width: 0, Height: 6, Format: "png"}, &buf))
	assert.Error(t, Render(&report.PlotRequest{Capacity: []float64{1}}, DefaultOptions(), &buf))
}

func TestSaveFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets", "componentSet_pumps.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, SaveFile(pumpRequest(t), Options{Width: 4, Height: 4}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
