// Package report assembles the per-set output record and the data needed to
// draw its diagnostic cost curve.
package report

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"force-cost/core/determinism"
	"force-cost/core/fit"
	"force-cost/core/selection"
	"force-cost/core/types"
)

// CurveSamples is the number of points drawn along the fitted curve
const CurveSamples = 100

// Plot labels
const (
	ObservedLabel = "Observed Cost"
	FittedLabel   = "Fitted Cost"
	CostAxisLabel = "Cost [USD]"
)

// PlotRequest describes a scatter of the observed samples overlaid with the
// fitted curve. Capacity values are in the set's common unit.
type PlotRequest struct {
	Title  string
	XLabel string
	YLabel string

	Capacity []float64
	Cost     []float64

	CurveCapacity []float64
	CurveCost     []float64
}

// Output is everything produced for one set
type Output struct {
	Report types.SetReport
	Plot   *PlotRequest
}

// Build creates the report for spec. members must be the fitted members in
// inclusion order; fitted may be nil, in which case no model or plot is
// produced.
func Build(spec types.SetSpecification, members []selection.Member, unit string, fitted *fit.Result) *Output {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Component.Name
	}

	out := &Output{
		Report: types.SetReport{
			SetName:              spec.Name,
			SourceSpecIdentifier: spec.Identifier,
			IncludedComponents:   names,
		},
	}
	if fitted == nil {
		return out
	}
	out.Report.FittedCostModel = fitted.Model(unit)
	out.Plot = plotRequest(spec.Name, unit, members, fitted)
	return out
}

func plotRequest(setName, unit string, members []selection.Member, fitted *fit.Result) *PlotRequest {
	req := &PlotRequest{
		Title:    Title(setName, unit, fitted),
		XLabel:   fmt.Sprintf("Power in %s", unit),
		YLabel:   CostAxisLabel,
		Capacity: make([]float64, len(fitted.Ratios)),
		Cost:     make([]float64, len(members)),
	}
	for i, r := range fitted.Ratios {
		req.Capacity[i] = r * fitted.ReferenceDriver
	}
	for i, m := range members {
		req.Cost[i] = m.InstalledCost
	}

	if len(req.Capacity) == 0 {
		return req
	}
	req.CurveCapacity = floats.Span(make([]float64, CurveSamples), floats.Min(req.Capacity), floats.Max(req.Capacity))
	req.CurveCost = make([]float64, CurveSamples)
	for i, c := range req.CurveCapacity {
		req.CurveCost[i] = fitted.Predict(c)
	}
	return req
}

// Title formats the fit parameters for display above the plot
func Title(setName, unit string, fitted *fit.Result) string {
	return fmt.Sprintf("Cost function curve of %q\nRef Driver = %.1f %s\nRef price(USD) = %.1f\nScaling factor = %s\nMAPE = %.2f %%",
		setName,
		fitted.ReferenceDriver, unit,
		fitted.ReferencePrice,
		formatFactor(fitted.Exponent),
		fitted.MeanAbsolutePercentageError)
}

func formatFactor(x float64) string {
	return fmt.Sprintf("%g", determinism.Round(x, 4))
}
