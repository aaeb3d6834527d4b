// Package engine provides the API-primary costing pipeline.
// CLI commands are thin wrappers around this engine.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"force-cost/core/catalog"
	"force-cost/core/fit"
	"force-cost/core/report"
	"force-cost/core/selection"
	"force-cost/core/types"
	"force-cost/core/units"
	"force-cost/internal/errors"
	"force-cost/internal/logging"
)

// DefaultParallelism bounds concurrent set processing
const DefaultParallelism = 4

// Engine wires catalog building, set filtering, unit normalization, curve
// fitting and report assembly.
type Engine struct {
	schema catalog.Schema
	units  *units.Table
	rules  []selection.Rule
	logger *zap.Logger

	config EngineConfig
}

// EngineConfig configures the pipeline
type EngineConfig struct {
	// Parallelism is the maximum number of sets processed at once
	Parallelism int

	// MinSamples is the member count below which a set is flagged
	MinSamples int

	// Fit configures the curve solver
	Fit fit.Options
}

// DefaultEngineConfig returns the default configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallelism: DefaultParallelism,
		MinSamples:  selection.DefaultMinSamples,
		Fit:         fit.DefaultOptions(),
	}
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger; the global logger is used otherwise
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRules replaces the default member validity rules
func WithRules(rules ...selection.Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine creates a new engine
func NewEngine(schema catalog.Schema, table *units.Table, config EngineConfig, opts ...Option) *Engine {
	if table == nil {
		table = units.DefaultTable()
	}
	if config.Parallelism <= 0 {
		config.Parallelism = DefaultParallelism
	}
	e := &Engine{
		schema: schema,
		units:  table,
		rules:  selection.DefaultRules(table),
		config: config,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Logger
	}
	return e
}

// BuildCatalog merges extractor records from every source into a catalog.
// Errors for individual components are returned alongside the catalog.
func (e *Engine) BuildCatalog(sources ...[]types.SourceRecord) (*catalog.Catalog, []error) {
	cat, errs := catalog.NewBuilder(e.schema, catalog.WithLogger(e.logger)).Build(sources...)
	for _, err := range errs {
		e.logger.Warn("component skipped", zap.Error(err))
	}
	e.logger.Info("catalog ready",
		zap.Int("components", cat.Len()),
		zap.Int("skipped", len(errs)))
	return cat, errs
}

// SetOutcome is the result of processing one set. Err is set when the set
// could not produce a cost model; Selection is kept either way.
type SetOutcome struct {
	Spec      types.SetSpecification
	Selection *selection.Selection
	Unit      string
	Fit       *fit.Result
	Output    *report.Output
	Err       error
	Duration  time.Duration
}

// Succeeded reports whether a cost model was produced
func (o *SetOutcome) Succeeded() bool {
	return o.Err == nil && o.Output != nil
}

// Diagnostics returns the set's diagnostics
func (o *SetOutcome) Diagnostics() types.Diagnostics {
	if o.Selection == nil {
		return nil
	}
	return o.Selection.Diagnostics
}

// RunResult collects the outcomes of ProcessSets in input order
type RunResult struct {
	Outcomes  []*SetOutcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Errors returns the failures of every unsuccessful set
func (r *RunResult) Errors() []error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// ProcessSet filters, normalizes, fits and reports one set against cat.
// cat is only read.
func (e *Engine) ProcessSet(ctx context.Context, spec types.SetSpecification, cat *catalog.Catalog) *SetOutcome {
	start := time.Now()
	out := &SetOutcome{Spec: spec}
	logger := e.logger.With(zap.String("set", spec.Name))
	defer func() {
		out.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	if spec.IsEmpty() {
		out.Err = errors.Newf(errors.TypeInput, "set %q selects no categories or components", spec.Name)
		return out
	}

	out.Selection = selection.Filter(spec, cat, selection.Options{
		Rules:      e.rules,
		MinSamples: e.config.MinSamples,
	})
	logging.Diagnostics(logger, out.Selection.Diagnostics)

	if len(out.Selection.Members) == 0 {
		out.Err = errors.CurveFit(spec.Name, "no component qualifies", nil)
		return out
	}

	powers, unitNames := out.Selection.Powers()
	unit, normalized, err := e.units.Normalize(powers, unitNames)
	if err != nil {
		out.Err = errors.CurveFit(spec.Name, "power units could not be normalized", err)
		return out
	}
	out.Unit = unit

	fitted, err := fit.PowerLaw(normalized, out.Selection.Costs(), e.config.Fit)
	if err != nil {
		out.Err = errors.CurveFit(spec.Name, "fit failed", err)
		logger.Warn("cost curve not fitted", zap.Error(err))
		return out
	}
	out.Fit = fitted
	out.Output = report.Build(spec, out.Selection.Members, unit, fitted)

	logger.Info("cost curve fitted",
		zap.Int("members", len(out.Selection.Members)),
		zap.Int("excluded", len(out.Selection.Excluded)),
		zap.String("unit", unit),
		zap.Float64("reference_driver", fitted.ReferenceDriver),
		zap.Float64("reference_price", fitted.ReferencePrice),
		zap.Float64("scaling_factor", fitted.ScalingFactor),
		zap.Float64("mape", fitted.MeanAbsolutePercentageError),
		zap.Int("iterations", fitted.Iterations))

	return out
}

// ProcessSets processes every spec independently, at most Parallelism at a
// time. One set's failure never affects another. The returned error is only
// set when ctx was cancelled.
func (e *Engine) ProcessSets(ctx context.Context, specs []types.SetSpecification, cat *catalog.Catalog) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{Outcomes: make([]*SetOutcome, len(specs))}

	var g errgroup.Group
	g.SetLimit(e.config.Parallelism)
	for i, spec := range specs {
		g.Go(func() error {
			result.Outcomes[i] = e.ProcessSet(ctx, spec, cat)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Outcomes {
		if o.Succeeded() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Duration = time.Since(start)

	e.logger.Info("sets processed",
		zap.Int("sets", len(specs)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))

	return result, ctx.Err()
}
