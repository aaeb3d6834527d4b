package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"force-cost/adapters/extract"
	"force-cost/adapters/plot"
	"force-cost/adapters/setfile"
	"force-cost/adapters/storage"
	"force-cost/core/catalog"
	"force-cost/core/engine"
	"force-cost/core/output"
	"force-cost/core/types"
	"force-cost/core/ui"
	"force-cost/internal/config"
	"force-cost/internal/logging"
)

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	table, err := cfg.UnitTable()
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(cfg.Schema, table, cfg.EngineConfig()), nil
}

// openStore opens the file store under the output directory, or an
// in-memory store when nothing should be written.
func openStore(cfg *config.Config, dryRun bool) (storage.Store, error) {
	backend := storage.BackendFile
	if dryRun {
		backend = storage.BackendMemory
	}
	return storage.StoreFactory(backend, map[string]string{
		"path":   outputDir(),
		"format": cfg.Output.Format,
	})
}

// fileLocations is implemented by stores that write to disk
type fileLocations interface {
	ReportPath(name string) string
	PlotPath(name, ext string) string
}

// loadSources reads one directory of extracts per schema source, in schema
// order. Labels must be known to the schema.
func loadSources(schema catalog.Schema, dirs map[string]string) ([][]types.SourceRecord, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no source directories given (use --source LABEL=DIR)")
	}
	for label := range dirs {
		if _, ok := schema.Source(label); !ok {
			return nil, fmt.Errorf("unknown source %q", label)
		}
	}

	var sources [][]types.SourceRecord
	for _, src := range schema.Sources {
		dir, ok := dirs[src.Label]
		if !ok {
			logging.Warn("no directory for source", zap.String("source", src.Label))
			continue
		}
		records, err := extract.LoadDir(src.Label, dir)
		if err != nil {
			return nil, fmt.Errorf("loading %s extracts: %w", src.Label, err)
		}
		sources = append(sources, records)
	}
	return sources, nil
}

// saveComponents writes every catalog component to the store
func saveComponents(ctx context.Context, w *ui.Writer, store storage.Store, cat *catalog.Catalog) error {
	comps := cat.Components()
	bar := w.NewProgressBar(len(comps), "Saving components")
	for _, comp := range comps {
		if err := store.SaveComponent(ctx, comp); err != nil {
			return err
		}
		bar.Increment()
	}
	bar.Done()
	return nil
}

// catalogFromStore rebuilds a catalog from previously saved components.
// Components failing validation are reported and still catalogued; the set
// filter excludes them later.
func catalogFromStore(ctx context.Context, w *ui.Writer, store storage.Store) (*catalog.Catalog, error) {
	comps, err := store.ListComponents(ctx)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return nil, fmt.Errorf("no components stored; run the components command first")
	}
	cat := catalog.NewCatalog()
	for _, comp := range comps {
		if err := cat.Register(comp); err != nil {
			return nil, err
		}
	}
	for _, err := range cat.Validate(catalog.DefaultValidationRules()) {
		w.Warning("%v", err)
	}
	return cat, nil
}

// processSets runs every set file in dir against cat and writes one report
// (and plot) per fitted set. It also returns how many fitted sets could not
// be written in full; their errors are on the summary entries.
func processSets(ctx context.Context, cfg *config.Config, store storage.Store, cat *catalog.Catalog, dir string) (*output.RunSummary, int, error) {
	specs, err := setfile.LoadDir(dir)
	if err != nil {
		return nil, 0, err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return nil, 0, err
	}
	run, err := eng.ProcessSets(ctx, specs, cat)
	if err != nil {
		return nil, 0, err
	}

	stats := cat.Stats()
	summary := output.Summarize(run, &stats, Version)
	return summary, writeOutcomes(ctx, cfg, store, run, summary), nil
}

// writeOutcomes stores each fitted set. A failing set is recorded on its
// summary entry and the remaining sets are still written.
func writeOutcomes(ctx context.Context, cfg *config.Config, store storage.Store, run *engine.RunResult, summary *output.RunSummary) int {
	plotOpts := plot.Options{
		Width:  cfg.Output.PlotWidth,
		Height: cfg.Output.PlotHeight,
		Format: cfg.Output.PlotFormat,
	}
	files, onDisk := store.(fileLocations)

	failed := 0
	for i, o := range run.Outcomes {
		if !o.Succeeded() {
			continue
		}
		entry := &summary.Sets[i]
		name := setfile.OutputStem(o.Spec)
		stored := &storage.StoredReport{
			Name:        name,
			SetReport:   o.Output.Report,
			Excluded:    o.Selection.Excluded,
			Diagnostics: o.Diagnostics(),
		}

		var errs []string
		if onDisk && cfg.Output.Plot && o.Output.Plot != nil {
			path := files.PlotPath(name, cfg.Output.PlotFormat)
			if err := plot.SaveFile(o.Output.Plot, plotOpts, path); err != nil {
				logging.Error("plot not written", zap.String("set", o.Spec.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("plotting: %v", err))
			} else {
				stored.PlotFile = path
				entry.PlotFile = path
			}
		}

		if err := store.SaveReport(ctx, stored); err != nil {
			logging.Error("report not written", zap.String("set", o.Spec.Name), zap.Error(err))
			errs = append(errs, fmt.Sprintf("saving report: %v", err))
		} else if onDisk {
			entry.ReportFile = files.ReportPath(name)
		}

		if len(errs) > 0 {
			entry.Error = strings.Join(errs, "; ")
			failed++
		}
	}
	return failed
}

// render writes summary in the requested format
func render(w *ui.Writer, out io.Writer, format string, summary *output.RunSummary) error {
	registry := output.NewRegistry(w)
	f, ok := registry.GetFormatter(output.Format(strings.ToLower(format)))
	if !ok {
		var names []string
		for _, f := range registry.GetAll() {
			names = append(names, string(f.Format()))
		}
		return fmt.Errorf("unknown format %q (use %s)", format, strings.Join(names, ", "))
	}
	return f.Render(out, summary)
}
