// Package output provides output formatting interfaces.
// This package produces human and machine-readable run summaries.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"force-cost/core/catalog"
	"force-cost/core/determinism"
	"force-cost/core/engine"
	"force-cost/core/selection"
	"force-cost/core/types"
	"force-cost/core/ui"
	"force-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatYAML is machine-readable YAML
	FormatYAML Format = "yaml"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *RunSummary) error
}

// RunSummary is the presentable outcome of a run
type RunSummary struct {
	// Catalog holds catalog statistics when a catalog was built
	Catalog *catalog.CatalogStats `json:"catalog,omitempty"`

	// Sets lists one entry per set specification, in input order
	Sets []SetSummary `json:"sets"`

	// Metadata contains execution context
	Metadata RunMetadata `json:"metadata"`
}

// SetSummary is one set's outcome
type SetSummary struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`

	// Report is nil when no cost model was produced
	Report *types.SetReport `json:"report,omitempty"`

	Excluded    []selection.Exclusion `json:"excluded,omitempty"`
	Diagnostics []types.Diagnostic    `json:"diagnostics,omitempty"`

	// ReportFile and PlotFile are set once the outputs were written
	ReportFile string `json:"report_file,omitempty"`
	PlotFile   string `json:"plot_file,omitempty"`
}

// Set statuses
const (
	StatusFitted = "fitted"
	StatusFailed = "failed"
)

// RunMetadata contains execution context
type RunMetadata struct {
	Timestamp string `json:"timestamp"`
	Duration  string `json:"duration"`
	Version   string `json:"version"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Summarize converts engine outcomes into a RunSummary
func Summarize(run *engine.RunResult, stats *catalog.CatalogStats, version string) *RunSummary {
	summary := &RunSummary{
		Catalog: stats,
		Sets:    make([]SetSummary, 0, len(run.Outcomes)),
		Metadata: RunMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  run.Duration.String(),
			Version:   version,
			Succeeded: run.Succeeded,
			Failed:    run.Failed,
		},
	}

	for _, o := range run.Outcomes {
		s := SetSummary{
			Name:        o.Spec.Name,
			Identifier:  o.Spec.Identifier,
			Status:      StatusFitted,
			Diagnostics: o.Diagnostics(),
		}
		if o.Selection != nil {
			s.Excluded = o.Selection.Excluded
		}
		if o.Succeeded() {
			report := o.Output.Report
			s.Report = &report
		} else {
			s.Status = StatusFailed
			if o.Err != nil {
				s.Error = o.Err.Error()
			}
		}
		summary.Sets = append(summary.Sets, s)
	}
	return summary
}

// Registry holds formatters by format
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates a registry with the CLI, JSON and YAML formatters
func NewRegistry(w *ui.Writer) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	_ = r.Register(&CLIFormatter{w: w})
	_ = r.Register(&JSONFormatter{})
	_ = r.Register(&YAMLFormatter{})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) error {
	if _, exists := r.formatters[formatter.Format()]; exists {
		return errors.Newf(errors.TypeConfig, "formatter %q already registered", formatter.Format())
	}
	r.formatters[formatter.Format()] = formatter
	return nil
}

// GetFormatter returns a formatter for a format type
func (r *Registry) GetFormatter(format Format) (Formatter, bool) {
	f, ok := r.formatters[format]
	return f, ok
}

// GetAll returns all registered formatters sorted by format
func (r *Registry) GetAll() []Formatter {
	all := make([]Formatter, 0, len(r.formatters))
	for _, f := range r.formatters {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Format() < all[j].Format() })
	return all
}

// JSONFormatter renders indented JSON
type JSONFormatter struct{}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render writes result as JSON
func (f *JSONFormatter) Render(w io.Writer, result *RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// YAMLFormatter renders YAML using the JSON field names
type YAMLFormatter struct{}

// Format returns FormatYAML
func (f *YAMLFormatter) Format() Format { return FormatYAML }

// Render writes result as YAML
func (f *YAMLFormatter) Render(w io.Writer, result *RunSummary) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// CLIFormatter renders tables on a terminal writer. The io.Writer passed
// to Render is ignored; output goes to the ui.Writer.
type CLIFormatter struct {
	w *ui.Writer
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(w *ui.Writer) *CLIFormatter {
	return &CLIFormatter{w: w}
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render prints a table of fitted sets, the failures, and a summary box
func (f *CLIFormatter) Render(_ io.Writer, result *RunSummary) error {
	w := f.w
	w.Header("Set Cost Models")

	table := w.NewTable("Set", "Members", "Ref Driver", "Ref Price", "Scaling", "MAPE")
	for _, s := range result.Sets {
		if s.Report == nil {
			continue
		}
		r := s.Report
		table.AddRow(
			s.Name,
			fmt.Sprintf("%d", len(r.IncludedComponents)),
			fmt.Sprintf("%.1f %s", r.ReferenceDriver, r.ReferenceUnit),
			determinism.NewMoneyFromFloat(r.ReferencePrice, "USD").String(),
			fmt.Sprintf("%g", r.ScalingFactor),
			fmt.Sprintf("%.2f %%", r.MeanAbsolutePercentageError),
		)
	}
	table.Render()

	for _, s := range result.Sets {
		if len(s.Diagnostics) == 0 && s.Error == "" {
			continue
		}
		w.Println("")
		w.SubHeader(s.Name)
		for _, d := range s.Diagnostics {
			w.Diagnostic(d)
		}
		if s.Error != "" {
			w.Error("%s", s.Error)
		}
	}

	summary := w.NewRunSummary()
	summary.Sets = len(result.Sets)
	summary.Fitted = result.Metadata.Succeeded
	summary.Failed = result.Metadata.Failed
	if result.Catalog != nil {
		summary.Components = result.Catalog.Total
	}
	if d, err := time.ParseDuration(result.Metadata.Duration); err == nil {
		summary.Duration = d
	}
	summary.Render()
	return nil
}
