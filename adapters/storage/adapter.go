// Package storage persists canonical components and set reports.
// Supports file and in-memory backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"force-cost/core/catalog"
	"force-cost/core/selection"
	"force-cost/core/types"
	"force-cost/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// Format is the on-disk record encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Directory layout under a file store's base path
const (
	ComponentsDir = "components"
	SetsDir       = "sets"
)

// Store is the storage interface
type Store interface {
	// SaveComponent stores one canonical component
	SaveComponent(ctx context.Context, comp *types.CanonicalComponent) error

	// ListComponents returns every stored component sorted by identity
	ListComponents(ctx context.Context) ([]*types.CanonicalComponent, error)

	// SaveReport stores a set report
	SaveReport(ctx context.Context, report *StoredReport) error

	// GetReport retrieves a report by ID
	GetReport(ctx context.Context, id string) (*StoredReport, error)

	// ListReports lists reports with filters
	ListReports(ctx context.Context, filter *ListFilter) ([]*StoredReport, error)

	// Close closes the store
	Close() error
}

// StoredReport is a persisted set report
type StoredReport struct {
	// ID is unique identifier
	ID string `json:"id"`

	// Name is the output file stem
	Name string `json:"name"`

	types.SetReport

	// Excluded lists components dropped from the set
	Excluded []selection.Exclusion `json:"excluded,omitempty"`

	// Diagnostics reported while processing the set
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`

	// PlotFile is the rendered diagnostic plot, if any
	PlotFile string `json:"plot_file,omitempty"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter filters report listing
type ListFilter struct {
	SetName string
	Since   time.Time
	Limit   int
}

func (f *ListFilter) match(r *StoredReport) bool {
	if f == nil {
		return true
	}
	if f.SetName != "" && r.SetName != f.SetName {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

func (f *ListFilter) limit(reports []*StoredReport) []*StoredReport {
	if f != nil && f.Limit > 0 && f.Limit < len(reports) {
		return reports[:f.Limit]
	}
	return reports
}

func prepare(report *StoredReport) {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.Name == "" {
		report.Name = catalog.FileStem(types.ComponentIdentity(report.SetName))
	}
}

func sortReports(reports []*StoredReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})
}

// Encode renders v in format. YAML is produced from the JSON encoding so
// both formats carry the same keys and value rendering.
func Encode(v any, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		return yaml.JSONToYAML(data)
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported storage format %q", format)
	}
}

// Decode parses data written by Encode
func Decode(data []byte, format Format, v any) error {
	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return err
		}
		data = converted
	}
	return json.Unmarshal(data, v)
}

// FileStore is a file-based storage backend
type FileStore struct {
	basePath string
	format   Format
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string, format Format) (*FileStore, error) {
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatYAML {
		return nil, errors.Newf(errors.TypeConfig, "unsupported storage format %q", format)
	}
	for _, dir := range []string{ComponentsDir, SetsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &FileStore{basePath: basePath, format: format}, nil
}

// ComponentPath returns where a component is written
func (s *FileStore) ComponentPath(id types.ComponentIdentity) string {
	return filepath.Join(s.basePath, ComponentsDir, catalog.FileStem(id)+"."+string(s.format))
}

// ReportPath returns where a report with the given name is written
func (s *FileStore) ReportPath(name string) string {
	return filepath.Join(s.basePath, SetsDir, name+"."+string(s.format))
}

// PlotPath returns the path of a report's plot with the given extension
func (s *FileStore) PlotPath(name, ext string) string {
	return filepath.Join(s.basePath, SetsDir, name+"."+ext)
}

func (s *FileStore) SaveComponent(ctx context.Context, comp *types.CanonicalComponent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(comp, s.format)
	if err != nil {
		return fmt.Errorf("failed to marshal component %s: %w", comp.Identity, err)
	}
	if err := os.WriteFile(s.ComponentPath(comp.Identity), data, 0644); err != nil {
		return fmt.Errorf("failed to write component: %w", err)
	}
	return nil
}

func (s *FileStore) ListComponents(ctx context.Context) ([]*types.CanonicalComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.basePath, ComponentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	var comps []*types.CanonicalComponent
	suffix := "." + string(s.format)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read component: %w", err)
		}
		var comp types.CanonicalComponent
		if err := Decode(data, s.format, &comp); err != nil {
			return nil, errors.Parsing("decoding component "+entry.Name(), err)
		}
		if comp.Identity == "" {
			return nil, errors.Newf(errors.TypeParsing, "component file %s has no identity", entry.Name())
		}
		comps = append(comps, &comp)
	}
	sortComponents(comps)
	return comps, nil
}

func sortComponents(comps []*types.CanonicalComponent) {
	sort.Slice(comps, func(i, j int) bool {
		return comps[i].Identity < comps[j].Identity
	})
}

func (s *FileStore) SaveReport(ctx context.Context, report *StoredReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(report)
	data, err := Encode(report, s.format)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(s.ReportPath(report.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (s *FileStore) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	reports, err := s.ListReports(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.NotFound("report", id)
}

func (s *FileStore) ListReports(ctx context.Context, filter *ListFilter) ([]*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.basePath, SetsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	var reports []*StoredReport
	suffix := "." + string(s.format)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.basePath, SetsDir, entry.Name()))
		if err != nil {
			continue
		}
		var report StoredReport
		if err := Decode(data, s.format, &report); err != nil || report.ID == "" {
			continue // not a report
		}
		if filter.match(&report) {
			reports = append(reports, &report)
		}
	}

	sortReports(reports)
	return filter.limit(reports), nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend, used for dry runs
type MemoryStore struct {
	components map[types.ComponentIdentity]*types.CanonicalComponent
	reports    map[string]*StoredReport
	mu         sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		components: make(map[types.ComponentIdentity]*types.CanonicalComponent),
		reports:    make(map[string]*StoredReport),
	}
}

func (s *MemoryStore) SaveComponent(ctx context.Context, comp *types.CanonicalComponent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components[comp.Identity] = comp
	return nil
}

// Component returns a saved component
func (s *MemoryStore) Component(id types.ComponentIdentity) (*types.CanonicalComponent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comp, ok := s.components[id]
	return comp, ok
}

func (s *MemoryStore) ListComponents(ctx context.Context) ([]*types.CanonicalComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comps := make([]*types.CanonicalComponent, 0, len(s.components))
	for _, c := range s.components {
		comps = append(comps, c)
	}
	sortComponents(comps)
	return comps, nil
}

func (s *MemoryStore) SaveReport(ctx context.Context, report *StoredReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(report)
	s.reports[report.ID] = report
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, errors.NotFound("report", id)
	}
	return report, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, filter *ListFilter) ([]*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []*StoredReport
	for _, report := range s.reports {
		if filter.match(report) {
			reports = append(reports, report)
		}
	}
	sortReports(reports)
	return filter.limit(reports), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = "output"
		}
		return NewFileStore(path, Format(config["format"]))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)
