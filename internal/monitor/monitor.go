package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/svcref/svcref/internal/catalog"
)

// BaselineFile is the name of the current baseline snapshot.
const BaselineFile = "baseline_schema.json"

// Source is the slice of the fetcher the monitor needs. It reads documents
// untyped so fields the core's model would drop are still observed.
type Source interface {
	FetchIndex(ctx context.Context) ([]catalog.ServiceRef, error)
	FetchRawDocument(ctx context.Context, url string) (map[string]interface{}, error)
}

// Monitor snapshots catalog structure and diffs snapshots against a stored
// baseline.
type Monitor struct {
	source     Source
	dir        string
	sampleSize int
	logger     *zap.Logger
}

// Result is the outcome of one Check run.
type Result struct {
	Status   string  `json:"status"` // "baseline_created" or "analysis_complete"
	Changes  Changes `json:"changes"`
	Baseline *Schema `json:"baseline,omitempty"`
	Current  *Schema `json:"current,omitempty"`
}

// New creates a Monitor writing snapshots under dir. A nil logger is
// replaced with a no-op logger.
func New(source Source, dir string, sampleSize int, logger *zap.Logger) *Monitor {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		source:     source,
		dir:        dir,
		sampleSize: sampleSize,
		logger:     logger,
	}
}

// Snapshot analyzes a random sample of service documents and returns the
// observed schema. A document that fails to fetch is skipped, not fatal.
func (m *Monitor) Snapshot(ctx context.Context) (*Schema, error) {
	refs, err := m.source.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("catalog index is empty")
	}

	sample := sampleRefs(refs, m.sampleSize)

	observed := newShape()
	var analyzed []string
	for _, ref := range sample {
		doc, err := m.source.FetchRawDocument(ctx, ref.URL)
		if err != nil {
			m.logger.Warn("skipping service in schema snapshot",
				zap.String("service", ref.Name),
				zap.Error(err))
			continue
		}
		observed.observe(doc)
		analyzed = append(analyzed, ref.Name)
	}
	if len(analyzed) == 0 {
		return nil, fmt.Errorf("no service documents could be analyzed")
	}

	schema := observed.schema(analyzed)
	schema.ReportID = uuid.NewString()
	schema.Timestamp = time.Now().UTC()
	schema.Hash = HashSchema(schema)

	m.logger.Info("schema snapshot complete",
		zap.String("report_id", schema.ReportID),
		zap.Int("services", len(analyzed)),
		zap.String("hash", schema.Hash))
	return schema, nil
}

// SaveBaseline persists a schema as the current baseline.
func (m *Monitor) SaveBaseline(schema *Schema) error {
	return m.save(schema, BaselineFile)
}

// LoadBaseline reads the stored baseline. Returns (nil, nil) when no
// baseline exists yet.
func (m *Monitor) LoadBaseline() (*Schema, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, BaselineFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decoding baseline: %w", err)
	}
	return &schema, nil
}

// Check snapshots the catalog and diffs it against the baseline. With no
// baseline stored, the snapshot becomes the baseline. When drift is found,
// the new snapshot is archived with a timestamped name and promoted to be
// the baseline.
func (m *Monitor) Check(ctx context.Context) (*Result, error) {
	baseline, err := m.LoadBaseline()
	if err != nil {
		return nil, err
	}

	current, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if baseline == nil {
		if err := m.SaveBaseline(current); err != nil {
			return nil, err
		}
		m.logger.Info("baseline created", zap.String("report_id", current.ReportID))
		return &Result{Status: "baseline_created", Current: current}, nil
	}

	changes := Compare(baseline, current)
	if changes.HasChanges {
		archive := fmt.Sprintf("schema_%s.json", current.Timestamp.Format("20060102_150405"))
		if err := m.save(current, archive); err != nil {
			return nil, err
		}
		if err := m.SaveBaseline(current); err != nil {
			return nil, err
		}
		m.logger.Warn("schema drift detected",
			zap.String("baseline_hash", baseline.Hash),
			zap.String("current_hash", current.Hash))
	}

	return &Result{
		Status:   "analysis_complete",
		Changes:  changes,
		Baseline: baseline,
		Current:  current,
	}, nil
}

// FormatReport renders changes as a plain-text report.
func FormatReport(changes Changes) string {
	if !changes.HasChanges {
		return "No schema changes detected."
	}

	var b strings.Builder
	b.WriteString("Schema changes detected!\n")

	if len(changes.NewFields) > 0 {
		b.WriteString("\nNew fields:\n")
		writeFieldMap(&b, changes.NewFields)
	}
	if len(changes.RemovedFields) > 0 {
		b.WriteString("\nRemoved fields:\n")
		writeFieldMap(&b, changes.RemovedFields)
	}
	if len(changes.NewDataTypes) > 0 {
		fmt.Fprintf(&b, "\nNew data types: %s\n", strings.Join(changes.NewDataTypes, ", "))
	}
	if len(changes.RemovedDataTypes) > 0 {
		fmt.Fprintf(&b, "\nRemoved data types: %s\n", strings.Join(changes.RemovedDataTypes, ", "))
	}

	return b.String()
}

func writeFieldMap(b *strings.Builder, fields map[string][]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	for _, name := range sortedCopy(names) {
		fmt.Fprintf(b, "  %s: %s\n", name, strings.Join(fields[name], ", "))
	}
}

func sortedCopy(items []string) []string {
	return subtract(items, nil)
}

// sampleRefs returns up to n refs drawn without replacement.
func sampleRefs(refs []catalog.ServiceRef, n int) []catalog.ServiceRef {
	if n >= len(refs) {
		return refs
	}

	shuffled := append([]catalog.ServiceRef(nil), refs...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// save writes a schema JSON under the monitor dir, creating it if needed.
func (m *Monitor) save(schema *Schema, filename string) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating schema dir: %w", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}

	m.logger.Debug("schema saved", zap.String("path", path))
	return nil
}
