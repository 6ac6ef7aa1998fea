package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/deepcrawl/internal/model"
)

// JSONWriter outputs reports as JSON.
type JSONWriter struct {
	baseWriter
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *JSONWriter) Write(report *model.ResearchReport) (int, error) {
	return w.writeJSON(report)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// Snapshot is the persisted form of one research run.
type Snapshot struct {
	// Version is the deepcrawl version that produced the snapshot.
	Version string `json:"version"`

	// GeneratedAt is when the snapshot was written.
	GeneratedAt time.Time `json:"generated_at"`

	// DurationSeconds is the run time of the research.
	DurationSeconds float64 `json:"duration_seconds"`

	// Report is the full research report.
	Report *model.ResearchReport `json:"report"`
}

// NewSnapshot wraps report with version information.
func NewSnapshot(report *model.ResearchReport, version string) *Snapshot {
	return &Snapshot{
		Version:         version,
		GeneratedAt:     time.Now(),
		DurationSeconds: report.Duration().Seconds(),
		Report:          report,
	}
}

// SnapshotWriter outputs reports wrapped in a Snapshot.
type SnapshotWriter struct {
	*JSONWriter
	version string
}

// NewSnapshotWriter creates a SnapshotWriter.
func NewSnapshotWriter(output io.Writer, version string, opts ...JSONWriterOption) *SnapshotWriter {
	return &SnapshotWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped report.
func (w *SnapshotWriter) Write(report *model.ResearchReport) (int, error) {
	return w.writeJSON(NewSnapshot(report, w.version))
}
