package report

import (
	"io"

	"github.com/nao1215/deepcrawl/internal/model"
)

// Writer outputs a research report.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.ResearchReport) (int, error)
}

// MultiWriter writes a report to several Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer and stops on the first error.
func (m *MultiWriter) Write(report *model.ResearchReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a run ended.
func statusText(report *model.ResearchReport) string {
	switch {
	case report.TimedOut:
		return "TIMED OUT (partial results)"
	case report.Error != "":
		return "ERROR - " + report.Error
	default:
		return "Complete"
	}
}

const dateLayout = "2006-01-02 15:04:05 MST"

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
