// Package report renders research reports.
//
// Three formats are provided:
//   - JSONWriter / SnapshotWriter: the structured snapshot for tools
//   - SimpleWriter: a plain-text summary for the terminal
//   - MarkdownWriter: a research roadmap for sharing
//
// Writers only read the report. They never change findings, so the same
// report can be written in several formats and saved to the database.
package report
