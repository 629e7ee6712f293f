// Package output formats pipeline reports for display or machine consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output (default)
//   - json: the full structured report
//   - markdown: a comment-friendly rendering of each analysis
//
// Use [GetWriter] to obtain a [Writer] for a format string, or
// [WriteReport] to pick the destination as well.
package output
