package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/prsentry/internal/pipeline"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *pipeline.Report) error
}

// Formats lists the accepted format names.
var Formats = []string{"text", "json", "markdown"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to outPath, or to w when outPath is empty.
func WriteReport(w io.Writer, report *pipeline.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if w == nil {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
