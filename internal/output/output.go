package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/codereviewer/internal/review"
)

// Formats lists the supported result formats.
var Formats = []string{"text", "json", "markdown", "sarif"}

// Writer writes a review result in a specific format.
type Writer interface {
	Write(w io.Writer, res *review.Result) error
}

// Meta identifies the run a result belongs to.
type Meta struct {
	RunID   string
	Version string
}

// NewMeta returns metadata with a fresh run ID.
func NewMeta(version string) Meta {
	return Meta{RunID: uuid.NewString(), Version: version}
}

// GetWriter returns a writer for format.
func GetWriter(format string, meta Meta) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{RunID: meta.RunID}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{RunID: meta.RunID, Version: meta.Version}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteToFile renders res to path, replacing any existing file.
func WriteToFile(res *review.Result, format string, meta Meta, path string) error {
	writer, err := GetWriter(format, meta)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
