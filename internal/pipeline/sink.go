package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cardfetch/internal"
)

// CSVSink appends normalized cards to a CSV file, one open/write/close per
// record. The header is written only when the file did not exist yet.
type CSVSink struct {
	path    string
	variant internal.SchemaVariant
}

func NewCSVSink(path string, variant internal.SchemaVariant) *CSVSink {
	return &CSVSink{path: path, variant: variant}
}

func (s *CSVSink) Path() string {
	return s.path
}

func (s *CSVSink) Append(card internal.NormalizedCard) error {
	_, statErr := os.Stat(s.path)
	fileExists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if !fileExists {
		if err := w.Write(Header(s.variant)); err != nil {
			_ = f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(Row(card, s.variant)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write row %q: %w", card.Name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
