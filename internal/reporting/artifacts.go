package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/Virrpe/onbrd/internal/models"
)

// IsGzipPath reports whether path names a gzip-compressed JSON artifact.
func IsGzipPath(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// MarshalJSON encodes v as indented JSON with a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes v to path, gzip-compressed when path ends in ".gz".
// The gzip header carries no name or timestamp so equal inputs produce
// equal bytes.
func WriteJSON(path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	if IsGzipPath(path) {
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return fmt.Errorf("creating gzip writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		data = buf.Bytes()
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the JSON artifact at path into v. Gzip input is detected
// from its magic bytes, not the file name.
func ReadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("opening gzip %s: %w", path, err)
		}
		defer zr.Close() //nolint:errcheck
		if data, err = io.ReadAll(zr); err != nil {
			return fmt.Errorf("decompressing %s: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// LoadBenchmarkReport reads a results file written by the run command.
func LoadBenchmarkReport(path string) (*models.BenchmarkReport, error) {
	var r models.BenchmarkReport
	if err := ReadJSON(path, &r); err != nil {
		return nil, err
	}
	if r.RunID == "" {
		return nil, fmt.Errorf("%s is not a benchmark report: missing run_id", path)
	}
	return &r, nil
}
