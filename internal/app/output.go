package app

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dev-tams/assetsweep/internal/compression"
)

// WriteReport renders v as indented JSON to stdout, or to path when one is
// given. Paths ending in .gz are gzip-compressed. Files are written through
// a temp file so a reader never sees a half-written report.
func WriteReport(stdout io.Writer, path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	body = append(body, '\n')

	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}

	if strings.HasSuffix(path, ".gz") {
		_, err = compression.Gzip(f, bytes.NewReader(body))
	} else {
		_, err = f.Write(body)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write report: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
