package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/lu4p/cat"
)

// extractOffice reads ODT and RTF files.
func extractOffice(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return strings.TrimSpace(text), nil
}

// extractOfficeBytes spools content to a temporary file, since the reader
// detects the format from the file name.
func extractOfficeBytes(content []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "tenpo-*"+ext)
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	return extractOffice(f.Name())
}
