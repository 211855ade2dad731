package convert

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv"
)

// DefaultBinary is the document converter invoked for non-PDF resumes.
const DefaultBinary = "libreoffice"

// Converter turns resume attachments into PDF via an external LibreOffice
// process and extracts their text for storage. Every conversion runs under a
// deadline so a hung converter cannot stall ingestion.
type Converter struct {
	binary  string
	timeout time.Duration
}

func New(timeout time.Duration) *Converter {
	return &Converter{binary: DefaultBinary, timeout: timeout}
}

// NewWithBinary overrides the converter executable. Used by tests.
func NewWithBinary(binary string, timeout time.Duration) *Converter {
	return &Converter{binary: binary, timeout: timeout}
}

// ToPDF converts file content with the given extension (".docx", ".odt", ...)
// to PDF bytes. Tool failure, a timeout, or missing/empty output all surface
// as an error, never as silently empty bytes.
func (c *Converter) ToPDF(ctx context.Context, data []byte, ext string) ([]byte, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir, err := os.MkdirTemp("", "resume-convert-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "resume"+ext)
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Printf("[Convert] converting %s to pdf...", ext)
	cmd := exec.CommandContext(ctx, c.binary,
		"--headless", "--invisible", "--convert-to", "pdf", in, "--outdir", dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("convert %s to pdf: %w (output: %s)", ext, err, strings.TrimSpace(string(out)))
	}

	pdf, err := os.ReadFile(strings.TrimSuffix(in, ext) + ".pdf")
	if err != nil {
		return nil, fmt.Errorf("read converted pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("convert %s to pdf: empty output", ext)
	}
	return pdf, nil
}

// ExtractText extracts plain text from a resume for full-text storage.
// Best-effort: callers treat a failure as a missing text, not a fatal error.
func (c *Converter) ExtractText(data []byte, ext string) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".txt" {
		return string(data), nil
	}

	dir, err := os.MkdirTemp("", "resume-text-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "resume"+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", ext, err)
	}
	return res.Body, nil
}
