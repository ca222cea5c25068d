package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/pkg/logger"
	"github.com/civic-ai/civic-backend/pkg/metrics"
)

// Extractor turns a normalized PNG into text.
type Extractor interface {
	Extract(ctx context.Context, png []byte) (string, error)
}

// ErrEngineUnavailable is returned when the OCR binary cannot be found.
var ErrEngineUnavailable = errors.New("ocr: engine not available")

// Tesseract runs the tesseract CLI, feeding the image on stdin and reading
// the recognized text from stdout.
type Tesseract struct {
	command  string
	language string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewTesseract creates an extractor. Empty values fall back to
// "tesseract", "eng" and one minute.
func NewTesseract(command, language string, timeout time.Duration, log *logger.Logger) *Tesseract {
	if command == "" {
		command = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Tesseract{command: command, language: language, timeout: timeout, logger: log}
}

// Available reports whether the configured binary is on PATH.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.command)
	return err == nil
}

// Extract implements Extractor.
func (t *Tesseract) Extract(ctx context.Context, png []byte) (string, error) {
	if _, err := exec.LookPath(t.command); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, t.command, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	metrics.OCRDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("tesseract: %w", ctx.Err())
		}
		t.logger.Warn("tesseract failed",
			zap.Error(err),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
		)
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return CleanText(stdout.String()), nil
}

// CleanText trims trailing whitespace from each line, drops form feeds and
// collapses runs of blank lines.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
