package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// stderrLogLimit caps how much tool stderr lands in a single log line.
const stderrLogLimit = 4 << 10

// Runner executes the external OCR tools (tesseract, pdftotext, pdftoppm, HEIC converters).
// Tests substitute a stub so no binaries are needed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ToolError is returned when an external tool exits unsuccessfully.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error { return e.Err }

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	began := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(began).Milliseconds()

	if runErr == nil {
		r.logger.Debug("ocr.tool.ok", "tool", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
		return stdout.Bytes(), stderr.Bytes(), nil
	}
	msg := clip(bytes.TrimSpace(stderr.Bytes()), stderrLogLimit)
	r.logger.Error("ocr.tool.failed", "tool", name, "argc", len(args), "elapsed_ms", elapsed, "stderr", msg, "err", runErr)
	return stdout.Bytes(), stderr.Bytes(), &ToolError{Tool: name, Stderr: msg, Err: runErr}
}

func clip(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
