package subprocess

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testRunner(timeout time.Duration) *Runner {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	// 测试用/bin/sh当运行时，脚本位传-c，参数位传shell命令
	return NewRunner("/bin/sh", timeout, logger)
}

func TestRunStructuredOutput(t *testing.T) {
	t.Parallel()

	r := testRunner(5 * time.Second)
	result, err := r.Run(context.Background(), "-c", `echo '{"broadcasts":[{"external_id":"b1"}]}'`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.IsStructured() {
		t.Fatalf("expected structured result, got raw: %q", result.RawStdout)
	}
	if !strings.Contains(string(result.Structured), "b1") {
		t.Fatalf("unexpected payload: %s", result.Structured)
	}
}

func TestRunRawOutput(t *testing.T) {
	t.Parallel()

	r := testRunner(5 * time.Second)
	result, err := r.Run(context.Background(), "-c", `echo 'not json at all'`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.IsStructured() {
		t.Fatalf("expected raw result, got structured: %s", result.Structured)
	}
	if result.RawStdout != "not json at all" {
		t.Fatalf("unexpected stdout: %q", result.RawStdout)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	r := testRunner(5 * time.Second)
	_, err := r.Run(context.Background(), "-c", `echo 'boom' >&2; exit 3`)
	if err == nil {
		t.Fatal("expected error")
	}
	var procErr *Error
	if !errors.As(err, &procErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if procErr.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", procErr.ExitCode)
	}
	if !strings.Contains(procErr.Stderr, "boom") {
		t.Fatalf("expected stderr captured, got %q", procErr.Stderr)
	}
	if procErr.Timeout {
		t.Fatal("should not be flagged as timeout")
	}
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	r := testRunner(100 * time.Millisecond)
	_, err := r.Run(context.Background(), "-c", `sleep 5`)
	if err == nil {
		t.Fatal("expected error")
	}
	var procErr *Error
	if !errors.As(err, &procErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !procErr.Timeout {
		t.Fatalf("expected timeout flag, got %+v", procErr)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", outputTruncateLimit+100)
	got := truncate(long, outputTruncateLimit)
	if len(got) != outputTruncateLimit+len("...(truncated)") {
		t.Fatalf("unexpected truncated length: %d", len(got))
	}
	if truncate("short", outputTruncateLimit) != "short" {
		t.Fatal("short strings must pass through unchanged")
	}
}
