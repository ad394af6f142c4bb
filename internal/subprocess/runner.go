package subprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// 截断stderr/stdout的上限，避免把整页HTML塞进日志和error_message
const outputTruncateLimit = 2048

// Result 子进程成功退出后的输出。stdout为合法JSON时Structured非nil，
// 否则原文保留在RawStdout中，由调用方按已知形态分支处理，不做猜测。
type Result struct {
	Structured json.RawMessage // 合法JSON输出，nil表示非JSON
	RawStdout  string          // 原始stdout（仅非JSON时有值）
	RawStderr  string          // 原始stderr（截断）
}

// IsStructured stdout是否为合法JSON
func (r *Result) IsStructured() bool {
	return r.Structured != nil
}

// Error 子进程非零退出或超时
type Error struct {
	Script   string // 脚本路径
	ExitCode int    // 退出码，超时被杀时为-1
	Stderr   string // 截断后的stderr
	Timeout  bool   // 是否因超时被终止
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("子进程超时被终止: %s", e.Script)
	}
	return fmt.Sprintf("子进程退出码%d: %s, stderr: %s", e.ExitCode, e.Script, e.Stderr)
}

// Runner 外部抓取脚本执行器。阻塞等待子进程退出，stdout/stderr全量缓冲在内存中，
// 超时通过context强杀子进程（超时必须配置，防止挂死的子进程拖死整个执行）。
type Runner struct {
	runtime string        // 脚本运行时，如 node
	timeout time.Duration // 单次执行上限
	logger  *logrus.Logger
}

// NewRunner 创建Runner
func NewRunner(runtime string, timeout time.Duration, logger *logrus.Logger) *Runner {
	return &Runner{
		runtime: runtime,
		timeout: timeout,
		logger:  logger,
	}
}

// Run 执行 <runtime> <script> <args...> 并等待退出。
// 退出码0：尝试解析stdout为JSON，失败则原文返回（显式两种形态）。
// 非零退出或超时：返回*Error，携带退出码与截断后的stderr。
func (r *Runner) Run(ctx context.Context, script string, args ...string) (*Result, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmdArgs := append([]string{script}, args...)
	cmd := exec.CommandContext(runCtx, r.runtime, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		procErr := &Error{
			Script:   script,
			ExitCode: -1,
			Stderr:   truncate(stderr.String(), outputTruncateLimit),
			Timeout:  errors.Is(runCtx.Err(), context.DeadlineExceeded),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			procErr.ExitCode = exitErr.ExitCode()
		}
		r.logger.WithError(procErr).
			WithField("script", script).
			WithField("elapsed", elapsed.String()).
			Warn("子进程执行失败")
		return nil, procErr
	}

	out := bytes.TrimSpace(stdout.Bytes())
	result := &Result{RawStderr: truncate(stderr.String(), outputTruncateLimit)}
	if json.Valid(out) && len(out) > 0 {
		result.Structured = json.RawMessage(out)
	} else {
		result.RawStdout = string(out)
	}

	r.logger.WithField("script", script).
		WithField("elapsed", elapsed.String()).
		WithField("structured", result.IsStructured()).
		Debug("子进程执行完成")
	return result, nil
}

// truncate 按字节截断，超限时追加省略标记
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
