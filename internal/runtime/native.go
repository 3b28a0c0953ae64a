// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"mvdan.cc/sh/v3/syntax"

	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/distribution"
)

// processWaitDelay bounds how long a cancelled tool's output pipes may stay
// open after the process is killed.
const processWaitDelay = 2 * time.Second

type (
	// NativeRuntime runs tools as host processes.
	NativeRuntime struct {
		logger  console.ToolLogger
		charset encoding.Encoding
		timeout time.Duration
		tempDir string
	}

	// NativeOption configures a NativeRuntime.
	NativeOption func(*NativeRuntime)

	// lineLog collects decoded lines while forwarding each one to the logger.
	lineLog struct {
		mu    sync.Mutex
		lines []string
	}
)

// WithCharset sets the encoding tool output is decoded with. The default is UTF-8.
func WithCharset(enc encoding.Encoding) NativeOption {
	return func(r *NativeRuntime) { r.charset = enc }
}

// WithNativeTimeout bounds each tool process. Zero means no limit.
func WithNativeTimeout(d time.Duration) NativeOption {
	return func(r *NativeRuntime) { r.timeout = d }
}

// WithTempDir sets where archives used as directories are expanded.
func WithTempDir(dir string) NativeOption {
	return func(r *NativeRuntime) { r.tempDir = dir }
}

// NewNativeRuntime creates a NativeRuntime logging tool output to logger.
func NewNativeRuntime(logger console.ToolLogger, opts ...NativeOption) *NativeRuntime {
	r := &NativeRuntime{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Platform implements Runtime.
func (r *NativeRuntime) Platform() Platform { return PlatformNative }

// Execute resolves the host distribution and runs the tool from it.
func (r *NativeRuntime) Execute(ctx context.Context, ex *ExecutionContext) error {
	if err := ex.Validate(); err != nil {
		return err
	}
	tool := ex.Tool

	spec := distribution.HostSpecifier(ex.Version)
	distDir, err := tool.Distribution.ResolveDistribution(ctx, spec)
	if err != nil {
		return err
	}
	executable := tool.Executable.Resolve(distDir, spec)

	mapper := cmdline.NewHostMapper(r.tempDir)
	defer func() {
		if err := mapper.Cleanup(); err != nil {
			slog.Warn("failed to remove expanded archives", "error", err)
		}
	}()

	args, err := ex.CommandLine.Render(mapper)
	if err != nil {
		return stepFailed(tool.Name, "preparing command line", err)
	}
	if err := createOutputDirs(ex.CommandLine.MappedFiles()); err != nil {
		return stepFailed(tool.Name, "creating output directories", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	stdout, stderr := &lineLog{}, &lineLog{}
	stdoutDec := console.NewLineDecoder(r.charset, func(line string) {
		stdout.add(line)
		r.logger.Info(tool.Name, line)
	})
	stderrDec := console.NewLineDecoder(r.charset, func(line string) {
		stderr.add(line)
		r.logger.Error(tool.Name, line)
	})

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Stdout = stdoutDec
	cmd.Stderr = stderrDec
	cmd.WaitDelay = processWaitDelay
	configureProcess(cmd)

	slog.Debug("running native tool", "tool", tool.Name, "command", quoteCommand(executable, args))
	runErr := cmd.Run()
	_ = stdoutDec.Close()
	_ = stderrDec.Close()

	if runErr == nil {
		return nil
	}

	if stderr.empty() && !stdout.empty() && !r.logger.InfoEnabled() {
		for _, line := range stdout.snapshot() {
			r.logger.Error(tool.Name, line)
		}
	}
	return r.exitError(ctx, tool.Name, runErr)
}

func (r *NativeRuntime) exitError(ctx context.Context, tool string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stepFailed(tool, fmt.Sprintf("timed out after %s", r.timeout), ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if code.Validate() != nil {
			return stepFailed(tool, "terminated abnormally", err)
		}
		return &ExecutionError{Tool: tool, ExitCode: code}
	}
	return stepFailed(tool, "starting process", err)
}

// createOutputDirs creates output directories, and the parents of output
// files, before the tool runs.
func createOutputDirs(files []cmdline.MappedFile) error {
	for _, f := range files {
		if !f.Mode.IsOutput() {
			continue
		}
		dir := f.HostPath
		if f.Kind == cmdline.KindSingleFile {
			dir = filepath.Dir(f.HostPath)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func quoteCommand(executable string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{executable}, args...) {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = a
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

func (l *lineLog) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *lineLog) empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) == 0
}

func (l *lineLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
