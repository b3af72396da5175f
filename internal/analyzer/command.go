package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// maxStderr bounds how much of the program's stderr is kept in an error.
const maxStderr = 4096

// CommandAnalyzer runs an external program with the image path as its last
// argument and reads a JSON object from its stdout.
type CommandAnalyzer struct {
	path    string
	args    []string
	env     []string
	timeout time.Duration
}

// NewCommandAnalyzer resolves argv[0] on PATH. ocrBackend is passed to the
// program as OCR_BACKEND. A zero timeout means no limit beyond ctx.
func NewCommandAnalyzer(argv []string, ocrBackend string, timeout time.Duration) (*CommandAnalyzer, error) {
	if len(argv) == 0 {
		return nil, errors.New("analyzer command is empty")
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("analyzer command %q: %w", argv[0], err)
	}

	env := os.Environ()
	if ocrBackend != "" {
		env = append(env, "OCR_BACKEND="+ocrBackend)
	}

	return &CommandAnalyzer{
		path:    path,
		args:    append([]string(nil), argv[1:]...),
		env:     env,
		timeout: timeout,
	}, nil
}

// Backend implements Analyzer.
func (a *CommandAnalyzer) Backend() string { return BackendCommand }

// Analyze implements Analyzer.
func (a *CommandAnalyzer) Analyze(ctx context.Context, imagePath string) (json.RawMessage, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), a.args...), imagePath)
	cmd := exec.CommandContext(ctx, a.path, args...)
	cmd.Env = a.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("analyzer command: %w", ctxErr)
		}
		if msg := tail(stderr.String(), maxStderr); msg != "" {
			return nil, fmt.Errorf("analyzer command: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("analyzer command: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, errors.New("analyzer command produced no output")
	}
	return json.RawMessage(out), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
