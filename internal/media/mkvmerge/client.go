package mkvmerge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"trackscan/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps mkvmerge identification.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a client. A zero timeout disables the per-call deadline.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvmerge binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: timeout,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Identify runs `mkvmerge -J path` and parses the payload.
func (c *Client) Identify(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "mkvmerge identify", "empty path", nil)
	}

	probeCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stdout, stderr, runErr := c.exec.Run(probeCtx, c.binary, []string{"-J", path})
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		return Result{}, services.Wrap(services.ErrTimeout, "probe", "mkvmerge identify", fmt.Sprintf("timed out after %s", c.timeout), nil)
	}

	result, parseErr := Parse(stdout)
	if runErr != nil {
		detail := toolMessage(parseErr, stderr, stdout)
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "mkvmerge identify", detail, runErr)
	}
	if parseErr != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "mkvmerge identify", "", parseErr)
	}
	return result, nil
}

// toolMessage picks the most useful text the tool produced for a failed run:
// payload errors, then stderr, then stdout.
func toolMessage(parseErr error, stderr, stdout []byte) string {
	if parseErr != nil && !errors.Is(parseErr, errEmptyOutput) && !errors.Is(parseErr, errInvalidJSON) {
		return parseErr.Error()
	}
	if text := strings.TrimSpace(string(stderr)); text != "" {
		return text
	}
	return strings.TrimSpace(string(stdout))
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
