// Package conda resolves named runtime environments through the conda
// command-line tool. The submission flow uses it to reject descriptors
// whose environment would not be activatable on the execution host.
package conda

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default conda Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default conda Client.
func Default() *Client { return defaultClient }

// ErrEnvNotFound is returned when no environment with the given name exists.
var ErrEnvNotFound = errors.New("conda environment not found")

// ExecCommandFunc mirrors exec.CommandContext so tests can inject fakes.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
}

func New(logger *slog.Logger) *Client {
	return &Client{execCommand: exec.CommandContext, logger: logger}
}

// WithExecCommand replaces the command constructor, for tests.
func (c *Client) WithExecCommand(exec ExecCommandFunc) *Client {
	c.execCommand = exec
	return c
}

// ListEnvs returns the environment names known to conda.
// Output of `conda env list`:
//
//	# conda environments:
//	#
//	base                  *  /opt/conda
//	eeg                      /opt/conda/envs/eeg
func (c *Client) ListEnvs(ctx context.Context) ([]string, error) {
	cmd := c.execCommand(ctx, "conda", "env", "list")
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to list conda environments", "output", string(out), "err", err)
		return nil, fmt.Errorf("failed to exec conda env list")
	}
	envs := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// The active environment carries a "*" between name and path;
		// a nameless prefix-only entry starts with a path.
		if strings.HasPrefix(fields[0], "/") {
			continue
		}
		envs = append(envs, fields[0])
	}
	return envs, nil
}

// Resolve checks that the named environment exists and is activatable.
func (c *Client) Resolve(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrEnvNotFound)
	}
	envs, err := c.ListEnvs(ctx)
	if err != nil {
		return err
	}
	for _, e := range envs {
		if e == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEnvNotFound, name)
}
