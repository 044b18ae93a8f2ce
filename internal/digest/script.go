package digest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"sapsdispatch/internal/logging"
	"sapsdispatch/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Output runs binary and returns its stdout.
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures a ScriptResolver.
type Option func(*ScriptResolver)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *ScriptResolver) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger attaches a logger for resolution events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ScriptResolver) {
		r.logger = logging.NewComponentLogger(logger, "digest")
	}
}

// ScriptResolver resolves digests by running `<script> <repository> <tag>`
// for the image a tag names in the execution-tags file.
type ScriptResolver struct {
	tags    *TagCatalog
	script  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// NewScriptResolver constructs a resolver. A zero timeout leaves calls bounded
// only by the caller's context.
func NewScriptResolver(tags *TagCatalog, script string, timeout time.Duration, opts ...Option) (*ScriptResolver, error) {
	if tags == nil {
		return nil, errors.New("execution tags required")
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, errors.New("digest script required")
	}
	r := &ScriptResolver{
		tags:    tags,
		script:  script,
		timeout: timeout,
		exec:    commandExecutor{},
		logger:  logging.NewComponentLogger(nil, "digest"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve implements Resolver.
func (r *ScriptResolver) Resolve(ctx context.Context, phase Phase, tag string) (string, error) {
	img, err := r.tags.Lookup(phase, tag)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "digest", "lookup tag", "tag is not in the execution tags file", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	out, err := r.exec.Output(ctx, r.script, []string{img.Repository, img.Tag})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "digest", "run script", img.Reference(), err)
	}
	value := firstLine(out)
	if value == "" {
		return "", services.Wrap(services.ErrExternalTool, "digest", "run script", img.Reference(), errors.New("script printed no digest"))
	}
	r.logger.Debug("digest resolved",
		logging.String("phase", string(phase)),
		logging.String("docker_repository", img.Repository),
		logging.String("digest", value),
		logging.Duration("elapsed", time.Since(started)),
	)
	return value, nil
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", binary, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", binary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", binary, err)
	}
	return out, nil
}
