package gateways

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Sentinel errors for docker CLI operations
var (
	// ErrDockerUnavailable means the docker daemon could not be contacted
	ErrDockerUnavailable = errors.New("docker daemon unavailable")

	// ErrBuildFailed means docker build exited non-zero
	ErrBuildFailed = errors.New("image build failed")

	// ErrPushFailed means docker push exited non-zero
	ErrPushFailed = errors.New("image push failed")
)

// DockerCLI drives image operations through the docker command line.
// All methods block until the operation completes.
type DockerCLI struct {
	binary         string
	defaultTimeout time.Duration
}

// NewDockerCLI creates a docker CLI gateway
func NewDockerCLI() *DockerCLI {
	return &DockerCLI{
		binary:         "docker",
		defaultTimeout: 30 * time.Minute,
	}
}

// BuildConfig configures a docker build invocation
type BuildConfig struct {
	Tag        string
	ContextDir string
	Dockerfile string // path to the Dockerfile, empty for ContextDir/Dockerfile
	Platform   string // passed as --platform when set
	BuildArgs  map[string]string
	Timeout    time.Duration
}

// BuildOutput captures the result of a docker invocation
type BuildOutput struct {
	ExitCode int
	Stderr   string
	Duration time.Duration
}

// Preflight checks that the docker daemon is reachable
func (d *DockerCLI) Preflight(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, d.binary, "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrDockerUnavailable, err)
	}
	return nil
}

// buildCmdArgs returns the docker CLI arguments for a build invocation.
// Build args are emitted in map iteration order; docker does not care.
func buildCmdArgs(cfg BuildConfig) []string {
	args := []string{"build", "-t", cfg.Tag}
	if cfg.Platform != "" {
		args = append(args, "--platform", cfg.Platform)
	}
	if cfg.Dockerfile != "" {
		args = append(args, "-f", cfg.Dockerfile)
	}
	for k, v := range cfg.BuildArgs {
		args = append(args, "--build-arg", k+"="+v)
	}
	args = append(args, cfg.ContextDir)
	return args
}

// Build builds an image from a staged context. Returns ErrBuildFailed
// wrapped with the exit code and captured stderr on a non-zero exit.
func (d *DockerCLI) Build(ctx context.Context, cfg BuildConfig) (*BuildOutput, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = d.defaultTimeout
	}
	buildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(buildCtx, d.binary, buildCmdArgs(cfg)...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &BuildOutput{
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
			return out, fmt.Errorf("%w: exit code %d: %s", ErrBuildFailed, out.ExitCode, out.Stderr)
		case buildCtx.Err() == context.DeadlineExceeded:
			out.ExitCode = -1
			return out, fmt.Errorf("%w: timeout after %v", ErrBuildFailed, timeout)
		default:
			out.ExitCode = -1
			return out, fmt.Errorf("%w: %w", ErrBuildFailed, err)
		}
	}

	return out, nil
}

// Tag applies an additional reference to an existing image
func (d *DockerCLI) Tag(ctx context.Context, source, target string) error {
	cmd := exec.CommandContext(ctx, d.binary, "tag", source, target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker tag %s %s: %w: %s", source, target, err, stderr.String())
	}
	return nil
}

// Push uploads an image reference to its registry
func (d *DockerCLI) Push(ctx context.Context, reference string) error {
	cmd := exec.CommandContext(ctx, d.binary, "push", reference)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit code %d: %s", ErrPushFailed, exitErr.ExitCode(), stderr.String())
		}
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}

// Save streams one or more image references through docker save into a
// gzipped tarball at outPath.
func (d *DockerCLI) Save(ctx context.Context, references []string, outPath string) error {
	if len(references) == 0 {
		return fmt.Errorf("no image references to save")
	}

	//nolint:gosec // G304: outPath is constructed by the exporter
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create image tarball: %w", err)
	}
	//nolint:errcheck // Defer close after explicit close below
	defer out.Close()

	gz := gzip.NewWriter(out)

	args := append([]string{"save"}, references...)
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdout = gz
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		//nolint:errcheck // Best-effort close on error path
		gz.Close()
		return fmt.Errorf("docker save: %w: %s", err, stderr.String())
	}

	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish image tarball: %w", err)
	}
	return out.Close()
}
