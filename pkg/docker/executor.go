package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrTimeout is returned when a container exceeds its wall-clock budget.
var ErrTimeout = errors.New("execution timed out")

var (
	execDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promptarena",
		Subsystem: "sandbox",
		Name:      "execution_duration_seconds",
		Help:      "Duration of sandboxed container executions",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	execTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptarena",
		Subsystem: "sandbox",
		Name:      "execution_timeouts_total",
		Help:      "Number of sandboxed executions that hit the timeout",
	}, []string{"image"})

	execFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptarena",
		Subsystem: "sandbox",
		Name:      "execution_failures_total",
		Help:      "Number of sandboxed executions that failed before producing a result",
	}, []string{"image"})
)

// Executor runs a command inside an isolated container.
type Executor interface {
	Run(ctx context.Context, req ExecutionRequest) (ExecutionResult, error)
}

// ExecutionRequest describes a single sandboxed run.
type ExecutionRequest struct {
	Image           string
	Cmd             []string
	Env             []string
	Timeout         time.Duration
	Workspace       string
	WorkingDir      string
	MemoryLimitMB   int64
	CPUShares       int64
	PidsLimit       int64
	NetworkDisabled bool
	ReadOnlyFS      bool
}

// ExecutionResult summarises the outcome of a container run.
type ExecutionResult struct {
	Stdout           string
	Stderr           string
	ExitCode         int
	Duration         time.Duration
	TimedOut         bool
	MemoryUsageBytes int64
	CPUUsageNanosec  uint64
}

// Config groups executor defaults applied when a request leaves them unset.
type Config struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	PidsLimit     int64
	WorkingDir    string
	Logger        zerolog.Logger
}

// DockerExecutor implements Executor with the Docker Engine API.
type DockerExecutor struct {
	client *client.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDockerExecutor constructs a Docker backed executor.
func NewDockerExecutor(cfg Config) (*DockerExecutor, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.WorkingDir == "" {
		cfg.WorkingDir = "/workspace"
	}
	if cfg.PidsLimit <= 0 {
		cfg.PidsLimit = 64
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerExecutor{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/promptarena-go-api/pkg/docker"),
		logger: logger.With().Str("component", "docker_executor").Logger(),
	}, nil
}

// Ping checks that the Docker daemon is reachable.
func (e *DockerExecutor) Ping(ctx context.Context) error {
	if _, err := e.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// Run executes the request inside a fresh container and always removes it afterwards.
func (e *DockerExecutor) Run(parent context.Context, req ExecutionRequest) (ExecutionResult, error) {
	image := req.Image
	if image == "" {
		return ExecutionResult{}, errors.New("image is required")
	}

	ctx, span := e.tracer.Start(parent, "docker.executor.run", trace.WithAttributes(
		attribute.String("docker.image", image),
	))
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	hostCfg, config := e.containerSpec(req)

	start := time.Now()
	result := ExecutionResult{}

	resp, err := e.client.ContainerCreate(ctx, config, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return result, e.fail(span, image, fmt.Errorf("container create: %w", err))
	}

	containerID := resp.ID
	defer e.remove(containerID)

	if err := e.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return result, e.fail(span, image, fmt.Errorf("container start: %w", err))
	}

	statusCh, errCh := e.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	result.Duration = time.Since(start)
	execDuration.WithLabelValues(image).Observe(result.Duration.Seconds())

	if waitErr != nil {
		switch {
		case errors.Is(waitErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			result.TimedOut = true
			execTimeouts.WithLabelValues(image).Inc()
			e.kill(containerID)
			span.SetStatus(codes.Error, "execution timed out")
		case errors.Is(waitErr, context.Canceled):
			e.kill(containerID)
			return result, waitErr
		default:
			return result, e.fail(span, image, fmt.Errorf("container wait: %w", waitErr))
		}
	}

	// The run context may already be expired, so collection uses the caller's context.
	result.Stdout, result.Stderr = e.collectLogs(parent, containerID)
	result.MemoryUsageBytes, result.CPUUsageNanosec = e.collectStats(parent, containerID)

	if result.TimedOut {
		return result, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	return result, nil
}

func (e *DockerExecutor) containerSpec(req ExecutionRequest) (*container.HostConfig, *container.Config) {
	memoryMB := req.MemoryLimitMB
	if memoryMB <= 0 {
		memoryMB = e.cfg.MemoryLimitMB
	}
	cpuShares := req.CPUShares
	if cpuShares <= 0 {
		cpuShares = e.cfg.CPUShares
	}
	pids := req.PidsLimit
	if pids <= 0 {
		pids = e.cfg.PidsLimit
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    memoryMB * 1024 * 1024,
			CPUShares: cpuShares,
			PidsLimit: &pids,
		},
		NetworkMode:    "bridge",
		ReadonlyRootfs: req.ReadOnlyFS,
		SecurityOpt:    []string{"no-new-privileges"},
	}
	if req.NetworkDisabled {
		hostCfg.NetworkMode = "none"
	}

	if req.Workspace != "" {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   req.Workspace,
			Target:   e.cfg.WorkingDir,
			ReadOnly: req.ReadOnlyFS,
		})
	}

	config := &container.Config{
		Image:           req.Image,
		Cmd:             req.Cmd,
		Env:             req.Env,
		WorkingDir:      req.WorkingDir,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: req.NetworkDisabled,
	}
	if config.WorkingDir == "" {
		config.WorkingDir = e.cfg.WorkingDir
	}

	return hostCfg, config
}

func (e *DockerExecutor) fail(span trace.Span, image string, err error) error {
	execFailures.WithLabelValues(image).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (e *DockerExecutor) kill(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.client.ContainerKill(ctx, containerID, "KILL"); err != nil {
		e.logger.Warn().Err(err).Str("container_id", containerID).Msg("failed to kill container")
	}
}

func (e *DockerExecutor) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
	}
}

func (e *DockerExecutor) collectLogs(ctx context.Context, containerID string) (string, string) {
	reader, err := e.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
		return "", ""
	}
	defer reader.Close()

	stdout, stderr, err := splitDockerLogs(reader)
	if err != nil {
		e.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
		return "", ""
	}
	return stdout, stderr
}

func (e *DockerExecutor) collectStats(parent context.Context, containerID string) (int64, uint64) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	stats, err := e.client.ContainerStatsOneShot(ctx, containerID)
	if err != nil {
		return 0, 0
	}
	defer stats.Body.Close()

	var data types.StatsJSON
	if err := json.NewDecoder(stats.Body).Decode(&data); err != nil {
		return 0, 0
	}
	return int64(data.MemoryStats.Usage), data.CPUStats.CPUUsage.TotalUsage
}

func splitDockerLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close shuts down the executor's underlying client.
func (e *DockerExecutor) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
