package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	dockerexec "github.com/noah-isme/promptarena-go-api/pkg/docker"
)

// DefaultCaseTimeout bounds a single test case when no timeout is configured.
const DefaultCaseTimeout = 5 * time.Second

// Config describes how the Docker runner launches test cases.
type Config struct {
	Image         string
	CaseTimeout   time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	WorkspaceRoot string
}

// CaseObserver is notified once per finished test case.
type CaseObserver func(status Status)

// DockerRunner executes each test case in its own sandboxed container.
type DockerRunner struct {
	executor dockerexec.Executor
	cfg      Config
	logger   zerolog.Logger
	observe  CaseObserver
}

// NewDockerRunner constructs a runner backed by the given executor.
func NewDockerRunner(executor dockerexec.Executor, cfg Config, logger zerolog.Logger, observe CaseObserver) *DockerRunner {
	if cfg.Image == "" {
		cfg.Image = "python:3.11-alpine"
	}
	if cfg.CaseTimeout <= 0 {
		cfg.CaseTimeout = DefaultCaseTimeout
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = 128
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}
	if observe == nil {
		observe = func(Status) {}
	}

	return &DockerRunner{
		executor: executor,
		cfg:      cfg,
		logger:   logger.With().Str("component", "code_harness").Logger(),
		observe:  observe,
	}
}

// Run executes every case in order. A case that cannot be prepared or whose
// container fails is recorded as errored and the batch continues.
func (r *DockerRunner) Run(ctx context.Context, submission Submission) (Report, error) {
	if len(submission.Cases) == 0 {
		return Report{}, ErrNoTestCases
	}
	if r.executor == nil {
		return Report{}, errors.New("executor not configured")
	}

	wrapper, err := renderWrapper(submission.Entrypoint)
	if err != nil {
		return Report{}, err
	}

	report := Report{Details: make([]CaseResult, 0, len(submission.Cases))}
	for i, tc := range submission.Cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := r.runCase(ctx, i, submission.Code, wrapper, tc)
		r.observe(result.Status)
		report.Add(result)
	}

	return report, nil
}

func (r *DockerRunner) runCase(ctx context.Context, index int, code string, wrapper []byte, tc TestCase) CaseResult {
	result := CaseResult{Index: index, Input: tc.Input, Expected: tc.Expected}

	workspace, err := os.MkdirTemp(r.cfg.WorkspaceRoot, "harness-")
	if err != nil {
		result.Status = StatusErrored
		result.Error = fmt.Sprintf("create workspace: %v", err)
		return result
	}
	defer os.RemoveAll(workspace)

	input, err := renderInput(tc)
	if err != nil {
		result.Status = StatusErrored
		result.Error = err.Error()
		return result
	}

	files := map[string][]byte{
		solutionFile: []byte(code),
		wrapperFile:  wrapper,
		inputFile:    input,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(workspace, name), content, 0o644); err != nil {
			result.Status = StatusErrored
			result.Error = fmt.Sprintf("write %s: %v", name, err)
			return result
		}
	}

	exec, execErr := r.executor.Run(ctx, dockerexec.ExecutionRequest{
		Image:           r.cfg.Image,
		Cmd:             []string{"python", wrapperFile},
		Timeout:         r.cfg.CaseTimeout,
		Workspace:       workspace,
		MemoryLimitMB:   r.cfg.MemoryLimitMB,
		CPUShares:       r.cfg.CPUShares,
		NetworkDisabled: true,
	})
	result.Duration = exec.Duration

	switch {
	case exec.TimedOut || errors.Is(execErr, dockerexec.ErrTimeout):
		result.Status = StatusTimedOut
		result.Error = fmt.Sprintf("exceeded %s", r.cfg.CaseTimeout)
		return result
	case execErr != nil:
		r.logger.Warn().Err(execErr).Int("case", index).Msg("test case execution failed")
		result.Status = StatusErrored
		result.Error = execErr.Error()
		return result
	}

	out, err := parseWrapperOutput(exec.Stdout)
	if err != nil {
		result.Status = StatusErrored
		result.Error = firstNonEmpty(strings.TrimSpace(exec.Stderr), err.Error())
		return result
	}

	result.Stdout = out.Stdout
	if out.Error != "" || out.Result == nil {
		result.Status = StatusErrored
		result.Error = firstNonEmpty(out.Error, "no result produced")
		return result
	}

	result.Actual = *out.Result
	if Matches(result.Actual, tc.Expected) {
		result.Status = StatusPassed
	} else {
		result.Status = StatusFailed
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
