package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/config"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
	dockerexec "github.com/noah-isme/promptarena-go-api/pkg/docker"
)

// connectRunner is replaced in tests.
var connectRunner = dockerRunner

func dockerRunner(ctx context.Context, cfg config.Config, logger zerolog.Logger) (harness.Runner, func(), error) {
	executor, err := dockerexec.NewDockerExecutor(dockerexec.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := executor.Ping(pingCtx); err != nil {
		_ = executor.Close()
		return nil, nil, err
	}

	runner := harness.NewDockerRunner(executor, harness.Config{
		Image:         cfg.CodeRunImage,
		CaseTimeout:   cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
	}, logger, nil)
	return runner, func() { _ = executor.Close() }, nil
}
