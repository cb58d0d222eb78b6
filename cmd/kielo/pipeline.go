package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/notifications"
	"github.com/hoangt2/kielo-convo-generator/internal/workflow"
	"github.com/hoangt2/kielo-convo-generator/internal/workspace"
)

// staleWorkAge is how old an abandoned work-dir entry must be before startup
// removes it.
const staleWorkAge = 24 * time.Hour

// session is one locked pipeline invocation.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *manifest.Store
	clients *clients
	manager *workflow.Manager
	runID   string
}

// withSession acquires the workspace lock, opens the manifest, builds the
// clients and hands a configured workflow manager to fn. SIGINT and SIGTERM
// cancel the context passed to fn.
func (c *commandContext) withSession(parent context.Context, mode content.Mode, fn func(context.Context, *session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lock, err := workspace.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, workspace.ErrLocked) {
			return fmt.Errorf("%w (%s)", err, cfg.LockPath())
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	workspace.CleanStale(cfg.Paths.WorkDir, staleWorkAge, logger)

	store, err := manifest.Open(cfg.ManifestPath())
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer store.Close()

	built, err := buildClients(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer built.Close()

	runID := uuid.NewString()
	manager := workflow.NewManager(cfg, store, logger, notifications.NewService(cfg), mode)
	manager.ConfigureStages(built.stageSet(cfg, mode))

	return fn(ctx, &session{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		clients: built,
		manager: manager,
		runID:   runID,
	})
}
