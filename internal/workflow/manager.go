package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/notifications"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
	"github.com/hoangt2/kielo-convo-generator/internal/stageexec"
)

// ErrStageUnavailable reports a stage with no configured handler.
var ErrStageUnavailable = errors.New("stage not configured")

// Manager coordinates stage execution for one mode.
type Manager struct {
	cfg      *config.Config
	store    *manifest.Store
	logger   *slog.Logger
	notifier notifications.Service
	mode     content.Mode
	stages   StageSet
}

// NewManager constructs a workflow manager. A nil notifier falls back to the
// configured ntfy service.
func NewManager(cfg *config.Config, store *manifest.Store, logger *slog.Logger, notifier notifications.Service, mode content.Mode) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "workflow")),
		notifier: notifier,
		mode:     mode,
	}
}

// ConfigureStages registers the concrete stage handlers.
func (m *Manager) ConfigureStages(set StageSet) {
	m.stages = set
}

// RunOptions bounds a pipeline run.
type RunOptions struct {
	From  string
	To    string
	RunID string
}

// Report is the outcome of a pipeline run.
type Report struct {
	RunID     string
	Summaries []stageexec.Summary
	// StoppedAt names the stage after which the run halted early.
	StoppedAt string
	Duration  time.Duration
}

// Failed returns the total failed units across stages.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Summaries {
		n += s.Failed
	}
	return n
}

// RunStage executes a single stage.
func (m *Manager) RunStage(ctx context.Context, name, runID string) (stageexec.Summary, error) {
	name, err := ParseStage(name)
	if err != nil {
		return stageexec.Summary{}, err
	}
	ps, err := m.resolve(ctx, name)
	if err != nil {
		return stageexec.Summary{Stage: name}, err
	}
	return stageexec.Run(ctx, stageexec.Options{
		Logger:      m.logger,
		Store:       m.store,
		Notifier:    m.notifier,
		Handler:     ps.handler,
		StageName:   ps.name,
		Mode:        m.mode,
		RunID:       runID,
		Concurrency: m.cfg.Pipeline.Concurrency,
	})
}

// Run executes the stages between opts.From and opts.To in order. It stops
// after a stage that fails or has failed units, and halts without error when
// a stage finds nothing to do.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (Report, error) {
	names, err := Between(opts.From, opts.To)
	if err != nil {
		return Report{}, err
	}
	ctx = services.WithRunID(services.WithMode(ctx, string(m.mode)), opts.RunID)
	logger := logging.WithContext(ctx, m.logger)
	report := Report{RunID: opts.RunID}
	started := time.Now()
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String("from", names[0]),
		logging.String("to", names[len(names)-1]),
	)

	var runErr error
	for _, name := range names {
		summary, err := m.RunStage(ctx, name, opts.RunID)
		report.Summaries = append(report.Summaries, summary)
		if err != nil {
			report.StoppedAt = name
			runErr = err
			break
		}
		if summary.Total() == 0 {
			report.StoppedAt = name
			logger.Info("no work produced; stopping pipeline",
				logging.String(logging.FieldEventType, "pipeline_halt"),
				logging.String(logging.FieldStage, name),
			)
			break
		}
	}
	report.Duration = time.Since(started)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logging.WarnWithContext(logger, "pipeline stopped after stage failure", "pipeline_failed",
			logging.String(logging.FieldStage, report.StoppedAt),
			logging.String(logging.FieldImpact, "later stages did not run"),
			logging.String(logging.FieldErrorHint, "fix the failure and rerun; finished artifacts are skipped"),
			logging.Error(runErr),
		)
	}
	logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("stages", len(report.Summaries)),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", report.Duration),
	)
	m.notifyRunCompleted(ctx, logger, report)
	return report, runErr
}

// Health reports the readiness of every configured stage.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(Order))
	for _, name := range Order {
		h := m.stages.handler(name)
		if h == nil {
			out = append(out, stage.Unhealthy(name, ErrStageUnavailable.Error()))
			continue
		}
		health := h.HealthCheck(ctx)
		if health.Name == "" {
			health.Name = name
		}
		out = append(out, health)
	}
	return out
}

func (m *Manager) resolve(ctx context.Context, name string) (pipelineStage, error) {
	h := m.stages.handler(name)
	if h == nil {
		return pipelineStage{}, fmt.Errorf("%s: %w", name, ErrStageUnavailable)
	}
	if health := h.HealthCheck(ctx); !health.Ready {
		return pipelineStage{}, services.Wrap(services.ErrConfiguration, name, "health check", health.Detail, nil)
	}
	return pipelineStage{name: name, handler: h}, nil
}

func (m *Manager) notifyRunCompleted(ctx context.Context, logger *slog.Logger, report Report) {
	processed, skipped := 0, 0
	for _, s := range report.Summaries {
		processed += s.Processed
		skipped += s.Skipped
	}
	err := m.notifier.Publish(context.WithoutCancel(ctx), notifications.EventRunCompleted, notifications.Payload{
		"mode":      string(m.mode),
		"stages":    len(report.Summaries),
		"processed": processed,
		"skipped":   skipped,
		"failed":    report.Failed(),
		"duration":  report.Duration,
	})
	if err != nil {
		logger.Debug("run notification failed", logging.Error(err))
	}
}
