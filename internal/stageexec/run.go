package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/notifications"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
)

// ErrUnitsFailed is returned when at least one unit of a stage failed.
var ErrUnitsFailed = errors.New("stage finished with failed units")

// Options controls stage execution and manifest persistence behavior.
type Options struct {
	Logger      *slog.Logger
	Store       *manifest.Store
	Notifier    notifications.Service
	Handler     stage.Handler
	StageName   string
	Mode        content.Mode
	RunID       string
	Concurrency int
}

// Summary tallies unit outcomes for one stage run.
type Summary struct {
	Stage     string
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Total returns the number of units seen.
func (s Summary) Total() int { return s.Processed + s.Skipped + s.Failed }

type tally struct {
	mu      sync.Mutex
	summary Summary
}

func (t *tally) add(processed, skipped, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Processed += processed
	t.summary.Skipped += skipped
	t.summary.Failed += failed
}

// Run prepares the handler's units and executes each one, recording
// artifacts and failures in the manifest. Unit failures are counted and do
// not stop the remaining units; Prepare failures and cancellation abort the
// stage.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Handler == nil {
		return Summary{}, fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return Summary{}, fmt.Errorf("manifest store is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageCtx = services.WithMode(stageCtx, string(opts.Mode))
	if opts.RunID != "" {
		stageCtx = services.WithRunID(stageCtx, opts.RunID)
	}
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	started := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	var runRow int64
	if opts.RunID != "" {
		id, err := opts.Store.BeginRun(stageCtx, opts.RunID, opts.StageName, opts.Mode)
		if err != nil {
			stageLogger.Warn("failed to record stage run",
				logging.Error(err),
				logging.String(logging.FieldEventType, "manifest_write_failed"),
				logging.String(logging.FieldErrorHint, "check the state directory is writable"),
				logging.String(logging.FieldImpact, "run history will be incomplete"),
			)
		}
		runRow = id
	}

	t := &tally{summary: Summary{Stage: opts.StageName}}
	finish := func() Summary {
		t.mu.Lock()
		t.summary.Duration = time.Since(started)
		summary := t.summary
		t.mu.Unlock()
		if runRow != 0 {
			if err := opts.Store.FinishRun(context.WithoutCancel(stageCtx), runRow, manifest.Counts{
				Processed: summary.Processed, Skipped: summary.Skipped, Failed: summary.Failed,
			}); err != nil {
				stageLogger.Debug("failed to finish stage run", logging.Error(err))
			}
		}
		return summary
	}

	units, err := opts.Handler.Prepare(stageCtx)
	if err != nil {
		details := services.Details(err)
		logging.ErrorWithContext(stageLogger, "stage preparation failed", "stage_prepare_failed",
			logging.String("error_message", details.Message),
			logging.String(logging.FieldErrorCategory, string(details.Category)),
			logging.String(logging.FieldErrorHint, prepareHint(details.Category)),
			logging.Error(err),
		)
		notify(stageCtx, stageLogger, opts.Notifier, notifications.EventStageFailed, notifications.Payload{
			"stage": opts.StageName,
			"error": details.Message,
		})
		return finish(), err
	}
	if len(units) == 0 {
		stageLogger.Info("no units to process",
			logging.String(logging.FieldEventType, "stage_empty"),
		)
	}

	if err := dispatch(stageCtx, opts, stageLogger, units, t); err != nil {
		summary := finish()
		stageLogger.Warn("stage interrupted",
			logging.String(logging.FieldEventType, "stage_interrupted"),
			logging.Int("processed", summary.Processed),
			logging.String(logging.FieldErrorHint, "rerun the stage; completed units are skipped"),
			logging.String(logging.FieldImpact, "remaining units were not processed"),
			logging.Error(err),
		)
		return summary, err
	}

	summary := finish()
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Duration),
	)
	notify(stageCtx, stageLogger, opts.Notifier, notifications.EventStageCompleted, notifications.Payload{
		"stage":     opts.StageName,
		"mode":      string(opts.Mode),
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%s: %w (%d of %d)", opts.StageName, ErrUnitsFailed, summary.Failed, summary.Total())
	}
	return summary, nil
}

func dispatch(ctx context.Context, opts Options, logger *slog.Logger, units []*stage.Unit, t *tally) error {
	if opts.Concurrency <= 1 || len(units) <= 1 {
		for _, unit := range units {
			if err := ctx.Err(); err != nil {
				return err
			}
			runUnit(ctx, opts, logger, unit, t)
		}
		return ctx.Err()
	}

	pool, err := ants.NewPool(opts.Concurrency, ants.WithPanicHandler(func(p any) {
		logging.ErrorWithContext(logger, "unit panicked", "unit_panic",
			logging.String("panic", fmt.Sprint(p)),
		)
		t.add(0, 0, 1)
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, unit := range units {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			runUnit(ctx, opts, logger, unit, t)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit unit %s: %w", unit.Slug, err)
		}
	}
	wg.Wait()
	return ctx.Err()
}

func runUnit(ctx context.Context, opts Options, stageLogger *slog.Logger, unit *stage.Unit, t *tally) {
	unitCtx := services.WithSlug(ctx, unit.Slug)
	logger := stageLogger.With(logging.String(logging.FieldSlug, unit.Slug))
	started := time.Now()

	if err := opts.Store.Upsert(unitCtx, unit.Slug, unit.Mode, unit.Title); err != nil {
		logger.Warn("failed to register unit in manifest",
			logging.Error(err),
			logging.String(logging.FieldEventType, "manifest_write_failed"),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "status output will be incomplete"),
		)
	}

	err := opts.Handler.Execute(unitCtx, unit)
	elapsed := time.Since(started)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		handleFailure(unitCtx, logger, opts, unit, err, elapsed)
		t.add(0, 0, 1)
		return
	}

	// Title may be learned during Execute.
	if unit.Title != "" {
		_ = opts.Store.Upsert(unitCtx, unit.Slug, unit.Mode, unit.Title)
	}
	for kind, path := range unit.Artifacts {
		if err := opts.Store.RecordArtifact(unitCtx, unit.Slug, kind, path); err != nil {
			logger.Debug("failed to record artifact", logging.String("kind", string(kind)), logging.Error(err))
		}
	}
	if err := opts.Store.ClearFailure(unitCtx, unit.Slug, opts.StageName); err != nil {
		logger.Debug("failed to clear failure", logging.Error(err))
	}

	if reason, skipped := unit.Skipped(); skipped {
		logger.Info("unit skipped",
			logging.String(logging.FieldEventType, "unit_skipped"),
			logging.String("reason", reason),
		)
		t.add(0, 1, 0)
		return
	}
	logger.Info("unit completed",
		logging.String(logging.FieldEventType, "unit_complete"),
		logging.Duration("elapsed", elapsed),
		logging.Any("artifacts", unit.Artifacts),
	)
	t.add(1, 0, 0)
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, unit *stage.Unit, unitErr error, elapsed time.Duration) {
	details := services.Details(unitErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = "unit failed"
	}

	logging.ErrorWithContext(logger, "unit failed", "unit_failed",
		logging.String("error_message", message),
		logging.String(logging.FieldErrorCategory, string(details.Category)),
		logging.String(logging.FieldErrorHint, unitHint(details.Category)),
		logging.Duration("elapsed", elapsed),
		logging.Error(unitErr),
	)
	if err := opts.Store.RecordFailure(context.WithoutCancel(ctx), unit.Slug, opts.StageName, message); err != nil {
		logger.Error("failed to persist unit failure", logging.Error(err))
	}
	notify(ctx, logger, opts.Notifier, notifications.EventStageFailed, notifications.Payload{
		"stage": opts.StageName,
		"slug":  unit.Slug,
		"error": message,
	})
}

func notify(ctx context.Context, logger *slog.Logger, notifier notifications.Service, event notifications.Event, payload notifications.Payload) {
	if notifier == nil {
		return
	}
	if err := notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func prepareHint(category services.Category) string {
	switch category {
	case services.CategoryUpstream:
		return "run the upstream stage first or fix the upstream file"
	case services.CategoryConfiguration:
		return "fix the configuration and rerun; see `kielo doctor`"
	default:
		return "check logs for details"
	}
}

func unitHint(category services.Category) string {
	switch category {
	case services.CategoryExternalAPI:
		return "the provider rejected or failed the request; rerun later or check API keys"
	case services.CategoryExternalTool:
		return "inspect the tool output in the log and rerun the stage"
	case services.CategoryUpstream:
		return "regenerate the upstream artifact for this slug"
	case services.CategoryConfiguration:
		return "fix the configuration and rerun"
	default:
		return "check logs for details"
	}
}
