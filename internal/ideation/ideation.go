package ideation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/services/sheets"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
	"github.com/hoangt2/kielo-convo-generator/internal/textutil"
	"github.com/hoangt2/kielo-convo-generator/internal/voices"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "ideas"

// similarityThreshold marks a generated idea as a near duplicate of an
// existing registry entry.
const similarityThreshold = 0.85

// TitleRegistry stores previously generated ideas. Implemented by sheets.Client.
type TitleRegistry interface {
	Existing(ctx context.Context, sheet string) ([]sheets.Entry, error)
	AppendRows(ctx context.Context, sheet string, rows [][]any) error
}

// Handler generates one batch of ideas per run.
type Handler struct {
	cfg      *config.Config
	mode     content.Mode
	gen      textgen.Generator
	registry TitleRegistry
	pool     voices.Pool
	assigner *voices.Assigner
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Handler.
type Option func(*Handler)

// WithAssigner replaces the random voice assigner.
func WithAssigner(a *voices.Assigner) Option {
	return func(h *Handler) {
		if a != nil {
			h.assigner = a
		}
	}
}

// WithClock overrides the registry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler builds the idea stage. registry may be nil.
func NewHandler(cfg *config.Config, mode content.Mode, gen textgen.Generator, registry TitleRegistry, pool voices.Pool, opts ...Option) *Handler {
	h := &Handler{
		cfg:      cfg,
		mode:     mode,
		gen:      gen,
		registry: registry,
		pool:     pool,
		assigner: voices.NewAssigner(pool, nil),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether a generator is configured.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	if h.gen == nil {
		return stage.Unhealthy(StageName, "text generator not configured")
	}
	if h.mode == content.ModePodcast && len(h.pool.Podcast) == 0 {
		return stage.Unhealthy(StageName, "no podcast voices configured")
	}
	return stage.Healthy(StageName)
}

// Prepare generates, filters and saves the batch, then returns one unit per
// accepted idea.
func (h *Handler) Prepare(ctx context.Context) ([]*stage.Unit, error) {
	if h.gen == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageName, "prepare", "text generator not configured", nil)
	}
	forbidden := h.forbidden(ctx)
	count := h.mode.IdeaCount(h.cfg)

	h.logger.Info("generating ideas",
		logging.String(logging.FieldEventType, "ideas_request"),
		logging.Int("count", count),
		logging.Int("forbidden", len(forbidden)),
		logging.String("model", h.cfg.LLM.IdeasModel),
	)
	started := time.Now()
	set, err := h.generate(ctx, count, forbidden)
	if err != nil {
		return nil, err
	}
	generated := len(set.Ideas)
	set.Ideas = h.filter(set.Ideas, forbidden)
	for i := range set.Ideas {
		if unknown := h.assigner.Assign(h.mode, &set.Ideas[i]); len(unknown) > 0 {
			logging.WarnWithContext(h.logger, "character names outside podcast voice list", "voice_fallback",
				logging.String("title", set.Ideas[i].Title),
				logging.String("names", strings.Join(unknown, ", ")),
				logging.String(logging.FieldImpact, "a random podcast voice was assigned"),
				logging.String(logging.FieldErrorHint, "adjust the podcast voices file or rerun"),
			)
		}
	}

	path := h.mode.IdeasFile(h.cfg)
	if err := set.Save(path); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageName, "save ideas", fmt.Sprintf("cannot write %s", path), err)
	}
	h.logger.Info("ideas saved",
		logging.String(logging.FieldEventType, "ideas_saved"),
		logging.String("path", path),
		logging.Int("generated", generated),
		logging.Int("accepted", len(set.Ideas)),
		logging.Duration("elapsed", time.Since(started)),
	)
	h.register(ctx, set)

	units := make([]*stage.Unit, 0, len(set.Ideas))
	for i := range set.Ideas {
		idea := set.Ideas[i]
		unit := stage.NewUnit(h.mode, idea.Slug(), path)
		unit.Title = idea.Title
		unit.Idea = &idea
		units = append(units, unit)
	}
	return units, nil
}

// Execute records the ideas file against the unit's slug.
func (h *Handler) Execute(_ context.Context, unit *stage.Unit) error {
	unit.SetArtifact(manifest.ArtifactIdeas, unit.Source)
	return nil
}

func (h *Handler) generate(ctx context.Context, count int, forbidden []string) (content.IdeaSet, error) {
	req := textgen.Request{
		Operation: StageName,
		Model:     h.cfg.LLM.IdeasModel,
		Prompt:    userPrompt(h.mode, count, forbidden),
	}
	var (
		set content.IdeaSet
		raw string
		err error
	)
	if h.mode == content.ModePodcast {
		req.System = podcastSystemPrompt(h.pool)
		req.Schema = textgen.SchemaFor[podcastBatch]()
		var batch podcastBatch
		batch, raw, err = textgen.Generate[podcastBatch](ctx, h.gen, req)
		set = batch.set()
	} else {
		req.System = conversationSystemPrompt(h.pool)
		req.Schema = textgen.SchemaFor[conversationBatch]()
		var batch conversationBatch
		batch, raw, err = textgen.Generate[conversationBatch](ctx, h.gen, req)
		set = batch.set()
	}
	if err != nil {
		if raw != "" {
			return content.IdeaSet{}, services.Wrap(services.ErrValidation, StageName, "decode ideas", "idea generator returned malformed JSON", err)
		}
		return content.IdeaSet{}, services.Wrap(services.ErrExternalAPI, StageName, "generate ideas", "idea generation failed", err)
	}
	return set, nil
}

// filter drops ideas that are empty, under-populated, or duplicate a slug
// in the batch, an existing script, or a registry entry.
func (h *Handler) filter(ideas []content.Idea, forbidden []string) []content.Idea {
	seen := make(map[string]struct{}, len(ideas))
	scriptsDir := h.mode.ScriptsDir(h.cfg)
	minChars, maxChars := h.mode.MinCharacters(), h.mode.MaxCharacters()
	kept := make([]content.Idea, 0, len(ideas))
	for _, idea := range ideas {
		idea.Title = strings.TrimSpace(idea.Title)
		slug := idea.Slug()
		reason := ""
		switch {
		case idea.Title == "" || slug == "":
			reason = "missing title"
		case len(idea.Characters) < minChars:
			reason = fmt.Sprintf("needs at least %d characters, got %d", minChars, len(idea.Characters))
		case maxChars > 0 && len(idea.Characters) > maxChars:
			reason = fmt.Sprintf("allows at most %d characters, got %d", maxChars, len(idea.Characters))
		}
		if reason == "" {
			if _, dup := seen[slug]; dup {
				reason = "duplicate title in batch"
			} else if fileutil.Exists(filepath.Join(scriptsDir, slug+".json")) {
				reason = "script already exists"
			} else if match, score := textutil.MostSimilar(idea.Title+" "+idea.Summary(), forbidden); score >= similarityThreshold {
				reason = fmt.Sprintf("too similar to existing %q (%.2f)", match, score)
			}
		}
		if reason != "" {
			logging.WarnWithContext(h.logger, "idea dropped", "idea_dropped",
				logging.String("title", idea.Title),
				logging.String("reason", reason),
				logging.String(logging.FieldImpact, "the batch will contain fewer ideas"),
				logging.String(logging.FieldErrorHint, "rerun the ideas stage to generate more"),
			)
			continue
		}
		seen[slug] = struct{}{}
		kept = append(kept, idea)
	}
	return kept
}

func (h *Handler) forbidden(ctx context.Context) []string {
	if h.registry == nil {
		return nil
	}
	entries, err := h.registry.Existing(ctx, h.mode.SheetName(h.cfg))
	if err != nil {
		logging.WarnWithContext(h.logger, "could not fetch existing titles", "registry_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "duplicate check against the sheet is skipped"),
			logging.String(logging.FieldErrorHint, "check sheets credentials and spreadsheet id"),
		)
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s := e.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (h *Handler) register(ctx context.Context, set content.IdeaSet) {
	if h.registry == nil || len(set.Ideas) == 0 {
		return
	}
	sheet := h.mode.SheetName(h.cfg)
	if err := h.registry.AppendRows(ctx, sheet, Rows(set, h.now())); err != nil {
		logging.WarnWithContext(h.logger, "could not sync ideas to sheet", "registry_append_failed",
			logging.Error(err),
			logging.String("sheet", sheet),
			logging.String(logging.FieldImpact, "future batches may repeat these ideas"),
			logging.String(logging.FieldErrorHint, "run `kielo sheets sync` once the sheet is reachable"),
		)
		return
	}
	h.logger.Info("ideas synced to sheet",
		logging.String(logging.FieldEventType, "registry_append"),
		logging.String("sheet", sheet),
		logging.Int("rows", len(set.Ideas)),
	)
}
