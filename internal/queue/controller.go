// Package queue runs the render queue: a single event loop that promotes
// queued gallery items into renders, bounded by a concurrency ceiling.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/prompt"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

// Generator is the slice of the generation client the render pipeline needs.
type Generator interface {
	CorrectPortuguese(ctx context.Context, text string) string
	PrepareTechnicalPrompt(ctx context.Context, promptPt, negativePt string, settings studio.CreationSettings, refs []studio.ReferenceImage, override *prompt.Translation) (prompt.Compiled, error)
	GenerateImage(ctx context.Context, finalPromptEn string, refs []studio.ReferenceImage, aspectRatio studio.AspectRatio) (string, error)
}

// History receives one metadata entry per successful render.
type History interface {
	Append(entry studio.HistoryMetadata) error
}

// Observer receives queue lifecycle signals, typically for metrics.
type Observer interface {
	RenderStarted()
	RenderFinished(success bool)
	QueueDepth(n int)
}

// Options configures a Controller.
type Options struct {
	Session   *studio.Session
	Generator Generator
	History   History
	Logger    *slog.Logger

	// Ceiling is the maximum number of concurrent renders. Defaults to 1,
	// which also serializes provider quota usage.
	Ceiling int64

	// RenderTimeout bounds one full pipeline run. Zero means no limit.
	RenderTimeout time.Duration

	// Notify publishes a user-facing notice (e.g. render failure).
	Notify func(level, message string)

	Observer Observer
}

// Controller owns the promote/render loop. It never blocks a caller: every
// session mutation lands as a non-blocking wake signal and the loop drains
// eligibility on its own goroutine.
type Controller struct {
	session  *studio.Session
	gen      Generator
	history  History
	logger   *slog.Logger
	sem      *semaphore.Weighted
	wake     chan struct{}
	timeout  time.Duration
	notify   func(level, message string)
	observer Observer
}

// New creates a queue controller and subscribes it to session changes.
func New(opts Options) *Controller {
	ceiling := opts.Ceiling
	if ceiling <= 0 {
		ceiling = 1
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(string, string) {}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		session:  opts.Session,
		gen:      opts.Generator,
		history:  opts.History,
		logger:   logger,
		sem:      semaphore.NewWeighted(ceiling),
		wake:     make(chan struct{}, 1),
		timeout:  opts.RenderTimeout,
		notify:   notify,
		observer: opts.Observer,
	}
	c.session.Subscribe(c.Wake)
	return c
}

// Wake signals the loop that the session changed. Coalescing is fine: one
// pending signal triggers a full eligibility scan.
func (c *Controller) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Run drives the controller until the context is canceled. It scans once on
// entry so items reloaded from persistence start rendering immediately.
func (c *Controller) Run(ctx context.Context) error {
	c.scanAndPromote(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			c.scanAndPromote(ctx)
		}
	}
}

// scanAndPromote starts renders while capacity and eligible items exist.
// Redundant invocations are harmless: promotion is guarded by the item
// status and the active set, so an item is picked exactly once.
func (c *Controller) scanAndPromote(ctx context.Context) {
	if c.observer != nil {
		c.observer.QueueDepth(c.session.QueuedCount())
	}
	for {
		if !c.sem.TryAcquire(1) {
			return
		}
		item := c.session.PromoteNext()
		if item == nil {
			c.sem.Release(1)
			return
		}
		go func(item studio.GalleryItem) {
			defer c.sem.Release(1)
			defer c.Wake()
			c.renderJob(ctx, item)
		}(*item)
	}
}

// renderJob runs the full pipeline for one item: grammar correction,
// translation plus compilation, image synthesis, terminal write-back.
func (c *Controller) renderJob(ctx context.Context, item studio.GalleryItem) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	logger := c.logger.With("item_id", item.ID, "layout", item.Data.Layout)
	logger.Info("render started")
	if c.observer != nil {
		c.observer.RenderStarted()
	}

	promptPt := c.gen.CorrectPortuguese(ctx, item.Data.PromptPt)
	negativePt := c.gen.CorrectPortuguese(ctx, item.Data.NegativePt)

	settings := item.CreationSettings.Clone()
	settings.AspectRatio = item.AspectRatio
	settings.Rotation = item.Rotation
	settings.CopyTitle = item.Data.CopyTitle
	settings.CopySubtitle = item.Data.CopySubtitle
	settings.CopyOffer = item.Data.CopyOffer

	// A regenerated layer reuses the translation already paid for by its
	// source item instead of calling the provider again.
	var override *prompt.Translation
	if item.IsRegenerated && item.Data.PromptEn != "" {
		override = &prompt.Translation{
			PromptEn:   item.Data.PromptEn,
			NegativeEn: item.Data.NegativeEn,
		}
	}

	compiled, err := c.gen.PrepareTechnicalPrompt(ctx, promptPt, negativePt, settings, item.ReferenceImages, override)
	if err != nil {
		c.fail(logger, item, "preparar prompt técnico", err)
		return
	}

	imageURL, err := c.gen.GenerateImage(ctx, compiled.FinalPromptEn, item.ReferenceImages, item.AspectRatio)
	if err != nil {
		c.fail(logger, item, "gerar imagem", err)
		return
	}

	c.session.FinishRender(item.ID, &studio.RenderResult{
		ImageURL:      imageURL,
		PromptPt:      promptPt,
		NegativePt:    negativePt,
		PromptEn:      compiled.PromptEn,
		NegativeEn:    compiled.NegativeEn,
		FinalPromptEn: compiled.FinalPromptEn,
	})
	c.appendHistory(item, compiled.FinalPromptEn)

	if c.observer != nil {
		c.observer.RenderFinished(true)
	}
	logger.Info("render completed", "duration", time.Since(start))
}

// fail marks the item errored and surfaces a notice. The item stays in the
// gallery so the user can fix inputs and re-queue it.
func (c *Controller) fail(logger *slog.Logger, item studio.GalleryItem, stage string, err error) {
	logger.Error("render failed", "stage", stage, "err", err)
	c.session.FinishRender(item.ID, nil)
	c.notify("error", fmt.Sprintf("Falha ao %s (%s): %v", stage, item.Data.Layout, err))
	if c.observer != nil {
		c.observer.RenderFinished(false)
	}
}

// appendHistory records the metadata-only log entry for a finished render.
// Best effort: a history failure never fails the render.
func (c *Controller) appendHistory(item studio.GalleryItem, finalPromptEn string) {
	if c.history == nil {
		return
	}

	draft := c.session.Draft()
	settings := item.CreationSettings

	ambienceTitle := "Estúdio Padrão"
	if settings.AmbienceDescription != "" {
		ambienceTitle = "Ambiente Selecionado"
	}

	direction := string(settings.MarketingDirection)
	if direction == "" {
		direction = "Standard"
	}

	entry := studio.HistoryMetadata{
		ID:            uuid.NewString(),
		Date:          time.Now().UTC().Format(time.RFC3339),
		ProductName:   draft.ProductName,
		PresetUsed:    string(settings.Objective),
		AmbienceTitle: ambienceTitle,
		AspectRatio:   string(item.AspectRatio),
		PromptFinalEn: finalPromptEn,
		Tags:          []string{direction, string(settings.Objective)},
	}
	if err := c.history.Append(entry); err != nil {
		c.logger.Warn("history append failed", "err", err)
	}
}
