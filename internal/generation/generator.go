package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/domain/pattern"
	"github.com/petaltask/recur/internal/store"
	"github.com/petaltask/recur/internal/task"
)

// MinFutureInstances is the coverage floor below which a definition is
// regenerated from scratch instead of topped up.
const MinFutureInstances = 5

// Config holds the generation bounds.
type Config struct {
	// Limits are the complexity-derived generation caps.
	Limits pattern.Limits

	// HorizonYears is how far into the future instances may ever be
	// generated, regardless of the spec's configuration.
	HorizonYears int
}

// DefaultConfig returns a Config with the standard bounds.
func DefaultConfig() Config {
	return Config{
		Limits:       pattern.DefaultLimits(),
		HorizonYears: 5,
	}
}

// Generator processes generation work items. It implements task.Processor.
type Generator struct {
	storage   store.TaskStorage
	instances *store.InstanceStore
	config    Config
	logger    *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

var _ task.Processor = (*Generator)(nil)

// NewGenerator creates a Generator over the given storage and instance
// store.
func NewGenerator(storage store.TaskStorage, instances *store.InstanceStore, config Config, logger *slog.Logger) *Generator {
	if config.HorizonYears <= 0 {
		config.HorizonYears = DefaultConfig().HorizonYears
	}
	if config.Limits.DefaultCap <= 0 {
		config.Limits = pattern.DefaultLimits()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		storage:   storage,
		instances: instances,
		config:    config,
		logger:    logger.With(slog.String("component", "generator")),
		now:       time.Now,
	}
}

// SetClock overrides the generator's notion of now. Intended for tests.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Process implements task.Processor. It loads the definition, skips it if
// paused, and either regenerates all instances or tops up the missing
// future ones. A failure is returned for the runner to log and record; it
// never propagates to the enqueuer.
func (g *Generator) Process(ctx context.Context, item task.WorkItem) error {
	def, err := g.storage.LoadDefinition(ctx, item.DefinitionID)
	if err != nil {
		return newGenerationError(item.DefinitionID, "load", err)
	}

	if def.IsPaused {
		g.logger.Debug("skipping paused definition",
			slog.String("definition_id", def.ID.String()))
		return nil
	}

	today := domain.DateOnly(g.now())
	horizon := today.AddDate(g.config.HorizonYears, 0, 0)
	safeCap := pattern.SafeCap(&def.Spec, 0, g.config.Limits)

	existing := g.instances.List(def.ID)
	future := 0
	for _, inst := range existing {
		if !inst.OccurrenceDate.Before(today) {
			future++
		}
	}

	score := pattern.Score(&def.Spec)
	regenerate := item.ForceRegenerate ||
		len(existing) == 0 ||
		score >= g.config.Limits.Threshold ||
		future < MinFutureInstances

	log := g.logger.With(
		slog.String("definition_id", def.ID.String()),
		slog.Int("complexity_score", score),
		slog.Int("safe_cap", safeCap))

	if regenerate {
		return g.regenerateAll(ctx, def, today, horizon, safeCap, log)
	}
	return g.topUp(ctx, def, existing, today, horizon, safeCap, log)
}

// regenerateAll deletes every generated instance and recomputes the
// sequence from the spec's start date, bounded by the safe cap. The origin
// date itself and dates already in the past are skipped.
func (g *Generator) regenerateAll(
	ctx context.Context,
	def *domain.RecurringDefinition,
	today, horizon time.Time,
	safeCap int,
	log *slog.Logger,
) error {
	removed := g.instances.DeleteGenerated(def.ID)
	if len(removed) > 0 {
		if err := g.storage.DeleteInstanceRecords(ctx, removed); err != nil {
			return newGenerationError(def.ID, "delete_generated", err)
		}
	}

	enum := pattern.NewEnumerator(&def.Spec, 0, horizon)
	created := 0
	for created < safeCap {
		occ, ok := enum.Next()
		if !ok {
			break
		}
		// Past dates are skipped, never retained; they do not consume
		// the generation budget.
		if occ.Date.Before(today) {
			continue
		}

		if err := g.createInstance(ctx, def, occ); err != nil {
			if errors.Is(err, store.ErrDuplicateOccurrence) {
				continue
			}
			return err
		}
		created++
	}

	log.Info("regenerated instances",
		slog.Int("deleted", len(removed)),
		slog.Int("created", created))
	return nil
}

// topUp enumerates forward from the latest existing instance's date and
// creates only the missing future dates, keeping the definition's total
// instance count within the safe cap.
func (g *Generator) topUp(
	ctx context.Context,
	def *domain.RecurringDefinition,
	existing []*domain.RecurringInstance,
	today, horizon time.Time,
	safeCap int,
	log *slog.Logger,
) error {
	latest := existing[len(existing)-1].OccurrenceDate

	// The cap bounds how many generated instances a definition holds.
	generated := 0
	for _, inst := range existing {
		if inst.IsGenerated {
			generated++
		}
	}

	enum := pattern.NewEnumerator(&def.Spec, 0, horizon)
	created := 0
	for generated < safeCap {
		occ, ok := enum.Next()
		if !ok {
			break
		}
		if occ.Date.Before(today) || !occ.Date.After(latest) {
			continue
		}
		// Top-up should never collide, but re-check before writing.
		if g.instances.FindByDate(def.ID, occ.Date) != nil {
			continue
		}

		if err := g.createInstance(ctx, def, occ); err != nil {
			if errors.Is(err, store.ErrDuplicateOccurrence) {
				continue
			}
			return err
		}
		created++
		generated++
	}

	if created > 0 {
		log.Info("topped up instances",
			slog.Int("created", created),
			slog.Int("generated", generated))
	}
	return nil
}

func (g *Generator) createInstance(ctx context.Context, def *domain.RecurringDefinition, occ pattern.Occurrence) error {
	inst := domain.NewInstance(def.ID, occ.Date, occ.Number)

	if err := g.instances.Upsert(inst, false); err != nil {
		return err
	}
	if err := g.storage.CreateInstanceRecord(ctx, inst); err != nil {
		return newGenerationError(def.ID, "create_record", err)
	}
	return nil
}
