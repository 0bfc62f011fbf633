package memory

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/pkg/log"
)

// Maintenance runs consolidation sweeps on a cron schedule, off the reply
// path. A failing sweep is logged; the next cycle is unaffected.
type Maintenance struct {
	store    *Store
	repo     core.MemoryRepository
	schedule string
	cron     *cron.Cron
}

func NewMaintenance(store *Store, repo core.MemoryRepository, schedule string) *Maintenance {
	return &Maintenance{
		store:    store,
		repo:     repo,
		schedule: schedule,
	}
}

func (m *Maintenance) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	c := cron.New()
	_, err := c.AddFunc(m.schedule, func() {
		if err := m.sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("consolidation sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid consolidation schedule %q: %w", m.schedule, err)
	}

	logger.Info().Str("schedule", m.schedule).Msg("starting memory maintenance")
	m.cron = c
	c.Start()

	<-ctx.Done()
	return nil
}

func (m *Maintenance) Shutdown(ctx context.Context) error {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	return nil
}

func (m *Maintenance) sweep(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	pairs, err := m.repo.ActivePairs(ctx)
	if err != nil {
		return fmt.Errorf("list pairs: %w", err)
	}

	total := 0
	for _, p := range pairs {
		n, err := m.store.Consolidate(ctx, p.CompanionID, p.UserID)
		if err != nil {
			logger.Error().Err(err).
				Str("companion", p.CompanionID).
				Str("user", p.UserID).
				Msg("consolidation failed for pair")
			continue
		}
		total += n
	}

	if total > 0 {
		logger.Info().Int("deactivated", total).Msg("consolidated duplicate memories")
	}
	return nil
}
