package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/companions/internal/core/system"
	"github.com/l1jgo/companions/internal/ring"
	"go.uber.org/zap"
)

// PersistenceSystem periodically writes worn-ring changes to the store.
// Phase 2 (Persist).
type PersistenceSystem struct {
	rings     *ring.Manager
	store     ring.Store
	log       *zap.Logger
	tickCount int
	interval  int // flush every N frames
}

func NewPersistenceSystem(rings *ring.Manager, store ring.Store, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		rings:    rings,
		store:    store,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush saves pending changes now. Called for graceful shutdown as well.
// A failed save keeps the changes for the next attempt.
func (s *PersistenceSystem) Flush() {
	if !s.rings.Dirty() {
		return
	}
	changed, removed := s.rings.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveWornRings(ctx, changed, removed); err != nil {
		s.rings.Requeue(changed, removed)
		s.log.Error("worn ring save failed", zap.Error(err))
		return
	}
	s.log.Debug("worn rings saved",
		zap.Int("changed", len(changed)),
		zap.Int("removed", len(removed)),
	)
}
