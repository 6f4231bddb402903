package system

import (
	"time"

	"github.com/l1jgo/companions/internal/companion"
	coresys "github.com/l1jgo/companions/internal/core/system"
)

// CompanionSystem advances every live companion by one frame. Phase 1
// (Update), after MapSpawnSystem.
type CompanionSystem struct {
	reg   *companion.Registry
	world companion.World
}

func NewCompanionSystem(reg *companion.Registry, w companion.World) *CompanionSystem {
	return &CompanionSystem{reg: reg, world: w}
}

func (s *CompanionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CompanionSystem) Update(dt time.Duration) {
	s.reg.Tick(dt, s.world)
}
