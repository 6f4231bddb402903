package system

import (
	"time"

	"github.com/l1jgo/companions/internal/companion"
	coresys "github.com/l1jgo/companions/internal/core/system"
)

// CleanupSystem compacts despawned companions out of the registry at frame
// end. Phase 3 (Cleanup).
type CleanupSystem struct {
	reg *companion.Registry
}

func NewCleanupSystem(reg *companion.Registry) *CleanupSystem {
	return &CleanupSystem{reg: reg}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.reg.Flush()
}
