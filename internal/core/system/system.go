package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: swap + dispatch last frame's host events
	PhaseUpdate               // 1: companion movement, animation, sound
	PhasePersist              // 2: flush worn-ring changes
	PhaseCleanup              // 3: compact despawned companions
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseUpdate:
		return "update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
