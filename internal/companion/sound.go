package companion

import (
	"fmt"
	"time"
)

// soundTimer is the cooldown of one trigger. There is at most one trigger per
// SoundWhen, so timers live in a fixed array indexed by it.
type soundTimer struct {
	trigger   SoundTrigger
	remaining time.Duration
	enabled   bool
}

func (t *soundTimer) tick(elapsed time.Duration) {
	if t.enabled {
		t.remaining = countdown(t.remaining, elapsed)
	}
}

func (t *soundTimer) qualifies(moving bool) bool {
	switch t.trigger.When {
	case SoundIdle:
		return !moving
	case SoundMoving:
		return moving
	}
	return true
}

// armSounds builds the timers for the entity's profile. Fresh timers start a
// full interval away. When prev is given, triggers that already existed keep
// their remaining cooldown.
func (e *Entity) armSounds(prev *[soundKinds]soundTimer) {
	var next [soundKinds]soundTimer
	for _, s := range e.profile.Sounds {
		t := soundTimer{trigger: s, remaining: s.Interval, enabled: true}
		if prev != nil && prev[s.When].enabled {
			t.remaining = prev[s.When].remaining
		}
		next[s.When] = t
	}
	e.st.sounds = next
}

// SoundCooldown returns the remaining cooldown of the trigger for when.
func (e *Entity) SoundCooldown(when SoundWhen) (time.Duration, bool) {
	if when < 0 || when >= soundKinds || !e.st.sounds[when].enabled {
		return 0, false
	}
	return e.st.sounds[when].remaining, true
}

// playSounds fires every qualifying trigger whose cooldown has run out. Map
// companions stay silent unless an agent is close by. The first playback
// error is returned after all triggers were considered.
func (e *Entity) playSounds(w World) error {
	if e.binding.Kind == BindMap && !w.AgentWithin(e.location, e.Tile(), soundRadius) {
		return nil
	}
	moving := e.IsMoving()
	var firstErr error
	for i := range e.st.sounds {
		t := &e.st.sounds[i]
		if !t.enabled || t.remaining > 0 || !t.qualifies(moving) {
			continue
		}
		t.remaining = t.trigger.Interval
		if e.rng.Float64() >= t.trigger.Chance {
			continue
		}
		if err := w.Play(t.trigger.SoundID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("play sound %q: %w", t.trigger.SoundID, err)
		}
	}
	return firstErr
}
