package companion

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Entity is one live companion. It holds a shared read-only Profile, its
// binding and all mutable per-frame state. Entities are created and destroyed
// by the Registry and must only be touched from the frame loop goroutine.
type Entity struct {
	handle   Handle
	profile  *Profile
	behavior Behavior
	binding  Binding
	location string
	active   bool
	rng      Random

	st state
}

// state is everything Update may change. It is a plain value so a frame can
// be rolled back by assignment when a host call fails.
type state struct {
	pos        mgl64.Vec2
	facing     Direction
	moving     bool
	motion     mgl64.Vec2
	speed      float64
	pause      time.Duration
	multiplier float64
	dash       time.Duration
	jump       jump
	anchor     Tile
	anchored   bool
	sounds     [soundKinds]soundTimer
	lightPulse time.Duration
	anim       Animator
}

func newEntity(h Handle, p *Profile, b Binding, rng Random) *Entity {
	e := &Entity{
		handle:   h,
		profile:  p,
		behavior: p.Behavior,
		binding:  b,
		location: b.Location,
		active:   true,
		rng:      rng,
	}
	e.st.pos = b.Tile.Origin()
	e.st.facing = Down
	e.st.speed = p.TravelSpeed
	e.st.multiplier = 1
	e.armSounds(nil)
	if p.Light != nil {
		e.st.lightPulse = p.Light.PulseSpeed
	}
	return e
}

func (e *Entity) Handle() Handle       { return e.handle }
func (e *Entity) Profile() *Profile    { return e.profile }
func (e *Entity) Behavior() Behavior   { return e.behavior }
func (e *Entity) Binding() Binding     { return e.binding }
func (e *Entity) Location() string     { return e.location }
func (e *Entity) Active() bool         { return e.active }
func (e *Entity) Position() mgl64.Vec2 { return e.st.pos }
func (e *Entity) Facing() Direction    { return e.st.facing }
func (e *Entity) Motion() mgl64.Vec2   { return e.st.motion }
func (e *Entity) Tile() Tile           { return TileAt(e.st.pos) }

// JumpOffset is the current vertical draw offset; negative is up.
func (e *Entity) JumpOffset() float64 { return e.st.jump.offset }

// Frame is the sprite frame to draw this frame.
func (e *Entity) Frame() int { return e.st.anim.Frame() }

// Animation is the animation currently playing.
func (e *Entity) Animation() Animation { return e.st.anim.Current() }

// Paused reports an active halt.
func (e *Entity) Paused() bool { return e.halted() }

// IsMoving reports whether the companion counts as moving for animation and
// sound selection. Hovering companions never go idle.
func (e *Entity) IsMoving() bool {
	if e.behavior == BehaviorHover {
		return true
	}
	if e.halted() {
		return false
	}
	return e.st.moving
}

// Update advances the companion by one frame. Map-bound companions do nothing
// while world time is paused. When a host call fails or panics the frame is
// rolled back and the error returned; a failed sound playback is reported but
// keeps the frame.
func (e *Entity) Update(elapsed time.Duration, w World) (err error) {
	if !e.active {
		return nil
	}
	if e.binding.Kind == BindMap && w.Paused() {
		return nil
	}

	snapshot := e.st
	defer func() {
		if r := recover(); r != nil {
			e.st = snapshot
			err = fmt.Errorf("companion %s: frame panicked: %v", e.profile.Key(), r)
		}
	}()

	e.tickTimers(elapsed)
	if err := e.dispatch(elapsed, w); err != nil {
		e.st = snapshot
		return fmt.Errorf("companion %s: %w", e.profile.Key(), err)
	}
	e.st.anim.Play(e.selectAnimation(), elapsed)
	if err := e.playSounds(w); err != nil {
		return fmt.Errorf("companion %s: %w", e.profile.Key(), err)
	}
	return nil
}

func (e *Entity) tickTimers(elapsed time.Duration) {
	e.st.pause = countdown(e.st.pause, elapsed)
	e.st.dash = countdown(e.st.dash, elapsed)
	e.tickLight(elapsed)
	for i := range e.st.sounds {
		e.st.sounds[i].tick(elapsed)
	}
}

// applyProfile re-points the entity at an updated profile. Movement and
// collision settings take effect on the next frame; position, behavior kind
// and running timers are kept.
func (e *Entity) applyProfile(p *Profile) {
	prev := e.st.sounds
	e.profile = p
	e.st.speed = p.TravelSpeed
	e.armSounds(&prev)
}

// countdown subtracts elapsed from t without going below zero.
func countdown(t, elapsed time.Duration) time.Duration {
	if t <= elapsed {
		return 0
	}
	return t - elapsed
}
