package companion

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Behavior selects the per-frame routine a companion runs. It is fixed when
// the companion spawns.
type Behavior int

const (
	BehaviorNone Behavior = iota
	BehaviorWander
	BehaviorHover
	BehaviorJumper
	BehaviorWalkSquare
)

func (b Behavior) String() string {
	switch b {
	case BehaviorWander:
		return "wander"
	case BehaviorHover:
		return "hover"
	case BehaviorJumper:
		return "jumper"
	case BehaviorWalkSquare:
		return "walk_square"
	}
	return "none"
}

// Locomotion is the movement class. Flying companions skip every collision,
// barrier and building-layer check.
type Locomotion int

const (
	Ground Locomotion = iota
	Flying
)

func (l Locomotion) String() string {
	if l == Flying {
		return "flying"
	}
	return "ground"
}

// Disabled turns off MaxIdleDistance or MaxDistanceBeforeTeleport.
const Disabled = -1.0

// Defaults applied by content loaders when a field is omitted.
const (
	DefaultMaxIdleDistance           = 2 * TileSize
	DefaultMaxDistanceBeforeTeleport = 10 * TileSize
)

// Animation is a run of sprite frames.
type Animation struct {
	StartFrame int
	FrameCount int
	Duration   time.Duration // per frame
}

// AnimationSet is the moving animation for one facing plus its optional idle
// variant.
type AnimationSet struct {
	Animation
	Idle *Animation
}

// idle returns the idle variant, falling back to the moving animation.
func (s *AnimationSet) idle() Animation {
	if s.Idle != nil {
		return *s.Idle
	}
	return s.Animation
}

// SoundWhen is the condition under which a sound trigger may fire.
type SoundWhen int

const (
	SoundIdle SoundWhen = iota
	SoundMoving
	SoundAlways
	soundKinds
)

func (w SoundWhen) String() string {
	switch w {
	case SoundIdle:
		return "idle"
	case SoundMoving:
		return "moving"
	case SoundAlways:
		return "always"
	}
	return "invalid"
}

// SoundTrigger plays SoundID with probability Chance each time its cooldown
// of Interval runs out while the When condition holds.
type SoundTrigger struct {
	When     SoundWhen
	SoundID  string
	Interval time.Duration
	Chance   float64
}

// Light describes an emitted light that follows the companion.
type Light struct {
	Color         [4]uint8
	Radius        float64
	Offset        mgl64.Vec2
	PulseInterval float64       // radius swing of one pulse
	PulseSpeed    time.Duration // pulse period, 0 = steady
}

// ProfileKey names a profile uniquely: a name within its owning pack.
type ProfileKey struct {
	Owner string
	Name  string
}

func (k ProfileKey) String() string {
	if k.Owner == "" {
		return k.Name
	}
	return k.Owner + "/" + k.Name
}

// Profile is the content-defined template for one companion type. A profile
// handed to the Registry is copied and never mutated afterwards; entities
// share the registered copy.
type Profile struct {
	Name  string
	Owner string

	Behavior     Behavior
	BehaviorArgs []float64
	Locomotion   Locomotion
	TravelSpeed  float64

	Up, Right, Down, Left *AnimationSet
	Uniform               *AnimationSet

	Sounds []SoundTrigger
	Light  *Light

	DirectionChangeWhileMoving float64
	DirectionChangeWhileIdle   float64
	ChanceForHalting           float64
	MinHaltTime                time.Duration
	MaxHaltTime                time.Duration
	MaxIdleDistance            float64
	MaxDistanceBeforeTeleport  float64
	EnableFarmerCollision      bool
}

func (p *Profile) Key() ProfileKey { return ProfileKey{Owner: p.Owner, Name: p.Name} }

func (p *Profile) Flying() bool { return p.Locomotion == Flying }

// HasFullMovementSet reports whether all four directional sets are present.
func (p *Profile) HasFullMovementSet() bool {
	return p.Up != nil && p.Right != nil && p.Down != nil && p.Left != nil
}

func (p *Profile) animationSet(d Direction) *AnimationSet {
	switch d {
	case Up:
		return p.Up
	case Right:
		return p.Right
	case Down:
		return p.Down
	case Left:
		return p.Left
	}
	return nil
}

// Arg returns behavior argument i, or def when the profile omits it.
func (p *Profile) Arg(i int, def float64) float64 {
	if i < len(p.BehaviorArgs) {
		return p.BehaviorArgs[i]
	}
	return def
}

// Normalize returns a copy of p with MinHaltTime clamped to MaxHaltTime and
// its slices and animation sets detached from the caller's memory.
func (p Profile) Normalize() Profile {
	if p.MinHaltTime > p.MaxHaltTime {
		p.MinHaltTime = p.MaxHaltTime
	}
	p.BehaviorArgs = append([]float64(nil), p.BehaviorArgs...)
	p.Sounds = append([]SoundTrigger(nil), p.Sounds...)
	p.Up = cloneSet(p.Up)
	p.Right = cloneSet(p.Right)
	p.Down = cloneSet(p.Down)
	p.Left = cloneSet(p.Left)
	p.Uniform = cloneSet(p.Uniform)
	if p.Light != nil {
		l := *p.Light
		p.Light = &l
	}
	return p
}

func cloneSet(s *AnimationSet) *AnimationSet {
	if s == nil {
		return nil
	}
	c := *s
	if s.Idle != nil {
		idle := *s.Idle
		c.Idle = &idle
	}
	return &c
}

// SoundValidator answers whether a sound id exists in the host's sound bank.
type SoundValidator interface {
	IsValid(soundID string) bool
}

// Prepare normalizes p and checks it against the load-time invariants.
// A fatal problem is returned as a *LoadError and the profile must not be
// registered. Recoverable problems (unknown or duplicate sound triggers) drop
// the offending trigger and are returned as warnings. sounds may be nil, in
// which case sound ids are not checked.
func Prepare(p Profile, sounds SoundValidator) (*Profile, []error, error) {
	q := p.Normalize()
	key := q.Key()
	if q.Name == "" {
		return nil, nil, &LoadError{Key: key, Err: fmt.Errorf("missing name")}
	}
	if !q.HasFullMovementSet() && q.Uniform == nil {
		return nil, nil, &LoadError{Key: key, Err: ErrNoAnimation}
	}

	var warnings []error
	var seen [soundKinds]bool
	kept := q.Sounds[:0]
	for _, s := range q.Sounds {
		if s.When < 0 || s.When >= soundKinds {
			warnings = append(warnings, &LoadError{Key: key, Err: fmt.Errorf("sound %q: unknown trigger kind %d", s.SoundID, s.When)})
			continue
		}
		if seen[s.When] {
			warnings = append(warnings, &LoadError{Key: key, Err: fmt.Errorf("%w %s (%q)", ErrDuplicateTrigger, s.When, s.SoundID)})
			continue
		}
		if sounds != nil && !sounds.IsValid(s.SoundID) {
			warnings = append(warnings, &LoadError{Key: key, Err: fmt.Errorf("%w: %q", ErrInvalidSound, s.SoundID)})
			continue
		}
		seen[s.When] = true
		kept = append(kept, s)
	}
	q.Sounds = kept
	return &q, warnings, nil
}
