package companion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Tuned movement constants.
const (
	// ReverseChance is the chance a blocked companion turns around.
	ReverseChance = 0.6
	// MomentumKeepChance is the chance a reversing flyer keeps half its speed.
	MomentumKeepChance = 0.5
	// JumpBoostChance is the chance a jumper's launch gets the boost multiplier.
	JumpBoostChance = 0.01
)

const (
	motionStep      = 0.1    // per-frame acceleration of motion-vector movers
	motionLimit     = 1.0    // per-axis cap on the motion vector
	dashDecayPerMs  = 0.0005 // multiplier relaxation per elapsed millisecond
	catchUpDistance = 2 * TileSize
	soundRadius     = 10 // tiles; map companions are silent beyond this
)

// Probe reports whether a candidate box is blocked. A nil Probe ignores
// collisions entirely.
type Probe func(Rect) (bool, error)

// StepResult is the outcome of one collision-resolved move.
type StepResult struct {
	Pos      mgl64.Vec2
	BlockedX bool
	BlockedY bool
}

// Step moves a companion standing at pos by delta. X is probed and committed
// first, then Y from the resulting position, so a diagonal move into a corner
// still slides along the free axis. A nil probe commits delta unchecked.
func Step(pos, delta mgl64.Vec2, probe Probe) (StepResult, error) {
	res := StepResult{Pos: pos}
	if probe == nil {
		res.Pos = pos.Add(delta)
		return res, nil
	}
	if dx := delta.X(); dx != 0 {
		blocked, err := probe(BoundsAt(res.Pos).Translate(mgl64.Vec2{dx, 0}))
		if err != nil {
			return StepResult{Pos: pos}, err
		}
		if blocked {
			res.BlockedX = true
		} else {
			res.Pos[0] += dx
		}
	}
	if dy := delta.Y(); dy != 0 {
		blocked, err := probe(BoundsAt(res.Pos).Translate(mgl64.Vec2{0, dy}))
		if err != nil {
			return StepResult{Pos: pos}, err
		}
		if blocked {
			res.BlockedY = true
		} else {
			res.Pos[1] += dy
		}
	}
	return res, nil
}

// probe returns the collision query for this companion, or nil when flying.
// Ground companions are blocked by the host's collision layer, by NPC barrier
// tiles and, when farmer collision is enabled, by agents.
func (e *Entity) probe(w World) Probe {
	if e.profile.Flying() {
		return nil
	}
	loc := e.location
	withAgents := e.profile.EnableFarmerCollision
	return func(box Rect) (bool, error) {
		blocked, err := w.Probe(box, loc, false)
		if err != nil || blocked {
			return blocked, err
		}
		if withAgents && w.AgentIntersects(loc, box) {
			return true, nil
		}
		t := box.Tile()
		return w.TileHasBarrier(loc, t.X, t.Y), nil
	}
}

func (e *Entity) bounds() Rect { return BoundsAt(e.st.pos) }

func (e *Entity) nextBounds(d Direction) Rect {
	return e.bounds().Translate(d.Vector().Mul(e.st.speed))
}

func (e *Entity) nextTile() Tile {
	return TileAt(e.st.pos.Add(e.st.facing.Vector().Mul(e.st.speed)))
}

func (e *Entity) faceAndMove(d Direction) {
	e.st.facing = d
	e.st.moving = true
}

// halted reports an active pause. Flying companions cannot halt.
func (e *Entity) halted() bool {
	return e.st.pause > 0 && !e.profile.Flying()
}

func (e *Entity) halt() {
	if e.profile.Flying() {
		return
	}
	e.st.moving = false
	e.st.speed = e.profile.TravelSpeed
}

// startPause draws a halt duration in [MinHaltTime, MaxHaltTime].
func (e *Entity) startPause() {
	lo := e.profile.MinHaltTime.Milliseconds()
	hi := e.profile.MaxHaltTime.Milliseconds()
	ms := lo
	if hi > lo {
		ms = lo + int64(e.rng.Intn(int(hi-lo+1)))
	}
	e.st.pause = time.Duration(ms) * time.Millisecond
}

func (e *Entity) resetAnchor() {
	e.st.anchor = TileAt(e.st.pos)
	e.st.anchored = true
}

// target is the point the companion is leashed to: its owner for agent
// bindings, its anchor tile for map bindings.
func (e *Entity) target(w World) (mgl64.Vec2, bool) {
	if e.binding.Kind == BindMap {
		return e.binding.Tile.Origin(), true
	}
	pos, loc, ok := w.AgentPosition(e.binding.AgentID)
	if !ok || loc != e.location {
		return mgl64.Vec2{}, false
	}
	return pos, true
}

func teleportEnabled(p *Profile, dist float64) bool {
	return p.MaxDistanceBeforeTeleport != Disabled && dist > p.MaxDistanceBeforeTeleport
}

func idleExceeded(p *Profile, dist float64) bool {
	return p.MaxIdleDistance != Disabled && dist > p.MaxIdleDistance
}

// teleportIfFar snaps the companion onto its target when it has fallen
// further behind than MaxDistanceBeforeTeleport.
func (e *Entity) teleportIfFar(w World) bool {
	t, ok := e.target(w)
	if !ok {
		return false
	}
	if teleportEnabled(e.profile, e.st.pos.Sub(t).Len()) {
		e.st.pos = t
		return true
	}
	return false
}

// refreshSpeed resets speed to the profile's travel speed, plus a catch-up
// bonus for followers that have fallen more than two tiles behind.
func (e *Entity) refreshSpeed(w World) {
	e.st.speed = e.profile.TravelSpeed
	if e.binding.Kind != BindAgent {
		return
	}
	if t, ok := e.target(w); ok {
		if dist := e.st.pos.Sub(t).Len(); dist > catchUpDistance {
			e.st.speed += float64(int(dist/TileSize) - 1)
		}
	}
}

// collided applies the shared reaction to a blocked move: maybe halt, and for
// square patrols rotate unless an agent is in the way. It reports whether a
// halt started so callers can skip their own reversal roll.
func (e *Entity) collided(w World, next Rect) (halted bool) {
	if e.rng.Float64() < e.profile.ChanceForHalting {
		e.startPause()
		halted = true
	}
	if e.behavior == BehaviorWalkSquare {
		if !w.AgentIntersects(e.location, next) {
			e.faceAndMove(e.st.facing.Clockwise())
			e.resetAnchor()
		}
	}
	return halted
}

// moveViaSpeed advances a ground walker by speed units along its facing.
// leash enables the MaxIdleDistance pull toward the target.
func (e *Entity) moveViaSpeed(w World, leash bool) error {
	if e.halted() {
		return nil
	}
	e.refreshSpeed(w)

	if !w.IsTileOnMap(e.location, e.nextTile()) {
		e.faceAndMove(e.st.facing.Opposite())
		return nil
	}

	if e.st.moving {
		d := e.st.facing
		res, err := Step(e.st.pos, d.Vector().Mul(e.st.speed), e.probe(w))
		if err != nil {
			return err
		}
		if res.BlockedX || res.BlockedY {
			halted := e.collided(w, e.nextBounds(d))
			if !halted && e.behavior != BehaviorWalkSquare && e.rng.Float64() < ReverseChance {
				e.faceAndMove(d.Opposite())
			}
		} else {
			e.st.pos = res.Pos
		}
	}

	t, ok := e.target(w)
	if !ok {
		return nil
	}
	dist := e.st.pos.Sub(t).Len()
	switch {
	case teleportEnabled(e.profile, dist):
		e.st.pos = t
	case leash && idleExceeded(e.profile, dist):
		e.faceAndMove(DirectionToward(e.st.pos, t))
		if e.rng.Float64() < e.profile.ChanceForHalting {
			e.startPause()
		}
	}
	return nil
}

// moveViaMotion accelerates the motion vector along the facing and integrates
// it, scaled by the dash multiplier and travel speed. With collide set the
// move is probed per axis; otherwise the companion drifts freely.
func (e *Entity) moveViaMotion(elapsed time.Duration, w World, collide bool) error {
	if e.halted() {
		return nil
	}
	e.st.speed = e.profile.TravelSpeed

	var probe Probe
	if collide {
		probe = e.probe(w)
	}

	if e.st.moving {
		d := e.st.facing
		next := e.nextBounds(d)
		blocked := false
		if probe != nil {
			var err error
			if blocked, err = probe(next); err != nil {
				return err
			}
		}
		if !blocked {
			e.st.motion = e.st.motion.Add(d.Vector().Mul(motionStep))
			e.faceAndMove(d)
		} else {
			e.bounce(w, next, d)
		}
	}
	e.st.motion = clampMotion(e.st.motion)

	stepProbe := probe
	t, hasTarget := e.target(w)
	dist := 0.0
	if hasTarget {
		dist = e.st.pos.Sub(t).Len()
	}
	switch {
	case hasTarget && teleportEnabled(e.profile, dist):
		e.st.pos = t
	case hasTarget && idleExceeded(e.profile, dist):
		e.faceAndMove(DirectionToward(e.st.pos, t))
		if collide {
			e.st.motion = mgl64.Vec2{}
		}
	case !w.IsTileOnMap(e.location, e.nextTile()):
		e.zeroAxis(e.st.facing)
		e.faceAndMove(e.st.facing.Opposite())
	case probe != nil:
		stuck, err := probe(e.bounds())
		if err != nil {
			return err
		}
		if stuck {
			// Already overlapping something: head home and move unchecked
			// until clear.
			if hasTarget {
				e.faceAndMove(DirectionToward(e.st.pos, t))
			}
			e.st.motion = mgl64.Vec2{}
			stepProbe = nil
		}
	}

	delta := e.st.motion.Mul(e.st.multiplier * e.profile.TravelSpeed)
	res, err := Step(e.st.pos, delta, stepProbe)
	if err != nil {
		return err
	}
	e.st.pos = res.Pos
	if res.BlockedX {
		e.st.motion[0] = 0
	}
	if res.BlockedY {
		e.st.motion[1] = 0
	}

	e.st.multiplier -= dashDecayPerMs * float64(elapsed.Milliseconds())
	if e.st.multiplier < 1 {
		e.st.multiplier = 1
	}
	return nil
}

// bounce reacts to a blocked motion-vector move along d: the blocked axis
// stops, and unless the companion halted it may turn around keeping half of
// its previous speed.
func (e *Entity) bounce(w World, next Rect, d Direction) {
	axis := 1
	if d.Horizontal() {
		axis = 0
	}
	old := e.st.motion[axis]
	e.st.motion[axis] = 0
	if e.collided(w, next) || e.behavior == BehaviorWalkSquare {
		return
	}
	if e.rng.Float64() < ReverseChance {
		opp := d.Opposite()
		e.faceAndMove(opp)
		if e.rng.Float64() < MomentumKeepChance {
			e.st.motion[axis] = math.Abs(old/2) * opp.Vector()[axis]
		}
	}
}

func (e *Entity) zeroAxis(d Direction) {
	if d.Horizontal() {
		e.st.motion[0] = 0
	} else {
		e.st.motion[1] = 0
	}
}

func clampMotion(m mgl64.Vec2) mgl64.Vec2 {
	for i := range m {
		if m[i] < -motionLimit {
			m[i] = -motionLimit
		}
		if m[i] > motionLimit {
			m[i] = motionLimit
		}
	}
	return m
}
