package companion

import (
	"math"
	"time"
)

// Behavior argument defaults, used when a profile omits the argument.
const (
	defaultDashMultiplier = 1.0
	defaultDashGapMs      = 5000.0

	defaultHoverGravity = -0.5
	hoverLaunchVelocity = 5.0

	defaultJumpGravity = -0.5
	defaultJumpScale   = 10.0
	defaultJumpBoost   = 2.0
	jumpMinVelocity    = 50
	jumpMaxVelocity    = 70

	defaultSquareWidth  = 2.0
	defaultSquareHeight = 2.0
)

// haltRoll is the Intn(5) outcome that means "stop" instead of a direction.
const haltRoll = 4

func (e *Entity) dispatch(elapsed time.Duration, w World) error {
	switch e.behavior {
	case BehaviorWander:
		if e.profile.Flying() {
			return e.wanderFly(elapsed, w)
		}
		return e.wanderWalk(w)
	case BehaviorHover:
		e.hover(w)
		return nil
	case BehaviorJumper:
		return e.jumper(elapsed, w)
	case BehaviorWalkSquare:
		return e.walkSquare(w)
	default:
		e.idle(w)
		return nil
	}
}

// rollDirection rolls for a random turn. Only the authoritative side rolls.
// A roll may pick a new facing (never straight back), or stop and start a
// halt. Ground companions will not turn into an obstacle.
func (e *Entity) rollDirection(w World) error {
	if !w.Authoritative() || e.halted() {
		return nil
	}
	p := e.profile
	chance := p.DirectionChangeWhileIdle
	if e.st.moving {
		chance = p.DirectionChangeWhileMoving
	}
	if e.rng.Float64() >= chance {
		return nil
	}

	roll := e.rng.Intn(5)
	if roll == haltRoll {
		if e.rng.Float64() < p.ChanceForHalting {
			e.halt()
			e.startPause()
		}
		return nil
	}
	d := Direction(roll)
	if e.st.moving && d == e.st.facing.Opposite() {
		return nil
	}
	if probe := e.probe(w); probe != nil {
		blocked, err := probe(e.nextBounds(d))
		if err != nil {
			return err
		}
		if blocked {
			return nil
		}
	}
	e.faceAndMove(d)
	return nil
}

func (e *Entity) wanderWalk(w World) error {
	if err := e.rollDirection(w); err != nil {
		return err
	}
	return e.moveViaSpeed(w, true)
}

// wanderFly drifts on the motion vector and periodically dashes: the
// multiplier jumps to arg 0 and relaxes back to 1, with the next dash at
// least arg 1 milliseconds away.
func (e *Entity) wanderFly(elapsed time.Duration, w World) error {
	if err := e.rollDirection(w); err != nil {
		return err
	}
	if e.st.dash == 0 {
		p := e.profile
		e.st.multiplier = p.Arg(0, defaultDashMultiplier)
		gap := int(p.Arg(1, defaultDashGapMs))
		e.st.dash = time.Duration(between(e.rng, gap, gap*2)) * time.Millisecond
	}
	return e.moveViaMotion(elapsed, w, false)
}

// hover bobs in place; arg 0 is gravity.
func (e *Entity) hover(w World) {
	e.st.jump.step()
	if e.st.jump.grounded() {
		e.st.jump.launch(hoverLaunchVelocity, gravityArg(e.profile, 0, defaultHoverGravity))
	}
	e.teleportIfFar(w)
}

// jumper hops while moving on the motion vector. Arguments: gravity, velocity
// scale, boost multiplier.
func (e *Entity) jumper(elapsed time.Duration, w World) error {
	if err := e.rollDirection(w); err != nil {
		return err
	}
	e.st.jump.step()
	if e.st.jump.grounded() {
		p := e.profile
		scale := p.Arg(1, defaultJumpScale)
		if scale <= 0 {
			scale = defaultJumpScale
		}
		v := float64(between(e.rng, jumpMinVelocity, jumpMaxVelocity)) / scale
		if e.rng.Float64() < JumpBoostChance {
			v *= p.Arg(2, defaultJumpBoost)
		}
		e.st.jump.launch(v, gravityArg(p, 0, defaultJumpGravity))
	}
	return e.moveViaMotion(elapsed, w, true)
}

// walkSquare patrols a width x height tile rectangle clockwise. The corner
// anchor moves every time the companion turns.
func (e *Entity) walkSquare(w World) error {
	if !e.st.anchored {
		e.resetAnchor()
		if !e.st.moving {
			e.faceAndMove(e.st.facing)
		}
	}
	if err := e.moveViaSpeed(w, false); err != nil {
		return err
	}

	side := e.profile.Arg(1, defaultSquareHeight)
	if e.st.facing.Horizontal() {
		side = e.profile.Arg(0, defaultSquareWidth)
	}
	if side < 1 {
		side = 1
	}
	origin := e.st.anchor.Origin()
	travelled := math.Abs(e.st.pos.Y() - origin.Y())
	if e.st.facing.Horizontal() {
		travelled = math.Abs(e.st.pos.X() - origin.X())
	}
	if travelled >= side*TileSize {
		e.faceAndMove(e.st.facing.Clockwise())
		e.resetAnchor()
	}
	return nil
}

// idle holds position and facing; it only keeps up with a teleporting owner.
func (e *Entity) idle(w World) {
	e.st.moving = false
	e.teleportIfFar(w)
}

// gravityArg reads a gravity argument, forcing it negative so arcs land.
func gravityArg(p *Profile, i int, def float64) float64 {
	g := -math.Abs(p.Arg(i, def))
	if g == 0 {
		return def
	}
	return g
}
