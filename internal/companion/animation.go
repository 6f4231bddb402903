package companion

import "time"

// Animator steps through the frames of the current animation. Switching to a
// different animation restarts at its first frame.
type Animator struct {
	current Animation
	frame   int
	elapsed time.Duration
	started bool
}

// Play advances the animator by elapsed, switching to anim first if needed.
func (a *Animator) Play(anim Animation, elapsed time.Duration) {
	if !a.started || anim != a.current {
		a.current = anim
		a.frame = anim.StartFrame
		a.elapsed = 0
		a.started = true
		return
	}
	if anim.FrameCount <= 1 || anim.Duration <= 0 {
		return
	}
	a.elapsed += elapsed
	for a.elapsed >= anim.Duration {
		a.elapsed -= anim.Duration
		a.frame++
		if a.frame >= anim.StartFrame+anim.FrameCount {
			a.frame = anim.StartFrame
		}
	}
}

func (a *Animator) Frame() int         { return a.frame }
func (a *Animator) Current() Animation { return a.current }

// selectAnimation picks the animation for the current facing and moving
// state. Profiles without a full directional set always use the uniform set.
func (e *Entity) selectAnimation() Animation {
	p := e.profile
	set := p.Uniform
	if p.HasFullMovementSet() {
		set = p.animationSet(e.st.facing)
	}
	if set == nil {
		return Animation{}
	}
	if e.IsMoving() {
		return set.Animation
	}
	return set.idle()
}
